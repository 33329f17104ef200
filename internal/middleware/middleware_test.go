package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndkhanh17/BE-Tacoli/internal/auth"
	"github.com/ndkhanh17/BE-Tacoli/internal/logger"
	"github.com/ndkhanh17/BE-Tacoli/internal/utils"
)

const testSecret = "test-secret"

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestLoggingMiddleware(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	handler := logger.RequestIDMiddleware(LoggingMiddleware(next))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "test-id-123")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "test-id-123", seen)
	assert.Equal(t, "test-id-123", w.Header().Get("X-Request-ID"))
}

func TestCors(t *testing.T) {
	handler := CORS("http://localhost:3000")(okHandler())

	t.Run("OPTIONS request", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/test", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("Normal request", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAuth(t *testing.T) {
	t.Run("Missing Token", func(t *testing.T) {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := utils.GetUserIDFromContext(r.Context())
			assert.False(t, ok, "Context should not contain user ID")
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest("GET", "/protected", nil)
		w := httptest.NewRecorder()

		Auth(testSecret)(next).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Invalid Token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer invalid-token")
		w := httptest.NewRecorder()

		Auth(testSecret)(http.NotFoundHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Valid Token", func(t *testing.T) {
		tokenString, err := auth.GenerateToken(testSecret, "user-1", "u@example.com", utils.RoleCustomer, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		w := httptest.NewRecorder()

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utils.GetUserIDFromContext(r.Context())
			assert.True(t, ok)
			assert.Equal(t, "user-1", userID)
			assert.Equal(t, utils.RoleCustomer, utils.GetUserRoleFromContext(r.Context()))
			w.WriteHeader(http.StatusOK)
		})

		Auth(testSecret)(next).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Expired Token", func(t *testing.T) {
		tokenString, err := auth.GenerateToken(testSecret, "user-1", "", utils.RoleCustomer, -time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		w := httptest.NewRecorder()

		Auth(testSecret)(http.NotFoundHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Malformed Header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Basic user:pass")
		w := httptest.NewRecorder()

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := utils.GetUserIDFromContext(r.Context())
			assert.False(t, ok)
			w.WriteHeader(http.StatusOK)
		})

		Auth(testSecret)(next).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(utils.RoleAdmin)(okHandler())

	tests := []struct {
		name string
		ctx  func(r *http.Request) *http.Request
		code int
	}{
		{"anonymous", func(r *http.Request) *http.Request { return r }, http.StatusUnauthorized},
		{"customer", func(r *http.Request) *http.Request {
			return r.WithContext(utils.SetUserContext(r.Context(), "u1", utils.RoleCustomer))
		}, http.StatusForbidden},
		{"admin", func(r *http.Request) *http.Request {
			return r.WithContext(utils.SetUserContext(r.Context(), "u1", utils.RoleAdmin))
		}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, tt.ctx(httptest.NewRequest("GET", "/admin", nil)))
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest("GET", "/x", nil)
	req = req.WithContext(utils.SetUserContext(req.Context(), "u1", utils.RoleCustomer))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter()
	handler := rl.Middleware(okHandler())

	codes := map[int]int{}
	for i := 0; i < burstStrict+3; i++ {
		req := httptest.NewRequest("POST", "/api/payments", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes[w.Code]++
	}

	assert.Equal(t, burstStrict, codes[http.StatusOK])
	assert.Equal(t, 3, codes[http.StatusTooManyRequests])

	// other tiers keep their own bucket
	req := httptest.NewRequest("GET", "/api/orders/track/ORD-1", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestResolveRateTier(t *testing.T) {
	_, _, tier := resolveRateTier(httptest.NewRequest("POST", "/api/orders", nil))
	assert.Equal(t, "strict", tier)

	_, _, tier = resolveRateTier(httptest.NewRequest("GET", "/api/orders/abc", nil))
	assert.Equal(t, "general", tier)
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := NewRateLimiter()
	rl.getVisitor("ip:1:general", limitGeneral, burstGeneral)

	rl.evictIdle(time.Now().Add(time.Minute))
	assert.Len(t, rl.visitors, 1)

	rl.evictIdle(time.Now().Add(10 * time.Minute))
	assert.Len(t, rl.visitors, 0)
}
