package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ndkhanh17/BE-Tacoli/internal/apperr"
)

// Response is the envelope every REST endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func WriteSuccess(w http.ResponseWriter, code int, message string, data any) {
	WriteJSON(w, code, Response{Success: true, Message: message, Data: data})
}

func WriteJSONError(w http.ResponseWriter, message string, code int) {
	WriteJSON(w, code, Response{Success: false, Message: message})
}

// WriteError answers with the status and client message of a classified error.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSONError(w, apperr.Message(err), apperr.HTTPStatus(err))
}

// DecodeJSON decodes a request body, rejecting unknown trailing data.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("empty request body")
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// FormatVND renders an amount as "1.250.000 ₫".
func FormatVND(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}

	s := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}

	out := b.String() + " ₫"
	if neg {
		out = "-" + out
	}
	return out
}
