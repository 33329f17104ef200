package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"net/url"
	"sort"
	"strings"
)

// Signer computes gateway request signatures over the canonical form of a
// parameter set: keys sorted ascending, keys and values query-escaped
// (space as '+'), joined as k=v&k=v.
type Signer struct {
	newHash func() hash.Hash
	secret  []byte
}

func NewSHA512Signer(secret string) Signer {
	return Signer{newHash: sha512.New, secret: []byte(secret)}
}

func NewSHA256Signer(secret string) Signer {
	return Signer{newHash: sha256.New, secret: []byte(secret)}
}

func CanonicalQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}
	return b.String()
}

// Sign returns the hex HMAC of the canonical query of params.
func (s Signer) Sign(params map[string]string) string {
	mac := hmac.New(s.newHash, s.secret)
	mac.Write([]byte(CanonicalQuery(params)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks sig against params. Hex case is ignored.
func (s Signer) Verify(params map[string]string, sig string) bool {
	got, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}
	want, _ := hex.DecodeString(s.Sign(params))
	return hmac.Equal(got, want)
}
