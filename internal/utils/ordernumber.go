package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateOrderNumber returns a human readable order number such as
// ORD-1735689600000-0421. Uniqueness is best effort; the column is unique.
func GenerateOrderNumber(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		n = big.NewInt(now.UnixNano() % 10000)
	}

	return fmt.Sprintf("ORD-%d-%04d", now.UnixMilli(), n.Int64())
}
