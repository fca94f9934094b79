package collection

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const idSuffixRange = 1000

// GenerateID returns a time-based numeric id: the Unix time in milliseconds
// followed by a three-digit random suffix.
func GenerateID(now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(idSuffixRange))
	if err != nil {
		return "", fmt.Errorf("failed to generate record ID: %w", err)
	}
	return fmt.Sprintf("%d%03d", now.UnixMilli(), n.Int64()), nil
}
