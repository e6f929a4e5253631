package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	ResetTokenLength = 64
	tokenAlphabet    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// RandomString returns n characters drawn uniformly from [A-Za-z0-9].
func RandomString(n int) (string, error) {
	max := big.NewInt(int64(len(tokenAlphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		buf[i] = tokenAlphabet[idx.Int64()]
	}
	return string(buf), nil
}

func GenerateResetToken() (string, error) {
	return RandomString(ResetTokenLength)
}
