package crypto

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	alphanumericChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	MaxRandomLength = 128
)

var ErrRandomLength = errors.New("random string length must be between 1 and 128")

// RandomString returns n characters drawn uniformly from [A-Za-z0-9] using crypto/rand.
func RandomString(n int) (string, error) {
	if n < 1 || n > MaxRandomLength {
		return "", ErrRandomLength
	}

	result := make([]byte, n)
	for i := range result {
		ch, err := randChar(alphanumericChars)
		if err != nil {
			return "", err
		}
		result[i] = ch
	}

	return string(result), nil
}

// randChar picks a random character from charset using crypto/rand.
func randChar(charset string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, err
	}
	return charset[n.Int64()], nil
}
