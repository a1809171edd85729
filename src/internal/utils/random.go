package utils

import (
	"crypto/rand"
	"math/big"
)

const numberRunes = "0123456789"

// GenerateNumericCode generates a random digit string, suitable for
// one-time codes sent over email
func GenerateNumericCode(length int) string {
	b := make([]byte, length)
	for i := range b {
		num, _ := rand.Int(rand.Reader, big.NewInt(int64(len(numberRunes))))
		b[i] = numberRunes[num.Int64()]
	}
	return string(b)
}
