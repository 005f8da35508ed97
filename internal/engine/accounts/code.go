package accounts

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var codeMax = big.NewInt(1000000)

// GenerateCode returns a 6-digit numeric verification code drawn from
// crypto/rand. Codes are opaque and compared by exact string equality.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeMax)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
