package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt rejects inputs past 72 bytes, fail early instead.
const maxPasswordLen = 72

func Hash(plain string) (string, error) {
	if len(plain) == 0 || len(plain) > maxPasswordLen {
		return "", fmt.Errorf("password length must be in [1, %d] bytes", maxPasswordLen)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
