package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidPin = errors.New("pin must be exactly 4 digits")

const pinLength = 4

func IsValidPin(pin string) bool {
	if len(pin) != pinLength {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}

// HashPin returns a salted one-way hash of a 4-digit PIN.
func HashPin(pin string) (string, error) {
	if !IsValidPin(pin) {
		return "", ErrInvalidPin
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// VerifyPin reports whether pin matches hash. Malformed input never matches.
func VerifyPin(pin, hash string) bool {
	if !IsValidPin(pin) || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}
