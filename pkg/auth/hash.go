package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

type HashServiceInterface interface {
	HashPin(pin string) (string, error)
	ComparePin(hashedPin, pin string) bool
}

type HashService struct{}

func (b *HashService) HashPin(pin string) (string, error) {
	if pin == "" {
		return "", errors.New("pin cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePin is constant-time with respect to the pin by virtue of
// bcrypt's comparison.
func (b *HashService) ComparePin(hashedPin, pin string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPin), []byte(pin))
	return err == nil
}
