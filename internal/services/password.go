package services

import (
	"crypto/subtle"
	"fmt"

	"github.com/transportmanager/apiserver/config"
	"golang.org/x/crypto/bcrypt"
)

// PasswordScheme controls how passwords are stored and compared.
type PasswordScheme interface {
	Hash(password string) (string, error)
	Matches(stored, supplied string) bool
}

// NewPasswordScheme returns the scheme registered under name.
func NewPasswordScheme(name string) (PasswordScheme, error) {
	switch name {
	case config.PasswordSchemePlaintext, "":
		return PlaintextScheme{}, nil
	case config.PasswordSchemeBcrypt:
		return BcryptScheme{Cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("unknown password scheme %q", name)
	}
}

// PlaintextScheme stores passwords as supplied and compares them as opaque text.
type PlaintextScheme struct{}

func (PlaintextScheme) Hash(password string) (string, error) {
	return password, nil
}

func (PlaintextScheme) Matches(stored, supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}

// BcryptScheme stores bcrypt hashes.
type BcryptScheme struct {
	Cost int
}

func (s BcryptScheme) Hash(password string) (string, error) {
	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (BcryptScheme) Matches(stored, supplied string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
}
