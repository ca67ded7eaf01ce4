package services

import "golang.org/x/crypto/bcrypt"

// PasswordHasher is the platform's hashing primitive at this subsystem's
// boundary.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: 12}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
