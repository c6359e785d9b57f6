package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashSecret generates a bcrypt hash of a shared secret, for UPLOAD_SECRET_HASH.
func HashSecret(secret string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hashedBytes), nil
}

// VerifySecret compares a presented secret with a stored bcrypt hash.
// An empty hash never matches.
func VerifySecret(secret, hash string) bool {
	if hash == "" || secret == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
