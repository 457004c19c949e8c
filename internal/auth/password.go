package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// Stored hash format: "<salt_hex>$<derived_key_hex>".
const (
	scryptN     = 16384
	scryptR     = 8
	scryptP     = 1
	scryptDKLen = 64
	saltSize    = 16
)

var ErrInvalidHashFormat = errors.New("invalid password hash format")

// HashPassword derives a scrypt key from the password under a fresh random salt.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	derived, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptDKLen)
	if err != nil {
		return "", fmt.Errorf("derive key: %w", err)
	}

	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(derived), nil
}

// VerifyPassword checks a plain password against a stored hash in constant time.
func VerifyPassword(password, stored string) (bool, error) {
	saltHex, hashHex, ok := strings.Cut(stored, "$")
	if !ok {
		return false, ErrInvalidHashFormat
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false, ErrInvalidHashFormat
	}
	want, err := hex.DecodeString(hashHex)
	if err != nil {
		return false, ErrInvalidHashFormat
	}

	derived, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptDKLen)
	if err != nil {
		return false, fmt.Errorf("derive key: %w", err)
	}

	return hmac.Equal(derived, want), nil
}
