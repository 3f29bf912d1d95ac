package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltBytes  = 16
	iterations = 200_000
	keyBytes   = sha256.Size
)

// HashPassword returns "salt_hex:hash_hex" using PBKDF2-HMAC-SHA256.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	return hashWithSalt(password, salt), nil
}

// VerifyPassword compares a password against a stored "salt:hash" pair.
func VerifyPassword(password, stored string) bool {
	saltHex, hashHex, ok := strings.Cut(stored, ":")
	if !ok {
		return false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(hashHex)
	if err != nil || len(want) == 0 {
		return false
	}
	got := pbkdf2.Key([]byte(password), salt, iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func hashWithSalt(password string, salt []byte) string {
	h := pbkdf2.Key([]byte(password), salt, iterations, keyBytes, sha256.New)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(h)
}
