package apikey

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength     = 16
	hashIterations = 100_000
	hashLength     = 32
)

// hashKey derives a salted PBKDF2-SHA256 digest of the raw key and
// encodes salt plus digest together.
func hashKey(rawKey string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	digest := pbkdf2.Key([]byte(rawKey), salt, hashIterations, hashLength, sha256.New)
	return base64.StdEncoding.EncodeToString(append(salt, digest...)), nil
}

// verifyKey re-derives the digest with the stored salt and compares
// constant-time. Undecodable hashes verify false, never panic.
func verifyKey(rawKey, encoded string) bool {
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(payload) <= saltLength {
		return false
	}
	salt, digest := payload[:saltLength], payload[saltLength:]
	candidate := pbkdf2.Key([]byte(rawKey), salt, hashIterations, hashLength, sha256.New)
	return subtle.ConstantTimeCompare(digest, candidate) == 1
}
