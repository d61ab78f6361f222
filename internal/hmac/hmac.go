// Package hmac signs and verifies messages with a shared key
package hmac

import (
	cryptoHMAC "crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// HMAC is a utility for creating and verifying HMACs
type HMAC struct {
	Key []byte
}

// New returns an HMAC using key, or nil when key is empty
func New(key string) *HMAC {
	if key == "" {
		return nil
	}

	return &HMAC{Key: []byte(key)}
}

// Create creates a HMAC for a message, encoded as urlsafe base64
func (h *HMAC) Create(message string) (string, error) {
	mac := cryptoHMAC.New(sha256.New, h.Key)

	if _, err := mac.Write([]byte(message)); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Validate reports whether mac was created for message with the same key
func (h *HMAC) Validate(message, mac string) (bool, error) {
	expectedMAC, err := h.Create(message)
	if err != nil {
		return false, err
	}

	return cryptoHMAC.Equal([]byte(mac), []byte(expectedMAC)), nil
}
