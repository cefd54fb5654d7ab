package utils

import (
	"crypto/rand"
	"fmt"

	"github.com/fluxhq/flux-api/internal/constants"
)

// GenerateJoinCode returns a random lowercase base36 code.
func GenerateJoinCode() (string, error) {
	bytes := make([]byte, constants.JoinCodeLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	out := make([]byte, len(bytes))
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	for i, b := range bytes {
		out[i] = alphabet[int(b)%36]
	}
	return string(out), nil
}
