package utils

import (
	"crypto/rand"
	"strings"
)

// SlugifyHandle lowercases the base and strips everything outside the
// allowed handle character set. The result may be empty.
func SlugifyHandle(base string) string {
	base = strings.ToLower(base)
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9',
			r == '_', r == '.', r == '~', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RandomHandleSuffix returns prefix plus three random base36 characters,
// used when a profile yields no usable handle slug.
func RandomHandleSuffix(prefix string) string {
	bytes := make([]byte, 3)
	_, _ = rand.Read(bytes)

	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	out := make([]byte, len(bytes))
	for i, b := range bytes {
		out[i] = alphabet[int(b)%36]
	}
	return prefix + string(out)
}
