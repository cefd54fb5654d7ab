package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugifyHandle(t *testing.T) {
	assert.Equal(t, "jane.doe", SlugifyHandle("Jane.Doe"))
	assert.Equal(t, "janedoe", SlugifyHandle("Jane Doe!"))
	assert.Equal(t, "j_d~x-1", SlugifyHandle("J_D~X-1"))
	assert.Equal(t, "", SlugifyHandle("@#$%"))
	assert.Equal(t, "", SlugifyHandle(""))
}

func TestRandomHandleSuffix(t *testing.T) {
	out := RandomHandleSuffix("user")
	assert.Len(t, out, 7)
	assert.True(t, strings.HasPrefix(out, "user"))
	for _, r := range out[4:] {
		assert.Contains(t, "0123456789abcdefghijklmnopqrstuvwxyz", string(r))
	}
}
