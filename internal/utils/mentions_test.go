package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMentionHandles(t *testing.T) {
	handles := ExtractMentionHandles("ping @alice and @bob.smith about this")
	assert.Equal(t, []string{"alice", "bob.smith"}, handles)
}

func TestExtractMentionHandles_Deduplicates(t *testing.T) {
	handles := ExtractMentionHandles("@alice @bob @alice")
	assert.Equal(t, []string{"alice", "bob"}, handles)
}

func TestExtractMentionHandles_None(t *testing.T) {
	assert.Nil(t, ExtractMentionHandles("no mentions here"))
	assert.Nil(t, ExtractMentionHandles("bare @ sign and email-like a@b"))
}

func TestExtractMentionHandles_LengthBounds(t *testing.T) {
	// single-character handles are below the minimum length
	assert.Nil(t, ExtractMentionHandles("@a"))
	assert.Equal(t, []string{"ab"}, ExtractMentionHandles("@ab"))
}
