package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMouseEventFlags(t *testing.T) {
	tests := []struct {
		button string
		down   uint32
		up     uint32
	}{
		{"", 0x0002, 0x0004},
		{"left", 0x0002, 0x0004},
		{"right", 0x0008, 0x0010},
		{"center", 0x0020, 0x0040},
		{"middle", 0x0020, 0x0040},
	}
	for _, tt := range tests {
		down, up, err := mouseEventFlags(tt.button)
		require.NoError(t, err, tt.button)
		assert.Equal(t, tt.down, down, tt.button)
		assert.Equal(t, tt.up, up, tt.button)
	}

	_, _, err := mouseEventFlags("thumb")
	assert.Error(t, err)
}

func TestSendKeysToken(t *testing.T) {
	assert.Equal(t, "{ENTER}", sendKeysToken("Return"))
	assert.Equal(t, "{ESC}", sendKeysToken("escape"))
	assert.Equal(t, "{TAB}", sendKeysToken("tab"))
	assert.Equal(t, " ", sendKeysToken("space"))
	assert.Equal(t, "a", sendKeysToken("a"))
}

func TestEscapeSendKeys(t *testing.T) {
	assert.Equal(t, "plain text", escapeSendKeys("plain text"))
	assert.Equal(t, "100{%} done", escapeSendKeys("100% done"))
	assert.Equal(t, "{(}x{)}{+}{^}{~}", escapeSendKeys("(x)+^~"))
}
