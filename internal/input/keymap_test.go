package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Return", "enter"},
		{"ENTER", "enter"},
		{"escape", "esc"},
		{"Esc", "esc"},
		{"F12", "f12"},
		{"a", "a"},
		{"  Tab ", "tab"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeKey(tt.in), "key %q", tt.in)
	}
}

func TestNormalizeModifiers(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"ctrl aliases", []string{"Control", "CTRL"}, []string{"control", "control"}},
		{"cmd aliases", []string{"cmd", "super", "win"}, []string{"command", "command", "command"}},
		{"alt alias", []string{"option"}, []string{"alt"}},
		{"shift passthrough", []string{"Shift"}, []string{"shift"}},
		{"nil", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeModifiers(tt.in))
		})
	}
}

func TestIsSpecialKey(t *testing.T) {
	assert.True(t, IsSpecialKey("enter"))
	assert.True(t, IsSpecialKey("Return"))
	assert.True(t, IsSpecialKey("f5"))
	assert.False(t, IsSpecialKey("a"))
	assert.False(t, IsSpecialKey("hello"))
}
