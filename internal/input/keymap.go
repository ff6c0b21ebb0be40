package input

import "strings"

// specialKeys are the key names accepted verbatim by the dispatch backends.
var specialKeys = map[string]bool{
	"enter": true, "tab": true, "space": true, "backspace": true, "delete": true,
	"escape": true, "esc": true, "up": true, "down": true, "left": true, "right": true,
	"home": true, "end": true, "page_up": true, "page_down": true,
	"f1": true, "f2": true, "f3": true, "f4": true, "f5": true,
	"f6": true, "f7": true, "f8": true, "f9": true, "f10": true,
	"f11": true, "f12": true, "f13": true, "f14": true, "f15": true,
	"f16": true, "f17": true, "f18": true, "f19": true, "f20": true,
	"return": true, "insert": true,
}

// NormalizeKey lowercases a key name and resolves common aliases.
func NormalizeKey(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	switch k {
	case "return":
		return "enter"
	case "escape":
		return "esc"
	}
	return k
}

// NormalizeModifiers resolves modifier aliases to the canonical names the
// backends understand.
func NormalizeModifiers(mods []string) []string {
	out := make([]string, len(mods))
	for i, mod := range mods {
		switch strings.ToLower(mod) {
		case "command", "cmd", "super", "win":
			out[i] = "command"
		case "control", "ctrl":
			out[i] = "control"
		case "alt", "option":
			out[i] = "alt"
		case "shift":
			out[i] = "shift"
		default:
			out[i] = strings.ToLower(mod)
		}
	}
	return out
}

// IsSpecialKey reports whether the key is a named non-character key.
func IsSpecialKey(key string) bool {
	return specialKeys[NormalizeKey(key)]
}
