package dialog

import "strings"

// Role is the semantic meaning of a dialog button, independent of the UI
// language it is labeled in.
type Role string

const (
	RoleConfirm Role = "confirm"
	RoleCancel  Role = "cancel"
	RoleYes     Role = "yes"
	RoleNo      Role = "no"
	RoleRetry   Role = "retry"
	RoleIgnore  Role = "ignore"
	RoleAbort   Role = "abort"
)

// synonyms maps each role to its localized button labels. Order matters: the
// first labels are the preferred readings, later ones are acceptable stand-ins
// (a "confirm" request may settle for an OK-flavored "yes").
var synonyms = map[Role][]string{
	RoleConfirm: {"确定", "ok", "是", "yes", "confirm"},
	RoleCancel:  {"取消", "cancel", "否", "no"},
	RoleYes:     {"是", "yes", "确定", "ok"},
	RoleNo:      {"否", "no", "取消", "cancel"},
	RoleRetry:   {"重试", "retry"},
	RoleIgnore:  {"忽略", "ignore"},
	RoleAbort:   {"中止", "abort"},
}

// NormalizeLabel reduces a raw control label to its comparable core: strips
// the Windows accelerator marker form "(&Y)", bare ampersands, a trailing
// ellipsis, and surrounding whitespace, then lowercases.
func NormalizeLabel(label string) string {
	s := label
	// "(&Y)" style accelerator suffix.
	if i := strings.Index(s, "(&"); i >= 0 {
		if j := strings.Index(s[i:], ")"); j >= 0 {
			s = s[:i] + s[i+j+1:]
		}
	}
	s = strings.ReplaceAll(s, "&", "")
	s = strings.TrimSuffix(strings.TrimSpace(s), "...")
	s = strings.TrimSuffix(s, "…")
	return strings.ToLower(strings.TrimSpace(s))
}

// Matches reports whether a raw control label satisfies the role. The
// comparison is exact on the normalized label, so "是(&Y)" matches "yes" but
// "Save changes" does not.
func (r Role) Matches(label string) bool {
	norm := NormalizeLabel(label)
	if norm == "" {
		return false
	}
	for _, syn := range synonyms[r] {
		if norm == syn {
			return true
		}
	}
	return false
}

// roles known to the table, for validation.
func validRole(r Role) bool {
	_, ok := synonyms[r]
	return ok
}
