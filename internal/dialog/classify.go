package dialog

import "strings"

// Type is the broad category of a dialog, used by the expectation policy.
type Type string

const (
	TypeSaveConfirm   Type = "save_confirm"
	TypeDeleteConfirm Type = "delete_confirm"
	TypeExitConfirm   Type = "exit_confirm"
	TypeError         Type = "error"
	TypeWarning       Type = "warning"
	TypeInfo          Type = "info"
	TypeUnknown       Type = "unknown"
)

// classTable is checked in order; the first bucket with a keyword hit wins.
var classTable = []struct {
	t        Type
	keywords []string
}{
	{TypeSaveConfirm, []string{"保存", "save", "是否保存", "do you want to save"}},
	{TypeDeleteConfirm, []string{"删除", "delete", "确认删除", "confirm delete"}},
	{TypeExitConfirm, []string{"退出", "exit", "关闭", "close", "确认退出"}},
	{TypeError, []string{"错误", "error", "失败", "failed"}},
	{TypeWarning, []string{"警告", "warning", "注意", "caution"}},
	{TypeInfo, []string{"提示", "信息", "info", "information", "notice"}},
}

// Classify buckets a dialog by keywords in its title and content.
func Classify(title, content string) Type {
	text := strings.ToLower(title + " " + content)
	for _, c := range classTable {
		for _, kw := range c.keywords {
			if strings.Contains(text, kw) {
				return c.t
			}
		}
	}
	return TypeUnknown
}

// defaultExpected are dialog texts assumed benign even without explicit
// configuration, all variations of the save prompt the automation itself
// provokes.
var defaultExpected = []string{
	"是否保存", "do you want to save", "保存文件", "save file",
	"文档已修改", "document has been modified",
}

// Policy decides how to answer a dialog: expected dialogs are confirmed,
// unexpected ones are cancelled and escalated so the lifecycle stops.
type Policy struct {
	// Expected lists extra title/content substrings treated as benign.
	Expected []string
}

// Expected reports whether the dialog matches a configured or default
// benign pattern.
func (p Policy) IsExpected(title, content string) bool {
	text := strings.ToLower(title + " " + content)
	for _, pat := range p.Expected {
		if pat != "" && strings.Contains(text, strings.ToLower(pat)) {
			return true
		}
	}
	for _, pat := range defaultExpected {
		if strings.Contains(text, pat) {
			return true
		}
	}
	return false
}

// Decide returns the role to click and whether the lifecycle should treat
// the dialog as a stop condition.
func (p Policy) Decide(title, content string) (role Role, escalate bool) {
	if p.IsExpected(title, content) {
		return RoleConfirm, false
	}
	return RoleCancel, true
}
