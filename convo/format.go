package convo

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	systemHeadingStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	userHeadingStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	assistantHeadingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
)

// FormatHeading renders a role-colored heading for a message, e.g.
// "User:" in blue.
func FormatHeading(role Role) string {
	switch role {
	case RoleSystem:
		return systemHeadingStyle.Render("System:")
	case RoleUser:
		return userHeadingStyle.Render("User:")
	case RoleAssistant:
		return assistantHeadingStyle.Render("Assistant:")
	default:
		return string(role) + ":"
	}
}

// FormatMessage renders a full message: heading, newline, content.
func FormatMessage(m Message) string {
	return FormatHeading(m.Role) + "\n" + m.Content
}

// FormatJSONBlock fences a JSON payload for display.
func FormatJSONBlock(payload string) string {
	return "```json\n" + strings.TrimSpace(payload) + "\n```"
}

// looksLikeJSON reports whether the first non-whitespace rune suggests a
// JSON object or array, the heuristic the tool-response renderer uses to
// decide whether to wrap the output in a fenced block.
func looksLikeJSON(s string) bool {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return false
	}
	switch trimmed[0] {
	case '{', '[':
		return true
	default:
		return false
	}
}

// FormatToolResponse renders a tool's raw text output: JSON-looking output
// is fenced as-is (trimmed, not re-indented), everything else is passed
// through unchanged.
func FormatToolResponse(raw string) string {
	if looksLikeJSON(raw) {
		return FormatJSONBlock(raw)
	}
	return raw
}
