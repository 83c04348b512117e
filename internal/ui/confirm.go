package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderConfirmModal draws the approval gate for a privileged command. The
// command itself is shown verbatim so the user approves exactly what will
// run.
func (m Model) renderConfirmModal() string {
	width := 60
	if m.width > 0 && m.width < width+10 {
		width = m.width - 10
	}

	var lines []string
	lines = append(lines, modalTitleStyle.Render("⚠ Confirmación requerida"))
	lines = append(lines, "")
	if m.pendingConfirm.Explanation != "" {
		lines = append(lines, m.pendingConfirm.Explanation)
		lines = append(lines, "")
	}
	lines = append(lines, commandPreviewStyle.Render("$ "+m.pendingConfirm.Command))
	if m.pendingConfirm.Reason != "" {
		lines = append(lines, "")
		lines = append(lines, noticeStyle.Render(m.pendingConfirm.Reason))
	}
	lines = append(lines, "")
	lines = append(lines, helpStyle.Render("y/s ejecutar  n cancelar"))

	modal := modalStyle.Width(width).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}
