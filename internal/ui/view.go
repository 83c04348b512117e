package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if !m.ready {
		return "Iniciando..."
	}

	if m.pendingConfirm != nil {
		return m.renderConfirmModal()
	}
	if m.showModels {
		return m.renderModelPopup()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderChat(),
		m.renderInput(),
		m.renderStatus(),
	)
}

func (m Model) renderChat() string {
	if len(m.messages) == 0 {
		return noticeStyle.Render("Hola, soy Arch-Chan. Pregúntame algo o pídeme ejecutar un comando.")
	}
	return m.viewport.View()
}

func (m Model) renderInput() string {
	return inputStyle.Width(max(m.width-2, 20)).Render(m.input.View())
}

func (m Model) renderStatus() string {
	style := statusStyle
	left := m.statusText
	if m.busy {
		style = statusBusyStyle
		left = fmt.Sprintf("%s %s...", m.spin.View(), m.statusText)
	} else if m.statusError {
		style = statusErrorStyle
	}

	right := statusStyle.Render(m.currentModel)
	return fmt.Sprintf("%s  %s", style.Render(left), right)
}

// refreshViewport re-renders the transcript into the viewport and scrolls
// to the latest message.
func (m *Model) refreshViewport() {
	var lines []string
	for _, msg := range m.messages {
		switch {
		case msg.notice:
			lines = append(lines, noticeStyle.Render(msg.content))
		case msg.role == "user":
			lines = append(lines, userStyle.Render("Tú: "+msg.content))
		default:
			lines = append(lines, assistantStyle.Render(m.renderMarkdown(msg.content)))
		}
		lines = append(lines, "")
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

func (m Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}

func (m Model) renderModelPopup() string {
	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Render("Seleccionar modelo"))
	lines = append(lines, "")
	for i, name := range m.modelList {
		if i == m.modelIndex {
			lines = append(lines, selectedStyle.Render("▸ "+name))
		} else {
			lines = append(lines, "  "+name)
		}
	}
	lines = append(lines, "")
	lines = append(lines, helpStyle.Render("↑/↓ navegar  Enter seleccionar  Esc cancelar"))

	popup := popupStyle.Render(strings.Join(lines, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, popup)
}
