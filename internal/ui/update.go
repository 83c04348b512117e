package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/archan-project/archan/internal/chat"
	"github.com/archan-project/archan/internal/dispatch"
	"github.com/archan-project/archan/internal/worker"
)

// Internal messages
type eventMsg worker.Event
type confirmRequestMsg dispatch.ConfirmationRequest
type modelListMsg []string
type noticeMsg string

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spin.Tick,
		listenForEvents(m.events),
		listenForConfirm(m.confirmReq),
		listenForModels(m.modelsChan),
		listenForNotices(m.noticesChan),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 6
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(msg.Width-4),
		)
		m.ready = true
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case eventMsg:
		m = m.applyEvent(worker.Event(msg))
		return m, listenForEvents(m.events)

	case confirmRequestMsg:
		req := dispatch.ConfirmationRequest(msg)
		m.pendingConfirm = &req
		return m, listenForConfirm(m.confirmReq)

	case modelListMsg:
		m.modelList = []string(msg)
		m.showModels = true
		m.modelIndex = 0
		return m, listenForModels(m.modelsChan)

	case noticeMsg:
		m.messages = append(m.messages, message{notice: true, content: string(msg)})
		m.refreshViewport()
		return m, listenForNotices(m.noticesChan)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) applyEvent(ev worker.Event) Model {
	switch ev.Kind {
	case worker.EventProgress:
		m.busy = true
		m.statusError = false
		m.statusText = stageLabel(ev.Stage)

	case worker.EventResult:
		m.busy = false
		m.messages = append(m.messages, message{role: chat.RoleAssistant, content: ev.Outcome.Text})
		if ev.Outcome.Kind == dispatch.OutcomeRejected {
			m.statusError = true
			m.statusText = "Rechazado"
		} else {
			m.statusError = false
			m.statusText = "Listo"
		}
		m.refreshViewport()

	case worker.EventCancelled:
		m.busy = false
		m.statusError = false
		m.statusText = "Cancelado"
		m.messages = append(m.messages, message{notice: true, content: "Operación cancelada."})
		m.refreshViewport()
	}
	return m
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pendingConfirm != nil {
		switch msg.String() {
		case "y", "s":
			m.confirmResp <- true
			m.pendingConfirm = nil
		case "n", "esc":
			m.confirmResp <- false
			m.pendingConfirm = nil
		}
		return m, nil
	}

	if m.showModels {
		switch msg.String() {
		case "up", "k":
			if m.modelIndex > 0 {
				m.modelIndex--
			}
		case "down", "j":
			if m.modelIndex < len(m.modelList)-1 {
				m.modelIndex++
			}
		case "enter":
			if m.modelIndex < len(m.modelList) {
				selected := m.modelList[m.modelIndex]
				m.commands <- Command{Type: CommandSwitchModel, Arg: selected}
				m.currentModel = selected
			}
			m.showModels = false
		case "esc":
			m.showModels = false
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		m.commands <- Command{Type: CommandQuit}
		return m, tea.Quit

	case "esc":
		if m.busy {
			m.commands <- Command{Type: CommandCancelActive}
		}
		return m, nil

	case "enter":
		input := strings.TrimSpace(m.input.Value())
		if input == "" {
			return m, nil
		}
		if strings.HasPrefix(input, "/") {
			return m.handleSlashCommand(input)
		}
		if m.busy {
			// The worker queues it; reflect that immediately.
			m.messages = append(m.messages, message{notice: true, content: "Mensaje en cola..."})
		}
		m.messages = append(m.messages, message{role: chat.RoleUser, content: input})
		m.refreshViewport()
		m.commands <- Command{Type: CommandSubmit, Arg: input}
		m.busy = true
		m.statusText = "Pensando"
		m.input.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSlashCommand(input string) (tea.Model, tea.Cmd) {
	m.input.SetValue("")

	switch strings.Fields(input)[0] {
	case "/models":
		m.commands <- Command{Type: CommandListModels}
	case "/clear":
		m.messages = nil
		m.refreshViewport()
		m.commands <- Command{Type: CommandClearChat}
	case "/export":
		m.commands <- Command{Type: CommandExportSession}
	case "/quit":
		m.commands <- Command{Type: CommandQuit}
		return m, tea.Quit
	case "/help":
		m.messages = append(m.messages, message{notice: true, content: helpText})
		m.refreshViewport()
	default:
		m.messages = append(m.messages, message{notice: true, content: "Comando desconocido. Usa /help."})
		m.refreshViewport()
	}
	return m, nil
}

const helpText = `Comandos disponibles:
  /models  Cambiar de modelo
  /clear   Limpiar la conversación
  /export  Exportar la sesión
  /help    Mostrar esta ayuda
  /quit    Salir
Esc cancela la operación en curso.`

func stageLabel(s dispatch.Stage) string {
	switch s {
	case dispatch.StageAwaitingModelReply:
		return "Pensando"
	case dispatch.StageParsing, dispatch.StageValidating:
		return "Procesando"
	case dispatch.StageAwaitingConfirmation:
		return "Esperando confirmación"
	case dispatch.StageExecuting:
		return "Ejecutando"
	case dispatch.StageSummarizing:
		return "Resumiendo"
	}
	return string(s)
}

func listenForEvents(ch <-chan worker.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func listenForConfirm(ch <-chan dispatch.ConfirmationRequest) tea.Cmd {
	return func() tea.Msg {
		return confirmRequestMsg(<-ch)
	}
}

func listenForModels(ch <-chan []string) tea.Cmd {
	return func() tea.Msg {
		return modelListMsg(<-ch)
	}
}

func listenForNotices(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		return noticeMsg(<-ch)
	}
}
