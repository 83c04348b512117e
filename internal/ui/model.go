package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	"github.com/archan-project/archan/internal/chat"
	"github.com/archan-project/archan/internal/dispatch"
	"github.com/archan-project/archan/internal/worker"
)

// message is one transcript entry. Notices are local UI feedback (export
// confirmations, errors) that never reach the model.
type message struct {
	role    chat.Role
	content string
	notice  bool
}

// Model implements tea.Model for the chat surface.
type Model struct {
	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model

	width  int
	height int
	ready  bool

	messages     []message
	busy         bool
	statusText   string
	statusError  bool
	currentModel string

	pendingConfirm *dispatch.ConfirmationRequest

	showModels bool
	modelList  []string
	modelIndex int

	renderer *glamour.TermRenderer

	// Inbound from the rest of the application
	events      <-chan worker.Event
	confirmReq  <-chan dispatch.ConfirmationRequest
	modelsChan  <-chan []string
	noticesChan <-chan string

	// Outbound
	confirmResp chan<- bool
	commands    chan<- Command
}

func newModel(
	events <-chan worker.Event,
	confirmReq <-chan dispatch.ConfirmationRequest,
	confirmResp chan<- bool,
	modelsChan <-chan []string,
	noticesChan <-chan string,
	commands chan<- Command,
	currentModel string,
) Model {
	ti := textinput.New()
	ti.Placeholder = "Escribe un mensaje..."
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		input:        ti,
		viewport:     viewport.New(80, 20),
		spin:         sp,
		statusText:   "Listo",
		currentModel: currentModel,
		events:       events,
		confirmReq:   confirmReq,
		confirmResp:  confirmResp,
		modelsChan:   modelsChan,
		noticesChan:  noticesChan,
		commands:     commands,
	}
}
