// Package ui is the Bubble Tea front-end. It renders the transcript, hosts
// the confirmation modal, and hands user intent to the application over a
// command channel; it holds no dispatch logic of its own.
package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/archan-project/archan/internal/dispatch"
	"github.com/archan-project/archan/internal/worker"
)

// CommandType discriminates user intents leaving the UI.
type CommandType string

const (
	CommandSubmit        CommandType = "submit"
	CommandCancelActive  CommandType = "cancel_active"
	CommandClearChat     CommandType = "clear_chat"
	CommandExportSession CommandType = "export_session"
	CommandListModels    CommandType = "list_models"
	CommandSwitchModel   CommandType = "switch_model"
	CommandQuit          CommandType = "quit"
)

// Command is one user intent for the application loop to act on.
type Command struct {
	Type CommandType
	Arg  string
}

// UI owns the Bubble Tea program and the channels bridging it to the rest
// of the application.
type UI struct {
	program *tea.Program

	confirmReq  chan dispatch.ConfirmationRequest
	confirmResp chan bool
	modelsChan  chan []string
	noticesChan chan string
	commands    chan Command
}

// New builds the UI over the worker's event stream.
func New(events <-chan worker.Event, currentModel string) *UI {
	u := &UI{
		confirmReq:  make(chan dispatch.ConfirmationRequest),
		confirmResp: make(chan bool),
		modelsChan:  make(chan []string),
		noticesChan: make(chan string, 10),
		commands:    make(chan Command, 10),
	}

	model := newModel(
		events,
		u.confirmReq,
		u.confirmResp,
		u.modelsChan,
		u.noticesChan,
		u.commands,
		currentModel,
	)
	u.program = tea.NewProgram(model, tea.WithAltScreen())
	return u
}

// Start runs the program until the user quits.
func (u *UI) Start() error {
	_, err := u.program.Run()
	return err
}

// Quit stops the program from outside.
func (u *UI) Quit() {
	u.program.Quit()
}

// Commands is the stream of user intents.
func (u *UI) Commands() <-chan Command {
	return u.commands
}

// Confirm shows the confirmation modal and blocks until the user decides or
// ctx is cancelled. It is called from the dispatch cycle's background
// context, never from the UI loop itself.
func (u *UI) Confirm(ctx context.Context, req dispatch.ConfirmationRequest) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case u.confirmReq <- req:
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case approved := <-u.confirmResp:
			return approved, nil
		}
	}
}

// WriteModelList opens the model selection popup.
func (u *UI) WriteModelList(models []string) {
	select {
	case u.modelsChan <- models:
	default:
		// Drop if the UI is not listening
	}
}

// WriteNotice shows a transient line in the transcript.
func (u *UI) WriteNotice(text string) {
	select {
	case u.noticesChan <- text:
	default:
		// Drop if channel is full
	}
}
