// Package dispatch runs the per-message state machine that turns a user
// message into a final outcome: a plain assistant reply, an executed tool
// call, a rejection, or a cancellation.
//
// One cycle is active per Dispatcher at a time. History commits are
// all-or-nothing: the initiating user turn lands immediately, every other
// turn of the cycle lands together at the end or not at all.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/archan-project/archan/internal/chat"
	"github.com/archan-project/archan/internal/config"
	"github.com/archan-project/archan/internal/parser"
	"github.com/archan-project/archan/internal/policy"
	"github.com/archan-project/archan/internal/provider"
	"github.com/archan-project/archan/internal/runner"
)

// Runner executes shell commands on behalf of the dispatcher.
type Runner interface {
	RunShell(ctx context.Context, command string) (*runner.Result, error)
}

// Searcher resolves a web search query into a bounded text blob.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// ConfirmationRequest is handed to the external confirmation collaborator
// before a privileged command may run.
type ConfirmationRequest struct {
	Command     string
	Explanation string
	Reason      string
}

// Confirmer is the external approve/deny boundary. It holds no policy logic.
type Confirmer interface {
	Confirm(ctx context.Context, req ConfirmationRequest) (bool, error)
}

// Dispatcher owns the state machine for one conversation session.
type Dispatcher struct {
	mu sync.Mutex

	cfg      *config.Config
	provider provider.Provider
	runner   Runner
	search   Searcher
	confirm  Confirmer
	history  *chat.History
	log      *zap.Logger
}

func NewDispatcher(cfg *config.Config, prov provider.Provider, run Runner, search Searcher, confirm Confirmer, history *chat.History, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		cfg:      cfg,
		provider: prov,
		runner:   run,
		search:   search,
		confirm:  confirm,
		history:  history,
		log:      log,
	}
}

// Dispatch runs one full cycle for the given user input. onStage, if
// non-nil, receives each stage transition as it happens. Concurrent calls
// queue behind the active cycle; they never interleave.
func (d *Dispatcher) Dispatch(ctx context.Context, input string, onStage func(Stage)) *Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()

	notify := func(s Stage) {
		d.log.Debug("dispatch stage", zap.String("stage", string(s)))
		if onStage != nil {
			onStage(s)
		}
	}

	d.history.Append(chat.NewTurn(chat.RoleUser, input))

	notify(StageAwaitingModelReply)
	reply, err := d.modelCall(ctx, true, nil)
	if err != nil {
		if ctx.Err() != nil {
			return cancelledOutcome()
		}
		d.log.Error("model call failed", zap.Error(err))
		return &Outcome{
			Kind: OutcomeRejected,
			Text: "No pude contactar al modelo. Verifica que Ollama esté en ejecución.",
			Err:  err,
		}
	}
	if ctx.Err() != nil {
		return cancelledOutcome()
	}

	notify(StageParsing)
	parsed := parser.Parse(reply)
	if parsed.Kind == parser.KindPlainText {
		d.history.AppendAll(chat.NewTurn(chat.RoleAssistant, parsed.Text))
		return &Outcome{Kind: OutcomePlainText, Text: parsed.Text}
	}

	switch parsed.Call.Tool {
	case parser.ToolShell:
		return d.runShellCall(ctx, reply, parsed.Call.Shell, notify)
	case parser.ToolSearch:
		return d.runSearchCall(ctx, reply, parsed.Call.Search, notify)
	}

	// The parser's tool set is closed; an unknown name cannot reach here.
	d.history.AppendAll(chat.NewTurn(chat.RoleAssistant, reply))
	return &Outcome{Kind: OutcomePlainText, Text: reply}
}

func (d *Dispatcher) runShellCall(ctx context.Context, rawReply string, call *parser.ShellCall, notify func(Stage)) *Outcome {
	pending := []chat.Turn{chat.NewTurn(chat.RoleAssistant, rawReply)}

	notify(StageValidating)
	verdict := policy.Check(call.Command)
	command := call.Command

	switch verdict.Kind {
	case policy.VerdictBlocked:
		d.log.Warn("command blocked",
			zap.String("command", command),
			zap.String("reason", verdict.Reason))
		msg := "Comando bloqueado por seguridad: " + verdict.Reason
		pending = append(pending, chat.NewTurn(chat.RoleTool, msg))
		d.history.AppendAll(pending...)
		return &Outcome{
			Kind: OutcomeRejected,
			Text: msg,
			Err:  &BlockedError{Command: command, Reason: verdict.Reason},
		}

	case policy.VerdictRequiresConfirmation:
		if d.gateRequired(command) {
			notify(StageAwaitingConfirmation)
			approved, err := d.confirm.Confirm(ctx, ConfirmationRequest{
				Command:     command,
				Explanation: call.Explanation,
				Reason:      verdict.Reason,
			})
			if err != nil {
				return cancelledOutcome()
			}
			if !approved {
				d.log.Info("command denied by user", zap.String("command", command))
				pending = append(pending, chat.NewTurn(chat.RoleTool, "El usuario rechazó la ejecución del comando."))
				d.history.AppendAll(pending...)
				return &Outcome{
					Kind: OutcomeRejected,
					Text: "¡Entendido! No ejecutaré el comando.",
					Err:  &DeniedError{Command: command},
				}
			}
		}
		command = d.rewriteElevation(command)
	}

	if ctx.Err() != nil {
		return cancelledOutcome()
	}

	notify(StageExecuting)
	d.log.Info("executing command", zap.String("command", command))
	res, err := d.runner.RunShell(ctx, command)
	if err != nil {
		var launch *runner.LaunchError
		if errors.As(err, &launch) {
			msg := "No pude iniciar el comando: " + launch.Error()
			pending = append(pending, chat.NewTurn(chat.RoleTool, msg))
			d.history.AppendAll(pending...)
			return &Outcome{Kind: OutcomeRejected, Text: msg, Err: err}
		}
		return cancelledOutcome()
	}

	toolOutput := formatShellResult(res)
	pending = append(pending, chat.NewTurn(chat.RoleTool, toolOutput))

	notify(StageSummarizing)
	summary, pending := d.summarize(ctx, pending, shellSummaryPrompt(res), toolOutput)
	if ctx.Err() != nil {
		return cancelledOutcome()
	}

	d.history.AppendAll(pending...)
	return &Outcome{Kind: OutcomeExecuted, Text: summary, Result: res}
}

func (d *Dispatcher) runSearchCall(ctx context.Context, rawReply string, call *parser.SearchCall, notify func(Stage)) *Outcome {
	pending := []chat.Turn{chat.NewTurn(chat.RoleAssistant, rawReply)}

	notify(StageExecuting)
	d.log.Info("searching", zap.String("query", call.Query))
	results, err := d.search.Search(ctx, call.Query)
	if err != nil {
		if ctx.Err() != nil {
			return cancelledOutcome()
		}
		msg := "No pude realizar la búsqueda: " + err.Error()
		pending = append(pending, chat.NewTurn(chat.RoleTool, msg))
		d.history.AppendAll(pending...)
		return &Outcome{Kind: OutcomeRejected, Text: msg, Err: err}
	}

	pending = append(pending, chat.NewTurn(chat.RoleTool, results))

	notify(StageSummarizing)
	summary, pending := d.summarize(ctx, pending, searchSummaryPrompt(call.Query, results), results)
	if ctx.Err() != nil {
		return cancelledOutcome()
	}

	d.history.AppendAll(pending...)
	return &Outcome{Kind: OutcomeExecuted, Text: summary}
}

// summarize issues the follow-up model call that turns raw tool output into
// a user-facing reply. The summary call never force-constrains JSON; a tool
// call appearing in its reply never chains, the raw output is shown instead.
// Failures fall back to the raw output as well, they do not abort the cycle.
func (d *Dispatcher) summarize(ctx context.Context, pending []chat.Turn, instruction, fallback string) (string, []chat.Turn) {
	extra := append(slices.Clone(pending), chat.NewTurn(chat.RoleUser, instruction))
	reply, err := d.modelCall(ctx, false, extra)
	if err != nil {
		d.log.Warn("summary call failed, showing raw output", zap.Error(err))
		return fallback, pending
	}

	parsed := parser.Parse(reply)
	if parsed.Kind != parser.KindPlainText {
		d.log.Warn("summary reply contained a tool call, showing raw output")
		return fallback, pending
	}
	return parsed.Text, append(pending, chat.NewTurn(chat.RoleAssistant, parsed.Text))
}

// modelCall sends the retained conversation plus any uncommitted extra turns
// to the provider.
func (d *Dispatcher) modelCall(ctx context.Context, forceJSON bool, extra []chat.Turn) (string, error) {
	turns := append(d.history.Snapshot(), extra...)

	messages := make([]provider.Message, len(turns))
	for i, t := range turns {
		role := string(t.Role)
		if t.Role == chat.RoleTool {
			role = string(chat.RoleUser)
		}
		messages[i] = provider.Message{Role: role, Content: t.Content}
	}

	return d.provider.Chat(ctx, &provider.ChatRequest{
		Model:     d.history.Model(),
		Messages:  messages,
		ForceJSON: forceJSON,
	})
}

// gateRequired reports whether the confirmation gate applies. The sudo
// confirmation toggle only relaxes the gate for plain elevation; every other
// confirmable verdict always gates.
func (d *Dispatcher) gateRequired(command string) bool {
	if d.cfg.Tools.SudoConfirm {
		return true
	}
	return !strings.HasPrefix(strings.TrimSpace(command), "sudo ")
}

// rewriteElevation swaps a leading sudo for the configured graphical
// elevation tool so the command can prompt for credentials without a tty.
func (d *Dispatcher) rewriteElevation(command string) string {
	trimmed := strings.TrimSpace(command)
	rest, ok := strings.CutPrefix(trimmed, "sudo ")
	if !ok {
		return command
	}
	if d.cfg.Tools.ElevationTool == "pkexec" {
		return "pkexec " + rest
	}
	return d.cfg.Tools.ElevationTool + " -c " + rest
}

func formatShellResult(res *runner.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Código de salida: %d\n\nSalida:\n%s\n", res.ExitCode, res.Stdout)
	if strings.TrimSpace(res.Stderr) != "" {
		fmt.Fprintf(&b, "Errores:\n%s\n", res.Stderr)
	}
	if res.TimedOut {
		b.WriteString("\n[El comando excedió el tiempo límite y fue cancelado; la salida puede estar incompleta]")
	}
	if res.Truncated {
		b.WriteString("\n[Salida truncada]")
	}
	return b.String()
}

func shellSummaryPrompt(res *runner.Result) string {
	return fmt.Sprintf(
		"El comando se ejecutó con código de salida %d. La salida fue:\n%s\n\nErrores:\n%s\n\nPor favor, resume esta información para el usuario de forma amigable y concisa.",
		res.ExitCode, res.Stdout, res.Stderr)
}

func searchSummaryPrompt(query, results string) string {
	return fmt.Sprintf(
		"Busqué %q. Los resultados son:\n%s\n\nPor favor, responde la pregunta original del usuario usando esta información. Sé conciso y útil.",
		query, results)
}

func cancelledOutcome() *Outcome {
	return &Outcome{Kind: OutcomeCancelled, Err: ErrCancelled}
}
