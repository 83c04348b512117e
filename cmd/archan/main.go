// Package main wires the archan desktop assistant: configuration, logging,
// the Ollama provider, the tool dispatch core, and the terminal UI.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/archan-project/archan/internal/chat"
	"github.com/archan-project/archan/internal/config"
	"github.com/archan-project/archan/internal/dispatch"
	"github.com/archan-project/archan/internal/logging"
	"github.com/archan-project/archan/internal/provider"
	"github.com/archan-project/archan/internal/provider/ollama"
	"github.com/archan-project/archan/internal/runner"
	"github.com/archan-project/archan/internal/search"
	"github.com/archan-project/archan/internal/storage"
	"github.com/archan-project/archan/internal/ui"
	"github.com/archan-project/archan/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		fmt.Fprintf(os.Stderr, "Using default configuration.\n")
		cfg = config.DefaultConfig()
	}

	log, err := logging.New(false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
		log = zap.NewNop()
	}
	defer log.Sync()

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("fatal", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	prov, err := ollama.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	history := chat.NewHistory(cfg.Chat.MaxHistory, cfg.Chat.Model)
	procRunner := runner.NewProcessRunner(cfg, log)
	searcher := search.NewService(procRunner, cfg, log)

	// The UI is both the event consumer and the confirmation collaborator,
	// so it is bound to the dispatcher after construction.
	confirmer := &lateConfirmer{}
	dispatcher := dispatch.NewDispatcher(cfg, prov, procRunner, searcher, confirmer, history, log)
	w := worker.New(dispatcher, log)
	userInterface := ui.New(w.Events(), cfg.Chat.Model)
	confirmer.delegate = userInterface
	w.Start(appCtx)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		if err := prov.Ping(appCtx); err != nil {
			log.Warn("ollama endpoint not reachable", zap.Error(err))
			userInterface.WriteNotice("No pude contactar a Ollama. Verifica que esté en ejecución.")
		}

		for {
			select {
			case <-appCtx.Done():
				return
			case cmd := <-userInterface.Commands():
				handleCommand(appCtx, cmd, cfg, log, w, history, prov, userInterface, cancel)
			}
		}
	}()

	err = userInterface.Start()
	cancel()
	wg.Wait()
	return err
}

func handleCommand(
	ctx context.Context,
	cmd ui.Command,
	cfg *config.Config,
	log *zap.Logger,
	w *worker.Worker,
	history *chat.History,
	prov provider.Provider,
	userInterface *ui.UI,
	shutdown context.CancelFunc,
) {
	switch cmd.Type {
	case ui.CommandSubmit:
		if err := w.Submit(cmd.Arg); err != nil {
			userInterface.WriteNotice("No pude encolar el mensaje: " + err.Error())
		}

	case ui.CommandCancelActive:
		w.CancelActive()

	case ui.CommandClearChat:
		history.Clear()
		log.Info("conversation cleared")

	case ui.CommandExportSession:
		if err := exportSession(history); err != nil {
			log.Error("session export failed", zap.Error(err))
			userInterface.WriteNotice("No pude exportar la sesión: " + err.Error())
			return
		}
		userInterface.WriteNotice("Sesión exportada.")

	case ui.CommandListModels:
		models, err := prov.ListModels(ctx)
		if err != nil {
			userInterface.WriteNotice("No pude listar los modelos: " + err.Error())
			return
		}
		userInterface.WriteModelList(models)

	case ui.CommandSwitchModel:
		if _, ok := cfg.Provider.Models[cmd.Arg]; !ok {
			log.Warn("switching to model without configured options", zap.String("model", cmd.Arg))
		}
		history.SetModel(cmd.Arg)
		userInterface.WriteNotice("Modelo activo: " + cmd.Arg)

	case ui.CommandQuit:
		shutdown()
	}
}

// lateConfirmer breaks the construction cycle between the dispatcher and
// the UI. The delegate is set before the worker starts.
type lateConfirmer struct {
	delegate dispatch.Confirmer
}

func (c *lateConfirmer) Confirm(ctx context.Context, req dispatch.ConfirmationRequest) (bool, error) {
	return c.delegate.Confirm(ctx, req)
}

func exportSession(history *chat.History) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to resolve home directory: %w", err)
	}

	store, err := storage.NewSessionStore(filepath.Join(home, ".local", "share", "archan"))
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Export(history.SessionID(), history.Model(), history.Snapshot())
}
