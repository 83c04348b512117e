// Package runner executes validated commands and search invocations as
// isolated child processes with timeouts and bounded output capture.
package runner

import (
	"context"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/archan-project/archan/internal/config"
)

// Result is the outcome of one command execution. It is never mutated after
// creation.
type Result struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	Duration  time.Duration
	TimedOut  bool
	Truncated bool
}

// ProcessRunner runs child processes. It holds no mutable state across
// invocations; concurrent calls for distinct dispatch cycles are independent.
type ProcessRunner struct {
	cfg *config.Config
	log *zap.Logger
}

// NewProcessRunner creates a runner with injected config and logger.
func NewProcessRunner(cfg *config.Config, log *zap.Logger) *ProcessRunner {
	if cfg == nil {
		panic("cfg is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ProcessRunner{cfg: cfg, log: log}
}

// RunShell executes a command line through the shell with the configured
// command timeout.
func (r *ProcessRunner) RunShell(ctx context.Context, command string) (*Result, error) {
	timeout := time.Duration(r.cfg.Tools.CommandTimeout) * time.Second
	return r.Run(ctx, []string{"sh", "-c", command}, timeout)
}

// Run executes argv as a child process in its own process group.
//
// Timeout handling: on expiry the whole group receives SIGINT, then SIGKILL
// after the configured grace period, and the partial output collected so far
// is returned with TimedOut set. A timeout is not an error. Context
// cancellation kills the group immediately and returns ctx.Err() alongside
// the partial result. Only a failure to start the process is a LaunchError.
func (r *ProcessRunner) Run(ctx context.Context, argv []string, timeout time.Duration) (*Result, error) {
	if len(argv) == 0 {
		return nil, os.ErrInvalid
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = nil
	// Own process group so descendants die with the command on timeout.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &LaunchError{Cmd: argv[0], Cause: err}
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, &LaunchError{Cmd: argv[0], Cause: err}
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Cmd: argv[0], Cause: err}
	}

	r.log.Debug("command started", zap.Strings("argv", argv), zap.Int("pid", cmd.Process.Pid))

	// Collect output concurrently so it doesn't block the timeout select.
	var stdoutStr, stderrStr string
	var truncated bool
	collectDone := make(chan struct{})
	go func() {
		stdoutStr, stderrStr, truncated = r.collectOutput(stdoutPipe, stderrPipe)
		close(collectDone)
	}()

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var waitErr error
	var timedOut bool
	var cancelled bool

	select {
	case err := <-done:
		waitErr = err
	case <-ctx.Done():
		r.killGroup(cmd, syscall.SIGKILL)
		waitErr = <-done
		cancelled = true
	case <-time.After(timeout):
		timedOut = true
		r.killGroup(cmd, syscall.SIGINT)
		grace := time.Duration(r.cfg.Tools.GracefulShutdownMs) * time.Millisecond
		select {
		case waitErr = <-done:
		case <-time.After(grace):
			r.killGroup(cmd, syscall.SIGKILL)
			waitErr = <-done
		}
	}

	<-collectDone

	exitCode := exitCodeOf(waitErr)
	if timedOut || cancelled {
		exitCode = -1
	}

	result := &Result{
		Stdout:    stdoutStr,
		Stderr:    stderrStr,
		ExitCode:  exitCode,
		Duration:  time.Since(start),
		TimedOut:  timedOut,
		Truncated: truncated,
	}

	r.log.Debug("command finished",
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("duration", result.Duration),
		zap.Bool("timed_out", result.TimedOut))

	if cancelled {
		return result, ctx.Err()
	}
	return result, nil
}

// killGroup signals the whole process group; falls back to the process
// itself if the group is already gone.
func (r *ProcessRunner) killGroup(cmd *exec.Cmd, sig syscall.Signal) {
	if cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, sig); err != nil {
		_ = cmd.Process.Signal(sig)
	}
}

func (r *ProcessRunner) collectOutput(stdout, stderr io.Reader) (string, string, bool) {
	maxBytes := r.cfg.Tools.MaxCommandOutput

	stdoutCollector := newCollector(maxBytes)
	stderrCollector := newCollector(maxBytes)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		_, _ = io.Copy(stdoutCollector, stdout)
	}()

	go func() {
		defer wg.Done()
		_, _ = io.Copy(stderrCollector, stderr)
	}()

	wg.Wait()

	truncated := stdoutCollector.Truncated() || stderrCollector.Truncated()
	return stdoutCollector.String(), stderrCollector.String(), truncated
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	type exitCoder interface {
		ExitCode() int
	}
	if ec, ok := err.(exitCoder); ok {
		return ec.ExitCode()
	}
	return -1
}
