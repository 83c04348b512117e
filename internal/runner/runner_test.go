package runner

import (
	"context"
	"os"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archan-project/archan/internal/config"
)

func testRunner(t *testing.T, mutate func(*config.Config)) *ProcessRunner {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Tools.GracefulShutdownMs = 100
	if mutate != nil {
		mutate(cfg)
	}
	return NewProcessRunner(cfg, nil)
}

func TestRun_SimpleCommand(t *testing.T) {
	r := testRunner(t, nil)

	res, err := r.Run(context.Background(), []string{"echo", "hello"}, 5*time.Second)

	require.NoError(t, err)
	assert.Equal(t, "hello", strings.TrimSpace(res.Stdout))
	assert.Equal(t, 0, res.ExitCode)
	assert.False(t, res.TimedOut)
	assert.Greater(t, res.Duration, time.Duration(0))
}

func TestRun_EmptyArgv(t *testing.T) {
	r := testRunner(t, nil)

	_, err := r.Run(context.Background(), nil, time.Second)

	assert.ErrorIs(t, err, os.ErrInvalid)
}

func TestRun_NonZeroExitIsNotAnError(t *testing.T) {
	r := testRunner(t, nil)

	res, err := r.Run(context.Background(), []string{"sh", "-c", "echo oops >&2; exit 3"}, 5*time.Second)

	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "oops", strings.TrimSpace(res.Stderr))
}

func TestRun_MissingBinaryIsLaunchError(t *testing.T) {
	r := testRunner(t, nil)

	res, err := r.Run(context.Background(), []string{"definitely-not-a-binary-xyz"}, time.Second)

	assert.Nil(t, res)
	var launchErr *LaunchError
	require.ErrorAs(t, err, &launchErr)
	assert.Equal(t, "definitely-not-a-binary-xyz", launchErr.Cmd)
}

func TestRun_OutputIsTruncated(t *testing.T) {
	r := testRunner(t, func(cfg *config.Config) {
		cfg.Tools.MaxCommandOutput = 16
	})

	res, err := r.Run(context.Background(), []string{"sh", "-c", "yes x | head -n 1000"}, 5*time.Second)

	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.LessOrEqual(t, len(res.Stdout), 16)
}

func TestRun_TimeoutKillsProcessGroup(t *testing.T) {
	r := testRunner(t, nil)

	start := time.Now()
	res, err := r.Run(context.Background(), []string{"sh", "-c", "echo started; sleep 30"}, 200*time.Millisecond)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.Equal(t, -1, res.ExitCode)
	// Partial output collected before the kill is still returned
	assert.Equal(t, "started", strings.TrimSpace(res.Stdout))
	// The sleep did not run to completion
	assert.Less(t, elapsed, 5*time.Second)
}

func TestRun_TimeoutTerminatesDescendants(t *testing.T) {
	r := testRunner(t, nil)

	// The child prints the grandchild's pid and both sleep past the timeout.
	res, err := r.Run(context.Background(),
		[]string{"sh", "-c", "sleep 30 & echo $!; wait"}, 200*time.Millisecond)

	require.NoError(t, err)
	require.True(t, res.TimedOut)
	pidStr := strings.TrimSpace(res.Stdout)
	require.NotEmpty(t, pidStr)

	pid, err := strconv.Atoi(pidStr)
	require.NoError(t, err)

	// Give the kill a moment to land, then probe the grandchild.
	assert.Eventually(t, func() bool {
		return syscall.Kill(pid, 0) != nil
	}, 2*time.Second, 50*time.Millisecond, "grandchild process should be terminated")
}

func TestRun_ContextCancellation(t *testing.T) {
	r := testRunner(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res, err := r.Run(ctx, []string{"sleep", "30"}, time.Minute)

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Equal(t, -1, res.ExitCode)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunShell_UsesConfiguredTimeout(t *testing.T) {
	r := testRunner(t, func(cfg *config.Config) {
		cfg.Tools.CommandTimeout = 1
	})

	res, err := r.RunShell(context.Background(), "sleep 30")

	require.NoError(t, err)
	assert.True(t, res.TimedOut)
}
