package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/archan-project/archan/internal/dispatch"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeDispatcher struct {
	mu      sync.Mutex
	inputs  []string
	stages  []dispatch.Stage
	block   chan struct{}
	outcome *dispatch.Outcome
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, input string, onStage func(dispatch.Stage)) *dispatch.Outcome {
	f.mu.Lock()
	f.inputs = append(f.inputs, input)
	stages := f.stages
	block := f.block
	f.mu.Unlock()

	for _, s := range stages {
		if onStage != nil {
			onStage(s)
		}
	}

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return &dispatch.Outcome{Kind: dispatch.OutcomeCancelled, Err: dispatch.ErrCancelled}
		}
	}
	return f.outcome
}

func (f *fakeDispatcher) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.inputs...)
}

func collectUntilFinal(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	for {
		select {
		case ev := <-events:
			out = append(out, ev)
			if ev.Kind == EventResult || ev.Kind == EventCancelled {
				return out
			}
		case <-time.After(2 * time.Second):
			t.Fatal("no final event")
		}
	}
}

func TestWorker_EmitsProgressThenExactlyOneResult(t *testing.T) {
	fake := &fakeDispatcher{
		stages:  []dispatch.Stage{dispatch.StageAwaitingModelReply, dispatch.StageParsing},
		outcome: &dispatch.Outcome{Kind: dispatch.OutcomePlainText, Text: "hola"},
	}
	w := New(fake, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, w.Submit("hola"))

	events := collectUntilFinal(t, w.Events())
	require.Len(t, events, 3)
	assert.Equal(t, EventProgress, events[0].Kind)
	assert.Equal(t, dispatch.StageAwaitingModelReply, events[0].Stage)
	assert.Equal(t, EventProgress, events[1].Kind)
	assert.Equal(t, EventResult, events[2].Kind)
	assert.Equal(t, "hola", events[2].Outcome.Text)

	// No second final event arrives for a single submission.
	select {
	case ev, ok := <-w.Events():
		if ok {
			t.Fatalf("unexpected extra event: %+v", ev)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWorker_ProcessesSubmissionsInOrder(t *testing.T) {
	fake := &fakeDispatcher{
		outcome: &dispatch.Outcome{Kind: dispatch.OutcomePlainText, Text: "ok"},
	}
	w := New(fake, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, w.Submit("primero"))
	require.NoError(t, w.Submit("segundo"))

	collectUntilFinal(t, w.Events())
	collectUntilFinal(t, w.Events())

	assert.Equal(t, []string{"primero", "segundo"}, fake.recorded())
}

func TestWorker_CancelActiveEmitsCancelled(t *testing.T) {
	fake := &fakeDispatcher{
		block:   make(chan struct{}),
		outcome: &dispatch.Outcome{Kind: dispatch.OutcomePlainText, Text: "nunca"},
	}
	w := New(fake, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, w.Submit("tarea larga"))

	// Let the cycle reach its blocking point, then abort it.
	assert.Eventually(t, func() bool {
		return len(fake.recorded()) == 1
	}, time.Second, 5*time.Millisecond)
	w.CancelActive()

	events := collectUntilFinal(t, w.Events())
	final := events[len(events)-1]
	assert.Equal(t, EventCancelled, final.Kind)
	assert.Equal(t, dispatch.OutcomeCancelled, final.Outcome.Kind)
	assert.ErrorIs(t, final.Outcome.Err, dispatch.ErrCancelled)
}

func TestWorker_ShutdownClosesEventsAndRejectsSubmit(t *testing.T) {
	fake := &fakeDispatcher{
		outcome: &dispatch.Outcome{Kind: dispatch.OutcomePlainText, Text: "ok"},
	}
	w := New(fake, nil)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	cancel()

	_, open := <-w.Events()
	assert.False(t, open)

	assert.ErrorIs(t, w.Submit("tarde"), ErrStopped)
}
