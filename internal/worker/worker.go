// Package worker runs dispatch cycles off the interactive context and
// reports their lifecycle as asynchronous events, so the surface that
// accepted the user message never blocks on a model call or a child process.
package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/archan-project/archan/internal/dispatch"
)

// ErrStopped is returned by Submit after the worker has shut down.
var ErrStopped = errors.New("worker stopped")

// Dispatcher is the cycle the worker drives. Satisfied by
// *dispatch.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, input string, onStage func(dispatch.Stage)) *dispatch.Outcome
}

// EventKind discriminates worker events.
type EventKind string

const (
	// EventProgress reports a stage transition of the active cycle.
	EventProgress EventKind = "progress"
	// EventResult carries the final outcome of a cycle. Exactly one
	// result or cancelled event is emitted per submitted message.
	EventResult EventKind = "result"
	// EventCancelled reports a cycle the user aborted.
	EventCancelled EventKind = "cancelled"
)

// Event is one message on the worker's outbound channel.
type Event struct {
	Kind    EventKind
	Stage   dispatch.Stage
	Outcome *dispatch.Outcome
}

// Worker owns one background execution context. Submitted messages run
// strictly in order; only one cycle is ever active.
type Worker struct {
	dispatcher Dispatcher
	log        *zap.Logger

	requests chan string
	events   chan Event

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(d Dispatcher, log *zap.Logger) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{
		dispatcher: d,
		log:        log,
		requests:   make(chan string, 8),
		events:     make(chan Event, 16),
		done:       make(chan struct{}),
	}
}

// Start launches the worker loop. The loop exits, draining nothing further,
// when ctx is cancelled; Events is closed on the way out.
func (w *Worker) Start(ctx context.Context) {
	go w.loop(ctx)
}

// Events is the outbound channel. Closed when the worker stops.
func (w *Worker) Events() <-chan Event {
	return w.events
}

// Submit queues one user message for dispatch. Messages queue behind the
// active cycle and never interleave.
func (w *Worker) Submit(input string) error {
	select {
	case <-w.done:
		return ErrStopped
	case w.requests <- input:
		return nil
	}
}

// CancelActive aborts the in-flight cycle, if any. The cycle's child
// process, when one is running, is terminated by the runner as its context
// closes. Queued messages are unaffected.
func (w *Worker) CancelActive() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
	}
}

func (w *Worker) loop(ctx context.Context) {
	defer close(w.events)
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case input := <-w.requests:
			w.runCycle(ctx, input)
		}
	}
}

func (w *Worker) runCycle(ctx context.Context, input string) {
	cycleCtx, cancel := context.WithCancel(ctx)
	w.setCancel(cancel)
	defer func() {
		w.setCancel(nil)
		cancel()
	}()

	outcome := w.dispatcher.Dispatch(cycleCtx, input, func(s dispatch.Stage) {
		w.emit(ctx, Event{Kind: EventProgress, Stage: s})
	})

	kind := EventResult
	if outcome.Kind == dispatch.OutcomeCancelled {
		kind = EventCancelled
	}
	w.log.Debug("cycle finished", zap.String("outcome", string(outcome.Kind)))
	w.emit(ctx, Event{Kind: kind, Outcome: outcome})
}

// emit delivers an event unless the worker itself is shutting down. The
// events channel is buffered; a slow consumer delays the loop rather than
// losing events.
func (w *Worker) emit(ctx context.Context, ev Event) {
	select {
	case w.events <- ev:
	case <-ctx.Done():
	}
}

func (w *Worker) setCancel(cancel context.CancelFunc) {
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()
}
