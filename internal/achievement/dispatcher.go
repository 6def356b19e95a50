package achievement

import (
	"context"
	"log/slog"
	"time"

	"github.com/vocalis-app/vocalis/internal/store"
)

const (
	defaultQueueSize   = 64
	defaultEvalTimeout = 10 * time.Second
)

// event is one queued evaluation request.
type event struct {
	learnerID string
	progress  *store.ProgressRecord
	score     int
}

// Dispatcher decouples achievement evaluation from the request that
// triggers it. Triggering methods enqueue and return immediately; a single
// background worker drains the queue. When the queue is full the event is
// dropped with a warning rather than blocking the caller, since the next
// trigger for the same learner re-derives everything anyway.
type Dispatcher struct {
	evaluator *Evaluator
	events    chan event
	timeout   time.Duration
}

// DispatcherOption is a functional option for configuring a [Dispatcher].
type DispatcherOption func(*Dispatcher)

// WithQueueSize sets the event buffer size.
func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) { d.events = make(chan event, n) }
}

// WithEvalTimeout bounds a single evaluation run.
func WithEvalTimeout(t time.Duration) DispatcherOption {
	return func(d *Dispatcher) { d.timeout = t }
}

// NewDispatcher creates a Dispatcher around evaluator. Run must be started
// for queued events to be processed.
func NewDispatcher(evaluator *Evaluator, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		evaluator: evaluator,
		events:    make(chan event, defaultQueueSize),
		timeout:   defaultEvalTimeout,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// ProgressChanged enqueues evaluation after a progress upsert. Never blocks.
func (d *Dispatcher) ProgressChanged(learnerID string, rec store.ProgressRecord) {
	d.enqueue(event{learnerID: learnerID, progress: &rec})
}

// ScoreSubmitted enqueues evaluation after a score submission. Never blocks.
func (d *Dispatcher) ScoreSubmitted(learnerID string, score int) {
	d.enqueue(event{learnerID: learnerID, score: score})
}

func (d *Dispatcher) enqueue(ev event) {
	select {
	case d.events <- ev:
	default:
		slog.Warn("achievement queue full, dropping event", "learner_id", ev.learnerID)
	}
}

// Run processes events until ctx is cancelled. Evaluation errors are logged
// and never propagated; a failed run is retried implicitly by the next
// trigger for the same learner.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-d.events:
			d.handle(ctx, ev)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, ev event) {
	evalCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var err error
	if ev.progress != nil {
		err = d.evaluator.OnProgress(evalCtx, ev.learnerID, *ev.progress)
	} else {
		err = d.evaluator.OnScore(evalCtx, ev.learnerID, ev.score)
	}
	if err != nil {
		slog.Error("achievement evaluation failed", "learner_id", ev.learnerID, "error", err)
	}
}
