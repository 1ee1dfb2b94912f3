package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/csheth/askdb/internal/ask"
)

// Options tune a Lifecycle.
type Options struct {
	// CancelSuperseded cancels the in-flight request of an older submission
	// as soon as a newer one is dispatched.
	CancelSuperseded bool
	Logger           *slog.Logger
}

// Ticket identifies one dispatched submission.
type Ticket struct {
	ID        uint64
	RequestID string
	Question  string
	ctx       context.Context
}

// Outcome is a finished round trip.
type Outcome struct {
	Ticket   Ticket
	Result   ask.Result
	Err      error
	Duration time.Duration
}

// Lifecycle is the single writer of a session State.
type Lifecycle struct {
	client ask.Client
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	state   State
	seq     uint64
	cancels map[uint64]context.CancelFunc
}

// New returns an idle Lifecycle bound to client.
func New(client ask.Client, opts Options) *Lifecycle {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Lifecycle{
		client:  client,
		opts:    opts,
		logger:  logger,
		cancels: map[uint64]context.CancelFunc{},
	}
}

// State returns a snapshot of the session.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Begin dispatches a submission and moves the session to Loading. The
// question is expected to be normalized already.
func (l *Lifecycle) Begin(parent context.Context, question string) Ticket {
	if parent == nil {
		parent = context.Background()
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	id := l.seq
	if l.opts.CancelSuperseded {
		for prev, cancel := range l.cancels {
			cancel()
			delete(l.cancels, prev)
			l.logger.Debug("cancelled superseded submission", "id", prev, "by", id)
		}
	}
	requestID := uuid.NewString()
	ctx, cancel := context.WithCancel(ask.WithRequestID(parent, requestID))
	l.cancels[id] = cancel
	l.state, _ = Apply(l.state, Submitted{ID: id})

	l.logger.Info("submission dispatched", "id", id, "request_id", requestID, "question_len", len(question))
	return Ticket{ID: id, RequestID: requestID, Question: question, ctx: ctx}
}

// Run performs the round trip for a ticket and folds it into a Result. It
// does not touch the session state and may run on any goroutine.
func (l *Lifecycle) Run(t Ticket) Outcome {
	defer l.release(t.ID)
	ctx := t.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now()
	result, err := Resolve(ctx, l.client, t.Question)
	outcome := Outcome{Ticket: t, Result: result, Err: err, Duration: time.Since(started)}
	switch {
	case errors.Is(err, context.Canceled):
		l.logger.Debug("submission cancelled", "id", t.ID, "request_id", t.RequestID)
	case err != nil:
		l.logger.Warn("submission failed", "id", t.ID, "request_id", t.RequestID, "duration", outcome.Duration, "err", err)
	default:
		l.logger.Info("submission answered", "id", t.ID, "request_id", t.RequestID, "duration", outcome.Duration)
	}
	return outcome
}

// Settle commits a finished submission. It reports false when a newer
// submission has been dispatched since, in which case the result is dropped.
func (l *Lifecycle) Settle(id uint64, result ask.Result) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	next, committed := Apply(l.state, Completed{ID: id, Result: result})
	if !committed {
		l.logger.Info("dropping stale response", "id", id, "latest", l.state.Latest)
		return false
	}
	l.state = next
	l.logger.Debug("session settled", "id", id, "outcome", outcomeLabel(result))
	return true
}

// Submit runs a whole submission synchronously.
func (l *Lifecycle) Submit(ctx context.Context, question string) (ask.Result, bool) {
	ticket := l.Begin(ctx, question)
	outcome := l.Run(ticket)
	return outcome.Result, l.Settle(ticket.ID, outcome.Result)
}

func (l *Lifecycle) release(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cancel, ok := l.cancels[id]; ok {
		cancel()
		delete(l.cancels, id)
	}
}

// Resolve performs one call and returns the Result together with the
// underlying error, kept for logging only. Every failure is recovered here.
func Resolve(ctx context.Context, client ask.Client, question string) (ask.Result, error) {
	if client == nil {
		err := errors.New("no translation client configured")
		return ask.ResultOf(ask.Response{}, err), err
	}
	resp, err := client.Ask(ctx, question)
	return ask.ResultOf(resp, err), err
}

func outcomeLabel(result ask.Result) string {
	switch result.(type) {
	case ask.Success:
		return "success"
	case ask.Failure:
		return "failure"
	default:
		return "unknown"
	}
}
