package tui

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type jobKind string

const (
	jobKindAsk    jobKind = "ask"
	jobKindExport jobKind = "export"
)

type jobStatus string

const (
	jobStatusRunning   jobStatus = "running"
	jobStatusSucceeded jobStatus = "succeeded"
	jobStatusFailed    jobStatus = "failed"
)

// jobSnapshot describes one background job for the status line.
type jobSnapshot struct {
	ID          string
	Kind        jobKind
	Status      jobStatus
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Err         string
}

func (s jobSnapshot) finished(err error, at time.Time) jobSnapshot {
	s.CompletedAt = at
	s.Duration = at.Sub(s.StartedAt)
	s.Status = jobStatusSucceeded
	if err != nil {
		s.Status = jobStatusFailed
		s.Err = err.Error()
	}
	return s
}

// jobSignalMsg announces that a job started.
type jobSignalMsg struct {
	Snapshot jobSnapshot
}

// jobResultEnvelope carries a finished job's payload back into Update.
type jobResultEnvelope struct {
	Snapshot jobSnapshot
	Payload  tea.Msg
}

type jobRunner func(context.Context) (tea.Msg, error)

// jobBus runs asks and exports off the update loop. Every job runs under ctx,
// so quitting the program cancels whatever is still in flight.
type jobBus struct {
	ctx     context.Context
	counter atomic.Int64
	logger  *slog.Logger
}

func newJobBus(ctx context.Context, logger *slog.Logger) *jobBus {
	return &jobBus{ctx: ctx, logger: logger}
}

func (b *jobBus) begin(kind jobKind) jobSnapshot {
	return jobSnapshot{
		ID:        fmt.Sprintf("%s-%d", kind, b.counter.Add(1)),
		Kind:      kind,
		Status:    jobStatusRunning,
		StartedAt: time.Now(),
	}
}

// Start announces the job, then runs it.
func (b *jobBus) Start(kind jobKind, runner jobRunner) tea.Cmd {
	snapshot := b.begin(kind)
	return tea.Sequence(
		func() tea.Msg { return jobSignalMsg{Snapshot: snapshot} },
		func() tea.Msg { return b.run(snapshot, runner) },
	)
}

func (b *jobBus) run(snapshot jobSnapshot, runner jobRunner) jobResultEnvelope {
	payload, err := runner(b.ctx)
	snapshot = snapshot.finished(err, time.Now())
	b.logger.Debug("job finished",
		"job", snapshot.ID,
		"status", snapshot.Status,
		"duration", snapshot.Duration,
		"err", err,
	)
	return jobResultEnvelope{Snapshot: snapshot, Payload: payload}
}
