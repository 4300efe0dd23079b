package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/scheduler"
)

type EventKind string

const (
	EventDatesChanged  EventKind = "dates_changed"
	EventConflict      EventKind = "override_conflict"
	EventPending       EventKind = "pending"
	EventCycleRejected EventKind = "cycle_rejected"
	EventGraphWarning  EventKind = "graph_warning"
)

// ScheduleEvent is a structured notification about a scheduling outcome.
// Exactly one of the payload fields is set, matching Kind.
type ScheduleEvent struct {
	Kind      EventKind
	ProjectID string
	TaskID    string
	At        time.Time

	Delta     *scheduler.Delta
	Conflict  *scheduler.Conflict
	Warning   *scheduler.Warning
	CyclePath []string
}

// EventPublisher receives schedule events. Publish must not block the caller
// for long; it runs after the transaction has committed.
type EventPublisher interface {
	Publish(ctx context.Context, e ScheduleEvent)
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ScheduleEvent) {}

// ChannelPublisher forwards events to a caller-owned channel. When the channel
// is full the event is dropped and counted.
type ChannelPublisher struct {
	ch      chan<- ScheduleEvent
	dropped atomic.Int64
}

func NewChannelPublisher(ch chan<- ScheduleEvent) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

func (p *ChannelPublisher) Publish(ctx context.Context, e ScheduleEvent) {
	select {
	case p.ch <- e:
	case <-ctx.Done():
		p.dropped.Add(1)
	default:
		p.dropped.Add(1)
	}
}

// Dropped returns how many events did not fit into the channel.
func (p *ChannelPublisher) Dropped() int64 {
	return p.dropped.Load()
}

type logPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher writes every event to logger at debug level, conflicts and
// rejected cycles at warn.
func NewLogPublisher(logger *slog.Logger) EventPublisher {
	if logger == nil {
		return NoopPublisher{}
	}
	return &logPublisher{logger: logger}
}

func (p *logPublisher) Publish(ctx context.Context, e ScheduleEvent) {
	attrs := []any{"kind", string(e.Kind), "project_id", e.ProjectID, "task_id", e.TaskID}
	level := slog.LevelDebug
	switch {
	case e.Delta != nil:
		attrs = append(attrs,
			"old_start", domain.FormatDate(e.Delta.OldStart),
			"new_start", domain.FormatDate(e.Delta.NewStart),
			"new_end", domain.FormatDate(e.Delta.NewEnd),
		)
	case e.Conflict != nil:
		level = slog.LevelWarn
		attrs = append(attrs,
			"predecessor_id", e.Conflict.PredecessorID,
			"bound", string(e.Conflict.Bound),
			"required", e.Conflict.Required.Format(domain.DateLayout),
		)
	case e.Warning != nil:
		attrs = append(attrs, "warning", e.Warning.String())
	case e.CyclePath != nil:
		level = slog.LevelWarn
		attrs = append(attrs, "path", e.CyclePath)
	}
	p.logger.Log(ctx, level, "schedule_event", attrs...)
}

// MultiPublisher fans an event out to several publishers in order.
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(ctx context.Context, e ScheduleEvent) {
	for _, p := range m {
		p.Publish(ctx, e)
	}
}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return NoopPublisher{}
	}
	return p
}
