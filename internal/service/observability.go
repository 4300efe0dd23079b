package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/scheduler"
)

// UseCaseEvent captures lightweight execution telemetry for a service use case.
type UseCaseEvent struct {
	Name      string
	Duration  time.Duration
	Success   bool
	Err       error
	Fields    map[string]any
	StartedAt time.Time
}

// Rejected reports whether the use case failed on a scheduling rule rather
// than on storage or a bug.
func (e UseCaseEvent) Rejected() bool {
	return e.Err != nil && (errors.Is(e.Err, scheduler.ErrCyclicDependency) ||
		errors.Is(e.Err, scheduler.ErrInvalidTask) ||
		errors.Is(e.Err, domain.ErrMalformedDependency) ||
		errors.Is(e.Err, ErrConstrainedTask) ||
		errors.Is(e.Err, ErrDependencyExists) ||
		errors.Is(e.Err, ErrDependencyNotFound))
}

// UseCaseObserver receives use-case execution events.
type UseCaseObserver interface {
	ObserveUseCase(ctx context.Context, event UseCaseEvent)
}

// NoopUseCaseObserver ignores all events.
type NoopUseCaseObserver struct{}

func (NoopUseCaseObserver) ObserveUseCase(context.Context, UseCaseEvent) {}

// MultiObserver forwards each event to every observer in order.
type MultiObserver []UseCaseObserver

func (m MultiObserver) ObserveUseCase(ctx context.Context, event UseCaseEvent) {
	for _, obs := range m {
		obs.ObserveUseCase(ctx, event)
	}
}

type logUseCaseObserver struct {
	logger    *slog.Logger
	slowAfter time.Duration
}

// NewLogUseCaseObserver logs every use case at info. Rejections and runs
// slower than slowAfter go to warn, other failures to error. A zero slowAfter
// disables the slow check.
func NewLogUseCaseObserver(logger *slog.Logger, slowAfter time.Duration) UseCaseObserver {
	if logger == nil {
		return NoopUseCaseObserver{}
	}
	return &logUseCaseObserver{logger: logger, slowAfter: slowAfter}
}

func (o *logUseCaseObserver) ObserveUseCase(ctx context.Context, event UseCaseEvent) {
	attrs := make([]any, 0, 8+len(event.Fields)*2)
	attrs = append(attrs,
		"use_case", event.Name,
		"duration_ms", event.Duration.Milliseconds(),
		"success", event.Success,
	)
	for k, v := range event.Fields {
		attrs = append(attrs, k, v)
	}

	level := slog.LevelInfo
	switch {
	case event.Rejected():
		level = slog.LevelWarn
	case event.Err != nil:
		level = slog.LevelError
	case o.slowAfter > 0 && event.Duration > o.slowAfter:
		level = slog.LevelWarn
		attrs = append(attrs, "slow", true)
	}
	if event.Err != nil {
		attrs = append(attrs, "error", event.Err.Error())
	}
	o.logger.Log(ctx, level, "service_use_case", attrs...)
}

func useCaseObserverOrNoop(observers []UseCaseObserver) UseCaseObserver {
	live := make(MultiObserver, 0, len(observers))
	for _, obs := range observers {
		if obs != nil {
			live = append(live, obs)
		}
	}
	switch len(live) {
	case 0:
		return NoopUseCaseObserver{}
	case 1:
		return live[0]
	default:
		return live
	}
}
