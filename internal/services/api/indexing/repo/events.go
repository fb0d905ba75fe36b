package repo

import (
	"context"
	"time"

	"quickgithub/internal/platform/logger"
	"quickgithub/internal/platform/store"
	"quickgithub/internal/services/api/indexing/domain"
)

// EventsTable is the clickhouse analytics table
const EventsTable = "indexing_events"

// Events records admission and stream outcomes for analytics
// Recording is best effort; a failure never reaches the caller
type Events interface {
	Record(ctx context.Context, ev domain.AuditEvent)
}

// NewEvents returns a clickhouse sink, or a no-op when analytics is disabled
func NewEvents(ch store.Clickhouse) Events {
	if ch == nil {
		return NopEvents{}
	}
	return &CHEvents{ch: ch, timeout: 2 * time.Second, log: *logger.Named("indexing.events")}
}

// NopEvents drops everything
type NopEvents struct{}

// Record implements Events
func (NopEvents) Record(context.Context, domain.AuditEvent) {}

// CHEvents writes one row per event
type CHEvents struct {
	ch      store.Clickhouse
	timeout time.Duration
	log     logger.Logger
}

// Record implements Events; it outlives request cancellation so a closed stream still gets logged
func (e *CHEvents) Record(ctx context.Context, ev domain.AuditEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	row := []any{ev.At, ev.Kind, ev.FullName, ev.UserID, ev.Outcome, string(ev.Status)}
	if err := e.ch.Insert(ctx, EventsTable, [][]any{row}); err != nil {
		e.log.Warn().Err(err).Str("kind", ev.Kind).Str("repo", ev.FullName).Msg("analytics insert failed")
	}
}
