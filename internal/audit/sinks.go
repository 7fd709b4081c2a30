package audit

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/events"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/storage/postgres"
)

// EventTypeActionRecorded is the Kafka event type of an audit record.
const EventTypeActionRecorded = "ConsoleActionRecorded"

type publisher interface {
	Publish(ctx context.Context, key string, evt events.Envelope) error
}

// KafkaSink publishes records keyed by order id.
type KafkaSink struct {
	p publisher
}

func NewKafkaSink(p *events.Producer) *KafkaSink { return &KafkaSink{p: p} }

func (k *KafkaSink) Write(ctx context.Context, rec Record) error {
	key := strconv.FormatInt(rec.OrderID, 10)
	return k.p.Publish(ctx, key, events.Envelope{
		EventType:    EventTypeActionRecorded,
		EventVersion: "v1",
		OccurredAt:   rec.At,
		AggregateID:  key,
		Data:         rec,
	})
}

type auditStore interface {
	InsertAuditRow(ctx context.Context, row postgres.AuditRow) error
}

// PostgresSink stores records in console_audit_log.
type PostgresSink struct {
	store auditStore
}

func NewPostgresSink(repo *postgres.Repository) *PostgresSink { return &PostgresSink{store: repo} }

func (s *PostgresSink) Write(ctx context.Context, rec Record) error {
	return s.store.InsertAuditRow(ctx, postgres.AuditRow{
		ID:         rec.ID.String(),
		Action:     rec.Action,
		OrderID:    rec.OrderID,
		Path:       rec.Path,
		Outcome:    string(rec.Outcome),
		Message:    rec.Message,
		ErrKind:    rec.ErrKind,
		OccurredAt: rec.At,
	})
}

// Multi writes to every sink concurrently and returns the first error. A
// failing sink does not cancel the others.
type Multi []Sink

func (m Multi) Write(ctx context.Context, rec Record) error {
	var g errgroup.Group
	for i, s := range m {
		g.Go(func() error {
			if err := s.Write(ctx, rec); err != nil {
				return fmt.Errorf("sink %d: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}
