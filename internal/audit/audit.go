// Package audit keeps a trail of operator actions that reached the backend.
package audit

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/apperr"
)

type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
)

// Record is one action sent to the backend.
type Record struct {
	ID      uuid.UUID `json:"id"`
	Action  string    `json:"action"`
	OrderID int64     `json:"orderId"`
	Path    string    `json:"path"`
	Outcome Outcome   `json:"outcome"`
	Message string    `json:"message,omitempty"`
	ErrKind string    `json:"errKind,omitempty"`
	At      time.Time `json:"at"`
}

// NewRecord builds a record from the result of one round trip. A non-nil err
// wins over success.
func NewRecord(action string, orderID int64, path string, success bool, message string, err error) Record {
	rec := Record{
		ID:      uuid.New(),
		Action:  action,
		OrderID: orderID,
		Path:    path,
		Message: message,
		At:      time.Now().UTC(),
	}
	switch {
	case err != nil:
		rec.Outcome = OutcomeFailed
		rec.ErrKind = apperr.Kind(err)
		rec.Message = ""
	case success:
		rec.Outcome = OutcomeSucceeded
	default:
		rec.Outcome = OutcomeRejected
		rec.ErrKind = apperr.KindBusiness
	}
	return rec
}

// Sink stores records.
type Sink interface {
	Write(ctx context.Context, rec Record) error
}

// Nop discards records.
type Nop struct{}

func (Nop) Write(context.Context, Record) error { return nil }

// Trail hands records to a sink and logs sink failures; they never reach the operator.
type Trail struct {
	sink   Sink
	logger *log.Logger
}

// NewTrail returns a trail over sink. A nil logger discards log output.
func NewTrail(sink Sink, logger *log.Logger) *Trail {
	if sink == nil {
		sink = Nop{}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Trail{sink: sink, logger: logger}
}

// Record writes rec. A nil trail is valid and does nothing.
func (t *Trail) Record(ctx context.Context, rec Record) {
	if t == nil {
		return
	}
	// the action already completed; do not let a cancelled request drop its audit row
	ctx = context.WithoutCancel(ctx)
	if err := t.sink.Write(ctx, rec); err != nil {
		t.logger.Printf("audit: dropped %s for order %d: %v", rec.Action, rec.OrderID, err)
	}
}
