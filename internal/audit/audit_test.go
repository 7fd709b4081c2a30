package audit

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/apperr"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/events"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/storage/postgres"
)

type memSink struct {
	mu   sync.Mutex
	recs []Record
	err  error
}

func (m *memSink) Write(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.recs = append(m.recs, rec)
	return nil
}

func TestNewRecordOutcomes(t *testing.T) {
	ok := NewRecord("notify-success", 1, "/order/1/notify-success", true, "done", nil)
	assert.Equal(t, OutcomeSucceeded, ok.Outcome)
	assert.Empty(t, ok.ErrKind)
	assert.Equal(t, "done", ok.Message)

	rejected := NewRecord("notify-refund", 2, "/order/2/notify-refund", false, "already refunded", nil)
	assert.Equal(t, OutcomeRejected, rejected.Outcome)
	assert.Equal(t, apperr.KindBusiness, rejected.ErrKind)

	failed := NewRecord("save-cards", 3, "/order/3/save-cards", true, "ignored", &apperr.TransportError{Op: "post", Err: errors.New("refused")})
	assert.Equal(t, OutcomeFailed, failed.Outcome)
	assert.Equal(t, apperr.KindTransport, failed.ErrKind)
	assert.Empty(t, failed.Message)

	assert.NotEqual(t, ok.ID, rejected.ID)
}

func TestTrailLogsSinkFailure(t *testing.T) {
	var buf bytes.Buffer
	trail := NewTrail(&memSink{err: errors.New("disk full")}, log.New(&buf, "", 0))

	trail.Record(context.Background(), NewRecord("debug-failed", 9, "/order/9/debug-failed", true, "ok", nil))

	assert.Contains(t, buf.String(), "dropped debug-failed for order 9")
}

func TestNilTrailIsNoop(t *testing.T) {
	var trail *Trail
	trail.Record(context.Background(), Record{})
}

func TestTrailIgnoresCancelledContext(t *testing.T) {
	sink := &memSink{}
	trail := NewTrail(sink, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	trail.Record(ctx, NewRecord("resend-notification", 0, "/notification/resend", true, "ok", nil))
	assert.Len(t, sink.recs, 1)
}

func TestMultiFansOut(t *testing.T) {
	a, b := &memSink{}, &memSink{}
	rec := NewRecord("agiso-deliver", 4, "/order/4/agiso-deliver", true, "ok", nil)

	require.NoError(t, Multi{a, b}.Write(context.Background(), rec))
	assert.Len(t, a.recs, 1)
	assert.Len(t, b.recs, 1)

	err := Multi{a, &memSink{err: errors.New("down")}}.Write(context.Background(), rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink 1")
}

// slowSink waits for release and gives up if its context ends first.
type slowSink struct {
	release chan struct{}
	stored  bool
}

func (s *slowSink) Write(ctx context.Context, _ Record) error {
	select {
	case <-s.release:
		s.stored = true
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type signallingSink struct {
	failed chan struct{}
}

func (s *signallingSink) Write(context.Context, Record) error {
	close(s.failed)
	return errors.New("kafka: broker down")
}

func TestMultiFailingSinkDoesNotCancelOthers(t *testing.T) {
	fast := &signallingSink{failed: make(chan struct{})}
	slow := &slowSink{release: make(chan struct{})}
	go func() {
		<-fast.failed
		close(slow.release)
	}()

	var buf bytes.Buffer
	trail := NewTrail(Multi{fast, slow}, log.New(&buf, "", 0))
	trail.Record(context.Background(), NewRecord("notify-success", 5, "/order/5/notify-success", true, "ok", nil))

	assert.True(t, slow.stored)
	assert.Contains(t, buf.String(), "broker down")
}

type fakePublisher struct {
	key string
	evt events.Envelope
}

func (f *fakePublisher) Publish(_ context.Context, key string, evt events.Envelope) error {
	f.key, f.evt = key, evt
	return nil
}

func TestKafkaSink(t *testing.T) {
	fp := &fakePublisher{}
	sink := &KafkaSink{p: fp}
	rec := NewRecord("card91-deliver", 77, "/order/77/card91-deliver", true, "ok", nil)

	require.NoError(t, sink.Write(context.Background(), rec))
	assert.Equal(t, "77", fp.key)
	assert.Equal(t, EventTypeActionRecorded, fp.evt.EventType)
	assert.Equal(t, "77", fp.evt.AggregateID)
	assert.Equal(t, rec, fp.evt.Data)
}

type fakeStore struct{ row postgres.AuditRow }

func (f *fakeStore) InsertAuditRow(_ context.Context, row postgres.AuditRow) error {
	f.row = row
	return nil
}

func TestPostgresSink(t *testing.T) {
	fs := &fakeStore{}
	sink := &PostgresSink{store: fs}
	rec := NewRecord("notify-refund", 5, "/order/5/notify-refund", false, "already refunded", nil)

	require.NoError(t, sink.Write(context.Background(), rec))
	assert.Equal(t, rec.ID.String(), fs.row.ID)
	assert.Equal(t, "rejected", fs.row.Outcome)
	assert.Equal(t, int64(5), fs.row.OrderID)
	assert.Equal(t, "business", fs.row.ErrKind)
}
