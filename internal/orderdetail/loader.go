// Package orderdetail loads the rendered detail fragment of one order into
// the order modal.
package orderdetail

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/apperr"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/backend"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/telemetry"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/ui"
)

const (
	LoadingPlaceholder = `<div class="detail-placeholder"><div class="loading-spinner"></div><p>Loading...</p></div>`
	ErrorPlaceholder   = `<div class="detail-placeholder detail-error">❌ Failed to load</div>`

	MsgModalNotFound = ui.FailureMark + "Order modal not found"
)

// Fetcher returns the raw status and body of a GET.
type Fetcher interface {
	GetText(ctx context.Context, path string) (int, string, error)
}

// Loader shows order details in the order modal. Every Show and Close starts a
// new epoch; a response only lands if its epoch is still current.
type Loader struct {
	store    *ui.Store
	fetcher  Fetcher
	operator ui.Operator
	logger   *log.Logger

	mu    sync.Mutex
	epoch uint64
}

func NewLoader(store *ui.Store, fetcher Fetcher, operator ui.Operator, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	l := &Loader{store: store, fetcher: fetcher, operator: operator, logger: logger}
	// backdrop clicks and page reloads hide the modal without going through Close
	store.OnHide(ui.OrderModalID, func() { l.next() })
	return l
}

// Show opens the order modal for orderID and fills it with the fetched fragment.
// Failures to fetch are rendered as ErrorPlaceholder and returned; the modal stays open.
func (l *Loader) Show(ctx context.Context, orderID int64) error {
	if !l.store.Mounted(ui.OrderModalID) || !l.store.Mounted(ui.OrderDetailContentID) {
		l.operator.Alert(MsgModalNotFound)
		return apperr.Precondition("order modal containers %q/%q not mounted", ui.OrderModalID, ui.OrderDetailContentID)
	}

	ctx, span := telemetry.Tracer().Start(ctx, "orderdetail.Show")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", orderID))

	epoch := l.next()
	l.store.Open(ui.OrderModalID)
	l.store.SetContent(ui.OrderDetailContentID, LoadingPlaceholder)

	path := backend.OrderDetailHTMLPath(orderID)
	status, body, err := l.fetcher.GetText(ctx, path)
	if err == nil && !renderable(status) {
		err = &apperr.TransportError{Op: "GET " + path, Status: status, Err: fmt.Errorf("unexpected status %d", status)}
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load order detail")
		l.logger.Printf("order %d: load detail: %v", orderID, err)
		if l.current(epoch) {
			l.store.SetContent(ui.OrderDetailContentID, ErrorPlaceholder)
		}
		return err
	}

	if !l.current(epoch) {
		l.logger.Printf("order %d: discarding stale detail response", orderID)
		return nil
	}
	l.store.SetContent(ui.OrderDetailContentID, body)
	return nil
}

// Close hides the order modal. Any response still in flight is discarded.
func (l *Loader) Close() {
	l.next()
	l.store.Close(ui.OrderModalID)
}

// 404 carries the backend's own "order not found" fragment.
func renderable(status int) bool {
	return (status >= 200 && status < 300) || status == http.StatusNotFound
}

func (l *Loader) next() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.epoch++
	return l.epoch
}

func (l *Loader) current(epoch uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.epoch == epoch
}
