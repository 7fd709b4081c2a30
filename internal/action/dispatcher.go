package action

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/apperr"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/audit"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/backend"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/telemetry"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/ui"
)

const (
	// MaxBatch is the most orders the backend notifies per batch request.
	MaxBatch = 100

	MsgOperationFailed = ui.FailureMark + "Operation failed"

	batchPrompt = "Notify the marketplace that %d orders were recharged successfully?"
	batchAudit  = "batch-notify-success"
)

// Poster is the part of the backend client the dispatcher needs.
type Poster interface {
	PostResult(ctx context.Context, path string, body any) (backend.Result, error)
	PostJSON(ctx context.Context, path string, body, out any) error
}

type Dispatcher struct {
	poster   Poster
	operator ui.Operator
	page     ui.Page
	trail    *audit.Trail
	logger   *log.Logger
}

func NewDispatcher(poster Poster, operator ui.Operator, page ui.Page, trail *audit.Trail, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Dispatcher{poster: poster, operator: operator, page: page, trail: trail, logger: logger}
}

// Dispatch confirms and sends the command of kind k for orderID. It returns
// ErrDeclined when the operator says no, a BusinessError when the backend
// refuses, and a TransportError when no usable answer came back.
func (d *Dispatcher) Dispatch(ctx context.Context, k Kind, orderID int64) (backend.Result, error) {
	cmd, ok := Lookup(k)
	if !ok {
		return backend.Result{}, apperr.Precondition("unknown action %q", k)
	}
	if !d.operator.Confirm(cmd.Prompt) {
		return backend.Result{}, apperr.ErrDeclined
	}

	ctx, span := telemetry.Tracer().Start(ctx, "action.Dispatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("action.kind", string(k)),
		attribute.Int64("order.id", orderID),
		attribute.Bool("action.debug", cmd.Debug),
	)

	path := cmd.Path(orderID)
	res, err := d.poster.PostResult(ctx, path, nil)
	d.trail.Record(ctx, audit.NewRecord(string(k), orderID, path, res.Success, res.Message, err))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dispatch")
		d.logger.Printf("order %d: %s: %v", orderID, k, err)
		d.operator.Alert(MsgOperationFailed)
		return backend.Result{}, fmt.Errorf("%s order %d: %w", k, orderID, err)
	}

	ui.Announce(d.operator, res.Success, res.Message)
	if !res.Success {
		return res, &apperr.BusinessError{Message: res.Message}
	}
	if cmd.Effect == EffectReloadPage {
		d.page.Reload()
	}
	return res, nil
}

// BatchNotifySuccess asks the backend to notify success for every order in
// orderIDs. The page reloads when at least one order was notified.
func (d *Dispatcher) BatchNotifySuccess(ctx context.Context, orderIDs []int64) (backend.BatchNotifyResult, error) {
	switch {
	case len(orderIDs) == 0:
		return backend.BatchNotifyResult{}, apperr.Precondition("no orders selected")
	case len(orderIDs) > MaxBatch:
		return backend.BatchNotifyResult{}, apperr.Precondition("%d orders selected, at most %d per batch", len(orderIDs), MaxBatch)
	}
	if !d.operator.Confirm(fmt.Sprintf(batchPrompt, len(orderIDs))) {
		return backend.BatchNotifyResult{}, apperr.ErrDeclined
	}

	ctx, span := telemetry.Tracer().Start(ctx, "action.BatchNotifySuccess")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.size", len(orderIDs)))

	var res backend.BatchNotifyResult
	err := d.poster.PostJSON(ctx, backend.BatchNotifySuccessPath, backend.BatchNotifyRequest{OrderIDs: orderIDs}, &res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch notify")
		d.trail.Record(ctx, audit.NewRecord(batchAudit, 0, backend.BatchNotifySuccessPath, false, "", err))
		d.logger.Printf("batch notify %d orders: %v", len(orderIDs), err)
		d.operator.Alert(MsgOperationFailed)
		return backend.BatchNotifyResult{}, fmt.Errorf("batch notify: %w", err)
	}

	summary := batchSummary(res)
	d.trail.Record(ctx, audit.NewRecord(batchAudit, 0, backend.BatchNotifySuccessPath, res.Success, summary, nil))
	ui.Announce(d.operator, res.Success && res.FailCount == 0, summary)
	if res.OKCount > 0 {
		d.page.Reload()
	}
	if !res.Success {
		return res, &apperr.BusinessError{Message: summary}
	}
	return res, nil
}

func batchSummary(res backend.BatchNotifyResult) string {
	if !res.Success && res.Message != "" {
		return res.Message
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Notified %d, failed %d", res.OKCount, res.FailCount)
	for _, f := range res.Fails {
		fmt.Fprintf(&b, "\n#%d: %s", f.ID, f.Reason)
	}
	return b.String()
}
