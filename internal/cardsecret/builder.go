package cardsecret

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/apperr"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/audit"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/backend"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/telemetry"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/ui"
)

// Operator-facing messages.
const (
	MsgNoQuantity     = ui.FailureMark + "Unable to determine card quantity"
	MsgNoForm         = ui.FailureMark + "No card form is open"
	MsgMissingOrder   = ui.FailureMark + "Missing order information"
	MsgSubmitFailed   = ui.FailureMark + "Submit failed"
	PromptClear       = "Clear every card secret input?"
	msgGeneratedFmt   = "Generated %d card secrets"
	auditSaveCards    = "save-cards"
	auditDeliverCards = "deliver-card"
)

// Poster is the part of the backend client the builder needs.
type Poster interface {
	PostResult(ctx context.Context, path string, body any) (backend.Result, error)
}

// Refresher re-renders the order detail after cards are saved.
type Refresher interface {
	Show(ctx context.Context, orderID int64) error
}

type Option func(*Builder)

// WithGenerator replaces the random filler source.
func WithGenerator(g Generator) Option {
	return func(b *Builder) { b.gen = g }
}

// Builder drives card forms: filling, clearing and sending them.
type Builder struct {
	poster    Poster
	operator  ui.Operator
	page      ui.Page
	store     *ui.Store
	refresher Refresher
	gen       Generator
	trail     *audit.Trail
	logger    *log.Logger
}

func NewBuilder(poster Poster, operator ui.Operator, page ui.Page, store *ui.Store, refresher Refresher, trail *audit.Trail, logger *log.Logger, opts ...Option) *Builder {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	b := &Builder{
		poster:    poster,
		operator:  operator,
		page:      page,
		store:     store,
		refresher: refresher,
		gen:       NewRandomGenerator(nil),
		trail:     trail,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// OpenDeliver renders a fixed-quantity form in the card modal for the legacy
// delivery path.
func (b *Builder) OpenDeliver(orderID int64, quantity int) (*Form, error) {
	f, err := Render(orderID, quantity)
	if err != nil {
		return nil, err
	}
	b.store.Open(ui.CardModalID)
	return f, nil
}

// Cancel closes the card modal. The form is dropped by the caller.
func (b *Builder) Cancel() {
	b.store.Close(ui.CardModalID)
}

// AutoFill writes generated secrets into the first quantity slots. Zero
// means the form's own quantity.
func (b *Builder) AutoFill(f *Form, quantity int) error {
	if f == nil {
		b.operator.Alert(MsgNoForm)
		return apperr.Precondition("no card form open")
	}
	if quantity == 0 {
		quantity = f.Quantity()
	}
	if quantity <= 0 {
		b.operator.Alert(MsgNoQuantity)
		return apperr.Precondition("card quantity unknown")
	}
	filled, err := f.fill(quantity, func(int) Entry {
		return Entry{CardNo: b.gen.CardNo(), CardPwd: b.gen.CardPwd()}
	})
	if err != nil {
		return err
	}
	ui.Announce(b.operator, true, fmt.Sprintf(msgGeneratedFmt, filled))
	return nil
}

// Clear blanks the first quantity slots once the operator confirms.
func (b *Builder) Clear(f *Form, quantity int) error {
	if f == nil {
		return apperr.Precondition("no card form open")
	}
	if quantity == 0 {
		quantity = f.Quantity()
	}
	if !b.operator.Confirm(PromptClear) {
		return apperr.ErrDeclined
	}
	_, err := f.fill(quantity, func(int) Entry { return Entry{} })
	return err
}

// Submit validates f and saves the batch to /order/{id}/save-cards. On
// success the order detail is re-rendered in place; on any failure the form
// keeps what the operator typed.
func (b *Builder) Submit(ctx context.Context, f *Form) error {
	orderID, cards, err := b.prepare(f)
	if err != nil {
		return err
	}

	ctx, span := telemetry.Tracer().Start(ctx, "cardsecret.Submit")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", orderID), attribute.Int("cards.count", len(cards)))

	if err := b.send(ctx, auditSaveCards, orderID, backend.SaveCardsPath(orderID), cards); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save cards")
		return err
	}
	f.markSubmitted()
	if b.refresher != nil {
		if err := b.refresher.Show(ctx, orderID); err != nil {
			b.logger.Printf("order %d: refresh detail after save: %v", orderID, err)
		}
	}
	return nil
}

// Deliver sends the batch to the legacy /order/deliver-card/{id} endpoint. On
// success the card modal closes and the page reloads.
func (b *Builder) Deliver(ctx context.Context, f *Form) error {
	orderID, cards, err := b.prepare(f)
	if err != nil {
		return err
	}

	ctx, span := telemetry.Tracer().Start(ctx, "cardsecret.Deliver")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", orderID), attribute.Int("cards.count", len(cards)))

	if err := b.send(ctx, auditDeliverCards, orderID, backend.DeliverCardPath(orderID), cards); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "deliver cards")
		return err
	}
	f.markSubmitted()
	b.store.Close(ui.CardModalID)
	b.page.Reload()
	return nil
}

func (b *Builder) prepare(f *Form) (int64, []backend.Card, error) {
	if f == nil || f.OrderID() <= 0 || f.Quantity() <= 0 {
		b.operator.Alert(MsgMissingOrder)
		return 0, nil, apperr.Precondition("card form has no order id or quantity")
	}
	if f.State() == StateSubmitted {
		return 0, nil, apperr.Precondition("cards for order %d already submitted", f.OrderID())
	}
	cards, err := Validate(f.Entries())
	if err != nil {
		var ve *apperr.ValidationError
		if errors.As(err, &ve) {
			ui.Announce(b.operator, false, Describe(ve))
		}
		return 0, nil, err
	}
	return f.OrderID(), cards, nil
}

func (b *Builder) send(ctx context.Context, action string, orderID int64, path string, cards []backend.Card) error {
	res, err := b.poster.PostResult(ctx, path, backend.CardBatch{Cards: cards})
	b.trail.Record(ctx, audit.NewRecord(action, orderID, path, res.Success, res.Message, err))
	if err != nil {
		b.logger.Printf("order %d: %s: %v", orderID, action, err)
		b.operator.Alert(MsgSubmitFailed)
		return fmt.Errorf("%s order %d: %w", action, orderID, err)
	}
	ui.Announce(b.operator, res.Success, res.Message)
	if !res.Success {
		return &apperr.BusinessError{Message: res.Message}
	}
	return nil
}
