// Package console is the terminal front end of the fulfillment control
// surface. Each line is a command; confirmations are answered on the next line.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/action"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/apperr"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/cardsecret"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/notification"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/orderdetail"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/storage/postgres"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/ui"
)

const msgCancelled = "Cancelled."

// History lists recorded operator actions of an order, newest first.
type History interface {
	RecentAuditRows(ctx context.Context, orderID int64, limit int) ([]postgres.AuditRow, error)
}

type Option func(*Console)

// WithHistory enables the history command.
func WithHistory(h History) Option {
	return func(c *Console) { c.history = h }
}

type Console struct {
	term       *Terminal
	store      *ui.Store
	loader     *orderdetail.Loader
	dispatcher *action.Dispatcher
	builder    *cardsecret.Builder
	notifier   *notification.Client
	history    History
	logger     *log.Logger
	registry   *CommandRegistry

	mu     sync.Mutex
	form   *cardsecret.Form
	legacy bool // form lives in the card modal and is sent with deliver
}

func New(term *Terminal, page *Page, store *ui.Store, loader *orderdetail.Loader, dispatcher *action.Dispatcher, builder *cardsecret.Builder, notifier *notification.Client, logger *log.Logger, opts ...Option) *Console {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	c := &Console{
		term:       term,
		store:      store,
		loader:     loader,
		dispatcher: dispatcher,
		builder:    builder,
		notifier:   notifier,
		logger:     logger,
		registry:   NewCommandRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	page.OnReload(c.dropForm)
	c.registerAllCommands()
	return c
}

// Run reads commands until quit, end of input or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	c.term.Printf("Order fulfillment console. Type help for commands.\n")
	for {
		if ctx.Err() != nil {
			return nil
		}
		c.term.Printf("> ")
		line, err := c.term.ReadLine()
		if errors.Is(err, io.EOF) {
			c.term.Printf("\n")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read command: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		resp, err := c.registry.Process(ctx, line)
		if err != nil {
			c.logger.Printf("command %s: %v", strings.Fields(line)[0], err)
			c.term.Printf("⚠️ %v\n", err)
			continue
		}
		if resp.Message != "" {
			c.term.Printf("%s\n", resp.Message)
		}
		if resp.Quit {
			return nil
		}
	}
}

// Execute runs one command line.
func (c *Console) Execute(ctx context.Context, line string) (*CommandResponse, error) {
	return c.registry.Process(ctx, line)
}

func (c *Console) registerAllCommands() {
	r := c.registry

	r.register(&CommandDefinition{
		Canonical:   "help",
		Variations:  []string{"h", "?"},
		Usage:       "help",
		Description: "Show available commands",
		Handler:     c.handleHelp,
	})
	r.register(&CommandDefinition{
		Canonical:   "quit",
		Variations:  []string{"exit", "q"},
		Usage:       "quit",
		Description: "Leave the console",
		Handler: func(context.Context, []string) (*CommandResponse, error) {
			return &CommandResponse{Success: true, Quit: true}, nil
		},
	})

	// ORDER DETAIL
	r.register(&CommandDefinition{
		Canonical:   "detail",
		Variations:  []string{"show"},
		Usage:       "detail <orderId>",
		Description: "Open the order modal with the order's detail",
		MinParams:   1,
		MaxParams:   1,
		Handler:     c.handleDetail,
	})
	r.register(&CommandDefinition{
		Canonical:   "close",
		Usage:       "close",
		Description: "Close the order modal",
		Handler: func(context.Context, []string) (*CommandResponse, error) {
			c.loader.Close()
			return &CommandResponse{Success: true}, nil
		},
	})
	r.register(&CommandDefinition{
		Canonical:   "click",
		Usage:       "click <target> [ancestor...]",
		Description: "Click an element; clicking orderModal itself dismisses it",
		MinParams:   1,
		MaxParams:   16,
		Handler:     c.handleClick,
	})
	r.register(&CommandDefinition{
		Canonical:   "menu",
		Usage:       "menu <orderId>",
		Description: "Toggle the action menu of an order",
		MinParams:   1,
		MaxParams:   1,
		Handler:     c.handleMenu,
	})

	// ORDER ACTIONS
	for _, cmd := range action.Commands() {
		kind := cmd.Kind
		desc := "Order action " + string(kind)
		if cmd.Debug {
			desc += " (self-test)"
		}
		r.register(&CommandDefinition{
			Canonical:   string(kind),
			Usage:       string(kind) + " <orderId>",
			Description: desc,
			MinParams:   1,
			MaxParams:   1,
			Handler: func(ctx context.Context, params []string) (*CommandResponse, error) {
				id, err := parseID(params[0])
				if err != nil {
					return invalid(err), nil
				}
				_, err = c.dispatcher.Dispatch(ctx, kind, id)
				return c.outcome(err, "")
			},
		})
	}
	r.register(&CommandDefinition{
		Canonical:   "batch-notify",
		Usage:       "batch-notify <orderId...>",
		Description: "Notify success for up to 100 orders at once",
		MinParams:   1,
		MaxParams:   action.MaxBatch,
		Handler:     c.handleBatchNotify,
	})

	// CARD SECRETS
	r.register(&CommandDefinition{
		Canonical:   "cards",
		Usage:       "cards <orderId> <quantity>",
		Description: "Open a card secret form in the order detail",
		MinParams:   2,
		MaxParams:   2,
		Handler:     c.handleCards(false),
	})
	r.register(&CommandDefinition{
		Canonical:   "deliver-cards",
		Usage:       "deliver-cards <orderId> <quantity>",
		Description: "Open a card secret form in the card modal (legacy delivery)",
		MinParams:   2,
		MaxParams:   2,
		Handler:     c.handleCards(true),
	})
	r.register(&CommandDefinition{
		Canonical:   "set",
		Usage:       "set <slot> [cardNo] [cardPwd]",
		Description: "Fill a slot of the open form (slots start at 1)",
		MinParams:   1,
		MaxParams:   3,
		Handler:     c.handleSet,
	})
	r.register(&CommandDefinition{
		Canonical:   "autofill",
		Variations:  []string{"generate"},
		Usage:       "autofill [quantity]",
		Description: "Fill the open form with random card secrets",
		MaxParams:   1,
		Handler:     c.handleAutoFill,
	})
	r.register(&CommandDefinition{
		Canonical:   "clear",
		Usage:       "clear [quantity]",
		Description: "Blank the open form",
		MaxParams:   1,
		Handler:     c.handleClear,
	})
	r.register(&CommandDefinition{
		Canonical:   "form",
		Usage:       "form",
		Description: "Show the open form",
		Handler:     c.handleForm,
	})
	r.register(&CommandDefinition{
		Canonical:   "submit",
		Usage:       "submit",
		Description: "Validate and save the open form",
		Handler:     c.handleSubmit,
	})
	r.register(&CommandDefinition{
		Canonical:   "deliver",
		Usage:       "deliver",
		Description: "Validate and deliver the open legacy form",
		Handler:     c.handleDeliver,
	})
	r.register(&CommandDefinition{
		Canonical:   "cancel",
		Usage:       "cancel",
		Description: "Discard the open form",
		Handler: func(context.Context, []string) (*CommandResponse, error) {
			c.builder.Cancel()
			c.dropForm()
			return &CommandResponse{Success: true, Message: msgCancelled}, nil
		},
	})

	// NOTIFICATIONS
	r.register(&CommandDefinition{
		Canonical:   "resend",
		Usage:       "resend <logId>",
		Description: "Resend a vendor notification",
		MinParams:   1,
		MaxParams:   1,
		Handler:     c.handleResend,
	})
	r.register(&CommandDefinition{
		Canonical:   "test-notify",
		Usage:       "test-notify <shopId> [type]",
		Description: "Send a test notification (type defaults to dingtalk)",
		MinParams:   1,
		MaxParams:   2,
		Handler:     c.handleTestNotify,
	})
	r.register(&CommandDefinition{
		Canonical:   "notify-log",
		Usage:       "notify-log <logId>",
		Description: "Show one notification log entry",
		MinParams:   1,
		MaxParams:   1,
		Handler:     c.handleNotifyLog,
	})
	r.register(&CommandDefinition{
		Canonical:   "card91-test",
		Usage:       "card91-test <shopId>",
		Description: "Check a shop's Card91 connection",
		MinParams:   1,
		MaxParams:   1,
		Handler:     c.handleCard91Test,
	})

	// AUDIT
	r.register(&CommandDefinition{
		Canonical:   "history",
		Usage:       "history <orderId> [limit]",
		Description: "List recorded actions of an order",
		MinParams:   1,
		MaxParams:   2,
		Handler:     c.handleHistory,
	})
}

func (c *Console) handleHelp(context.Context, []string) (*CommandResponse, error) {
	var b strings.Builder
	for _, def := range c.registry.Definitions() {
		fmt.Fprintf(&b, "  %-36s %s\n", def.Usage, def.Description)
	}
	return &CommandResponse{Success: true, Message: strings.TrimRight(b.String(), "\n")}, nil
}

func (c *Console) handleDetail(ctx context.Context, params []string) (*CommandResponse, error) {
	id, err := parseID(params[0])
	if err != nil {
		return invalid(err), nil
	}
	err = c.loader.Show(ctx, id)
	if apperr.Kind(err) == apperr.KindPrecondition {
		return c.outcome(err, "")
	}
	return &CommandResponse{Success: err == nil, Message: c.store.Content(ui.OrderDetailContentID)}, nil
}

func (c *Console) handleClick(_ context.Context, params []string) (*CommandResponse, error) {
	c.store.HandleClick(ui.ClickEvent{Target: params[0], Path: params})
	return &CommandResponse{Success: true}, nil
}

func (c *Console) handleMenu(_ context.Context, params []string) (*CommandResponse, error) {
	id, err := parseID(params[0])
	if err != nil {
		return invalid(err), nil
	}
	trigger := fmt.Sprintf("order-%d-actions", id)
	c.store.RegisterDropdown(trigger, fmt.Sprintf("order-%d-menu", id))
	if !c.store.ToggleDropdown(trigger) {
		return &CommandResponse{Success: true, Message: "menu closed"}, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Actions for order %d:", id)
	for _, cmd := range action.Commands() {
		fmt.Fprintf(&b, "\n  %s %d", cmd.Kind, id)
	}
	return &CommandResponse{Success: true, Message: b.String()}, nil
}

func (c *Console) handleBatchNotify(ctx context.Context, params []string) (*CommandResponse, error) {
	ids := make([]int64, 0, len(params))
	for _, p := range params {
		id, err := parseID(p)
		if err != nil {
			return invalid(err), nil
		}
		ids = append(ids, id)
	}
	_, err := c.dispatcher.BatchNotifySuccess(ctx, ids)
	return c.outcome(err, "")
}

func (c *Console) handleCards(legacy bool) CommandHandler {
	return func(_ context.Context, params []string) (*CommandResponse, error) {
		id, err := parseID(params[0])
		if err != nil {
			return invalid(err), nil
		}
		qty, err := strconv.Atoi(params[1])
		if err != nil {
			return invalid(fmt.Errorf("quantity %q is not a number", params[1])), nil
		}

		var f *cardsecret.Form
		if legacy {
			f, err = c.builder.OpenDeliver(id, qty)
		} else {
			f, err = cardsecret.Render(id, qty)
		}
		if err != nil {
			return c.outcome(err, "")
		}
		c.mu.Lock()
		c.form, c.legacy = f, legacy
		c.mu.Unlock()
		return &CommandResponse{Success: true, Message: describeForm(f)}, nil
	}
}

func (c *Console) handleSet(_ context.Context, params []string) (*CommandResponse, error) {
	f, resp := c.openForm()
	if f == nil {
		return resp, nil
	}
	slot, err := strconv.Atoi(params[0])
	if err != nil {
		return invalid(fmt.Errorf("slot %q is not a number", params[0])), nil
	}
	values := append(params[1:], "", "")
	if err := f.Set(slot-1, values[0], values[1]); err != nil {
		return c.outcome(err, "")
	}
	return &CommandResponse{Success: true, Message: "form " + f.State().String()}, nil
}

func (c *Console) handleAutoFill(_ context.Context, params []string) (*CommandResponse, error) {
	qty, resp := optionalQuantity(params)
	if resp != nil {
		return resp, nil
	}
	f, _ := c.openForm()
	// a missing form is reported by AutoFill itself
	return c.outcome(c.builder.AutoFill(f, qty), "")
}

func (c *Console) handleClear(_ context.Context, params []string) (*CommandResponse, error) {
	qty, resp := optionalQuantity(params)
	if resp != nil {
		return resp, nil
	}
	f, resp := c.openForm()
	if f == nil {
		return resp, nil
	}
	return c.outcome(c.builder.Clear(f, qty), "form "+f.State().String())
}

func (c *Console) handleForm(context.Context, []string) (*CommandResponse, error) {
	f, resp := c.openForm()
	if f == nil {
		return resp, nil
	}
	return &CommandResponse{Success: true, Message: describeForm(f)}, nil
}

func (c *Console) handleSubmit(ctx context.Context, params []string) (*CommandResponse, error) {
	f, resp := c.openForm()
	if f == nil {
		return resp, nil
	}
	if c.isLegacy() {
		return c.handleDeliver(ctx, params)
	}
	if err := c.builder.Submit(ctx, f); err != nil {
		return c.outcome(err, "")
	}
	c.dropForm()
	return &CommandResponse{Success: true, Message: c.store.Content(ui.OrderDetailContentID)}, nil
}

func (c *Console) handleDeliver(ctx context.Context, _ []string) (*CommandResponse, error) {
	f, resp := c.openForm()
	if f == nil {
		return resp, nil
	}
	if !c.isLegacy() {
		return &CommandResponse{Message: "⚠️ this form is saved with submit"}, nil
	}
	// a successful delivery reloads the page, which drops the form
	return c.outcome(c.builder.Deliver(ctx, f), "")
}

func (c *Console) handleResend(ctx context.Context, params []string) (*CommandResponse, error) {
	id, err := parseID(params[0])
	if err != nil {
		return invalid(err), nil
	}
	_, err = c.notifier.Resend(ctx, id)
	return c.outcome(err, "")
}

func (c *Console) handleTestNotify(ctx context.Context, params []string) (*CommandResponse, error) {
	id, err := parseID(params[0])
	if err != nil {
		return invalid(err), nil
	}
	var notifyType string
	if len(params) > 1 {
		notifyType = params[1]
	}
	_, err = c.notifier.Test(ctx, id, notifyType)
	return c.outcome(err, "")
}

func (c *Console) handleNotifyLog(ctx context.Context, params []string) (*CommandResponse, error) {
	id, err := parseID(params[0])
	if err != nil {
		return invalid(err), nil
	}
	entry, err := c.notifier.Detail(ctx, id)
	if err != nil {
		return &CommandResponse{Message: notification.MsgOperationFailed}, nil
	}
	status := entry.StatusLabel
	if entry.ErrorMessage != "" {
		status += ": " + entry.ErrorMessage
	}
	return &CommandResponse{
		Success: true,
		Message: fmt.Sprintf("#%d order %d shop %d via %s at %s\n%s", entry.ID, entry.OrderID, entry.ShopID, entry.NotifyType, entry.CreateTime, status),
	}, nil
}

func (c *Console) handleCard91Test(ctx context.Context, params []string) (*CommandResponse, error) {
	id, err := parseID(params[0])
	if err != nil {
		return invalid(err), nil
	}
	_, err = c.notifier.Card91Test(ctx, id)
	return c.outcome(err, "")
}

func (c *Console) handleHistory(ctx context.Context, params []string) (*CommandResponse, error) {
	if c.history == nil {
		return &CommandResponse{Message: "⚠️ audit history is disabled (set AUDIT_DB_ENABLED)"}, nil
	}
	id, err := parseID(params[0])
	if err != nil {
		return invalid(err), nil
	}
	limit := 20
	if len(params) > 1 {
		if limit, err = strconv.Atoi(params[1]); err != nil || limit <= 0 {
			return invalid(fmt.Errorf("limit %q is not a positive number", params[1])), nil
		}
	}
	rows, err := c.history.RecentAuditRows(ctx, id, limit)
	if err != nil {
		c.logger.Printf("history order %d: %v", id, err)
		return &CommandResponse{Message: notification.MsgOperationFailed}, nil
	}
	if len(rows) == 0 {
		return &CommandResponse{Success: true, Message: fmt.Sprintf("No recorded actions for order %d", id)}, nil
	}
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s  %-18s %-9s %s", row.OccurredAt.Local().Format("2006-01-02 15:04:05"), row.Action, row.Outcome, row.Message)
		if row.ErrKind != "" && row.Outcome != "rejected" {
			fmt.Fprintf(&b, " [%s]", row.ErrKind)
		}
	}
	return &CommandResponse{Success: true, Message: b.String()}, nil
}

// outcome turns a component error into a response. Components have already
// alerted the operator about validation, business and transport failures.
func (c *Console) outcome(err error, okMsg string) (*CommandResponse, error) {
	switch apperr.Kind(err) {
	case "":
		return &CommandResponse{Success: true, Message: okMsg}, nil
	case apperr.KindDeclined:
		return &CommandResponse{Message: msgCancelled}, nil
	case apperr.KindPrecondition:
		return &CommandResponse{Message: "⚠️ " + err.Error()}, nil
	default:
		return &CommandResponse{}, nil
	}
}

func (c *Console) openForm() (*cardsecret.Form, *CommandResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.form == nil {
		return nil, &CommandResponse{Message: "⚠️ no card form open (use cards or deliver-cards)"}
	}
	return c.form, nil
}

func (c *Console) isLegacy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.legacy
}

func (c *Console) dropForm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form, c.legacy = nil, false
}

func describeForm(f *cardsecret.Form) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %d, %d card secrets, %s", f.OrderID(), f.Quantity(), f.State())
	for i, e := range f.Entries() {
		no, pwd := cardsecret.SlotNames(i)
		fmt.Fprintf(&b, "\n  %2d. %s=%q %s=%q", i+1, no, e.CardNo, pwd, e.CardPwd)
	}
	return b.String()
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%q is not a valid id", s)
	}
	return id, nil
}

func optionalQuantity(params []string) (int, *CommandResponse) {
	if len(params) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(params[0])
	if err != nil || n < 0 {
		return 0, invalid(fmt.Errorf("quantity %q is not a number", params[0]))
	}
	return n, nil
}

func invalid(err error) *CommandResponse {
	return &CommandResponse{Message: "⚠️ " + err.Error()}
}
