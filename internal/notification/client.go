// Package notification resends and tests vendor notifications.
package notification

import (
	"context"
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

const (
	// DefaultNotifyType is used when a test names no channel.
	DefaultNotifyType = "dingtalk"

	PromptResend       = "Resend this notification?"
	MsgOperationFailed = ui.FailureMark + "Operation failed"
)

// Backend is the part of the backend client notifications need.
type Backend interface {
	PostResult(ctx context.Context, path string, body any) (backend.Result, error)
	GetResult(ctx context.Context, path string) (backend.Result, error)
	GetJSON(ctx context.Context, path string, out any) error
}

type Client struct {
	backend  Backend
	operator ui.Operator
	page     ui.Page
	trail    *audit.Trail
	logger   *log.Logger
}

func NewClient(b Backend, operator ui.Operator, page ui.Page, trail *audit.Trail, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{backend: b, operator: operator, page: page, trail: trail, logger: logger}
}

// Resend asks the backend to send notification log logID again. The page
// reloads on success.
func (c *Client) Resend(ctx context.Context, logID int64) (backend.Result, error) {
	if !c.operator.Confirm(PromptResend) {
		return backend.Result{}, apperr.ErrDeclined
	}
	ctx, span := telemetry.Tracer().Start(ctx, "notification.Resend")
	defer span.End()
	span.SetAttributes(attribute.Int64("notification.log_id", logID))

	res, err := c.post(ctx, "resend-notification", backend.ResendNotificationPath, backend.ResendRequest{LogID: logID})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resend")
		return res, err
	}
	if res.Success {
		c.page.Reload()
	}
	return res, nil
}

// Test sends a test message through a shop's notification channel. It is
// not confirmed and never reloads.
func (c *Client) Test(ctx context.Context, shopID int64, notifyType string) (backend.Result, error) {
	if notifyType == "" {
		notifyType = DefaultNotifyType
	}
	ctx, span := telemetry.Tracer().Start(ctx, "notification.Test")
	defer span.End()
	span.SetAttributes(attribute.Int64("shop.id", shopID), attribute.String("notification.type", notifyType))

	res, err := c.post(ctx, "test-notification", backend.TestNotificationPath, backend.TestNotificationRequest{ShopID: shopID, NotifyType: notifyType})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "test")
	}
	return res, err
}

// Card91Test checks a shop's Card91 credentials.
func (c *Client) Card91Test(ctx context.Context, shopID int64) (backend.Result, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "notification.Card91Test")
	defer span.End()
	span.SetAttributes(attribute.Int64("shop.id", shopID))

	path := backend.Card91TestPath(shopID)
	res, err := c.backend.GetResult(ctx, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "card91 test")
		c.logger.Printf("shop %d: card91 test: %v", shopID, err)
		c.operator.Alert(MsgOperationFailed)
		return backend.Result{}, fmt.Errorf("card91 test shop %d: %w", shopID, err)
	}
	ui.Announce(c.operator, res.Success, res.Message)
	return res, nil
}

// Detail fetches one notification log entry.
func (c *Client) Detail(ctx context.Context, logID int64) (backend.NotificationLog, error) {
	var entry backend.NotificationLog
	if err := c.backend.GetJSON(ctx, backend.NotificationDetailPath(logID), &entry); err != nil {
		c.logger.Printf("notification %d: detail: %v", logID, err)
		return backend.NotificationLog{}, fmt.Errorf("notification %d detail: %w", logID, err)
	}
	return entry, nil
}

func (c *Client) post(ctx context.Context, action, path string, body any) (backend.Result, error) {
	res, err := c.backend.PostResult(ctx, path, body)
	c.trail.Record(ctx, audit.NewRecord(action, 0, path, res.Success, res.Message, err))
	if err != nil {
		c.logger.Printf("%s: %v", action, err)
		c.operator.Alert(MsgOperationFailed)
		return backend.Result{}, fmt.Errorf("%s: %w", action, err)
	}
	ui.Announce(c.operator, res.Success, res.Message)
	if !res.Success {
		return res, &apperr.BusinessError{Message: res.Message}
	}
	return res, nil
}
