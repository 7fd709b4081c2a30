package backend

import (
	"encoding/json"
	"errors"
)

// ErrMalformedResult is returned when a response body does not carry both
// "success" and "message".
var ErrMalformedResult = errors.New("malformed result: success and message are required")

// Result is the universal {success, message} answer of every command endpoint.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// UnmarshalJSON rejects bodies that omit either field instead of silently
// defaulting them.
func (r *Result) UnmarshalJSON(b []byte) error {
	var raw struct {
		Success *bool   `json:"success"`
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Success == nil || raw.Message == nil {
		return ErrMalformedResult
	}
	r.Success = *raw.Success
	r.Message = *raw.Message
	return nil
}

// Card is one card-secret pair as the backend expects it.
type Card struct {
	CardNo  string `json:"cardNo"`
	CardPwd string `json:"cardPwd"`
}

// CardBatch is the body of both card submission endpoints.
type CardBatch struct {
	Cards []Card `json:"cards"`
}

type BatchNotifyRequest struct {
	OrderIDs []int64 `json:"order_ids"`
}

// BatchFailure explains why one order of a batch was not notified.
type BatchFailure struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

// BatchNotifyResult answers /order/batch-notify-success. Message is only set
// when the whole request was refused.
type BatchNotifyResult struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message,omitempty"`
	OKCount   int            `json:"ok_count"`
	FailCount int            `json:"fail_count"`
	Fails     []BatchFailure `json:"fails"`
}

type ResendRequest struct {
	LogID int64 `json:"log_id"`
}

type TestNotificationRequest struct {
	ShopID     int64  `json:"shop_id"`
	NotifyType string `json:"notify_type"`
}

// NotificationLog is the detail view of one vendor notification attempt.
type NotificationLog struct {
	ID              int64  `json:"id"`
	OrderID         int64  `json:"order_id"`
	ShopID          int64  `json:"shop_id"`
	NotifyType      string `json:"notify_type"`
	NotifyTypeLabel string `json:"notify_type_label"`
	NotifyStatus    int    `json:"notify_status"`
	StatusLabel     string `json:"status_label"`
	ErrorMessage    string `json:"error_message"`
	CreateTime      string `json:"create_time"`
}

// Delivered reports whether the notification reached the vendor.
func (l NotificationLog) Delivered() bool { return l.NotifyStatus == 1 }
