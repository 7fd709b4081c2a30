package backend

import "fmt"

// Endpoint paths of the admin panel backend.
const (
	BatchNotifySuccessPath = "/order/batch-notify-success"
	TestNotificationPath   = "/shop/test-notification"
	ResendNotificationPath = "/notification/resend"
)

func OrderDetailHTMLPath(orderID int64) string {
	return fmt.Sprintf("/order/%d/detail-html", orderID)
}

// OrderActionPath builds /order/{id}/{action}.
func OrderActionPath(orderID int64, action string) string {
	return fmt.Sprintf("/order/%d/%s", orderID, action)
}

func SaveCardsPath(orderID int64) string {
	return fmt.Sprintf("/order/%d/save-cards", orderID)
}

func DeliverCardPath(orderID int64) string {
	return fmt.Sprintf("/order/deliver-card/%d", orderID)
}

func NotificationDetailPath(logID int64) string {
	return fmt.Sprintf("/notification/detail/%d", logID)
}

func Card91TestPath(shopID int64) string {
	return fmt.Sprintf("/shop/card91-test/%d", shopID)
}
