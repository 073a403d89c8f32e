package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypePaymentConfirmed      NotificationType = "payment_confirmed"
	NotificationTypePaymentRefunded       NotificationType = "payment_refunded"
	NotificationTypeAppointmentCancelled  NotificationType = "appointment_cancelled"
	NotificationTypeAppointmentCompleted  NotificationType = "appointment_completed"
	NotificationTypeOperatorPaymentAlert  NotificationType = "operator_payment_alert"
	NotificationTypeAppointmentPriceQuote NotificationType = "appointment_price_quote"
)

var validNotificationTypes = []NotificationType{
	NotificationTypePaymentConfirmed,
	NotificationTypePaymentRefunded,
	NotificationTypeAppointmentCancelled,
	NotificationTypeAppointmentCompleted,
	NotificationTypeOperatorPaymentAlert,
	NotificationTypeAppointmentPriceQuote,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
