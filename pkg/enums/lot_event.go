package enums

import "fmt"

// LotEventKind identifies the lifecycle events an admin can fan out to a lot's
// participants. The wire values match the inbound API contract.
type LotEventKind string

const (
	LotEventPaymentReminder LotEventKind = "payment-reminder"
	LotEventDelivery        LotEventKind = "delivery"
)

var validLotEventKinds = []LotEventKind{
	LotEventPaymentReminder,
	LotEventDelivery,
}

// IsValid checks whether the given kind matches the canonical enum.
func (k LotEventKind) IsValid() bool {
	for _, candidate := range validLotEventKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// NotificationType returns the notification type created for this event kind.
func (k LotEventKind) NotificationType() NotificationType {
	switch k {
	case LotEventPaymentReminder:
		return NotificationTypePaymentReminder
	case LotEventDelivery:
		return NotificationTypeDelivery
	default:
		return NotificationTypeGeneric
	}
}

// ParseLotEventKind converts raw strings into LotEventKind.
func ParseLotEventKind(value string) (LotEventKind, error) {
	for _, candidate := range validLotEventKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lot event kind %q", value)
}
