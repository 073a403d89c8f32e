package enums

import "fmt"

// AppointmentStatus tracks the lifecycle of a consultation appointment.
type AppointmentStatus string

const (
	AppointmentStatusPending         AppointmentStatus = "pending"
	AppointmentStatusAwaitingPayment AppointmentStatus = "awaiting_payment"
	AppointmentStatusConfirmed       AppointmentStatus = "confirmed"
	AppointmentStatusCompleted       AppointmentStatus = "completed"
	AppointmentStatusCancelled       AppointmentStatus = "cancelled"
)

var validAppointmentStatuses = []AppointmentStatus{
	AppointmentStatusPending,
	AppointmentStatusAwaitingPayment,
	AppointmentStatusConfirmed,
	AppointmentStatusCompleted,
	AppointmentStatusCancelled,
}

// String implements fmt.Stringer.
func (a AppointmentStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AppointmentStatus.
func (a AppointmentStatus) IsValid() bool {
	for _, candidate := range validAppointmentStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (a AppointmentStatus) IsTerminal() bool {
	return a == AppointmentStatusCompleted || a == AppointmentStatusCancelled
}

// CanTransitionTo reports whether moving from the current status to next is a
// legal edge of the appointment state machine. Cancellation is reachable from
// every non-terminal state; the forward path is strictly
// pending -> awaiting_payment -> confirmed -> completed.
func (a AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	if a.IsTerminal() {
		return false
	}
	switch next {
	case AppointmentStatusCancelled:
		return true
	case AppointmentStatusAwaitingPayment:
		return a == AppointmentStatusPending
	case AppointmentStatusConfirmed:
		return a == AppointmentStatusAwaitingPayment
	case AppointmentStatusCompleted:
		return a == AppointmentStatusConfirmed
	default:
		return false
	}
}

// ParseAppointmentStatus converts raw input into an AppointmentStatus.
func ParseAppointmentStatus(value string) (AppointmentStatus, error) {
	for _, candidate := range validAppointmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid appointment status %q", value)
}
