package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vitacare/telecare-backend/pkg/enums"
)

// Payment is the single payment record attached to an appointment. AmountCents
// is fixed at creation; RefundedCents only ever grows and never exceeds it.
type Payment struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AppointmentID uuid.UUID           `gorm:"column:appointment_id;type:uuid;not null;uniqueIndex:uq_payments_appointment_id"`
	Status        enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	AmountCents   int64               `gorm:"column:amount_cents;not null"`
	RefundedCents int64               `gorm:"column:refunded_cents;not null;default:0"`
	Currency      string              `gorm:"column:currency;type:text;not null;default:'USD'"`
	GatewayTxKey  *string             `gorm:"column:gateway_tx_key;type:text"`
	GatewayAuthNo *string             `gorm:"column:gateway_auth_no;type:text"`
	ApprovedAt    *time.Time          `gorm:"column:approved_at"`
	CancelledAt   *time.Time          `gorm:"column:cancelled_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// RefundableCents returns how much of the original charge is still refundable.
func (p Payment) RefundableCents() int64 {
	remaining := p.AmountCents - p.RefundedCents
	if remaining < 0 {
		return 0
	}
	return remaining
}
