package payments

import (
	"time"

	"github.com/google/uuid"

	"github.com/vitacare/telecare-backend/pkg/db/models"
	"github.com/vitacare/telecare-backend/pkg/enums"
)

// PaymentDTO exposes the settlement state of a single payment.
type PaymentDTO struct {
	ID              uuid.UUID           `json:"id"`
	AppointmentID   uuid.UUID           `json:"appointment_id"`
	Status          enums.PaymentStatus `json:"status"`
	AmountCents     int64               `json:"amount_cents"`
	RefundedCents   int64               `json:"refunded_cents"`
	RefundableCents int64               `json:"refundable_cents"`
	Currency        string              `json:"currency"`
	GatewayTxKey    *string             `json:"gateway_tx_key,omitempty"`
	GatewayAuthNo   *string             `json:"gateway_auth_no,omitempty"`
	ApprovedAt      *time.Time          `json:"approved_at,omitempty"`
	CancelledAt     *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

// CheckoutDTO is handed to the booking UI to open the gateway checkout.
type CheckoutDTO struct {
	Payment   PaymentDTO        `json:"payment"`
	Params    map[string]string `json:"params"`
	Signature string            `json:"signature"`
}

// FromModel maps the persisted payment into a DTO.
func FromModel(m *models.Payment) *PaymentDTO {
	if m == nil {
		return nil
	}
	return &PaymentDTO{
		ID:              m.ID,
		AppointmentID:   m.AppointmentID,
		Status:          m.Status,
		AmountCents:     m.AmountCents,
		RefundedCents:   m.RefundedCents,
		RefundableCents: m.RefundableCents(),
		Currency:        m.Currency,
		GatewayTxKey:    m.GatewayTxKey,
		GatewayAuthNo:   m.GatewayAuthNo,
		ApprovedAt:      m.ApprovedAt,
		CancelledAt:     m.CancelledAt,
		CreatedAt:       m.CreatedAt,
	}
}
