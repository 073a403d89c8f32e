package appointments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vitacare/telecare-backend/pkg/db/models"
	"github.com/vitacare/telecare-backend/pkg/enums"
)

// AppointmentDTO exposes booking data in API responses.
type AppointmentDTO struct {
	ID           uuid.UUID               `json:"id"`
	RequesterID  uuid.UUID               `json:"requester_id"`
	PatientName  string                  `json:"patient_name"`
	DoctorID     uuid.UUID               `json:"doctor_id"`
	Status       enums.AppointmentStatus `json:"status"`
	ScheduledAt  time.Time               `json:"scheduled_at"`
	Complaint    *string                 `json:"complaint,omitempty"`
	Price        *string                 `json:"price,omitempty"`
	Currency     string                  `json:"currency"`
	MeetingLink  *string                 `json:"meeting_link,omitempty"`
	CancelledAt  *time.Time              `json:"cancelled_at,omitempty"`
	CancelReason *string                 `json:"cancel_reason,omitempty"`
	CompletedAt  *time.Time              `json:"completed_at,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
	Payment      *PaymentSummaryDTO      `json:"payment,omitempty"`
}

// PaymentSummaryDTO is the payment view embedded in appointment reads.
type PaymentSummaryDTO struct {
	ID            uuid.UUID           `json:"id"`
	Status        enums.PaymentStatus `json:"status"`
	AmountCents   int64               `json:"amount_cents"`
	RefundedCents int64               `json:"refunded_cents"`
	Currency      string              `json:"currency"`
	ApprovedAt    *time.Time          `json:"approved_at,omitempty"`
	CancelledAt   *time.Time          `json:"cancelled_at,omitempty"`
}

// FromModel maps the persisted appointment into a DTO.
func FromModel(m *models.Appointment, payment *models.Payment) *AppointmentDTO {
	if m == nil {
		return nil
	}

	dto := &AppointmentDTO{
		ID:           m.ID,
		RequesterID:  m.RequesterID,
		PatientName:  m.PatientName,
		DoctorID:     m.DoctorID,
		Status:       m.Status,
		ScheduledAt:  m.ScheduledAt,
		Complaint:    m.Complaint,
		Currency:     m.Currency,
		MeetingLink:  m.MeetingLink,
		CancelledAt:  m.CancelledAt,
		CancelReason: m.CancelReason,
		CompletedAt:  m.CompletedAt,
		CreatedAt:    m.CreatedAt,
	}
	if m.PriceCents != nil {
		price := decimal.NewFromInt(*m.PriceCents).Div(decimal.NewFromInt(100)).StringFixed(2)
		dto.Price = &price
	}
	if payment != nil {
		dto.Payment = &PaymentSummaryDTO{
			ID:            payment.ID,
			Status:        payment.Status,
			AmountCents:   payment.AmountCents,
			RefundedCents: payment.RefundedCents,
			Currency:      payment.Currency,
			ApprovedAt:    payment.ApprovedAt,
			CancelledAt:   payment.CancelledAt,
		}
	}
	return dto
}
