package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vitacare/telecare-backend/pkg/enums"
)

// Appointment tracks a consultation booking through its lifecycle.
// PriceCents stays null until an operator quotes the visit; it must be set
// before the appointment can leave the pending status.
type Appointment struct {
	ID           uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequesterID  uuid.UUID               `gorm:"column:requester_id;type:uuid;not null"`
	PatientName  string                  `gorm:"column:patient_name;type:text;not null"`
	DoctorID     uuid.UUID               `gorm:"column:doctor_id;type:uuid;not null"`
	Status       enums.AppointmentStatus `gorm:"column:status;type:appointment_status;not null;default:'pending'"`
	ScheduledAt  time.Time               `gorm:"column:scheduled_at;type:timestamptz;not null"`
	Complaint    *string                 `gorm:"column:complaint;type:text"`
	PriceCents   *int64                  `gorm:"column:price_cents"`
	Currency     string                  `gorm:"column:currency;type:text;not null;default:'USD'"`
	MeetingLink  *string                 `gorm:"column:meeting_link;type:text"`
	CancelledAt  *time.Time              `gorm:"column:cancelled_at"`
	CancelReason *string                 `gorm:"column:cancel_reason;type:text"`
	CompletedAt  *time.Time              `gorm:"column:completed_at"`
	CreatedAt    time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
