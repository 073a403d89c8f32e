package appointments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vitacare/telecare-backend/internal/notifications"
	"github.com/vitacare/telecare-backend/pkg/db/models"
	"github.com/vitacare/telecare-backend/pkg/enums"
	pkgerrors "github.com/vitacare/telecare-backend/pkg/errors"
	"github.com/vitacare/telecare-backend/pkg/logger"
	"github.com/vitacare/telecare-backend/pkg/outbox"
	"github.com/vitacare/telecare-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type notifier interface {
	Notify(ctx context.Context, params notifications.NotifyParams) error
}

// Service defines booking lifecycle operations outside of payment settlement.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*AppointmentDTO, error)
	SetPrice(ctx context.Context, input SetPriceInput) (*AppointmentDTO, error)
	Complete(ctx context.Context, input CompleteInput) (*AppointmentDTO, error)
	Cancel(ctx context.Context, input CancelInput) (*AppointmentDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*AppointmentDTO, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	notifier notifier
	logg     *logger.Logger
}

// CreateInput captures a new booking request.
type CreateInput struct {
	RequesterID uuid.UUID
	PatientName string
	DoctorID    uuid.UUID
	ScheduledAt time.Time
	Complaint   *string
}

// SetPriceInput carries the operator's quote for a pending booking.
type SetPriceInput struct {
	AppointmentID uuid.UUID
	Price         decimal.Decimal
	ActorUserID   uuid.UUID
}

// CompleteInput marks a confirmed consultation as held.
type CompleteInput struct {
	AppointmentID uuid.UUID
	ActorUserID   uuid.UUID
}

// CancelInput cancels a booking that has no settled payment.
type CancelInput struct {
	AppointmentID uuid.UUID
	Reason        *string
	ActorUserID   uuid.UUID
}

// ListInput configures the booking list for a requester.
type ListInput struct {
	RequesterID uuid.UUID
	Limit       int
	Cursor      string
}

// ListResult wraps returned bookings and the cursor for the next page.
type ListResult struct {
	Items  []AppointmentDTO `json:"items"`
	Cursor string           `json:"cursor"`
}

// AppointmentPricedEvent is emitted when an operator quotes a booking.
type AppointmentPricedEvent struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	PriceCents    int64     `json:"price_cents"`
	Currency      string    `json:"currency"`
}

// AppointmentClosedEvent is emitted on completion or cancellation.
type AppointmentClosedEvent struct {
	AppointmentID uuid.UUID               `json:"appointment_id"`
	Status        enums.AppointmentStatus `json:"status"`
	Reason        *string                 `json:"reason,omitempty"`
}

// NewService wires the appointments dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, notifier notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "appointments repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "appointments tx runner required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "appointments outbox required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "appointments logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   outboxSvc,
		notifier: notifier,
		logg:     logg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*AppointmentDTO, error) {
	if input.RequesterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requester id required")
	}
	if input.DoctorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "doctor id required")
	}
	if strings.TrimSpace(input.PatientName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "patient name required")
	}
	if input.ScheduledAt.IsZero() || input.ScheduledAt.Before(time.Now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheduled time must be in the future")
	}

	appointment := models.Appointment{
		RequesterID: input.RequesterID,
		PatientName: strings.TrimSpace(input.PatientName),
		DoctorID:    input.DoctorID,
		Status:      enums.AppointmentStatusPending,
		ScheduledAt: input.ScheduledAt.UTC(),
		Complaint:   input.Complaint,
		Currency:    "USD",
	}
	if err := s.repo.Create(ctx, &appointment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create appointment")
	}

	ctx = s.logg.WithAppointmentID(ctx, appointment.ID.String())
	s.logg.Info(ctx, "appointment created")
	return FromModel(&appointment, nil), nil
}

func (s *service) SetPrice(ctx context.Context, input SetPriceInput) (*AppointmentDTO, error) {
	if input.AppointmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "appointment id required")
	}
	priceCents, err := toCents(input.Price)
	if err != nil {
		return nil, err
	}

	var updated *models.Appointment
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		appointment, err := repo.FindByIDForUpdate(ctx, input.AppointmentID)
		if err != nil {
			return mapLookupError(err)
		}
		if appointment.Status != enums.AppointmentStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("appointment in status %s cannot be priced", appointment.Status))
		}

		appointment.PriceCents = &priceCents
		appointment.Status = enums.AppointmentStatusAwaitingPayment
		if err := repo.Update(ctx, appointment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update appointment price")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventAppointmentPriced,
			AggregateType: enums.AggregateAppointment,
			AggregateID:   appointment.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: enums.UserRoleOperator.String()},
			Data: AppointmentPricedEvent{
				AppointmentID: appointment.ID,
				PriceCents:    priceCents,
				Currency:      appointment.Currency,
			},
			Version: 1,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit priced event")
		}

		updated = appointment
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	ctx = s.logg.WithAppointmentID(ctx, updated.ID.String())
	s.logg.Info(ctx, "appointment priced")

	s.notifyBestEffort(ctx, notifications.NotifyParams{
		UserID:  updated.RequesterID,
		Type:    enums.NotificationTypeAppointmentPriceQuote,
		Title:   "Consultation price available",
		Message: fmt.Sprintf("Your consultation is quoted at %s %s.", input.Price.StringFixed(2), updated.Currency),
	})

	return FromModel(updated, nil), nil
}

func (s *service) Complete(ctx context.Context, input CompleteInput) (*AppointmentDTO, error) {
	if input.AppointmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "appointment id required")
	}

	var updated *models.Appointment
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		appointment, err := repo.FindByIDForUpdate(ctx, input.AppointmentID)
		if err != nil {
			return mapLookupError(err)
		}
		if !appointment.Status.CanTransitionTo(enums.AppointmentStatusCompleted) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("appointment in status %s cannot be completed", appointment.Status))
		}

		now := time.Now().UTC()
		appointment.Status = enums.AppointmentStatusCompleted
		appointment.CompletedAt = &now
		if err := repo.Update(ctx, appointment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete appointment")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventAppointmentCompleted,
			AggregateType: enums.AggregateAppointment,
			AggregateID:   appointment.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID},
			Data: AppointmentClosedEvent{
				AppointmentID: appointment.ID,
				Status:        appointment.Status,
			},
			Version: 1,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit completed event")
		}

		updated = appointment
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	ctx = s.logg.WithAppointmentID(ctx, updated.ID.String())
	s.logg.Info(ctx, "appointment completed")

	s.notifyBestEffort(ctx, notifications.NotifyParams{
		UserID:  updated.RequesterID,
		Type:    enums.NotificationTypeAppointmentCompleted,
		Title:   "Consultation completed",
		Message: "Thank you for visiting. Your consultation has been marked as completed.",
	})

	return FromModel(updated, nil), nil
}

// Cancel closes a booking that has not settled a payment. Bookings with a
// completed payment must go through the payment cancellation flow so the
// refund ledger stays consistent.
func (s *service) Cancel(ctx context.Context, input CancelInput) (*AppointmentDTO, error) {
	if input.AppointmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "appointment id required")
	}

	var updated *models.Appointment
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		appointment, err := repo.FindByIDForUpdate(ctx, input.AppointmentID)
		if err != nil {
			return mapLookupError(err)
		}
		if appointment.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("appointment in status %s cannot be cancelled", appointment.Status))
		}

		payment, err := repo.FindPayment(ctx, appointment.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		if payment != nil && payment.Status == enums.PaymentStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				"appointment has a settled payment; cancel the payment instead")
		}

		now := time.Now().UTC()
		appointment.Status = enums.AppointmentStatusCancelled
		appointment.CancelledAt = &now
		appointment.CancelReason = input.Reason
		if err := repo.Update(ctx, appointment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel appointment")
		}

		if payment != nil && payment.Status == enums.PaymentStatusPending {
			payment.Status = enums.PaymentStatusCancelled
			payment.CancelledAt = &now
			if err := tx.WithContext(ctx).Save(payment).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "void pending payment")
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventAppointmentCancelled,
			AggregateType: enums.AggregateAppointment,
			AggregateID:   appointment.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID},
			Data: AppointmentClosedEvent{
				AppointmentID: appointment.ID,
				Status:        appointment.Status,
				Reason:        input.Reason,
			},
			Version: 1,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit cancelled event")
		}

		updated = appointment
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	ctx = s.logg.WithAppointmentID(ctx, updated.ID.String())
	s.logg.Info(ctx, "appointment cancelled")

	s.notifyBestEffort(ctx, notifications.NotifyParams{
		UserID:  updated.RequesterID,
		Type:    enums.NotificationTypeAppointmentCancelled,
		Title:   "Appointment cancelled",
		Message: "Your appointment has been cancelled.",
	})

	return FromModel(updated, nil), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*AppointmentDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "appointment id required")
	}
	appointment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}
	payment, err := s.repo.FindPayment(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return FromModel(appointment, payment), nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	if input.RequesterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requester id required")
	}

	query := listAppointmentsParams{
		RequesterID: input.RequesterID,
		Limit:       input.Limit,
	}
	if input.Cursor != "" {
		cursor, err := pagination.ParseCursor(input.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListByRequester(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list appointments")
	}

	result := &ListResult{Items: make([]AppointmentDTO, 0, len(rows))}
	for i := range rows {
		result.Items = append(result.Items, *FromModel(&rows[i], nil))
	}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) notifyBestEffort(ctx context.Context, params notifications.NotifyParams) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, params); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "notification_type", params.Type), "notification delivery failed")
	}
}

// toCents converts a decimal price into integer minor units, rejecting
// sub-cent precision.
func toCents(price decimal.Decimal) (int64, error) {
	if price.LessThanOrEqual(decimal.Zero) {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	cents := price.Mul(decimal.NewFromInt(100))
	if !cents.IsInteger() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "price cannot have sub-cent precision")
	}
	return cents.IntPart(), nil
}

func mapLookupError(err error) error {
	if err == nil {
		return nil
	}
	if err == ErrNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "appointment not found")
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load appointment")
}
