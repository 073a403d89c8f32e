package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/vitacare/telecare-backend/internal/notifications"
	"github.com/vitacare/telecare-backend/internal/users"
	"github.com/vitacare/telecare-backend/pkg/db/models"
	"github.com/vitacare/telecare-backend/pkg/enums"
	"github.com/vitacare/telecare-backend/pkg/logger"
	"github.com/vitacare/telecare-backend/pkg/meetings"
)

// MeetingProvisioner creates a video consultation room for a confirmed booking.
type MeetingProvisioner interface {
	CreateMeeting(ctx context.Context, params meetings.MeetingParams) (string, error)
}

// Notifier delivers in-app and email notifications.
type Notifier interface {
	Notify(ctx context.Context, params notifications.NotifyParams) error
}

// sideEffects runs everything that must not block or fail settlement:
// meeting provisioning, patient notifications, and the operator fan-out.
// Every method swallows errors after logging them.
type sideEffects struct {
	meetings    MeetingProvisioner
	notifier    Notifier
	users       users.Repository
	logg        *logger.Logger
	fanoutLimit int
}

// meetingLink provisions the consultation room. A failure returns an empty
// link so settlement proceeds without one.
func (e *sideEffects) meetingLink(ctx context.Context, appointment *models.Appointment, duration meetings.MeetingParams) string {
	if e.meetings == nil {
		return ""
	}
	params := duration
	params.Summary = fmt.Sprintf("Consultation: %s", appointment.PatientName)
	params.StartsAt = appointment.ScheduledAt

	link, err := e.meetings.CreateMeeting(ctx, params)
	if err != nil {
		e.logg.Warn(e.logg.WithAppointmentID(ctx, appointment.ID.String()), "meeting provisioning failed")
		return ""
	}
	return link
}

// notifyConfirmed fans out payment confirmation to the requester and the
// on-call operators.
func (e *sideEffects) notifyConfirmed(ctx context.Context, appointment *models.Appointment, payment *models.Payment) {
	if e.notifier == nil {
		return
	}

	var errs error

	requester := e.lookupUser(ctx, appointment.RequesterID)
	params := notifications.NotifyParams{
		UserID:  appointment.RequesterID,
		Type:    enums.NotificationTypePaymentConfirmed,
		Title:   "Payment confirmed",
		Message: "Your payment has been received and the appointment is confirmed.",
		Link:    appointment.MeetingLink,
	}
	if requester != nil {
		params.EmailAddress = requester.Email
		params.EmailName = requester.FirstName
	}
	errs = multierr.Append(errs, e.notifier.Notify(ctx, params))

	operators, err := e.listOperators(ctx)
	errs = multierr.Append(errs, err)
	for _, operator := range operators {
		errs = multierr.Append(errs, e.notifier.Notify(ctx, notifications.NotifyParams{
			UserID:  operator.ID,
			Type:    enums.NotificationTypeOperatorPaymentAlert,
			Title:   "Payment received",
			Message: fmt.Sprintf("Payment settled for appointment %s.", appointment.ID),
		}))
	}

	e.logFanout(ctx, appointment, "payment confirmation fan-out incomplete", errs)
}

// notifyRefund informs the requester about a partial or full refund. The
// amount rendered is the one this settlement applied, not the running ledger
// total.
func (e *sideEffects) notifyRefund(ctx context.Context, appointment *models.Appointment, payment *models.Payment, appliedCents int64, full bool) {
	if e.notifier == nil {
		return
	}

	title := "Refund issued"
	message := fmt.Sprintf("A refund of %d.%02d %s has been issued for your appointment.",
		appliedCents/100, appliedCents%100, payment.Currency)
	notificationType := enums.NotificationTypePaymentRefunded
	if full {
		title = "Appointment cancelled and refunded"
		message = "Your appointment was cancelled and the payment fully refunded."
		notificationType = enums.NotificationTypeAppointmentCancelled
	}

	params := notifications.NotifyParams{
		UserID:  appointment.RequesterID,
		Type:    notificationType,
		Title:   title,
		Message: message,
	}
	if requester := e.lookupUser(ctx, appointment.RequesterID); requester != nil {
		params.EmailAddress = requester.Email
		params.EmailName = requester.FirstName
	}

	e.logFanout(ctx, appointment, "refund notification failed", e.notifier.Notify(ctx, params))
}

func (e *sideEffects) lookupUser(ctx context.Context, id uuid.UUID) *models.User {
	if e.users == nil {
		return nil
	}
	user, err := e.users.GetByID(ctx, id)
	if err != nil {
		return nil
	}
	return user
}

func (e *sideEffects) listOperators(ctx context.Context) ([]models.User, error) {
	if e.users == nil {
		return nil, nil
	}
	return e.users.ListActiveByRole(ctx, enums.UserRoleOperator, e.fanoutLimit)
}

func (e *sideEffects) logFanout(ctx context.Context, appointment *models.Appointment, msg string, errs error) {
	if errs == nil {
		return
	}
	ctx = e.logg.WithAppointmentID(ctx, appointment.ID.String())
	e.logg.Warn(e.logg.WithField(ctx, "errors", errs.Error()), msg)
}
