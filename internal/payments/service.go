package payments

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vitacare/telecare-backend/internal/users"
	"github.com/vitacare/telecare-backend/pkg/db/models"
	"github.com/vitacare/telecare-backend/pkg/enums"
	pkgerrors "github.com/vitacare/telecare-backend/pkg/errors"
	"github.com/vitacare/telecare-backend/pkg/gateway"
	"github.com/vitacare/telecare-backend/pkg/logger"
	"github.com/vitacare/telecare-backend/pkg/meetings"
	"github.com/vitacare/telecare-backend/pkg/metrics"
	"github.com/vitacare/telecare-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// GatewayClient is the slice of the processor the engine needs: refunds and
// checkout-parameter signing.
type GatewayClient interface {
	Cancel(ctx context.Context, params gateway.RefundParams) (*gateway.RefundResult, error)
	SignCheckoutParams(params map[string]string) string
}

// ConfirmOutcome describes what a confirmation attempt actually did.
type ConfirmOutcome string

const (
	OutcomeConfirmed        ConfirmOutcome = "confirmed"
	OutcomeAlreadyCompleted ConfirmOutcome = "already_completed"
	OutcomeKeysUpdated      ConfirmOutcome = "keys_updated"
)

// CancelOutcome describes how a cancellation settled.
type CancelOutcome string

const (
	OutcomeVoided       CancelOutcome = "voided"
	OutcomeRefundIssued CancelOutcome = "refund_issued"
)

// Service is the appointment/payment reconciliation engine.
type Service interface {
	Initiate(ctx context.Context, input InitiateInput) (*CheckoutDTO, error)
	Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error)
	Cancel(ctx context.Context, input CancelInput) (*CancelResult, error)
	ProcessRefundSuccess(ctx context.Context, input RefundSuccessInput) (*RefundResult, error)
	Get(ctx context.Context, id uuid.UUID) (*PaymentDTO, error)
}

type service struct {
	repo            Repository
	tx              txRunner
	outbox          outboxPublisher
	gateway         GatewayClient
	effects         *sideEffects
	metrics         *metrics.ReconcileMetrics
	logg            *logger.Logger
	meetingDuration time.Duration
}

// Config collects the engine's tunables.
type Config struct {
	MeetingDuration     time.Duration
	OperatorFanoutLimit int
}

// InitiateInput starts (or resumes) checkout for a priced appointment.
type InitiateInput struct {
	AppointmentID uuid.UUID
	ActorUserID   uuid.UUID
}

// ConfirmInput carries the gateway's approval data for a payment.
type ConfirmInput struct {
	PaymentID     uuid.UUID
	GatewayTxKey  string
	GatewayAuthNo string
	AmountCents   int64
	ApprovedAt    time.Time
	ActorUserID   uuid.UUID
}

// ConfirmResult reports the outcome of an idempotent confirmation.
type ConfirmResult struct {
	Outcome ConfirmOutcome `json:"outcome"`
	Payment PaymentDTO     `json:"payment"`
}

// CancelInput requests a void or refund. A nil AmountCents refunds the full
// refundable balance.
type CancelInput struct {
	PaymentID   uuid.UUID
	AmountCents *int64
	Reason      *string
	ActorUserID uuid.UUID
}

// CancelResult reports how the cancellation settled.
type CancelResult struct {
	Outcome CancelOutcome `json:"outcome"`
	Payment PaymentDTO    `json:"payment"`
}

// RefundSuccessInput applies a refund the gateway has already settled.
type RefundSuccessInput struct {
	PaymentID       uuid.UUID
	AmountCents     int64
	GatewayRefundID string
}

// RefundResult reports the ledger state after a refund settlement.
type RefundResult struct {
	AppliedCents int64      `json:"applied_cents"`
	FullRefund   bool       `json:"full_refund"`
	Payment      PaymentDTO `json:"payment"`
}

// PaymentConfirmedEvent is emitted when a payment settles.
type PaymentConfirmedEvent struct {
	PaymentID     uuid.UUID `json:"payment_id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	AmountCents   int64     `json:"amount_cents"`
	Currency      string    `json:"currency"`
}

// PaymentRefundedEvent is emitted when refund money moves on the ledger.
type PaymentRefundedEvent struct {
	PaymentID     uuid.UUID `json:"payment_id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	AppliedCents  int64     `json:"applied_cents"`
	RefundedCents int64     `json:"refunded_cents"`
	FullRefund    bool      `json:"full_refund"`
}

// PaymentVoidedEvent is emitted when a pending payment is voided.
type PaymentVoidedEvent struct {
	PaymentID     uuid.UUID `json:"payment_id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
}

// NewService wires the reconciliation engine.
func NewService(
	repo Repository,
	tx txRunner,
	outboxSvc outboxPublisher,
	gatewayClient GatewayClient,
	provisioner MeetingProvisioner,
	notifier Notifier,
	userRepo users.Repository,
	reconcileMetrics *metrics.ReconcileMetrics,
	logg *logger.Logger,
	cfg Config,
) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payments repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payments tx runner required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payments outbox required")
	}
	if gatewayClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payments gateway client required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payments logger required")
	}

	duration := cfg.MeetingDuration
	if duration <= 0 {
		duration = 30 * time.Minute
	}
	fanout := cfg.OperatorFanoutLimit
	if fanout <= 0 {
		fanout = 20
	}

	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  outboxSvc,
		gateway: gatewayClient,
		effects: &sideEffects{
			meetings:    provisioner,
			notifier:    notifier,
			users:       userRepo,
			logg:        logg,
			fanoutLimit: fanout,
		},
		metrics:         reconcileMetrics,
		logg:            logg,
		meetingDuration: duration,
	}, nil
}

// Initiate lazily creates the appointment's single payment record and returns
// signed checkout parameters. Calling it again while the payment is still
// pending returns the same record.
func (s *service) Initiate(ctx context.Context, input InitiateInput) (*CheckoutDTO, error) {
	if input.AppointmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "appointment id required")
	}

	var payment *models.Payment
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		appointment, err := repo.FindAppointmentForUpdate(ctx, input.AppointmentID)
		if err != nil {
			return mapAppointmentLookup(err)
		}

		// The settled-payment check runs before the appointment status gate:
		// a confirmed appointment re-initiated for payment must report that
		// it is already paid, not that its status is wrong.
		existing, err := repo.FindByAppointmentID(ctx, appointment.ID)
		if err != nil && err != ErrNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		if existing != nil {
			switch existing.Status {
			case enums.PaymentStatusCompleted:
				return pkgerrors.New(pkgerrors.CodeConflict, "appointment is already paid")
			case enums.PaymentStatusCancelled:
				return pkgerrors.New(pkgerrors.CodeStateConflict, "payment is cancelled")
			}
		}

		if appointment.Status != enums.AppointmentStatusAwaitingPayment {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("appointment in status %s is not payable", appointment.Status))
		}
		if appointment.PriceCents == nil || *appointment.PriceCents <= 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "appointment has no price")
		}

		if existing != nil {
			payment = existing
			return nil
		}

		created := models.Payment{
			AppointmentID: appointment.ID,
			Status:        enums.PaymentStatusPending,
			AmountCents:   *appointment.PriceCents,
			Currency:      appointment.Currency,
		}
		if err := repo.Create(ctx, &created); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}
		payment = &created
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	params := map[string]string{
		"payment_id":   payment.ID.String(),
		"amount_cents": strconv.FormatInt(payment.AmountCents, 10),
		"currency":     payment.Currency,
	}

	ctx = s.logg.WithPaymentID(ctx, payment.ID.String())
	s.logg.Info(ctx, "payment initiated")

	return &CheckoutDTO{
		Payment:   *FromModel(payment),
		Params:    params,
		Signature: s.gateway.SignCheckoutParams(params),
	}, nil
}

// Confirm settles a pending payment. Re-delivered confirmations are absorbed:
// an already-completed payment only ever has its missing gateway keys
// backfilled, nothing else changes.
func (s *service) Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error) {
	if input.PaymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}

	ctx = s.logg.WithPaymentID(ctx, input.PaymentID.String())

	// The meeting link is a courtesy; settlement never waits on it. It is
	// provisioned before the transaction opens so the payment and appointment
	// rows are never locked across the calendar call.
	link := s.provisionLink(ctx, input.PaymentID)

	var (
		outcome     ConfirmOutcome
		payment     *models.Payment
		appointment *models.Appointment
	)
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.FindByIDForUpdate(ctx, input.PaymentID)
		if err != nil {
			return mapPaymentLookup(err)
		}

		switch row.Status {
		case enums.PaymentStatusCancelled:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment is cancelled")

		case enums.PaymentStatusCompleted:
			outcome = OutcomeAlreadyCompleted
			if backfillKeys(row, input) {
				if err := repo.Update(ctx, row); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "backfill gateway keys")
				}
				outcome = OutcomeKeysUpdated
			}
			payment = row
			return nil
		}

		appt, err := repo.FindAppointmentForUpdate(ctx, row.AppointmentID)
		if err != nil {
			return mapAppointmentLookup(err)
		}

		if input.AmountCents > 0 && input.AmountCents != row.AmountCents {
			s.metrics.IncAmountMismatch()
			mismatchCtx := s.logg.WithFields(ctx, map[string]any{
				"stored_cents":   row.AmountCents,
				"reported_cents": input.AmountCents,
			})
			s.logg.Warn(mismatchCtx, "gateway reported a different amount than stored")
		}

		approvedAt := input.ApprovedAt
		if approvedAt.IsZero() {
			approvedAt = time.Now().UTC()
		}
		row.Status = enums.PaymentStatusCompleted
		row.ApprovedAt = &approvedAt
		backfillKeys(row, input)
		if err := repo.Update(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete payment")
		}

		appt.Status = enums.AppointmentStatusConfirmed
		if link != "" {
			appt.MeetingLink = &link
		}
		if err := repo.UpdateAppointment(ctx, appt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm appointment")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventPaymentConfirmed,
			AggregateType: enums.AggregatePayment,
			AggregateID:   row.ID,
			Data: PaymentConfirmedEvent{
				PaymentID:     row.ID,
				AppointmentID: appt.ID,
				AmountCents:   row.AmountCents,
				Currency:      row.Currency,
			},
			Version: 1,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit confirmed event")
		}

		outcome = OutcomeConfirmed
		payment = row
		appointment = appt
		return nil
	})
	if txErr != nil {
		s.metrics.IncConfirmation("rejected")
		return nil, txErr
	}

	s.metrics.IncConfirmation(string(outcome))
	s.logg.Info(s.logg.WithField(ctx, "outcome", string(outcome)), "payment confirmation processed")

	if outcome == OutcomeConfirmed {
		s.effects.notifyConfirmed(ctx, appointment, payment)
	}

	return &ConfirmResult{Outcome: outcome, Payment: *FromModel(payment)}, nil
}

// provisionLink reads the pair without locks and asks the provisioner for a
// meeting room. Anything short of a still-pending payment returns the link
// already stored, or none.
func (s *service) provisionLink(ctx context.Context, paymentID uuid.UUID) string {
	row, err := s.repo.FindByID(ctx, paymentID)
	if err != nil || row.Status != enums.PaymentStatusPending {
		return ""
	}
	appt, err := s.repo.FindAppointment(ctx, row.AppointmentID)
	if err != nil {
		return ""
	}
	if appt.MeetingLink != nil && *appt.MeetingLink != "" {
		return *appt.MeetingLink
	}
	return s.effects.meetingLink(ctx, appt, meetings.MeetingParams{Duration: s.meetingDuration})
}

// Cancel voids a pending payment locally or refunds a settled one through
// the gateway. Gateway refund failures leave the ledger untouched.
func (s *service) Cancel(ctx context.Context, input CancelInput) (*CancelResult, error) {
	if input.PaymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	if input.AmountCents != nil && *input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}

	ctx = s.logg.WithPaymentID(ctx, input.PaymentID.String())

	payment, err := s.repo.FindByID(ctx, input.PaymentID)
	if err != nil {
		return nil, mapPaymentLookup(err)
	}

	switch payment.Status {
	case enums.PaymentStatusPending:
		return s.voidPending(ctx, input)
	case enums.PaymentStatusCompleted:
		return s.refundCompleted(ctx, input, payment)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment is already cancelled")
	}
}

func (s *service) voidPending(ctx context.Context, input CancelInput) (*CancelResult, error) {
	var payment *models.Payment
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.FindByIDForUpdate(ctx, input.PaymentID)
		if err != nil {
			return mapPaymentLookup(err)
		}
		if row.Status != enums.PaymentStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("payment in status %s cannot be voided", row.Status))
		}

		appt, err := repo.FindAppointmentForUpdate(ctx, row.AppointmentID)
		if err != nil {
			return mapAppointmentLookup(err)
		}

		now := time.Now().UTC()
		row.Status = enums.PaymentStatusCancelled
		row.CancelledAt = &now
		if err := repo.Update(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "void payment")
		}

		appt.Status = enums.AppointmentStatusCancelled
		appt.CancelledAt = &now
		appt.CancelReason = input.Reason
		if err := repo.UpdateAppointment(ctx, appt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel appointment")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventPaymentVoided,
			AggregateType: enums.AggregatePayment,
			AggregateID:   row.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID},
			Data:          PaymentVoidedEvent{PaymentID: row.ID, AppointmentID: appt.ID},
			Version:       1,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit voided event")
		}

		payment = row
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.metrics.IncRefund("void")
	s.logg.Info(ctx, "pending payment voided")
	return &CancelResult{Outcome: OutcomeVoided, Payment: *FromModel(payment)}, nil
}

func (s *service) refundCompleted(ctx context.Context, input CancelInput, payment *models.Payment) (*CancelResult, error) {
	refundable := payment.RefundableCents()
	if refundable == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment is already fully refunded")
	}

	requested := refundable
	if input.AmountCents != nil {
		requested = *input.AmountCents
	}
	if requested > refundable {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("refund of %d exceeds refundable balance of %d", requested, refundable))
	}

	// Transactions recorded without a gateway key (manual reconciliation,
	// legacy imports) settle on the local ledger only.
	if payment.GatewayTxKey == nil || strings.TrimSpace(*payment.GatewayTxKey) == "" {
		s.logg.Warn(ctx, "refund settled locally; payment has no gateway transaction key")
		return s.settleCancelRefund(ctx, input.PaymentID, requested)
	}

	reason := ""
	if input.Reason != nil {
		reason = *input.Reason
	}
	started := time.Now()
	_, err := s.gateway.Cancel(ctx, gateway.RefundParams{
		TransactionKey: *payment.GatewayTxKey,
		AmountCents:    requested,
		Reason:         reason,
	})
	s.metrics.ObserveGatewayDuration("cancel", time.Since(started))
	if err != nil {
		// No local write when the gateway rejects the refund.
		s.metrics.IncGatewayFailure("cancel")
		return nil, err
	}

	return s.settleCancelRefund(ctx, input.PaymentID, requested)
}

func (s *service) settleCancelRefund(ctx context.Context, paymentID uuid.UUID, amountCents int64) (*CancelResult, error) {
	result, err := s.applyRefund(ctx, RefundSuccessInput{PaymentID: paymentID, AmountCents: amountCents})
	if err != nil {
		return nil, err
	}
	return &CancelResult{Outcome: OutcomeRefundIssued, Payment: result.Payment}, nil
}

// ProcessRefundSuccess applies a refund the gateway reports as settled. The
// operation is re-entrant: the ledger only ever moves forward and never past
// the original charge.
func (s *service) ProcessRefundSuccess(ctx context.Context, input RefundSuccessInput) (*RefundResult, error) {
	if input.PaymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}
	return s.applyRefund(s.logg.WithPaymentID(ctx, input.PaymentID.String()), input)
}

func (s *service) applyRefund(ctx context.Context, input RefundSuccessInput) (*RefundResult, error) {
	var (
		payment     *models.Payment
		appointment *models.Appointment
		applied     int64
		fullRefund  bool
	)
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.FindByIDForUpdate(ctx, input.PaymentID)
		if err != nil {
			return mapPaymentLookup(err)
		}
		if row.Status == enums.PaymentStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment has not settled")
		}

		keyChanged := backfillRefundKey(row, input.GatewayRefundID)

		target := row.RefundedCents + input.AmountCents
		if target > row.AmountCents {
			target = row.AmountCents
		}
		applied = target - row.RefundedCents
		if applied == 0 {
			// Replayed settlement; the ledger already reflects it. A key
			// delivered with the replay is still recorded.
			if keyChanged {
				if err := repo.Update(ctx, row); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "backfill refund key")
				}
			}
			payment = row
			return nil
		}

		row.RefundedCents = target
		fullRefund = row.RefundedCents == row.AmountCents

		appt, err := repo.FindAppointmentForUpdate(ctx, row.AppointmentID)
		if err != nil {
			return mapAppointmentLookup(err)
		}

		now := time.Now().UTC()
		if fullRefund {
			row.Status = enums.PaymentStatusCancelled
			row.CancelledAt = &now
			if !appt.Status.IsTerminal() {
				appt.Status = enums.AppointmentStatusCancelled
				appt.CancelledAt = &now
				if err := repo.UpdateAppointment(ctx, appt); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel appointment")
				}
			}
		}
		if err := repo.Update(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply refund")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventPaymentRefunded,
			AggregateType: enums.AggregatePayment,
			AggregateID:   row.ID,
			Data: PaymentRefundedEvent{
				PaymentID:     row.ID,
				AppointmentID: appt.ID,
				AppliedCents:  applied,
				RefundedCents: row.RefundedCents,
				FullRefund:    fullRefund,
			},
			Version: 1,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit refunded event")
		}

		payment = row
		appointment = appt
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if applied > 0 {
		kind := "partial"
		if fullRefund {
			kind = "full"
		}
		s.metrics.IncRefund(kind)
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"applied_cents": applied,
			"full_refund":   fullRefund,
		}), "refund applied")
		s.effects.notifyRefund(ctx, appointment, payment, applied, fullRefund)
	} else {
		s.logg.Info(ctx, "refund settlement replayed; ledger unchanged")
	}

	return &RefundResult{
		AppliedCents: applied,
		FullRefund:   fullRefund,
		Payment:      *FromModel(payment),
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*PaymentDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapPaymentLookup(err)
	}
	return FromModel(payment), nil
}

// backfillKeys copies missing gateway identifiers onto the payment, returning
// whether anything changed. Populated keys are never overwritten.
func backfillKeys(payment *models.Payment, input ConfirmInput) bool {
	changed := false
	if txKey := strings.TrimSpace(input.GatewayTxKey); txKey != "" {
		if payment.GatewayTxKey == nil || strings.TrimSpace(*payment.GatewayTxKey) == "" {
			payment.GatewayTxKey = &txKey
			changed = true
		}
	}
	if authNo := strings.TrimSpace(input.GatewayAuthNo); authNo != "" {
		if payment.GatewayAuthNo == nil || strings.TrimSpace(*payment.GatewayAuthNo) == "" {
			payment.GatewayAuthNo = &authNo
			changed = true
		}
	}
	return changed
}

// backfillRefundKey records the gateway key delivered with a refund
// settlement when the payment has none. Populated keys are never overwritten.
func backfillRefundKey(payment *models.Payment, key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	if payment.GatewayTxKey != nil && strings.TrimSpace(*payment.GatewayTxKey) != "" {
		return false
	}
	payment.GatewayTxKey = &key
	return true
}

func mapPaymentLookup(err error) error {
	if err == nil {
		return nil
	}
	if err == ErrNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
}

func mapAppointmentLookup(err error) error {
	if err == nil {
		return nil
	}
	if err == ErrAppointmentNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "appointment not found")
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load appointment")
}
