package gatewaywebhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/vitacare/telecare-backend/internal/payments"
	pkgerrors "github.com/vitacare/telecare-backend/pkg/errors"
	"github.com/vitacare/telecare-backend/pkg/logger"
)

// Provider names the card gateway in callback dedup keys.
const Provider = "gateway"

// Callback event types posted by the gateway.
const (
	EventPaymentApproved  = "payment.approved"
	EventPaymentCancelled = "payment.cancelled"
	EventRefundSettled    = "refund.settled"
)

// Event is the gateway's asynchronous callback payload.
type Event struct {
	EventID     string    `json:"event_id"`
	Type        string    `json:"type"`
	PaymentID   string    `json:"payment_id"`
	TxKey       string    `json:"tx_key"`
	AuthNo      string    `json:"auth_no"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	RefundID    string    `json:"refund_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type paymentService interface {
	Confirm(ctx context.Context, input payments.ConfirmInput) (*payments.ConfirmResult, error)
	ProcessRefundSuccess(ctx context.Context, input payments.RefundSuccessInput) (*payments.RefundResult, error)
}

type Service struct {
	payments paymentService
	logg     *logger.Logger
}

func NewService(paymentSvc paymentService, logg *logger.Logger) (*Service, error) {
	if paymentSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment service required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &Service{payments: paymentSvc, logg: logg}, nil
}

// ParseEvent decodes and validates a raw callback body.
func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode callback payload")
	}
	if event.EventID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id missing")
	}
	if event.Type == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event type missing")
	}
	return &event, nil
}

// HandleEvent routes a verified callback to the reconciliation engine.
// Unrecognized event types are acknowledged without action so the gateway
// stops redelivering them.
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event required")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"event_id":   event.EventID,
		"event_type": event.Type,
	})

	switch event.Type {
	case EventPaymentApproved:
		paymentID, err := parsePaymentID(event.PaymentID)
		if err != nil {
			return err
		}
		result, err := s.payments.Confirm(ctx, payments.ConfirmInput{
			PaymentID:     paymentID,
			GatewayTxKey:  event.TxKey,
			GatewayAuthNo: event.AuthNo,
			AmountCents:   event.AmountCents,
			ApprovedAt:    event.OccurredAt,
		})
		if err != nil {
			return err
		}
		ctx = s.logg.WithFields(ctx, map[string]any{
			"payment_id": paymentID.String(),
			"outcome":    string(result.Outcome),
		})
		s.logg.Info(ctx, "payment approval processed")
		return nil

	case EventRefundSettled, EventPaymentCancelled:
		paymentID, err := parsePaymentID(event.PaymentID)
		if err != nil {
			return err
		}
		result, err := s.payments.ProcessRefundSuccess(ctx, payments.RefundSuccessInput{
			PaymentID:       paymentID,
			AmountCents:     event.AmountCents,
			GatewayRefundID: event.RefundID,
		})
		if err != nil {
			return err
		}
		ctx = s.logg.WithFields(ctx, map[string]any{
			"payment_id":    paymentID.String(),
			"applied_cents": result.AppliedCents,
			"full_refund":   result.FullRefund,
		})
		s.logg.Info(ctx, "refund settlement processed")
		return nil

	default:
		s.logg.Info(ctx, "ignoring unhandled callback type")
		return nil
	}
}

func parsePaymentID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment id")
	}
	return id, nil
}
