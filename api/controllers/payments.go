package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vitacare/telecare-backend/api/responses"
	"github.com/vitacare/telecare-backend/api/validators"
	"github.com/vitacare/telecare-backend/internal/payments"
	"github.com/vitacare/telecare-backend/pkg/logger"
)

type initiatePaymentRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id" validate:"required"`
}

type confirmPaymentRequest struct {
	GatewayTxKey  string `json:"gateway_tx_key" validate:"required,max=200"`
	GatewayAuthNo string `json:"gateway_auth_no,omitempty" validate:"omitempty,max=200"`
	AmountCents   int64  `json:"amount_cents,omitempty" validate:"omitempty,gt=0"`
}

type cancelPaymentRequest struct {
	AmountCents *int64  `json:"amount_cents,omitempty" validate:"omitempty,gt=0"`
	Reason      *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// InitiatePayment creates (or resumes) checkout for a priced appointment and
// returns the signed gateway parameters.
func InitiatePayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorUserID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req initiatePaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		checkout, err := svc.Initiate(r.Context(), payments.InitiateInput{
			AppointmentID: req.AppointmentID,
			ActorUserID:   actorUserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, checkout)
	}
}

// ConfirmPayment settles a payment from the checkout success page. The
// gateway's asynchronous callback lands on the same engine operation, so
// whichever arrives second only backfills missing keys.
func ConfirmPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorUserID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		paymentID, err := pathUUID(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req confirmPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Confirm(r.Context(), payments.ConfirmInput{
			PaymentID:     paymentID,
			GatewayTxKey:  req.GatewayTxKey,
			GatewayAuthNo: req.GatewayAuthNo,
			AmountCents:   req.AmountCents,
			ActorUserID:   actorUserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CancelPayment voids a pending payment or refunds a completed one. A missing
// amount refunds the full refundable balance.
func CancelPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorUserID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		paymentID, err := pathUUID(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req cancelPaymentRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		result, err := svc.Cancel(r.Context(), payments.CancelInput{
			PaymentID:   paymentID,
			AmountCents: req.AmountCents,
			Reason:      req.Reason,
			ActorUserID: actorUserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// GetPayment returns a payment with its refund ledger view.
func GetPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paymentID, err := pathUUID(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
