package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vitacare/telecare-backend/api/middleware"
	"github.com/vitacare/telecare-backend/internal/payments"
	"github.com/vitacare/telecare-backend/pkg/logger"
)

type fakePaymentsService struct {
	confirms []payments.ConfirmInput

	confirmResult *payments.ConfirmResult
	confirmErr    error
}

func (f *fakePaymentsService) Initiate(ctx context.Context, input payments.InitiateInput) (*payments.CheckoutDTO, error) {
	return nil, nil
}

func (f *fakePaymentsService) Confirm(ctx context.Context, input payments.ConfirmInput) (*payments.ConfirmResult, error) {
	f.confirms = append(f.confirms, input)
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	if f.confirmResult != nil {
		return f.confirmResult, nil
	}
	return &payments.ConfirmResult{Outcome: payments.OutcomeConfirmed}, nil
}

func (f *fakePaymentsService) Cancel(ctx context.Context, input payments.CancelInput) (*payments.CancelResult, error) {
	return nil, nil
}

func (f *fakePaymentsService) ProcessRefundSuccess(ctx context.Context, input payments.RefundSuccessInput) (*payments.RefundResult, error) {
	return nil, nil
}

func (f *fakePaymentsService) Get(ctx context.Context, id uuid.UUID) (*payments.PaymentDTO, error) {
	return nil, nil
}

func confirmRequest(t *testing.T, paymentID uuid.UUID, userID string, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/payments/"+paymentID.String()+"/confirm", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	return req
}

func paymentsRouter(svc payments.Service) chi.Router {
	logg := logger.New(logger.Options{ServiceName: "test"})
	r := chi.NewRouter()
	r.Post("/payments/{paymentId}/confirm", ConfirmPayment(svc, logg))
	return r
}

func TestConfirmPaymentDelegatesToEngine(t *testing.T) {
	svc := &fakePaymentsService{}
	router := paymentsRouter(svc)

	paymentID := uuid.New()
	userID := uuid.New()
	body := `{"gateway_tx_key":"tx_42","gateway_auth_no":"auth_42","amount_cents":5000}`

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, confirmRequest(t, paymentID, userID.String(), body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.confirms) != 1 {
		t.Fatalf("expected one confirm call, got %d", len(svc.confirms))
	}
	got := svc.confirms[0]
	if got.PaymentID != paymentID {
		t.Fatalf("payment id %s, want %s", got.PaymentID, paymentID)
	}
	if got.GatewayTxKey != "tx_42" || got.GatewayAuthNo != "auth_42" || got.AmountCents != 5000 {
		t.Fatalf("gateway fields not forwarded: %+v", got)
	}
	if got.ActorUserID != userID {
		t.Fatalf("actor %s, want %s", got.ActorUserID, userID)
	}
}

func TestConfirmPaymentRequiresAuth(t *testing.T) {
	svc := &fakePaymentsService{}
	router := paymentsRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, confirmRequest(t, uuid.New(), "", `{"gateway_tx_key":"tx_1"}`))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(svc.confirms) != 0 {
		t.Fatal("unauthenticated request must not reach the engine")
	}
}

func TestConfirmPaymentValidatesBody(t *testing.T) {
	svc := &fakePaymentsService{}
	router := paymentsRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, confirmRequest(t, uuid.New(), uuid.NewString(), `{"amount_cents":5000}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing tx key, got %d", rec.Code)
	}
	if len(svc.confirms) != 0 {
		t.Fatal("invalid body must not reach the engine")
	}
}
