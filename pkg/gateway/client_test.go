package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"testing"

	"github.com/stripe/stripe-go/v84"

	"github.com/vitacare/telecare-backend/pkg/config"
	pkgerrors "github.com/vitacare/telecare-backend/pkg/errors"
	"github.com/vitacare/telecare-backend/pkg/logger"
)

func signPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func testClient(t *testing.T, create refundCreator) *Client {
	t.Helper()
	return &Client{
		environment:   testEnv,
		signingSecret: "signing-secret",
		logger:        logger.New(logger.Options{ServiceName: "test"}),
		createRefund:  create,
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "test"})

	if _, err := NewClient(ctx, config.GatewayConfig{SigningSecret: "s"}, logg); err == nil {
		t.Fatal("expected missing api key error")
	}
	if _, err := NewClient(ctx, config.GatewayConfig{APIKey: "sk_test_abc"}, logg); err == nil {
		t.Fatal("expected missing signing secret error")
	}
	if _, err := NewClient(ctx, config.GatewayConfig{APIKey: "sk_live_abc", SigningSecret: "s", Env: "test"}, logg); err == nil {
		t.Fatal("expected key/env mismatch error")
	}
	if _, err := NewClient(ctx, config.GatewayConfig{APIKey: "sk_test_abc", SigningSecret: "s", Env: "staging"}, logg); err == nil {
		t.Fatal("expected invalid environment error")
	}

	c, err := NewClient(ctx, config.GatewayConfig{APIKey: "sk_test_abc", SigningSecret: "s"}, logg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if c.Environment() != testEnv {
		t.Fatalf("expected test environment, got %q", c.Environment())
	}
}

func TestCancelIssuesRefund(t *testing.T) {
	var captured *stripe.RefundParams
	c := testClient(t, func(params *stripe.RefundParams) (*stripe.Refund, error) {
		captured = params
		return &stripe.Refund{ID: "re_123", Status: stripe.RefundStatusSucceeded}, nil
	})

	result, err := c.Cancel(context.Background(), RefundParams{
		TransactionKey: "tx_abc",
		AmountCents:    1500,
		Reason:         "patient cancelled",
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if result.RefundID != "re_123" {
		t.Fatalf("unexpected refund id %q", result.RefundID)
	}
	if result.Status != string(stripe.RefundStatusSucceeded) {
		t.Fatalf("unexpected status %q", result.Status)
	}
	if captured == nil || captured.PaymentIntent == nil || *captured.PaymentIntent != "tx_abc" {
		t.Fatal("transaction key not forwarded")
	}
	if captured.Amount == nil || *captured.Amount != 1500 {
		t.Fatal("amount not forwarded")
	}
}

func TestCancelRejectsBadInput(t *testing.T) {
	c := testClient(t, func(params *stripe.RefundParams) (*stripe.Refund, error) {
		t.Fatal("processor should not be called")
		return nil, nil
	})

	if _, err := c.Cancel(context.Background(), RefundParams{AmountCents: 100}); err == nil {
		t.Fatal("expected missing transaction key error")
	}
	if _, err := c.Cancel(context.Background(), RefundParams{TransactionKey: "tx", AmountCents: 0}); err == nil {
		t.Fatal("expected invalid amount error")
	}
}

func TestCancelMapsProcessorErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode pkgerrors.Code
	}{
		{
			name:     "already refunded",
			err:      &stripe.Error{HTTPStatusCode: http.StatusBadRequest, Code: stripe.ErrorCodeChargeAlreadyRefunded},
			wantCode: pkgerrors.CodeConflict,
		},
		{
			name:     "unknown transaction",
			err:      &stripe.Error{HTTPStatusCode: http.StatusNotFound},
			wantCode: pkgerrors.CodeNotFound,
		},
		{
			name:     "processor outage",
			err:      &stripe.Error{HTTPStatusCode: http.StatusInternalServerError},
			wantCode: pkgerrors.CodeGateway,
		},
		{
			name:     "transport failure",
			err:      errors.New("connection reset"),
			wantCode: pkgerrors.CodeGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, func(params *stripe.RefundParams) (*stripe.Refund, error) {
				return nil, tt.err
			})
			_, err := c.Cancel(context.Background(), RefundParams{TransactionKey: "tx", AmountCents: 100})
			domainErr := pkgerrors.As(err)
			if domainErr == nil {
				t.Fatalf("expected domain error, got %v", err)
			}
			if domainErr.Code() != tt.wantCode {
				t.Fatalf("expected code %s, got %s", tt.wantCode, domainErr.Code())
			}
		})
	}
}

func TestSignCheckoutParamsIsOrderStable(t *testing.T) {
	c := testClient(t, nil)
	a := c.SignCheckoutParams(map[string]string{
		"amount_cents": "1500",
		"payment_id":   "pay_1",
		"currency":     "USD",
	})
	b := c.SignCheckoutParams(map[string]string{
		"currency":     "USD",
		"payment_id":   "pay_1",
		"amount_cents": "1500",
	})
	if a == "" || a != b {
		t.Fatalf("expected stable signature, got %q vs %q", a, b)
	}

	tampered := c.SignCheckoutParams(map[string]string{
		"amount_cents": "9999",
		"payment_id":   "pay_1",
		"currency":     "USD",
	})
	if tampered == a {
		t.Fatal("signature did not change with params")
	}
}

func TestValidateCallbackSignature(t *testing.T) {
	c := testClient(t, nil)
	payload := []byte(`{"event":"payment.approved"}`)

	sig := signPayload(c.signingSecret, payload)
	if !c.ValidateCallbackSignature(payload, sig) {
		t.Fatal("expected signature to validate")
	}
	if c.ValidateCallbackSignature(payload, "deadbeef") {
		t.Fatal("expected tampered signature to fail")
	}
	if c.ValidateCallbackSignature(payload, "") {
		t.Fatal("expected empty signature to fail")
	}
}
