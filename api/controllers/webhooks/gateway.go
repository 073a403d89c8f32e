package webhooks

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/vitacare/telecare-backend/api/responses"
	gatewaywebhook "github.com/vitacare/telecare-backend/internal/webhooks/gateway"
	pkgerrors "github.com/vitacare/telecare-backend/pkg/errors"
	"github.com/vitacare/telecare-backend/pkg/logger"
)

const gatewaySignatureHeader = "X-Gateway-Signature"

type GatewayWebhookService interface {
	HandleEvent(ctx context.Context, event *gatewaywebhook.Event) error
}

type callbackVerifier interface {
	ValidateCallbackSignature(payload []byte, header string) bool
}

type callbackGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// GatewayWebhook verifies and routes asynchronous payment gateway callbacks.
// The gateway retries until it receives a 2xx, so verified duplicates are
// acknowledged without reprocessing.
func GatewayWebhook(svc GatewayWebhookService, verifier callbackVerifier, guard callbackGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if verifier == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gateway client unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get(gatewaySignatureHeader)
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "gateway signature missing"))
			return
		}
		if !verifier.ValidateCallbackSignature(payload, sigHeader) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid gateway signature"))
			return
		}

		event, err := gatewaywebhook.ParseEvent(payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, event.EventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, nil)
			return
		}

		if err := svc.HandleEvent(ctx, event); err != nil {
			_ = guard.Release(ctx, event.EventID)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("gateway event %s processed", event.EventID))
		}
		responses.WriteSuccess(w, nil)
	}
}
