package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/refund"

	"github.com/vitacare/telecare-backend/pkg/config"
	pkgerrors "github.com/vitacare/telecare-backend/pkg/errors"
	"github.com/vitacare/telecare-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	errAPIKeyRequired = errors.New("gateway api key is required")
	errSecretRequired = errors.New("gateway signing secret is required")
	errInvalidEnv     = fmt.Errorf("gateway environment must be %q or %q", testEnv, liveEnv)
	errLoggerRequired = errors.New("gateway logger is required")
	errTxKeyRequired  = errors.New("gateway transaction key is required")
	errInvalidAmount  = errors.New("refund amount must be positive")
)

type refundCreator func(params *stripe.RefundParams) (*stripe.Refund, error)

// RefundParams describes a refund request issued against a settled transaction.
type RefundParams struct {
	TransactionKey string
	AmountCents    int64
	Reason         string
}

// RefundResult captures the processor's acknowledgement of a refund.
type RefundResult struct {
	RefundID string
	Status   string
}

// Client wraps the card processor with centralized auth, logging, and error
// mapping. Checkout params and callbacks are authenticated with an HMAC
// signature derived from the configured signing secret.
type Client struct {
	environment   string
	signingSecret string
	logger        *logger.Logger
	createRefund  refundCreator
}

// NewClient initializes the processor once with the configured secrets and env.
func NewClient(ctx context.Context, cfg config.GatewayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	signingSecret := strings.TrimSpace(cfg.SigningSecret)
	if signingSecret == "" {
		return nil, errSecretRequired
	}

	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	stripe.Key = apiKey

	logg.Info(ctx, fmt.Sprintf("payment gateway client initialized (%s)", env))

	return &Client{
		environment:   env,
		signingSecret: signingSecret,
		logger:        logg,
		createRefund:  refund.New,
	}, nil
}

// Environment reports the normalized gateway environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret returns the callback signing secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

// Cancel refunds amountCents of the settled transaction identified by the
// gateway transaction key. Partial amounts are allowed; the processor rejects
// totals above the remaining refundable balance.
func (c *Client) Cancel(ctx context.Context, params RefundParams) (*RefundResult, error) {
	txKey := strings.TrimSpace(params.TransactionKey)
	if txKey == "" {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, errTxKeyRequired, "gateway cancel rejected")
	}
	if params.AmountCents <= 0 {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, errInvalidAmount, "gateway cancel rejected")
	}

	c.log(ctx, "request", "cancel", map[string]any{
		"transaction_key": txKey,
		"amount_cents":    params.AmountCents,
	})

	req := &stripe.RefundParams{
		PaymentIntent: stripe.String(txKey),
		Amount:        stripe.Int64(params.AmountCents),
	}
	req.Context = ctx
	if reason := strings.TrimSpace(params.Reason); reason != "" {
		req.AddMetadata("reason", reason)
	}

	resp, err := c.createRefund(req)
	if err != nil {
		c.log(ctx, "error", "cancel", map[string]any{"error": err.Error()})
		return nil, c.mapGatewayError(err, "cancel")
	}

	result := &RefundResult{
		RefundID: resp.ID,
		Status:   string(resp.Status),
	}
	c.log(ctx, "response", "cancel", map[string]any{
		"refund_id": result.RefundID,
		"status":    result.Status,
	})
	return result, nil
}

// SignCheckoutParams computes the HMAC signature the booking UI must submit
// alongside the checkout form. Keys are sorted so the digest is stable
// regardless of map iteration order.
func (c *Client) SignCheckoutParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	mac := hmac.New(sha256.New, []byte(c.signingSecret))
	mac.Write([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidateCallbackSignature checks the signature header posted with an
// asynchronous gateway callback against the raw request body.
func (c *Client) ValidateCallbackSignature(payload []byte, header string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.signingSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("gateway %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("gateway %s", phase))
	}
}

func (c *Client) mapGatewayError(err error, op string) error {
	if err == nil {
		return nil
	}
	var apiErr *stripe.Error
	if errors.As(err, &apiErr) {
		code := domainCodeForStatus(apiErr.HTTPStatusCode)
		if apiErr.Code == stripe.ErrorCodeChargeAlreadyRefunded {
			code = pkgerrors.CodeConflict
		}
		return pkgerrors.Wrap(code, err, fmt.Sprintf("gateway %s failed", op))
	}
	return pkgerrors.Wrap(pkgerrors.CodeGateway, err, fmt.Sprintf("gateway %s failed", op))
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeGateway
	}
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("gateway environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("gateway environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidEnv
	}
}
