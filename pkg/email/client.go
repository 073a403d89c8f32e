package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/vitacare/telecare-backend/pkg/config"
	"github.com/vitacare/telecare-backend/pkg/logger"
)

var (
	errAPIKeyRequired = errors.New("sendgrid api key is required")
	errFromRequired   = errors.New("sendgrid from address is required")
	errLoggerRequired = errors.New("email logger is required")
)

// Message is a single transactional email.
type Message struct {
	ToName    string
	ToAddress string
	Subject   string
	PlainBody string
	HTMLBody  string
}

type sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Client delivers transactional mail through SendGrid. Delivery here is a
// courtesy channel; callers treat failures as non-fatal.
type Client struct {
	sender   sender
	fromName string
	fromAddr string
	logger   *logger.Logger
}

// NewClient validates the SendGrid credentials and builds the mail client.
func NewClient(ctx context.Context, cfg config.SendgridConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	fromAddr := strings.TrimSpace(cfg.DefaultFrom)
	if fromAddr == "" {
		return nil, errFromRequired
	}

	logg.Info(ctx, "email client initialized")

	return &Client{
		sender:   sendgrid.NewSendClient(apiKey),
		fromName: "TeleCare",
		fromAddr: fromAddr,
		logger:   logg,
	}, nil
}

// Send delivers a single message and surfaces non-2xx responses as errors.
func (c *Client) Send(ctx context.Context, msg Message) error {
	to := strings.TrimSpace(msg.ToAddress)
	if to == "" {
		return errors.New("recipient address is required")
	}

	from := mail.NewEmail(c.fromName, c.fromAddr)
	recipient := mail.NewEmail(msg.ToName, to)
	plain := msg.PlainBody
	html := msg.HTMLBody
	if html == "" {
		html = plain
	}
	email := mail.NewSingleEmail(from, msg.Subject, recipient, plain, html)

	resp, err := c.sender.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	if resp != nil && resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected message with status %d", resp.StatusCode)
	}
	return nil
}
