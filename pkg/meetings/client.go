package meetings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/vitacare/telecare-backend/pkg/config"
	"github.com/vitacare/telecare-backend/pkg/logger"
)

var errLoggerRequired = errors.New("meetings logger is required")

// MeetingParams describes the consultation slot a video room is created for.
type MeetingParams struct {
	Summary     string
	Description string
	StartsAt    time.Time
	Duration    time.Duration
}

// Client provisions video consultation rooms through Google Calendar events
// with attached Meet conferences.
type Client struct {
	events     eventInserter
	calendarID string
	logger     *logger.Logger
}

type eventInserter interface {
	Insert(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error)
}

type calendarEvents struct {
	svc *calendar.Service
}

func (c calendarEvents) Insert(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error) {
	return c.svc.Events.Insert(calendarID, event).ConferenceDataVersion(1).Context(ctx).Do()
}

// NewClient builds the Calendar-backed provisioner using the configured
// service-account credentials.
func NewClient(ctx context.Context, cfg config.CalendarConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	var opts []option.ClientOption
	if creds := strings.TrimSpace(cfg.CredentialsJSON); creds != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("building calendar service: %w", err)
	}

	calendarID := strings.TrimSpace(cfg.CalendarID)
	if calendarID == "" {
		calendarID = "primary"
	}

	logg.Info(ctx, "meeting provisioner initialized")

	return &Client{
		events:     calendarEvents{svc: svc},
		calendarID: calendarID,
		logger:     logg,
	}, nil
}

// CreateMeeting creates a calendar event with a Meet conference and returns
// the join link.
func (c *Client) CreateMeeting(ctx context.Context, params MeetingParams) (string, error) {
	if params.StartsAt.IsZero() {
		return "", errors.New("meeting start time is required")
	}
	duration := params.Duration
	if duration <= 0 {
		duration = 30 * time.Minute
	}

	event := &calendar.Event{
		Summary:     params.Summary,
		Description: params.Description,
		Start: &calendar.EventDateTime{
			DateTime: params.StartsAt.Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: params.StartsAt.Add(duration).Format(time.RFC3339),
		},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: uuid.NewString(),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		},
	}

	created, err := c.events.Insert(ctx, c.calendarID, event)
	if err != nil {
		return "", fmt.Errorf("creating meeting event: %w", err)
	}

	link := extractMeetLink(created)
	if link == "" {
		return "", errors.New("calendar event created without a join link")
	}

	c.logger.Info(c.logger.WithField(ctx, "event_id", created.Id), "meeting provisioned")
	return link, nil
}

func extractMeetLink(event *calendar.Event) string {
	if event == nil {
		return ""
	}
	if event.HangoutLink != "" {
		return event.HangoutLink
	}
	if event.ConferenceData == nil {
		return ""
	}
	for _, entry := range event.ConferenceData.EntryPoints {
		if entry != nil && entry.EntryPointType == "video" && entry.Uri != "" {
			return entry.Uri
		}
	}
	return ""
}
