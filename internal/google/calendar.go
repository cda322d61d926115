package google

import (
	"context"

	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/mailbridge/mailbridge/internal/apierror"
	"github.com/mailbridge/mailbridge/internal/models"
)

// Events are created on the user's primary calendar, matching the provider
// default the web client expects.
const primaryCalendar = "primary"

// EventTime is one end of an event interval. DateTime is RFC 3339; Date is
// used for all-day events.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// EventInput is the writable subset of a calendar event.
type EventInput struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
}

// Event mirrors the provider's event object. Events are proxied, never
// mirrored locally.
type Event struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Status      string    `json:"status,omitempty"`
	HTMLLink    string    `json:"html_link,omitempty"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
	Created     string    `json:"created,omitempty"`
	Updated     string    `json:"updated,omitempty"`
}

// calendarService builds a one-shot calendar capability for the given token
// pair. Like mailService, capabilities are rebuilt per request.
func (c *Client) calendarService(ctx context.Context, tokens models.TokenPair) (*calendarapi.Service, error) {
	svc, err := calendarapi.NewService(ctx, option.WithTokenSource(c.tokenSource(ctx, tokens)))
	if err != nil {
		return nil, wrap("build calendar service", nil, err)
	}
	return svc, nil
}

// CreateEvent inserts a new event on the primary calendar.
func (c *Client) CreateEvent(ctx context.Context, tokens models.TokenPair, in EventInput) (*Event, error) {
	svc, err := c.calendarService(ctx, tokens)
	if err != nil {
		return nil, err
	}

	created, err := svc.Events.Insert(primaryCalendar, toAPIEvent(in)).Context(ctx).Do()
	if err != nil {
		return nil, wrap("create event", nil, err)
	}
	return mapEvent(created), nil
}

// ListEvents returns up to maxResults upcoming events from the primary
// calendar, expanded to single instances and ordered by start time.
func (c *Client) ListEvents(ctx context.Context, tokens models.TokenPair, maxResults int64) ([]Event, error) {
	svc, err := c.calendarService(ctx, tokens)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Events.List(primaryCalendar).
		MaxResults(maxResults).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return nil, wrap("list events", nil, err)
	}

	events := make([]Event, 0, len(resp.Items))
	for _, e := range resp.Items {
		events = append(events, *mapEvent(e))
	}
	return events, nil
}

// GetEvent retrieves a single event by id.
func (c *Client) GetEvent(ctx context.Context, tokens models.TokenPair, id string) (*Event, error) {
	svc, err := c.calendarService(ctx, tokens)
	if err != nil {
		return nil, err
	}

	event, err := svc.Events.Get(primaryCalendar, id).Context(ctx).Do()
	if err != nil {
		return nil, wrap("get event", apierror.EventNotFound(id), err)
	}
	return mapEvent(event), nil
}

// UpdateEvent replaces an event's writable fields.
func (c *Client) UpdateEvent(ctx context.Context, tokens models.TokenPair, id string, in EventInput) (*Event, error) {
	svc, err := c.calendarService(ctx, tokens)
	if err != nil {
		return nil, err
	}

	updated, err := svc.Events.Update(primaryCalendar, id, toAPIEvent(in)).Context(ctx).Do()
	if err != nil {
		return nil, wrap("update event", apierror.EventNotFound(id), err)
	}
	return mapEvent(updated), nil
}

// DeleteEvent removes an event from the primary calendar.
func (c *Client) DeleteEvent(ctx context.Context, tokens models.TokenPair, id string) error {
	svc, err := c.calendarService(ctx, tokens)
	if err != nil {
		return err
	}

	err = svc.Events.Delete(primaryCalendar, id).Context(ctx).Do()
	return wrap("delete event", apierror.EventNotFound(id), err)
}

func toAPIEvent(in EventInput) *calendarapi.Event {
	return &calendarapi.Event{
		Summary:     in.Summary,
		Description: in.Description,
		Location:    in.Location,
		Start:       toAPIEventTime(in.Start),
		End:         toAPIEventTime(in.End),
	}
}

func toAPIEventTime(t EventTime) *calendarapi.EventDateTime {
	return &calendarapi.EventDateTime{
		DateTime: t.DateTime,
		Date:     t.Date,
		TimeZone: t.TimeZone,
	}
}

func mapEvent(e *calendarapi.Event) *Event {
	out := &Event{
		ID:          e.Id,
		Summary:     e.Summary,
		Description: e.Description,
		Location:    e.Location,
		Status:      e.Status,
		HTMLLink:    e.HtmlLink,
		Created:     e.Created,
		Updated:     e.Updated,
	}
	if e.Start != nil {
		out.Start = EventTime{DateTime: e.Start.DateTime, Date: e.Start.Date, TimeZone: e.Start.TimeZone}
	}
	if e.End != nil {
		out.End = EventTime{DateTime: e.End.DateTime, Date: e.End.Date, TimeZone: e.End.TimeZone}
	}
	return out
}
