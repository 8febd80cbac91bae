package domain

import (
	"context"
	"strings"
	"time"
)

// Placeholder is substituted by SchedulingRequest.Format.
const Placeholder = "{}"

const (
	MinHour = 0
	MaxHour = 24
)

// SchedulingRequest is the availability collected for one external scheduling event.
// Values are treated as immutable: Format returns a copy.
type SchedulingRequest struct {
	EventName     string `json:"event_name"`
	EarliestHour  int    `json:"earliest_hour"`
	LatestHour    int    `json:"latest_hour"`
	Timezone      string `json:"timezone"`
	PossibleDates []Date `json:"possible_dates"`
}

// NewSchedulingRequest validates and returns a request. dates is copied.
func NewSchedulingRequest(eventName string, earliest, latest int, timezone string, dates []Date) (*SchedulingRequest, error) {
	r := &SchedulingRequest{
		EventName:     strings.TrimSpace(eventName),
		EarliestHour:  earliest,
		LatestHour:    latest,
		Timezone:      timezone,
		PossibleDates: append([]Date(nil), dates...),
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks the request invariants.
func (r SchedulingRequest) Validate() error {
	if r.EventName == "" {
		return NewValidationError("event_name", "event name is required")
	}
	if len(r.PossibleDates) == 0 {
		return NewValidationError("possible_dates", "at least one date is required")
	}
	if r.EarliestHour < MinHour || r.LatestHour > MaxHour {
		return NewValidationError("hours", "hours must be between %d and %d", MinHour, MaxHour)
	}
	if r.EarliestHour > r.LatestHour {
		return NewValidationError("hours", "earliest hour %d is after latest hour %d", r.EarliestHour, r.LatestHour)
	}
	if _, err := r.Location(); err != nil {
		return err
	}
	return nil
}

// Location loads the request timezone.
func (r SchedulingRequest) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil || r.Timezone == "" {
		return nil, NewValidationError("timezone", "%q is not a valid timezone", r.Timezone)
	}
	return loc, nil
}

// Format substitutes args into the event name placeholder and returns a new request.
// The event name must contain exactly one placeholder and exactly one argument must be given.
func (r SchedulingRequest) Format(args ...string) (SchedulingRequest, error) {
	if err := ValidateTemplate(r.EventName); err != nil {
		return SchedulingRequest{}, err
	}
	if len(args) != 1 {
		return SchedulingRequest{}, NewValidationError("event_name", "expected 1 value for the event name, got %d", len(args))
	}
	out := r
	out.EventName = strings.Replace(r.EventName, Placeholder, args[0], 1)
	out.PossibleDates = append([]Date(nil), r.PossibleDates...)
	return out, nil
}

// ValidateTemplate reports whether name has exactly one placeholder.
func ValidateTemplate(name string) error {
	switch n := strings.Count(name, Placeholder); n {
	case 1:
		return nil
	case 0:
		return NewValidationError("event_name", "the event name must contain %s where the channel name goes", Placeholder)
	default:
		return NewValidationError("event_name", "the event name may contain %s only once, found %d", Placeholder, n)
	}
}

// SchedulerClient creates events on the external scheduling website and returns their URL.
type SchedulerClient interface {
	CreateEvent(ctx context.Context, req SchedulingRequest) (string, error)
}

// ChannelMove describes a text channel that was moved into a category.
type ChannelMove struct {
	GuildID     string
	ChannelID   string
	ChannelName string
	CategoryID  string
}

// TriggerResult is the outcome of a template fired by a channel move.
type TriggerResult struct {
	Request SchedulingRequest
	URL     string
}

// SchedulerService defines the business logic around scheduling requests and guild templates.
type SchedulerService interface {
	CreateEvent(ctx context.Context, req SchedulingRequest) (string, error)
	SaveTemplate(ctx context.Context, guildID, categoryID string, req SchedulingRequest) (*SchedulingTemplate, error)
	ClearTemplate(ctx context.Context, guildID string) error
	GetTemplate(ctx context.Context, guildID string) (categoryID string, tmpl *SchedulingTemplate, err error)
	HandleChannelMoved(ctx context.Context, move ChannelMove) (*TriggerResult, error)
}
