package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SchedulingTemplate is a SchedulingRequest stored per guild and replayed when a
// channel is moved into the guild's trigger category. Dates are stored relative
// to the day they are replayed on: each weekday becomes the next such day on or after "today".
type SchedulingTemplate struct {
	EventName    string         `json:"event_name"`
	EarliestHour int            `json:"earliest_hour"`
	LatestHour   int            `json:"latest_hour"`
	Timezone     string         `json:"timezone"`
	Weekdays     []time.Weekday `json:"weekdays"`
}

// NewSchedulingTemplate converts a request collected by the wizard into a template.
// The event name must contain exactly one placeholder.
func NewSchedulingTemplate(req SchedulingRequest) (*SchedulingTemplate, error) {
	if err := ValidateTemplate(req.EventName); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	seen := make(map[time.Weekday]struct{}, 7)
	var weekdays []time.Weekday
	for _, d := range req.PossibleDates {
		wd := d.Weekday()
		if _, ok := seen[wd]; ok {
			continue
		}
		seen[wd] = struct{}{}
		weekdays = append(weekdays, wd)
	}
	return &SchedulingTemplate{
		EventName:    req.EventName,
		EarliestHour: req.EarliestHour,
		LatestHour:   req.LatestHour,
		Timezone:     req.Timezone,
		Weekdays:     weekdays,
	}, nil
}

// Materialize rebases the template onto now and names the event after channelName.
func (t SchedulingTemplate) Materialize(now time.Time, channelName string) (SchedulingRequest, error) {
	if len(t.Weekdays) == 0 {
		return SchedulingRequest{}, NewValidationError("weekdays", "template has no dates")
	}
	req := SchedulingRequest{
		EventName:    t.EventName,
		EarliestHour: t.EarliestHour,
		LatestHour:   t.LatestHour,
		Timezone:     t.Timezone,
	}
	loc, err := req.Location()
	if err != nil {
		return SchedulingRequest{}, err
	}
	today := DateOf(now.In(loc))
	for _, wd := range t.Weekdays {
		d, err := NextWeekday(today, wd)
		if err != nil {
			return SchedulingRequest{}, err
		}
		req.PossibleDates = append(req.PossibleDates, d)
	}
	slices.SortFunc(req.PossibleDates, Date.Compare)
	return req.Format(ChannelDisplayName(channelName))
}

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// NextWeekday returns the first date on or after from that falls on wd.
func NextWeekday(from Date, wd time.Weekday) (Date, error) {
	byDay, ok := rruleWeekdays[wd]
	if !ok {
		return Date{}, fmt.Errorf("invalid weekday %d", wd)
	}
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Count:     1,
		Byweekday: []rrule.Weekday{byDay},
		Dtstart:   from.In(time.UTC),
	})
	if err != nil {
		return Date{}, fmt.Errorf("build weekday rule: %w", err)
	}
	occurrences := rule.All()
	if len(occurrences) == 0 {
		return Date{}, fmt.Errorf("no %s on or after %s", wd, from)
	}
	return DateOf(occurrences[0]), nil
}

// ChannelDisplayName turns a channel slug like "jane-doe" into "Jane Doe".
func ChannelDisplayName(name string) string {
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return cases.Title(language.Und).String(strings.Join(strings.Fields(name), " "))
}
