package wizard

import (
	"sort"

	"guildkeeper/internal/domain"
)

// HourRange is an inclusive pair of hour indexes with Earliest <= Latest.
type HourRange struct {
	Earliest int
	Latest   int
}

// SelectionState is the mutable input of one wizard session: a set of dates and an hour range.
// It is owned by a single Wizard and only touched from its event loop.
type SelectionState struct {
	dates map[domain.Date]struct{}
	hours *HourRange
}

func NewSelectionState() *SelectionState {
	return &SelectionState{dates: make(map[domain.Date]struct{})}
}

// Toggle flips membership of d and reports whether d is selected afterwards.
func (s *SelectionState) Toggle(d domain.Date) bool {
	if _, ok := s.dates[d]; ok {
		delete(s.dates, d)
		return false
	}
	s.dates[d] = struct{}{}
	return true
}

func (s *SelectionState) IsSelected(d domain.Date) bool {
	_, ok := s.dates[d]
	return ok
}

func (s *SelectionState) DateCount() int {
	return len(s.dates)
}

// Dates returns the selected dates in calendar order.
func (s *SelectionState) Dates() []domain.Date {
	out := make([]domain.Date, 0, len(s.dates))
	for d := range s.dates {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// SetHours stores the two picked hours, sorted.
func (s *SelectionState) SetHours(a, b int) {
	if a > b {
		a, b = b, a
	}
	s.hours = &HourRange{Earliest: a, Latest: b}
}

// TimeRange returns the hour range and whether one was picked.
func (s *SelectionState) TimeRange() (HourRange, bool) {
	if s.hours == nil {
		return HourRange{}, false
	}
	return *s.hours, true
}

// Complete reports whether the state can be confirmed.
func (s *SelectionState) Complete() bool {
	return len(s.dates) > 0 && s.hours != nil
}

func (s *SelectionState) Clone() *SelectionState {
	c := &SelectionState{dates: make(map[domain.Date]struct{}, len(s.dates))}
	for d := range s.dates {
		c.dates[d] = struct{}{}
	}
	if s.hours != nil {
		h := *s.hours
		c.hours = &h
	}
	return c
}

// Snapshot freezes the state into a Selection.
func (s *SelectionState) Snapshot() Selection {
	h, _ := s.TimeRange()
	return Selection{Dates: s.Dates(), Hours: h}
}

// Selection is the confirmed result of a wizard.
type Selection struct {
	Dates []domain.Date
	Hours HourRange
}

// Request builds a scheduling request from a confirmed selection.
func (s Selection) Request(eventName, timezone string) (*domain.SchedulingRequest, error) {
	return domain.NewSchedulingRequest(eventName, s.Hours.Earliest, s.Hours.Latest, timezone, s.Dates)
}
