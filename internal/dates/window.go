// Package dates computes the rolling window of candidate dates offered by the scheduling wizard.
package dates

import (
	"sync"
	"time"

	"guildkeeper/internal/domain"
)

// Clock returns the current instant.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

const (
	DefaultRows       = 4
	DefaultDaysPerRow = 5
)

type windowKey struct {
	location   string
	rows       int
	daysPerRow int
}

// RollingWindow caches one window of consecutive dates per (timezone, shape).
// A window is built on first use. On every later access, if today in that
// timezone is past the first cached date, the window slides forward by exactly
// one day, however many days have passed since the previous access.
type RollingWindow struct {
	clock      Clock
	rows       int
	daysPerRow int

	mu      sync.Mutex
	windows map[windowKey][]domain.Date
}

// NewRollingWindow returns a window with the given default shape.
func NewRollingWindow(clock Clock, rows, daysPerRow int) *RollingWindow {
	if clock == nil {
		clock = SystemClock
	}
	if rows <= 0 {
		rows = DefaultRows
	}
	if daysPerRow <= 0 {
		daysPerRow = DefaultDaysPerRow
	}
	return &RollingWindow{
		clock:      clock,
		rows:       rows,
		daysPerRow: daysPerRow,
		windows:    make(map[windowKey][]domain.Date),
	}
}

// Shape returns the default rows and days per row.
func (w *RollingWindow) Shape() (rows, daysPerRow int) {
	return w.rows, w.daysPerRow
}

// Dates returns the window for loc using the default shape.
func (w *RollingWindow) Dates(loc *time.Location) []domain.Date {
	return w.DatesFor(loc, w.rows, w.daysPerRow)
}

// DatesFor returns the window for loc with rows*daysPerRow dates. The returned slice is a copy.
func (w *RollingWindow) DatesFor(loc *time.Location, rows, daysPerRow int) []domain.Date {
	if loc == nil {
		loc = time.UTC
	}
	if rows <= 0 {
		rows = w.rows
	}
	if daysPerRow <= 0 {
		daysPerRow = w.daysPerRow
	}
	key := windowKey{location: loc.String(), rows: rows, daysPerRow: daysPerRow}
	today := domain.DateOf(w.clock.Now().In(loc))

	w.mu.Lock()
	defer w.mu.Unlock()

	cached, ok := w.windows[key]
	switch {
	case !ok:
		cached = build(today, rows*daysPerRow)
	case today.After(cached[0]):
		cached = slide(cached)
	}
	w.windows[key] = cached
	return append([]domain.Date(nil), cached...)
}

func build(start domain.Date, n int) []domain.Date {
	out := make([]domain.Date, n)
	for i := range out {
		out[i] = start.AddDays(i)
	}
	return out
}

// slide drops the earliest date and appends the day after the last one.
func slide(window []domain.Date) []domain.Date {
	out := make([]domain.Date, len(window))
	copy(out, window[1:])
	out[len(out)-1] = window[len(window)-1].AddDays(1)
	return out
}
