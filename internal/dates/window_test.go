package dates

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"guildkeeper/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable Clock for tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func requireConsecutive(t *testing.T, dates []domain.Date) {
	t.Helper()
	seen := make(map[domain.Date]bool, len(dates))
	for i, d := range dates {
		require.False(t, seen[d], "duplicate date %s", d)
		seen[d] = true
		if i > 0 {
			require.Equal(t, dates[i-1].AddDays(1), d, "gap after %s", dates[i-1])
		}
	}
}

func TestRollingWindow_FirstCall(t *testing.T) {
	zones := []string{"UTC", "America/Los_Angeles", "Asia/Kolkata", "Pacific/Kiritimati", "Pacific/Pago_Pago"}
	instants := []time.Time{
		time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 19, 23, 59, 0, 0, time.UTC),
		time.Date(2026, 12, 31, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 8, 10, 30, 0, 0, time.UTC),
	}
	for _, zone := range zones {
		loc, err := time.LoadLocation(zone)
		require.NoError(t, err)
		for _, now := range instants {
			w := NewRollingWindow(&fakeClock{now: now}, 2, 3)
			got := w.Dates(loc)

			require.Len(t, got, 6, "%s at %s", zone, now)
			requireConsecutive(t, got)
			assert.Equal(t, domain.DateOf(now.In(loc)), got[0], "%s at %s", zone, now)
		}
	}
}

func TestRollingWindow_SameDayIsStable(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)}
	w := NewRollingWindow(clock, 1, 5)

	first := w.Dates(time.UTC)
	clock.advance(10 * time.Hour)
	second := w.Dates(time.UTC)

	assert.Equal(t, first, second)
}

func TestRollingWindow_SlidesOneDay(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)}
	w := NewRollingWindow(clock, 1, 5)

	before := w.Dates(time.UTC)
	clock.advance(24 * time.Hour)
	after := w.Dates(time.UTC)

	require.Len(t, after, 5)
	assert.Equal(t, before[1:], after[:4])
	assert.Equal(t, before[4].AddDays(1), after[4])
	requireConsecutive(t, after)
}

func TestRollingWindow_CatchesUpOneDayPerAccess(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)}
	w := NewRollingWindow(clock, 1, 4)
	start := w.Dates(time.UTC)[0]

	clock.advance(3 * 24 * time.Hour)
	for step := 1; step <= 3; step++ {
		got := w.Dates(time.UTC)
		assert.Equal(t, start.AddDays(step), got[0], "step %d", step)
		requireConsecutive(t, got)
	}
	// Caught up: further accesses on the same day do not move.
	assert.Equal(t, start.AddDays(3), w.Dates(time.UTC)[0])
}

func TestRollingWindow_PerConfiguration(t *testing.T) {
	now := time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC)
	w := NewRollingWindow(&fakeClock{now: now}, 4, 5)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	utc := w.Dates(time.UTC)
	jp := w.Dates(tokyo)
	small := w.DatesFor(time.UTC, 1, 2)

	assert.Len(t, utc, 20)
	assert.Equal(t, domain.Date{Year: 2026, Month: time.October, Day: 19}, utc[0])
	assert.Equal(t, domain.Date{Year: 2026, Month: time.October, Day: 20}, jp[0])
	assert.Len(t, small, 2)
}

func TestRollingWindow_ReturnsCopy(t *testing.T) {
	w := NewRollingWindow(&fakeClock{now: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)}, 1, 3)
	got := w.Dates(time.UTC)
	got[0] = domain.Date{}
	assert.False(t, w.Dates(time.UTC)[0].IsZero())
}

func TestNewWarmer(t *testing.T) {
	w := NewRollingWindow(&fakeClock{now: time.Now()}, 1, 3)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	c, err := NewWarmer(w, time.UTC, logger)
	require.NoError(t, err)
	require.Len(t, c.Entries(), 1)
}
