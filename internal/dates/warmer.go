package dates

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// midnightSpec fires at 00:00 in the cron location.
const midnightSpec = "0 0 * * *"

// NewWarmer returns a cron scheduler that touches the window for loc at every
// local midnight, so the window advances even when nobody opens a wizard.
// The caller starts and stops the returned scheduler.
func NewWarmer(w *RollingWindow, loc *time.Location, logger *slog.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(midnightSpec, func() {
		dates := w.Dates(loc)
		logger.Debug("date window advanced", "timezone", loc.String(), "first", dates[0].String())
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
