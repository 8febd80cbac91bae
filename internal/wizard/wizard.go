// Package wizard implements the two-page availability picker: dates first, then an hour range.
//
// A Wizard owns its SelectionState. Events are delivered with Dispatch and applied one
// at a time, in arrival order, by the goroutine running Run, so the state needs no lock.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"guildkeeper/internal/domain"
)

// ErrInactive is returned by Dispatch once the wizard was confirmed, timed out or canceled.
var ErrInactive = errors.New("wizard is no longer active")

const (
	DefaultTimeout   = 5 * time.Minute
	DefaultStartHour = domain.MinHour
	DefaultEndHour   = domain.MaxHour

	failureMessage = "Something went wrong, please try again."
)

// Outcome is how a wizard session ended.
type Outcome int

const (
	OutcomeConfirmed Outcome = iota + 1
	OutcomeTimedOut
	OutcomeCanceled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Responder answers the interaction that produced one event.
type Responder interface {
	Update(v View) error
	Fail(message string) error
}

type Options struct {
	// Dates are the candidate dates, usually a RollingWindow snapshot.
	Dates      []domain.Date
	DaysPerRow int
	StartHour  int
	EndHour    int
	// Timeout is the inactivity window; every event restarts it.
	Timeout time.Duration
	Logger  *slog.Logger
	// OnExpire receives the fully disabled view when the wizard times out.
	// It runs on the Run goroutine.
	OnExpire func(View)
}

type envelope struct {
	event     Event
	responder Responder
}

type Wizard struct {
	dates      []domain.Date
	offered    map[domain.Date]struct{}
	daysPerRow int
	startHour  int
	endHour    int
	timeout    time.Duration
	logger     *slog.Logger
	onExpire   func(View)

	state   *SelectionState
	page    Page
	initial View

	events    chan envelope
	stopped   chan struct{}
	confirmed chan struct{}
	expired   chan struct{}
	result    Selection
}

func New(opts Options) *Wizard {
	if opts.DaysPerRow <= 0 {
		opts.DaysPerRow = 5
	}
	if opts.StartHour == 0 && opts.EndHour == 0 {
		opts.StartHour, opts.EndHour = DefaultStartHour, DefaultEndHour
	}
	if opts.StartHour < domain.MinHour {
		opts.StartHour = domain.MinHour
	}
	if opts.EndHour > domain.MaxHour || opts.EndHour <= opts.StartHour {
		opts.EndHour = domain.MaxHour
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	w := &Wizard{
		dates:      append([]domain.Date(nil), opts.Dates...),
		offered:    make(map[domain.Date]struct{}, len(opts.Dates)),
		daysPerRow: opts.DaysPerRow,
		startHour:  opts.StartHour,
		endHour:    opts.EndHour,
		timeout:    opts.Timeout,
		logger:     opts.Logger,
		onExpire:   opts.OnExpire,
		state:      NewSelectionState(),
		page:       PageDates,
		events:     make(chan envelope),
		stopped:    make(chan struct{}),
		confirmed:  make(chan struct{}),
		expired:    make(chan struct{}),
	}
	for _, d := range w.dates {
		w.offered[d] = struct{}{}
	}
	w.initial = w.render()
	return w
}

// Initial returns the first page.
func (w *Wizard) Initial() View {
	return w.initial
}

// Run processes events until the wizard is confirmed, times out, or ctx is done.
func (w *Wizard) Run(ctx context.Context) {
	defer close(w.stopped)
	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			close(w.expired)
			w.logger.Info("wizard timed out", "page", w.page.String(), "dates_selected", w.state.DateCount())
			if w.onExpire != nil {
				w.onExpire(w.render().Disabled())
			}
			return
		case env := <-w.events:
			timer.Reset(w.timeout)
			if w.handle(env) {
				return
			}
		}
	}
}

// Dispatch hands ev to the Run goroutine. r is answered from there.
func (w *Wizard) Dispatch(ev Event, r Responder) error {
	select {
	case <-w.stopped:
		return ErrInactive
	default:
	}
	select {
	case w.events <- envelope{event: ev, responder: r}:
		return nil
	case <-w.stopped:
		return ErrInactive
	}
}

// Wait blocks until the wizard is confirmed or timed out, or ctx is done.
// A timeout is an outcome, not an error; callers must check it.
func (w *Wizard) Wait(ctx context.Context) (Outcome, Selection) {
	select {
	case <-w.confirmed:
		return OutcomeConfirmed, w.result
	case <-w.expired:
		return OutcomeTimedOut, Selection{}
	case <-w.stopped:
		select {
		case <-w.confirmed:
			return OutcomeConfirmed, w.result
		case <-w.expired:
			return OutcomeTimedOut, Selection{}
		default:
			return OutcomeCanceled, Selection{}
		}
	case <-ctx.Done():
		return OutcomeCanceled, Selection{}
	}
}

// handle applies one event and answers its responder. It reports whether the wizard completed.
func (w *Wizard) handle(env envelope) bool {
	if _, ok := env.event.(Confirm); ok {
		if !w.state.Complete() {
			w.reply(env.responder, w.render())
			return false
		}
		w.result = w.state.Snapshot()
		close(w.confirmed)
		w.reply(env.responder, w.render().Disabled())
		return true
	}

	if err := w.apply(env.event); err != nil {
		w.logger.Error("wizard event failed", "event", fmt.Sprintf("%T", env.event), "page", w.page.String(), "err", err)
		if ferr := env.responder.Fail(failureMessage); ferr != nil {
			w.logger.Error("wizard failure reply failed", "err", ferr)
		}
		return false
	}
	w.reply(env.responder, w.render())
	return false
}

// apply runs ev against a copy of the state and keeps the copy only on success.
func (w *Wizard) apply(ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic handling %T: %v", ev, r)
		}
	}()

	next := w.state.Clone()
	page := w.page
	switch e := ev.(type) {
	case ToggleDate:
		if page != PageDates {
			return fmt.Errorf("date toggled on page %s", page)
		}
		if _, ok := w.offered[e.Date]; !ok {
			return fmt.Errorf("date %s is not offered", e.Date)
		}
		next.Toggle(e.Date)
	case NextPage:
		if next.DateCount() == 0 {
			return errors.New("next page requested with no dates selected")
		}
		page = PageTimeRange
	case PrevPage:
		page = PageDates
	case SelectHours:
		if len(e.Values) != 2 {
			return fmt.Errorf("expected 2 hours, got %d", len(e.Values))
		}
		for _, h := range e.Values {
			if h < w.startHour || h > w.endHour {
				return fmt.Errorf("hour %d outside %d..%d", h, w.startHour, w.endHour)
			}
		}
		next.SetHours(e.Values[0], e.Values[1])
	default:
		return fmt.Errorf("unsupported event %T", ev)
	}
	w.state, w.page = next, page
	return nil
}

func (w *Wizard) reply(r Responder, v View) {
	if err := r.Update(v); err != nil {
		w.logger.Error("wizard render failed", "page", v.Page.String(), "err", err)
	}
}
