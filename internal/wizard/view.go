package wizard

import (
	"fmt"
	"strconv"
	"time"

	"guildkeeper/internal/domain"
)

// Page is a wizard state.
type Page int

const (
	PageDates Page = iota
	PageTimeRange
)

func (p Page) String() string {
	switch p {
	case PageDates:
		return "dates"
	case PageTimeRange:
		return "time_range"
	default:
		return "page(" + strconv.Itoa(int(p)) + ")"
	}
}

type Style int

const (
	StyleSecondary Style = iota
	StylePrimary
	StyleSuccess
	StyleDanger
)

// Button is a clickable control. Arg is passed back with Action.
type Button struct {
	Action   Action
	Arg      string
	Label    string
	Emoji    string
	Style    Style
	Disabled bool
	Row      int
}

type Option struct {
	Value   string
	Label   string
	Emoji   string
	Default bool
}

// Select is a multi-choice control that reports Action with the chosen option values.
type Select struct {
	Action      Action
	Placeholder string
	Options     []Option
	MinValues   int
	MaxValues   int
	Disabled    bool
	Row         int
}

// View is a platform-neutral rendering of one wizard page.
type View struct {
	Page    Page
	Content string
	Buttons []Button
	Select  *Select
}

// Disabled returns a copy of v with every control disabled.
func (v View) Disabled() View {
	out := v
	out.Buttons = make([]Button, len(v.Buttons))
	for i, b := range v.Buttons {
		b.Disabled = true
		out.Buttons[i] = b
	}
	if v.Select != nil {
		s := *v.Select
		s.Options = append([]Option(nil), v.Select.Options...)
		s.Disabled = true
		out.Select = &s
	}
	return out
}

// DateLabelLayout renders date buttons as "Monday 10/19".
const DateLabelLayout = "Monday 01/02"

var clockEmoji = [12]string{"🕛", "🕐", "🕑", "🕒", "🕓", "🕔", "🕕", "🕖", "🕗", "🕘", "🕙", "🕚"}

const endOfDayLabel = "12 AM (end of day)"

// HourLabel renders an hour index as "09 AM". Hour 24 is midnight at the end of the day.
func HourLabel(hour int) string {
	if hour == domain.MaxHour {
		return endOfDayLabel
	}
	return time.Date(2000, 1, 1, hour%24, 0, 0, 0, time.UTC).Format("03 PM")
}

func HourEmoji(hour int) string {
	return clockEmoji[((hour%12)+12)%12]
}

const (
	datesContent = "**Select the dates you are available.**"
	hoursContent = "**Select the earliest and the latest hour you are available.**"
)

func (w *Wizard) render() View {
	switch w.page {
	case PageTimeRange:
		return w.renderTimeRange()
	default:
		return w.renderDates()
	}
}

func (w *Wizard) renderDates() View {
	v := View{Page: PageDates, Content: datesContent}
	for i, d := range w.dates {
		style := StyleSecondary
		if w.state.IsSelected(d) {
			style = StyleSuccess
		}
		v.Buttons = append(v.Buttons, Button{
			Action: ActionToggle,
			Arg:    d.String(),
			Label:  d.Format(DateLabelLayout),
			Style:  style,
			Row:    i / w.daysPerRow,
		})
	}
	nav := w.navRow()
	v.Buttons = append(v.Buttons,
		Button{Action: ActionNext, Label: "Next", Style: StylePrimary, Disabled: w.state.DateCount() == 0, Row: nav},
		Button{Action: ActionConfirm, Label: "Confirm", Style: StyleSuccess, Disabled: true, Row: nav},
	)
	return v
}

func (w *Wizard) renderTimeRange() View {
	v := View{Page: PageTimeRange, Content: hoursContent}
	picked, hasRange := w.state.TimeRange()
	sel := &Select{
		Action:      ActionHours,
		Placeholder: "Select a start time and an end time.",
		MinValues:   2,
		MaxValues:   2,
		Row:         0,
	}
	for h := w.startHour; h <= w.endHour; h++ {
		sel.Options = append(sel.Options, Option{
			Value:   strconv.Itoa(h),
			Label:   HourLabel(h),
			Emoji:   HourEmoji(h),
			Default: hasRange && (h == picked.Earliest || h == picked.Latest),
		})
	}
	v.Select = sel
	if hasRange {
		v.Content = fmt.Sprintf("%s\nFrom %s to %s.", hoursContent, HourLabel(picked.Earliest), HourLabel(picked.Latest))
	}
	v.Buttons = []Button{
		{Action: ActionBack, Label: "Back", Style: StyleSecondary, Row: 1},
		{Action: ActionConfirm, Label: "Confirm", Style: StyleSuccess, Disabled: !w.state.Complete(), Row: 1},
	}
	return v
}

func (w *Wizard) navRow() int {
	if len(w.dates) == 0 {
		return 0
	}
	return (len(w.dates)-1)/w.daysPerRow + 1
}
