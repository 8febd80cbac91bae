package wizard

import (
	"fmt"
	"strconv"

	"guildkeeper/internal/domain"
)

// Action identifies a control on a wizard page. It is carried in component IDs.
type Action string

const (
	ActionToggle  Action = "toggle"
	ActionNext    Action = "next"
	ActionBack    Action = "back"
	ActionHours   Action = "hours"
	ActionConfirm Action = "confirm"
)

// Event is one user interaction delivered to a wizard.
type Event interface {
	isEvent()
}

type ToggleDate struct{ Date domain.Date }
type NextPage struct{}
type PrevPage struct{}
type SelectHours struct{ Values []int }
type Confirm struct{}

func (ToggleDate) isEvent()  {}
func (NextPage) isEvent()    {}
func (PrevPage) isEvent()    {}
func (SelectHours) isEvent() {}
func (Confirm) isEvent()     {}

// ParseEvent decodes a control action, its argument and any selected values into an Event.
func ParseEvent(action Action, arg string, values []string) (Event, error) {
	switch action {
	case ActionToggle:
		d, err := domain.ParseDate(arg)
		if err != nil {
			return nil, err
		}
		return ToggleDate{Date: d}, nil
	case ActionNext:
		return NextPage{}, nil
	case ActionBack:
		return PrevPage{}, nil
	case ActionHours:
		hours := make([]int, 0, len(values))
		for _, v := range values {
			h, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("parse hour %q: %w", v, err)
			}
			hours = append(hours, h)
		}
		return SelectHours{Values: hours}, nil
	case ActionConfirm:
		return Confirm{}, nil
	default:
		return nil, fmt.Errorf("unknown wizard action %q", action)
	}
}
