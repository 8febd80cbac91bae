package discord

import (
	"fmt"
	"strings"

	"guildkeeper/internal/wizard"
)

const wizardPrefix = "wiz"

// componentID is the parsed form of a wizard component custom ID:
// wiz:<session>:<action>[:<arg>].
type componentID struct {
	Session string
	Action  wizard.Action
	Arg     string
}

func (c componentID) String() string {
	id := wizardPrefix + ":" + c.Session + ":" + string(c.Action)
	if c.Arg != "" {
		id += ":" + c.Arg
	}
	return id
}

func parseComponentID(s string) (componentID, error) {
	parts := strings.SplitN(s, ":", 4)
	if len(parts) < 3 || parts[0] != wizardPrefix || parts[1] == "" || parts[2] == "" {
		return componentID{}, fmt.Errorf("not a wizard component id: %q", s)
	}
	id := componentID{Session: parts[1], Action: wizard.Action(parts[2])}
	if len(parts) == 4 {
		id.Arg = parts[3]
	}
	return id, nil
}
