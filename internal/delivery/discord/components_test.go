package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guildkeeper/internal/wizard"
)

func TestComponentID_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		id   componentID
		want string
	}{
		{"with arg", componentID{Session: "abc", Action: wizard.ActionToggle, Arg: "2026-10-21"}, "wiz:abc:toggle:2026-10-21"},
		{"without arg", componentID{Session: "abc", Action: wizard.ActionNext}, "wiz:abc:next"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.id.String())
			parsed, err := parseComponentID(tt.want)
			require.NoError(t, err)
			assert.Equal(t, tt.id, parsed)
		})
	}
}

func TestParseComponentID_Invalid(t *testing.T) {
	for _, s := range []string{"", "wiz", "wiz:abc", "wiz::next", "other:abc:next", "wiz:abc:"} {
		_, err := parseComponentID(s)
		assert.Error(t, err, s)
	}
}

func TestRenderComponents_RowsFollowView(t *testing.T) {
	v := wizard.View{
		Buttons: []wizard.Button{
			{Action: wizard.ActionToggle, Arg: "2026-10-21", Label: "Wednesday 10/21", Style: wizard.StyleSuccess, Row: 0},
			{Action: wizard.ActionToggle, Arg: "2026-10-22", Label: "Thursday 10/22", Row: 0},
			{Action: wizard.ActionNext, Label: "Next", Style: wizard.StylePrimary, Row: 2},
		},
	}

	rows := renderComponents("s1", v)
	require.Len(t, rows, 2)

	first, ok := rows[0].(discordgo.ActionsRow)
	require.True(t, ok)
	require.Len(t, first.Components, 2)
	btn := first.Components[0].(discordgo.Button)
	assert.Equal(t, "wiz:s1:toggle:2026-10-21", btn.CustomID)
	assert.Equal(t, discordgo.SuccessButton, btn.Style)

	second := rows[1].(discordgo.ActionsRow)
	next := second.Components[0].(discordgo.Button)
	assert.Equal(t, "wiz:s1:next", next.CustomID)
	assert.Equal(t, discordgo.PrimaryButton, next.Style)
}

func TestRenderComponents_Select(t *testing.T) {
	v := wizard.View{
		Select: &wizard.Select{
			Action:    wizard.ActionHours,
			MinValues: 2,
			MaxValues: 2,
			Options: []wizard.Option{
				{Value: "9", Label: "09 AM", Emoji: "🕘", Default: true},
				{Value: "17", Label: "05 PM"},
			},
		},
		Buttons: []wizard.Button{{Action: wizard.ActionConfirm, Label: "Confirm", Disabled: true, Row: 1}},
	}

	rows := renderComponents("s1", v.Disabled())
	require.Len(t, rows, 2)
	menu := rows[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	assert.Equal(t, "wiz:s1:hours", menu.CustomID)
	require.NotNil(t, menu.MinValues)
	assert.Equal(t, 2, *menu.MinValues)
	assert.Equal(t, 2, menu.MaxValues)
	assert.True(t, menu.Disabled)
	require.Len(t, menu.Options, 2)
	require.NotNil(t, menu.Options[0].Emoji)
	assert.Equal(t, "🕘", menu.Options[0].Emoji.Name)
	assert.True(t, menu.Options[0].Default)
	assert.Nil(t, menu.Options[1].Emoji)

	confirm := rows[1].(discordgo.ActionsRow).Components[0].(discordgo.Button)
	assert.True(t, confirm.Disabled)
}

func TestLinkButton(t *testing.T) {
	rows := linkButton("https://www.when2meet.com/?1-abc")
	require.Len(t, rows, 1)
	btn := rows[0].(discordgo.ActionsRow).Components[0].(discordgo.Button)
	assert.Equal(t, discordgo.LinkButton, btn.Style)
	assert.Equal(t, "https://www.when2meet.com/?1-abc", btn.URL)
	assert.Empty(t, btn.CustomID)
}
