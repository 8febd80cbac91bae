package discord

import (
	"github.com/bwmarrin/discordgo"

	"guildkeeper/internal/wizard"
)

var buttonStyles = map[wizard.Style]discordgo.ButtonStyle{
	wizard.StyleSecondary: discordgo.SecondaryButton,
	wizard.StylePrimary:   discordgo.PrimaryButton,
	wizard.StyleSuccess:   discordgo.SuccessButton,
	wizard.StyleDanger:    discordgo.DangerButton,
}

// renderComponents lays a wizard view out as action rows. Controls keep the row the view assigned.
func renderComponents(session string, v wizard.View) []discordgo.MessageComponent {
	rows := map[int][]discordgo.MessageComponent{}
	maxRow := -1
	add := func(row int, c discordgo.MessageComponent) {
		rows[row] = append(rows[row], c)
		if row > maxRow {
			maxRow = row
		}
	}

	if sel := v.Select; sel != nil {
		minValues := sel.MinValues
		menu := discordgo.SelectMenu{
			MenuType:    discordgo.StringSelectMenu,
			CustomID:    componentID{Session: session, Action: sel.Action}.String(),
			Placeholder: sel.Placeholder,
			MinValues:   &minValues,
			MaxValues:   sel.MaxValues,
			Disabled:    sel.Disabled,
		}
		for _, o := range sel.Options {
			opt := discordgo.SelectMenuOption{Label: o.Label, Value: o.Value, Default: o.Default}
			if o.Emoji != "" {
				opt.Emoji = &discordgo.ComponentEmoji{Name: o.Emoji}
			}
			menu.Options = append(menu.Options, opt)
		}
		add(sel.Row, menu)
	}
	for _, b := range v.Buttons {
		btn := discordgo.Button{
			Label:    b.Label,
			Style:    buttonStyles[b.Style],
			Disabled: b.Disabled,
			CustomID: componentID{Session: session, Action: b.Action, Arg: b.Arg}.String(),
		}
		if b.Emoji != "" {
			btn.Emoji = &discordgo.ComponentEmoji{Name: b.Emoji}
		}
		add(b.Row, btn)
	}

	var out []discordgo.MessageComponent
	for r := 0; r <= maxRow; r++ {
		if len(rows[r]) == 0 {
			continue
		}
		out = append(out, discordgo.ActionsRow{Components: rows[r]})
	}
	return out
}

func linkButton(url string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Open scheduler", Style: discordgo.LinkButton, URL: url},
		}},
	}
}
