package discord

import (
	"github.com/bwmarrin/discordgo"

	"guildkeeper/internal/timezones"
)

func timezoneChoices(zones []timezones.Zone) []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(zones))
	for _, z := range zones {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  z.Label() + " (" + z.Name() + ")",
			Value: z.Name(),
		})
	}
	return choices
}
