package discord

import (
	"github.com/bwmarrin/discordgo"
)

const (
	cmdCreate = "create"
	cmdSet    = "set"
	cmdGet    = "get"

	subScheduler        = "scheduler"
	subCategory         = "category"
	subSchedulerTrigger = "scheduler-trigger"
	subSchedulerOff     = "scheduler-trigger-off"
	subWelcomeMessage   = "welcome-message"
	subWelcomeChannel   = "welcome-channel"
	optEventName        = "event_name"
	optTimezone         = "timezone"
	optChannel          = "channel"
	optCategory         = "category"
	optMessage          = "message"
)

var adminPermission int64 = discordgo.PermissionAdministrator

func eventNameOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        optEventName,
		Description: description,
		Required:    true,
		MaxLength:   100,
	}
}

func timezoneOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionString,
		Name:         optTimezone,
		Description:  "The timezone of the event, for example New York.",
		Autocomplete: true,
	}
}

func categoryOption(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionChannel,
		Name:         name,
		Description:  description,
		Required:     true,
		ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory},
	}
}

// commands returns the slash commands the bot registers.
func commands() []*discordgo.ApplicationCommand {
	dm := false
	return []*discordgo.ApplicationCommand{
		{
			Name:         cmdCreate,
			Description:  "Commands used to create things.",
			DMPermission: &dm,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        subScheduler,
					Description: "Pick dates and hours, then create a scheduling event for them.",
					Options:     []*discordgo.ApplicationCommandOption{eventNameOption("The name of the event."), timezoneOption()},
				},
			},
		},
		{
			Name:                     cmdSet,
			Description:              "Commands used to configure various aspects of the bot.",
			DefaultMemberPermissions: &adminPermission,
			DMPermission:             &dm,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        subCategory,
					Description: "Set the category in which new private channels are created.",
					Options:     []*discordgo.ApplicationCommandOption{categoryOption(optChannel, "The category to create new channels in.")},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        subSchedulerTrigger,
					Description: "Create a scheduling event whenever a channel is moved into a category.",
					Options: []*discordgo.ApplicationCommandOption{
						eventNameOption("The event name; {} is replaced with the channel name."),
						categoryOption(optCategory, "The category that triggers the event."),
						timezoneOption(),
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        subSchedulerOff,
					Description: "Stop creating scheduling events for moved channels.",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        subWelcomeMessage,
					Description: "Set the message sent in new private channels; {} is the member, a second {} the welcome channel.",
					Options: []*discordgo.ApplicationCommandOption{{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        optMessage,
						Description: "The welcome message.",
						Required:    true,
						MaxLength:   1000,
					}},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        subWelcomeChannel,
					Description: "Set the channel mentioned in the welcome message.",
					Options: []*discordgo.ApplicationCommandOption{{
						Type:         discordgo.ApplicationCommandOptionChannel,
						Name:         optChannel,
						Description:  "The welcome channel.",
						Required:     true,
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
					}},
				},
			},
		},
		{
			Name:                     cmdGet,
			Description:              "Commands used to get various information about the bot.",
			DefaultMemberPermissions: &adminPermission,
			DMPermission:             &dm,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        subCategory,
					Description: "Find out which category is currently being used to create new channels.",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        subSchedulerTrigger,
					Description: "Show the scheduling event created for moved channels.",
				},
			},
		},
	}
}

// optionMap indexes the options of a subcommand by name.
func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

func stringOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if o, ok := opts[name]; ok {
		if v, ok := o.Value.(string); ok {
			return v
		}
	}
	return ""
}
