package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"guildkeeper/internal/domain"
	"guildkeeper/internal/wizard"
)

const embedColor = 0x5865F2

// requestEmbed summarizes a created scheduling event.
func requestEmbed(r domain.SchedulingRequest) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: r.EventName,
		Color: embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Time", Value: hourRange(r.EarliestHour, r.LatestHour), Inline: true},
			{Name: "Timezone", Value: r.Timezone, Inline: true},
			{Name: "Dates", Value: summarizeDates(r.PossibleDates)},
		},
	}
}

// templateEmbed describes a stored scheduler trigger.
func templateEmbed(categoryID string, t *domain.SchedulingTemplate) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       t.EventName,
		Description: "Channels moved into " + domain.ChannelMention(categoryID) + " get a scheduling event.",
		Color:       embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Time", Value: hourRange(t.EarliestHour, t.LatestHour), Inline: true},
			{Name: "Timezone", Value: t.Timezone, Inline: true},
			{Name: "Days", Value: weekdayList(t.Weekdays)},
		},
	}
}

func hourRange(earliest, latest int) string {
	return fmt.Sprintf("%s %s to %s %s",
		wizard.HourEmoji(earliest), wizard.HourLabel(earliest),
		wizard.HourEmoji(latest), wizard.HourLabel(latest))
}

// summarizeDates renders one date, a first to last range when the dates are
// consecutive, or a list otherwise. dates must be sorted.
func summarizeDates(dates []domain.Date) string {
	switch len(dates) {
	case 0:
		return "No dates"
	case 1:
		return dates[0].Format(wizard.DateLabelLayout)
	}
	contiguous := true
	for i := 1; i < len(dates); i++ {
		if dates[i] != dates[i-1].AddDays(1) {
			contiguous = false
			break
		}
	}
	if contiguous {
		return dates[0].Format(wizard.DateLabelLayout) + " to " + dates[len(dates)-1].Format(wizard.DateLabelLayout)
	}
	labels := make([]string, len(dates))
	for i, d := range dates {
		labels[i] = d.Format(wizard.DateLabelLayout)
	}
	return strings.Join(labels, ", ")
}

func weekdayList(days []time.Weekday) string {
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()
	}
	return strings.Join(names, ", ")
}
