package domain

import (
	"context"
	"strings"
	"time"
)

// DefaultWelcomeMessage is sent in a new member's private channel; {} is the member mention.
const DefaultWelcomeMessage = "Welcome {}! This is your private channel."

// welcomeChannelFallback fills the second welcome placeholder while no welcome channel is set.
const welcomeChannelFallback = "the welcome channel"

// Guild is the single configuration record kept per guild.
type Guild struct {
	ID string `json:"id"`
	// CategoryID is where private member channels are created. Nil means not configured.
	CategoryID    *string `json:"category_id"`
	LastMessageID *string `json:"last_message_id"`
	CreateChannel bool    `json:"create_channel"`
	// NotifyPermissionLoss is cleared after the owner was told the bot lost its
	// admin permission and set again once the permission is restored.
	NotifyPermissionLoss bool   `json:"notify_permission_loss"`
	WelcomeMessage       string `json:"welcome_message"`
	// WelcomeChannelID is mentioned by the optional second placeholder of WelcomeMessage.
	WelcomeChannelID *string `json:"welcome_channel_id"`
	// NotifyMissingWelcomeChannel is cleared once the owner was told no welcome channel is set.
	NotifyMissingWelcomeChannel bool `json:"notify_missing_welcome_channel"`
	// SchedulerCategoryID is the trigger category for SchedulerTemplate. Nil disables the trigger.
	SchedulerCategoryID *string             `json:"scheduler_category_id"`
	SchedulerTemplate   *SchedulingTemplate `json:"scheduler_template"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// NewGuild returns a Guild with default settings.
func NewGuild(id string, now time.Time) *Guild {
	return &Guild{
		ID:                          id,
		CreateChannel:               true,
		NotifyPermissionLoss:        true,
		WelcomeMessage:              DefaultWelcomeMessage,
		NotifyMissingWelcomeChannel: true,
		CreatedAt:                   now,
		UpdatedAt:                   now,
	}
}

// Listening reports whether new members should get a private channel.
func (g *Guild) Listening() bool {
	return g.CategoryID != nil && g.CreateChannel
}

// SchedulerTriggerEnabled reports whether channel moves may fire the template.
func (g *Guild) SchedulerTriggerEnabled() bool {
	return g.SchedulerCategoryID != nil && g.SchedulerTemplate != nil
}

// Welcome renders the welcome message for a member mention. A second
// placeholder, if present, becomes the welcome channel mention.
func (g *Guild) Welcome(mention string) string {
	msg := g.WelcomeMessage
	if msg == "" {
		msg = DefaultWelcomeMessage
	}
	msg = strings.Replace(msg, Placeholder, mention, 1)
	channel := welcomeChannelFallback
	if g.WelcomeChannelID != nil {
		channel = ChannelMention(*g.WelcomeChannelID)
	}
	return strings.Replace(msg, Placeholder, channel, 1)
}

// ValidateWelcomeMessage requires the member placeholder and allows one more
// for the welcome channel.
func ValidateWelcomeMessage(msg string) error {
	switch n := strings.Count(msg, Placeholder); n {
	case 1, 2:
		return nil
	case 0:
		return NewValidationError("welcome_message", "the welcome message must contain %s where the member is mentioned", Placeholder)
	default:
		return NewValidationError("welcome_message", "the welcome message may contain %s at most twice, for the member and the welcome channel, found %d", Placeholder, n)
	}
}

// ChannelMention formats a channel reference the chat client renders as a link.
func ChannelMention(id string) string {
	return "<#" + id + ">"
}

// UserMention formats a user reference the chat client renders as a ping.
func UserMention(id string) string {
	return "<@" + id + ">"
}

// GuildRepository defines the interface for guild configuration storage.
// Update runs fn inside one transaction holding a lock on that guild's row only,
// creating the row with defaults first if it does not exist.
type GuildRepository interface {
	Get(ctx context.Context, id string) (*Guild, error)
	GetOrCreate(ctx context.Context, id string) (*Guild, error)
	Update(ctx context.Context, id string, fn func(g *Guild) error) (*Guild, error)
}
