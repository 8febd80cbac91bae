package domain

import "context"

// Platform is the chat platform as seen by the provisioning and trigger services.
type Platform interface {
	IsAdmin(ctx context.Context, guildID string) (bool, error)
	LeaveGuild(ctx context.Context, guildID string) error
	NotifyOwner(ctx context.Context, guildID, content string) error
	InviteURL() string

	CategoryExists(ctx context.Context, guildID, categoryID string) (bool, error)
	CanManageChannels(ctx context.Context, guildID, categoryID string) (bool, error)
	CreatePrivateChannel(ctx context.Context, guildID, categoryID, memberID, name string) (channelID string, err error)
	// FindPrivateChannel returns ErrNotFound when the member has no channel in the category.
	FindPrivateChannel(ctx context.Context, guildID, categoryID, memberID string) (channelID string, err error)
	RenameChannel(ctx context.Context, channelID, name string) error
	SendMessage(ctx context.Context, channelID, content string) error
}

// GuildJoin describes the bot being added to a guild.
type GuildJoin struct {
	GuildID   string
	GuildName string
	// LastMessageID is the latest message in the guild's system channel, if any.
	LastMessageID *string
}

// MemberJoin describes a member joining a guild.
type MemberJoin struct {
	GuildID     string
	UserID      string
	DisplayName string
	Bot         bool
}

// MemberRename describes a change of a member's guild nickname.
type MemberRename struct {
	GuildID  string
	UserID   string
	Username string
	OldNick  string
	NewNick  string
	Bot      bool
}

// ProvisioningService defines the business logic for private member channels.
type ProvisioningService interface {
	GuildJoined(ctx context.Context, join GuildJoin) error
	MemberJoined(ctx context.Context, member MemberJoin) error
	MemberRenamed(ctx context.Context, rename MemberRename) error
	AdminPermissionChanged(ctx context.Context, guildID string, wasAdmin, isAdmin bool) error
	SetCategory(ctx context.Context, guildID, categoryID string) (string, error)
	GetCategory(ctx context.Context, guildID string) (string, error)
	SetWelcomeMessage(ctx context.Context, guildID, message string) error
	SetWelcomeChannel(ctx context.Context, guildID, channelID string) (string, error)
}
