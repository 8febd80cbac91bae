package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"guildkeeper/internal/domain"
)

type platform struct {
	session *discordgo.Session
}

// NewPlatform adapts a discordgo session to the domain.Platform port.
// The session must track state (guilds, channels, roles and members).
func NewPlatform(session *discordgo.Session) domain.Platform {
	return &platform{session: session}
}

func (p *platform) selfID() string {
	if p.session.State == nil || p.session.State.User == nil {
		return ""
	}
	return p.session.State.User.ID
}

func (p *platform) IsAdmin(ctx context.Context, guildID string) (bool, error) {
	guild, err := p.session.State.Guild(guildID)
	if err != nil {
		return false, fmt.Errorf("guild %s: %w", guildID, err)
	}
	member, err := p.session.State.Member(guildID, p.selfID())
	if err != nil {
		member, err = p.session.GuildMember(guildID, p.selfID(), discordgo.WithContext(ctx))
		if err != nil {
			return false, fmt.Errorf("bot member in %s: %w", guildID, err)
		}
	}
	return isAdministrator(guild, member), nil
}

// isAdministrator reports whether member has the administrator permission through ownership or roles.
func isAdministrator(guild *discordgo.Guild, member *discordgo.Member) bool {
	if member == nil || member.User == nil {
		return false
	}
	if guild.OwnerID == member.User.ID {
		return true
	}
	roleIDs := append([]string{guild.ID}, member.Roles...)
	for _, id := range roleIDs {
		for _, role := range guild.Roles {
			if role.ID == id && role.Permissions&discordgo.PermissionAdministrator != 0 {
				return true
			}
		}
	}
	return false
}

func (p *platform) LeaveGuild(ctx context.Context, guildID string) error {
	return p.session.GuildLeave(guildID, discordgo.WithContext(ctx))
}

func (p *platform) NotifyOwner(ctx context.Context, guildID, content string) error {
	guild, err := p.session.State.Guild(guildID)
	if err != nil {
		return fmt.Errorf("guild %s: %w", guildID, err)
	}
	if guild.OwnerID == "" {
		return fmt.Errorf("guild %s has no owner", guildID)
	}
	dm, err := p.session.UserChannelCreate(guild.OwnerID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open owner dm: %w", err)
	}
	_, err = p.session.ChannelMessageSend(dm.ID, content, discordgo.WithContext(ctx))
	return err
}

func (p *platform) InviteURL() string {
	return fmt.Sprintf("https://discord.com/oauth2/authorize?client_id=%s&permissions=%d&scope=bot%%20applications.commands",
		p.selfID(), discordgo.PermissionAdministrator)
}

func (p *platform) channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	ch, err := p.session.State.Channel(channelID)
	if err == nil {
		return ch, nil
	}
	ch, err = p.session.Channel(channelID, discordgo.WithContext(ctx))
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	return ch, err
}

func (p *platform) CategoryExists(ctx context.Context, guildID, categoryID string) (bool, error) {
	ch, err := p.channel(ctx, categoryID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ch.GuildID == guildID && ch.Type == discordgo.ChannelTypeGuildCategory, nil
}

func (p *platform) CanManageChannels(ctx context.Context, guildID, categoryID string) (bool, error) {
	perms, err := p.session.State.UserChannelPermissions(p.selfID(), categoryID)
	if err != nil {
		return false, fmt.Errorf("permissions in %s: %w", categoryID, err)
	}
	return perms&(discordgo.PermissionManageChannels|discordgo.PermissionAdministrator) != 0, nil
}

func (p *platform) CreatePrivateChannel(ctx context.Context, guildID, categoryID, memberID, name string) (string, error) {
	ch, err := p.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelTypeGuildText,
		ParentID: categoryID,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
			{
				ID:    memberID,
				Type:  discordgo.PermissionOverwriteTypeMember,
				Allow: discordgo.PermissionViewChannel | discordgo.PermissionReadMessageHistory | discordgo.PermissionSendMessages,
			},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return ch.ID, nil
}

// FindPrivateChannel looks for the text channel in the category that grants memberID a member overwrite.
func (p *platform) FindPrivateChannel(ctx context.Context, guildID, categoryID, memberID string) (string, error) {
	guild, err := p.session.State.Guild(guildID)
	if err != nil {
		return "", fmt.Errorf("guild %s: %w", guildID, err)
	}
	return privateChannelOf(guild.Channels, categoryID, memberID)
}

func privateChannelOf(channels []*discordgo.Channel, categoryID, memberID string) (string, error) {
	for _, ch := range channels {
		if ch.ParentID != categoryID || ch.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		for _, ow := range ch.PermissionOverwrites {
			if ow.Type == discordgo.PermissionOverwriteTypeMember && ow.ID == memberID {
				return ch.ID, nil
			}
		}
	}
	return "", domain.ErrNotFound
}

func (p *platform) RenameChannel(ctx context.Context, channelID, name string) error {
	_, err := p.session.ChannelEdit(channelID, &discordgo.ChannelEdit{Name: name}, discordgo.WithContext(ctx))
	return err
}

func (p *platform) SendMessage(ctx context.Context, channelID, content string) error {
	_, err := p.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return err
}
