package discord

import (
	"errors"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"guildkeeper/internal/domain"
	"guildkeeper/internal/services"
)

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.guard("ready", func() {
		b.mu.Lock()
		for _, g := range r.Guilds {
			b.known[g.ID] = true
		}
		b.mu.Unlock()

		if err := b.registerCommands(); err != nil {
			b.logger.Error("failed to register commands", "err", err)
		}
		b.logger.Info("bot is ready", "user", r.User.String(), "guilds", len(r.Guilds))
	})
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	b.guard("guild_create", func() {
		if g.Unavailable {
			return
		}
		isAdmin := b.refreshAdmin(g.ID)

		b.mu.Lock()
		known := b.known[g.ID]
		b.known[g.ID] = true
		b.mu.Unlock()
		if known {
			b.logger.Debug("guild available", "guild_id", g.ID, "admin", isAdmin)
			return
		}

		join := domain.GuildJoin{GuildID: g.ID, GuildName: g.Name}
		if g.SystemChannelID != "" && g.SystemChannelFlags&discordgo.SystemChannelFlagsSuppressJoinNotifications == 0 {
			if ch, err := s.State.Channel(g.SystemChannelID); err == nil && ch.LastMessageID != "" {
				id := ch.LastMessageID
				join.LastMessageID = &id
			}
		}
		if err := b.provisioning.GuildJoined(b.ctx, join); err != nil {
			b.logger.Error("guild join handling failed", "guild_id", g.ID, "err", err)
		}
	})
}

func (b *Bot) onGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	b.guard("guild_delete", func() {
		if g.Unavailable {
			return
		}
		b.mu.Lock()
		delete(b.known, g.ID)
		delete(b.admin, g.ID)
		b.mu.Unlock()
		b.logger.Info("left guild", "guild_id", g.ID)
	})
}

func (b *Bot) onGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	b.guard("guild_member_add", func() {
		if m.User == nil {
			return
		}
		err := b.provisioning.MemberJoined(b.ctx, domain.MemberJoin{
			GuildID:     m.GuildID,
			UserID:      m.User.ID,
			DisplayName: displayName(m.Member),
			Bot:         m.User.Bot,
		})
		if err != nil {
			b.logger.Error("member join handling failed", "guild_id", m.GuildID, "user_id", m.User.ID, "err", err)
		}
	})
}

func (b *Bot) onGuildMemberUpdate(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	b.guard("guild_member_update", func() {
		if m.User == nil {
			return
		}
		if m.User.ID == s.State.User.ID {
			b.checkAdmin(m.GuildID)
			return
		}
		if m.BeforeUpdate == nil || m.BeforeUpdate.Nick == m.Nick {
			return
		}
		err := b.provisioning.MemberRenamed(b.ctx, domain.MemberRename{
			GuildID:  m.GuildID,
			UserID:   m.User.ID,
			Username: m.User.Username,
			OldNick:  m.BeforeUpdate.Nick,
			NewNick:  m.Nick,
			Bot:      m.User.Bot,
		})
		if err != nil {
			b.logger.Error("member rename handling failed", "guild_id", m.GuildID, "user_id", m.User.ID, "err", err)
		}
	})
}

func (b *Bot) onGuildRoleUpdate(s *discordgo.Session, r *discordgo.GuildRoleUpdate) {
	b.guard("guild_role_update", func() {
		b.checkAdmin(r.GuildID)
	})
}

// checkAdmin recomputes the bot's administrator permission and reports transitions.
func (b *Bot) checkAdmin(guildID string) {
	b.mu.Lock()
	wasAdmin, seen := b.admin[guildID]
	b.mu.Unlock()
	isAdmin := b.refreshAdmin(guildID)
	if !seen || wasAdmin == isAdmin {
		return
	}
	if err := b.provisioning.AdminPermissionChanged(b.ctx, guildID, wasAdmin, isAdmin); err != nil {
		b.logger.Error("permission change handling failed", "guild_id", guildID, "err", err)
	}
}

func (b *Bot) refreshAdmin(guildID string) bool {
	guild, err := b.session.State.Guild(guildID)
	if err != nil {
		return false
	}
	member, err := b.session.State.Member(guildID, b.session.State.User.ID)
	if err != nil {
		return false
	}
	isAdmin := isAdministrator(guild, member)
	b.mu.Lock()
	b.admin[guildID] = isAdmin
	b.mu.Unlock()
	return isAdmin
}

func (b *Bot) onChannelUpdate(s *discordgo.Session, c *discordgo.ChannelUpdate) {
	b.guard("channel_update", func() {
		if c.Type != discordgo.ChannelTypeGuildText || c.ParentID == "" {
			return
		}
		if c.BeforeUpdate == nil || c.BeforeUpdate.ParentID == c.ParentID {
			return
		}
		b.logger.Debug("channel moved", "guild_id", c.GuildID, "channel_id", c.ID, "category_id", c.ParentID)

		res, err := b.scheduler.HandleChannelMoved(b.ctx, domain.ChannelMove{
			GuildID:     c.GuildID,
			ChannelID:   c.ID,
			ChannelName: c.Name,
			CategoryID:  c.ParentID,
		})
		if err != nil {
			b.logger.Log(b.ctx, triggerFailureLevel(err), "scheduler trigger failed", "guild_id", c.GuildID, "channel_id", c.ID, "err", err)
			if _, serr := s.ChannelMessageSend(c.ID, services.UserMessage(err)); serr != nil {
				b.logger.Warn("failed to report trigger failure", "channel_id", c.ID, "err", serr)
			}
			return
		}
		if res == nil {
			return
		}
		_, err = s.ChannelMessageSendComplex(c.ID, &discordgo.MessageSend{
			Embeds:     []*discordgo.MessageEmbed{requestEmbed(res.Request)},
			Components: linkButton(res.URL),
		})
		if err != nil {
			b.logger.Error("failed to post scheduler event", "channel_id", c.ID, "err", err)
			return
		}
		b.logger.Info("scheduler event posted", "guild_id", c.GuildID, "channel_id", c.ID)
	})
}

// triggerFailureLevel picks the log level for a failed trigger. Scheduler
// errors were already logged by the client or the service.
func triggerFailureLevel(err error) slog.Level {
	var transport *domain.TransportError
	var upstream *domain.UpstreamFormatChangedError
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &upstream), errors.As(err, &transport):
		return slog.LevelDebug
	case errors.As(err, &validation):
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// displayName is the name shown for a member in the guild.
func displayName(m *discordgo.Member) string {
	if m == nil {
		return ""
	}
	if m.Nick != "" {
		return m.Nick
	}
	if m.User == nil {
		return ""
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return m.User.Username
}
