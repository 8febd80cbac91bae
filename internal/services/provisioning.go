package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"guildkeeper/internal/domain"
)

const msgLeftForPermissions = "Thank you for inviting me but my stay was short lived due to a lack of permissions. " +
	"In order to function properly I need the admin permission. " +
	"Please invite me back using this link which will give me the admin permissions: "

// Owner and command reply texts.
const (
	msgWelcomeNew          = "Thank you for inviting me to the server! Please set a category to create new channels in with the `/set category` command."
	msgWelcomeBack         = "Thank you for inviting me back to the server! "
	msgCategoryGone        = "The previously set category no longer exists. Please set a new one with the `/set category` command."
	msgPermissionLost      = "Uh oh! Someone accidentally removed my admin permission! I can no longer create new private channels until this permission is restored."
	msgPermissionBack      = "My admin permission has been restored and I will now continue to create new private channels."
	msgNoCategoryAccess    = "I don't have access to create channels in this category. Please give me access, before setting it as the category."
	msgCategoryDeleted     = "The previously set category channel was deleted, please set a new one with the `/set category` command."
	msgNoCategory          = "This server does not currently have category, set one using `/set category` command."
	msgPrivateCategoryGone = "The category for private member channels has been deleted! Please set a new one with the `/set category` command."
	msgNoWelcomeChannel    = "There is currently no welcome channel set. Please use the `/set welcome-channel` command to set a welcome channel."
)

type provisioningService struct {
	guildRepo      domain.GuildRepository
	platform       domain.Platform
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewProvisioningService(guildRepo domain.GuildRepository, platform domain.Platform, logger *slog.Logger, timeout time.Duration) domain.ProvisioningService {
	return &provisioningService{
		guildRepo:      guildRepo,
		platform:       platform,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *provisioningService) GuildJoined(ctx context.Context, join domain.GuildJoin) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	log := s.logger.With("guild_id", join.GuildID, "guild", join.GuildName)

	admin, err := s.platform.IsAdmin(ctx, join.GuildID)
	if err != nil {
		return fmt.Errorf("check admin permission: %w", err)
	}
	if !admin {
		notified := s.platform.NotifyOwner(ctx, join.GuildID, msgLeftForPermissions+s.platform.InviteURL()) == nil
		if err := s.platform.LeaveGuild(ctx, join.GuildID); err != nil {
			return fmt.Errorf("leave guild: %w", err)
		}
		log.Info("left guild due to a lack of permissions", "owner_notified", notified)
		return nil
	}

	var message string
	existing, err := s.guildRepo.Get(ctx, join.GuildID)
	switch {
	case err == nil:
		log.Info("joined a guild it was previously in")
		message = msgWelcomeBack + s.categoryStatus(ctx, existing)
	case errors.Is(err, domain.ErrNotFound):
		log.Info("joined a guild")
		_, err = s.guildRepo.Update(ctx, join.GuildID, func(g *domain.Guild) error {
			g.LastMessageID = join.LastMessageID
			return nil
		})
		if err != nil {
			return fmt.Errorf("create guild: %w", err)
		}
		message = msgWelcomeNew
	default:
		return fmt.Errorf("load guild: %w", err)
	}

	if err := s.platform.NotifyOwner(ctx, join.GuildID, message); err != nil {
		log.Warn("failed to notify owner about the join", "err", err)
		return nil
	}
	log.Info("owner notified about the join")
	return nil
}

func (s *provisioningService) categoryStatus(ctx context.Context, g *domain.Guild) string {
	if g.CategoryID != nil {
		exists, err := s.platform.CategoryExists(ctx, g.ID, *g.CategoryID)
		if err == nil && exists {
			return "I currently have " + domain.ChannelMention(*g.CategoryID) + " as the selected category."
		}
	}
	return msgCategoryGone
}

func (s *provisioningService) MemberJoined(ctx context.Context, m domain.MemberJoin) error {
	if m.Bot {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	log := s.logger.With("guild_id", m.GuildID, "user_id", m.UserID)
	log.Debug("member joined")

	g, err := s.guildRepo.GetOrCreate(ctx, m.GuildID)
	if err != nil {
		return fmt.Errorf("load guild: %w", err)
	}
	admin, err := s.platform.IsAdmin(ctx, m.GuildID)
	if err != nil {
		return fmt.Errorf("check admin permission: %w", err)
	}

	if !admin {
		if g.NotifyPermissionLoss {
			s.notifyPermissionLost(ctx, m.GuildID)
		}
		log.Warn("failed to make a private channel due to permission errors")
		return nil
	}
	if !g.Listening() {
		return nil
	}

	categoryID := *g.CategoryID
	exists, err := s.platform.CategoryExists(ctx, m.GuildID, categoryID)
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if !exists {
		s.clearMissingCategory(ctx, m.GuildID, categoryID)
		return domain.ErrMissingCategory
	}

	channelID, err := s.platform.CreatePrivateChannel(ctx, m.GuildID, categoryID, m.UserID, m.DisplayName)
	if err != nil {
		return fmt.Errorf("create private channel: %w", err)
	}
	log.Info("private channel created", "channel_id", channelID)
	if err := s.platform.SendMessage(ctx, channelID, g.Welcome(domain.UserMention(m.UserID))); err != nil {
		return fmt.Errorf("send welcome message: %w", err)
	}
	log.Info("welcome message sent", "channel_id", channelID)
	if g.WelcomeChannelID == nil && g.NotifyMissingWelcomeChannel {
		s.notifyMissingWelcomeChannel(ctx, m.GuildID)
	}
	return nil
}

// notifyMissingWelcomeChannel tells the owner once; setting a welcome channel makes it moot.
func (s *provisioningService) notifyMissingWelcomeChannel(ctx context.Context, guildID string) {
	s.logger.Warn("no welcome channel set", "guild_id", guildID)
	if err := s.platform.NotifyOwner(ctx, guildID, msgNoWelcomeChannel); err != nil {
		s.logger.Warn("failed to notify owner about the missing welcome channel", "guild_id", guildID, "err", err)
		return
	}
	_, err := s.guildRepo.Update(ctx, guildID, func(g *domain.Guild) error {
		g.NotifyMissingWelcomeChannel = false
		return nil
	})
	if err != nil {
		s.logger.Error("failed to store welcome channel notice", "guild_id", guildID, "err", err)
		return
	}
	s.logger.Info("owner notified about the missing welcome channel", "guild_id", guildID)
}

// notifyPermissionLost tells the owner once; the flag is set again when the permission comes back.
func (s *provisioningService) notifyPermissionLost(ctx context.Context, guildID string) {
	if err := s.platform.NotifyOwner(ctx, guildID, msgPermissionLost); err != nil {
		s.logger.Warn("failed to notify owner about the missing permission", "guild_id", guildID, "err", err)
		return
	}
	_, err := s.guildRepo.Update(ctx, guildID, func(g *domain.Guild) error {
		g.NotifyPermissionLoss = false
		return nil
	})
	if err != nil {
		s.logger.Error("failed to store permission notice", "guild_id", guildID, "err", err)
		return
	}
	s.logger.Info("owner notified about the missing permission", "guild_id", guildID)
}

func (s *provisioningService) clearMissingCategory(ctx context.Context, guildID, categoryID string) {
	_, err := s.guildRepo.Update(ctx, guildID, func(g *domain.Guild) error {
		if g.CategoryID != nil && *g.CategoryID == categoryID {
			g.CategoryID = nil
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to clear missing category", "guild_id", guildID, "err", err)
		return
	}
	notified := s.platform.NotifyOwner(ctx, guildID, msgPrivateCategoryGone) == nil
	s.logger.Warn("private channel category no longer exists", "guild_id", guildID, "category_id", categoryID, "owner_notified", notified)
}

func (s *provisioningService) MemberRenamed(ctx context.Context, r domain.MemberRename) error {
	if r.Bot || r.OldNick == r.NewNick {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	log := s.logger.With("guild_id", r.GuildID, "user_id", r.UserID)
	log.Debug("member changed nickname", "old", r.OldNick, "new", r.NewNick)

	g, err := s.guildRepo.Get(ctx, r.GuildID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load guild: %w", err)
	}
	if g.CategoryID == nil {
		return nil
	}

	channelID, err := s.platform.FindPrivateChannel(ctx, r.GuildID, *g.CategoryID, r.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn("failed to locate the member's private channel, they may be an admin and not have one")
		return nil
	}
	if err != nil {
		return fmt.Errorf("find private channel: %w", err)
	}

	name := r.NewNick
	if name == "" {
		name = r.Username
	}
	if err := s.platform.RenameChannel(ctx, channelID, name); err != nil {
		return fmt.Errorf("rename private channel: %w", err)
	}
	log.Info("private channel renamed", "channel_id", channelID, "name", name)
	return nil
}

func (s *provisioningService) AdminPermissionChanged(ctx context.Context, guildID string, wasAdmin, isAdmin bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	g, err := s.guildRepo.GetOrCreate(ctx, guildID)
	if err != nil {
		return fmt.Errorf("load guild: %w", err)
	}
	switch {
	case !isAdmin && g.NotifyPermissionLoss:
		s.logger.Warn("the bot's admin permission was removed", "guild_id", guildID)
		s.notifyPermissionLost(ctx, guildID)
	case !wasAdmin && isAdmin:
		s.logger.Info("the bot's admin permission has been restored", "guild_id", guildID)
		_, err := s.guildRepo.Update(ctx, guildID, func(g *domain.Guild) error {
			g.NotifyPermissionLoss = true
			return nil
		})
		if err != nil {
			return fmt.Errorf("store permission restore: %w", err)
		}
		if err := s.platform.NotifyOwner(ctx, guildID, msgPermissionBack); err != nil {
			s.logger.Warn("failed to notify owner about the restored permission", "guild_id", guildID, "err", err)
		}
	}
	return nil
}

func (s *provisioningService) SetCategory(ctx context.Context, guildID, categoryID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	ok, err := s.platform.CanManageChannels(ctx, guildID, categoryID)
	if err != nil {
		return "", fmt.Errorf("check category permissions: %w", err)
	}
	if !ok {
		return msgNoCategoryAccess, nil
	}
	_, err = s.guildRepo.Update(ctx, guildID, func(g *domain.Guild) error {
		g.CategoryID = &categoryID
		g.CreateChannel = true
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("set category: %w", err)
	}
	return domain.ChannelMention(categoryID) + " has been set as the new category to create private channels in.", nil
}

func (s *provisioningService) GetCategory(ctx context.Context, guildID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	g, err := s.guildRepo.GetOrCreate(ctx, guildID)
	if err != nil {
		return "", fmt.Errorf("load guild: %w", err)
	}
	if g.CategoryID == nil {
		return msgNoCategory, nil
	}
	categoryID := *g.CategoryID
	exists, err := s.platform.CategoryExists(ctx, guildID, categoryID)
	if err != nil {
		return "", fmt.Errorf("check category: %w", err)
	}
	if exists {
		return "The current category set is " + domain.ChannelMention(categoryID) + ".", nil
	}
	_, err = s.guildRepo.Update(ctx, guildID, func(g *domain.Guild) error {
		g.CategoryID = nil
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("clear category: %w", err)
	}
	return msgCategoryDeleted, nil
}

func (s *provisioningService) SetWelcomeMessage(ctx context.Context, guildID, message string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := domain.ValidateWelcomeMessage(message); err != nil {
		return err
	}
	_, err := s.guildRepo.Update(ctx, guildID, func(g *domain.Guild) error {
		g.WelcomeMessage = message
		return nil
	})
	if err != nil {
		return fmt.Errorf("set welcome message: %w", err)
	}
	return nil
}

func (s *provisioningService) SetWelcomeChannel(ctx context.Context, guildID, channelID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	_, err := s.guildRepo.Update(ctx, guildID, func(g *domain.Guild) error {
		g.WelcomeChannelID = &channelID
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("set welcome channel: %w", err)
	}
	s.logger.Info("welcome channel set", "guild_id", guildID, "channel_id", channelID)
	return domain.ChannelMention(channelID) + " has been set as the welcome channel.", nil
}
