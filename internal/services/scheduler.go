package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"guildkeeper/internal/domain"
)

const missingTriggerCategoryMessage = "The category for automatically creating scheduling events has been deleted! " +
	"Please set a new one with the `/set scheduler-trigger` command."

type schedulerService struct {
	guildRepo      domain.GuildRepository
	client         domain.SchedulerClient
	platform       domain.Platform
	alerts         domain.AlertService
	logger         *slog.Logger
	now            func() time.Time
	contextTimeout time.Duration
}

func NewSchedulerService(
	guildRepo domain.GuildRepository,
	client domain.SchedulerClient,
	platform domain.Platform,
	alerts domain.AlertService,
	logger *slog.Logger,
	timeout time.Duration,
) domain.SchedulerService {
	return &schedulerService{
		guildRepo:      guildRepo,
		client:         client,
		platform:       platform,
		alerts:         alerts,
		logger:         logger,
		now:            time.Now,
		contextTimeout: timeout,
	}
}

func (s *schedulerService) CreateEvent(ctx context.Context, req domain.SchedulingRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	url, err := s.client.CreateEvent(ctx, req)
	if err == nil {
		return url, nil
	}

	var transport *domain.TransportError
	var upstream *domain.UpstreamFormatChangedError
	switch {
	case errors.As(err, &upstream):
		// already logged by the client
		alert := &domain.UpstreamAlertData{
			Reason:    upstream.Reason,
			EventName: req.EventName,
			Timezone:  req.Timezone,
			DateCount: len(req.PossibleDates),
			At:        s.now(),
		}
		if aerr := s.alerts.SendUpstreamFormatChanged(context.WithoutCancel(ctx), alert); aerr != nil {
			s.logger.Error("failed to send upstream alert", "err", aerr)
		}
	case errors.As(err, &transport):
		s.logger.Warn("scheduler unreachable", "kind", "transport", "status", transport.StatusCode, "err", err)
	}
	return "", fmt.Errorf("create scheduler event: %w", err)
}

func (s *schedulerService) SaveTemplate(ctx context.Context, guildID, categoryID string, req domain.SchedulingRequest) (*domain.SchedulingTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	tmpl, err := domain.NewSchedulingTemplate(req)
	if err != nil {
		return nil, err
	}
	_, err = s.guildRepo.Update(ctx, guildID, func(g *domain.Guild) error {
		g.SchedulerCategoryID = &categoryID
		g.SchedulerTemplate = tmpl
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save scheduler template: %w", err)
	}
	s.logger.Info("scheduler trigger saved", "guild_id", guildID, "category_id", categoryID, "weekdays", len(tmpl.Weekdays))
	return tmpl, nil
}

func (s *schedulerService) ClearTemplate(ctx context.Context, guildID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	_, err := s.guildRepo.Update(ctx, guildID, func(g *domain.Guild) error {
		g.SchedulerCategoryID = nil
		g.SchedulerTemplate = nil
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear scheduler template: %w", err)
	}
	return nil
}

// GetTemplate returns the trigger category and template, or an empty category
// and nil template when the trigger is off.
func (s *schedulerService) GetTemplate(ctx context.Context, guildID string) (string, *domain.SchedulingTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	g, err := s.guildRepo.Get(ctx, guildID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	if !g.SchedulerTriggerEnabled() {
		return "", nil, nil
	}
	return *g.SchedulerCategoryID, g.SchedulerTemplate, nil
}

// HandleChannelMoved fires the guild template when a channel lands in the trigger category.
// It returns nil, nil when nothing had to be created.
func (s *schedulerService) HandleChannelMoved(ctx context.Context, move domain.ChannelMove) (*domain.TriggerResult, error) {
	g, err := s.triggerGuild(ctx, move)
	if err != nil || g == nil {
		return nil, err
	}

	req, err := g.SchedulerTemplate.Materialize(s.now(), move.ChannelName)
	if err != nil {
		return nil, fmt.Errorf("materialize template: %w", err)
	}
	url, err := s.CreateEvent(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info("scheduler event created for moved channel", "guild_id", move.GuildID, "channel_id", move.ChannelID, "url", url)
	return &domain.TriggerResult{Request: req, URL: url}, nil
}

// triggerGuild returns the guild when move landed in its live trigger category, or nil.
// CreateEvent applies its own timeout, so only the lookup runs under this one.
func (s *schedulerService) triggerGuild(ctx context.Context, move domain.ChannelMove) (*domain.Guild, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	g, err := s.guildRepo.Get(ctx, move.GuildID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !g.SchedulerTriggerEnabled() {
		return nil, nil
	}

	triggerID := *g.SchedulerCategoryID
	exists, err := s.platform.CategoryExists(ctx, move.GuildID, triggerID)
	if err != nil {
		return nil, fmt.Errorf("check trigger category: %w", err)
	}
	if !exists {
		s.clearMissingTrigger(ctx, move.GuildID, triggerID)
		return nil, nil
	}
	if move.CategoryID != triggerID {
		return nil, nil
	}
	return g, nil
}

func (s *schedulerService) clearMissingTrigger(ctx context.Context, guildID, categoryID string) {
	_, err := s.guildRepo.Update(ctx, guildID, func(g *domain.Guild) error {
		if g.SchedulerCategoryID != nil && *g.SchedulerCategoryID == categoryID {
			g.SchedulerCategoryID = nil
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to clear missing trigger category", "guild_id", guildID, "err", err)
		return
	}
	msg := "Detected the scheduler trigger category as invalid."
	if err := s.platform.NotifyOwner(ctx, guildID, missingTriggerCategoryMessage); err != nil {
		s.logger.Warn(msg, "guild_id", guildID, "category_id", categoryID, "owner_notified", false, "err", err)
		return
	}
	s.logger.Warn(msg, "guild_id", guildID, "category_id", categoryID, "owner_notified", true)
}

// UserMessage turns an error from this package into text that can be shown in chat.
func UserMessage(err error) string {
	var validation *domain.ValidationError
	var transport *domain.TransportError
	var upstream *domain.UpstreamFormatChangedError
	switch {
	case errors.As(err, &validation):
		return validation.Message
	case errors.As(err, &transport):
		return "The scheduling website could not be reached. Please try again later."
	case errors.As(err, &upstream):
		return "Something went wrong while creating the event. The developers have been notified."
	case errors.Is(err, domain.ErrMissingCategory):
		return "That category no longer exists."
	case errors.Is(err, context.DeadlineExceeded):
		return "That took too long. Please try again later."
	default:
		return "Something went wrong, please try again."
	}
}
