package services

import (
	"context"
	"fmt"
	"log/slog"

	"guildkeeper/internal/domain"
)

const templateUpstreamChanged = "upstream_changed"

type alertService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	to       string
	logger   *slog.Logger
}

// NewAlertService returns an AlertService that mails operator alerts to the given address.
// With an empty address alerts are only logged.
func NewAlertService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, to string, logger *slog.Logger) domain.AlertService {
	return &alertService{mailer: mailer, renderer: renderer, to: to, logger: logger}
}

func (s *alertService) SendUpstreamFormatChanged(ctx context.Context, data *domain.UpstreamAlertData) error {
	if data == nil {
		return fmt.Errorf("upstream alert data is nil")
	}
	if s.to == "" {
		s.logger.Debug("no alert address configured, skipping upstream alert", "reason", data.Reason)
		return nil
	}
	subject, htmlBody, textBody, err := s.renderer.Render(templateUpstreamChanged, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", templateUpstreamChanged, err)
	}
	if err := s.mailer.Send(ctx, s.to, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send upstream alert: %w", err)
	}
	s.logger.Info("upstream alert sent", "to", s.to)
	return nil
}
