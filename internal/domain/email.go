package domain

import (
	"context"
	"time"
)

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// UpstreamAlertData holds data for the operator alert sent when the scheduling
// website changed its page format.
type UpstreamAlertData struct {
	Reason    string
	EventName string
	Timezone  string
	DateCount int
	At        time.Time
}

// AlertService notifies operators about conditions that need a code change.
type AlertService interface {
	SendUpstreamFormatChanged(ctx context.Context, data *UpstreamAlertData) error
}
