// Package notify sends client reports over SES and publishes dashboard events over SNS.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"agency-dashboard/internal/analytics"
	appaws "agency-dashboard/internal/common/aws"
	apperrors "agency-dashboard/internal/common/errors"
	"agency-dashboard/internal/common/logger"
	"agency-dashboard/internal/common/metrics"
	"agency-dashboard/internal/models"
	"agency-dashboard/internal/store"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

const (
	EventSequenceCompleted = "sequence.completed"
	EventProspectsImported = "prospects.imported"
)

type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type Publisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// ReportSource produces the overview mailed to clients.
type ReportSource interface {
	Overview(ctx context.Context, clientID int, r analytics.Range) (*analytics.Overview, error)
}

type Config struct {
	FromEmail string
	TopicARN  string
}

// Notifier honours each client's notification settings. A nil sender or
// publisher disables that channel.
type Notifier struct {
	clients   store.Collection[*models.Client]
	reports   ReportSource
	email     EmailSender
	publisher Publisher
	cfg       Config
	log       logger.Logger
}

func New(clients store.Collection[*models.Client], reports ReportSource, email EmailSender, publisher Publisher, cfg Config, log logger.Logger) *Notifier {
	return &Notifier{
		clients:   clients,
		reports:   reports,
		email:     email,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// SendReport emails the 30-day overview when the client has reports enabled.
// It reports whether an email was sent.
func (n *Notifier) SendReport(ctx context.Context, clientID int) (bool, error) {
	client, err := n.clients.GetByID(ctx, clientID)
	if err != nil {
		return false, err
	}
	if n.email == nil || !client.Settings.Notifications.EmailReports {
		return false, nil
	}

	to := client.Settings.EmailSettings.ReplyTo
	if to == "" {
		to = client.Settings.EmailSettings.FromEmail
	}
	if to == "" {
		return false, apperrors.NewValidationError(apperrors.FieldError{
			Field:   "settings.emailSettings",
			Message: "no recipient configured for reports",
		})
	}

	ov, err := n.reports.Overview(ctx, clientID, analytics.Range30d)
	if err != nil {
		return false, err
	}

	subject := fmt.Sprintf("%s: last 30 days", client.Name)
	in := appaws.EmailInput(n.cfg.FromEmail, "", to, subject, reportText(client, ov), "")
	if _, err := n.email.SendEmail(ctx, in); err != nil {
		metrics.NotificationsSent.WithLabelValues("ses", "error").Inc()
		return false, apperrors.NewNotificationSendFailedError("ses", err)
	}
	metrics.NotificationsSent.WithLabelValues("ses", "success").Inc()
	n.log.Info("Sent client report", map[string]interface{}{"clientId": clientID, "to": to})
	return true, nil
}

func reportText(c *models.Client, ov *analytics.Overview) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Report for %s\n\n", c.Name)
	fmt.Fprintf(&b, "Total prospects: %d (%d new)\n", ov.Totals.TotalProspects, ov.Totals.NewProspects)
	fmt.Fprintf(&b, "Open rate: %.1f%%\n", ov.Totals.OpenRate)
	fmt.Fprintf(&b, "Click rate: %.1f%%\n", ov.Totals.ClickRate)
	fmt.Fprintf(&b, "Conversion rate: %.1f%%\n", ov.Totals.ConversionRate)
	if len(ov.Sequences) > 0 {
		b.WriteString("\nSequences:\n")
		for _, s := range ov.Sequences {
			fmt.Fprintf(&b, "- %s (%s): %d prospects, %.0f%% open, %.0f%% click\n", s.Name, s.Status, s.Prospects, s.OpenRate, s.ClickRate)
		}
	}
	return b.String()
}

// SequenceStatusChanged publishes a completion event when a sequence moves
// into completed and the client asked for it.
func (n *Notifier) SequenceStatusChanged(ctx context.Context, before, after *models.Sequence) error {
	if after.Status != models.SequenceCompleted || (before != nil && before.Status == models.SequenceCompleted) {
		return nil
	}
	return n.publish(ctx, after.ClientID, EventSequenceCompleted, func(s models.NotificationSettings) bool {
		return s.SequenceComplete
	}, map[string]interface{}{
		"sequenceId": after.ID,
		"name":       after.Name,
		"metrics":    after.Metrics,
	})
}

// ProspectsImported publishes an import event when the client wants new-prospect notices.
func (n *Notifier) ProspectsImported(ctx context.Context, clientID int, prospects []*models.Prospect) error {
	if len(prospects) == 0 {
		return nil
	}
	ids := make([]int, len(prospects))
	for i, p := range prospects {
		ids[i] = p.ID
	}
	return n.publish(ctx, clientID, EventProspectsImported, func(s models.NotificationSettings) bool {
		return s.NewProspects
	}, map[string]interface{}{
		"count":       len(prospects),
		"prospectIds": ids,
	})
}

func (n *Notifier) publish(ctx context.Context, clientID int, event string, wanted func(models.NotificationSettings) bool, payload map[string]interface{}) error {
	if n.publisher == nil {
		return nil
	}
	client, err := n.clients.GetByID(ctx, clientID)
	if err != nil {
		return err
	}
	if !wanted(client.Settings.Notifications) {
		return nil
	}

	payload["event"] = event
	payload["clientId"] = clientID
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if _, err := n.publisher.Publish(ctx, appaws.EventInput(n.cfg.TopicARN, event, clientID, string(body))); err != nil {
		metrics.NotificationsSent.WithLabelValues("sns", "error").Inc()
		return apperrors.NewNotificationSendFailedError("sns", err)
	}
	metrics.NotificationsSent.WithLabelValues("sns", "success").Inc()
	n.log.Info("Published event", map[string]interface{}{"clientId": clientID, "event": event})
	return nil
}
