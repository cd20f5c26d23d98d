package cloud

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rs/zerolog/log"

	"github.com/onction/power-dashboard/internal/domain"
)

// SNSClient notifies operators about newly raised feeder alerts.
type SNSClient struct {
	svc      *sns.Client
	topicArn string
}

func NewSNSClient(cfg aws.Config, topicArn string) *SNSClient {
	return &SNSClient{svc: sns.NewFromConfig(cfg), topicArn: topicArn}
}

// SendAlert publishes one message to the topic.
func (c *SNSClient) SendAlert(ctx context.Context, subject, message string) error {
	result, err := c.svc.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(c.topicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("failed to publish to SNS: %w", err)
	}
	log.Debug().Str("message_id", aws.ToString(result.MessageId)).Msg("alert sent")
	return nil
}

// PublishAlerts sends all alerts of one snapshot as a single notification.
func (c *SNSClient) PublishAlerts(ctx context.Context, snapshotTime time.Time, alerts []domain.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	subject, message := FormatAlerts(snapshotTime, alerts)
	return c.SendAlert(ctx, subject, message)
}

// FormatAlerts renders the notification subject and body.
func FormatAlerts(snapshotTime time.Time, alerts []domain.Alert) (string, string) {
	subject := fmt.Sprintf("Power Grid: %d feeder alerts", len(alerts))
	if len(alerts) == 1 {
		subject = "Power Grid: 1 feeder alert"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Feeders needing attention at %s:\n\n", snapshotTime.Format(domain.TimestampLayout))
	for i, a := range alerts {
		switch a.Reason {
		case domain.ReasonOffline:
			fmt.Fprintf(&b, "%d. %s (%s / %s) is OFFLINE\n", i+1, a.Name, a.Zone, a.TradingPoint)
		default:
			fmt.Fprintf(&b, "%d. %s (%s / %s) low uptime %.1fh\n", i+1, a.Name, a.Zone, a.TradingPoint, a.UptimeHours)
		}
	}
	return subject, b.String()
}
