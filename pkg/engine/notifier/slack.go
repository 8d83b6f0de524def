// Package notifier posts comparison summaries to a Slack incoming webhook.
package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/DrSkyle/azmigrate/pkg/engine/aggregate"
	"github.com/DrSkyle/azmigrate/pkg/engine/history"
	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds one webhook call.
const DefaultTimeout = 10 * time.Second

// SlackClient handles Slack notifications.
type SlackClient struct {
	WebhookURL string
	Channel    string // Optional: override the webhook's channel
	client     *resty.Client
}

// NewSlackClient initializes the Slack integration.
func NewSlackClient(webhookURL, channel string) *SlackClient {
	return &SlackClient{
		WebhookURL: webhookURL,
		Channel:    channel,
		client:     resty.New().SetTimeout(DefaultTimeout),
	}
}

// SendComparison posts the verdict and totals. A client without a webhook is a no-op.
func (s *SlackClient) SendComparison(ctx context.Context, subscription string, r *aggregate.Result, trend history.Trend) error {
	if s.WebhookURL == "" {
		return nil
	}
	return s.post(ctx, s.comparisonPayload(subscription, r, trend))
}

func (s *SlackClient) post(ctx context.Context, payload map[string]interface{}) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(s.WebhookURL)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("received non-200 status from slack: %d", resp.StatusCode())
	}
	return nil
}

func (s *SlackClient) comparisonPayload(subscription string, r *aggregate.Result, trend history.Trend) map[string]interface{} {
	statusIcon := "🟡"
	headline := "Azure and AWS cost the same"
	switch r.Savings.Verdict {
	case aggregate.TargetCheaper:
		statusIcon = "🟢"
		headline = fmt.Sprintf("AWS is cheaper by $%.2f/mo", r.Savings.Amount)
	case aggregate.SourceCheaper:
		statusIcon = "🔴"
		headline = fmt.Sprintf("Azure is cheaper by $%.2f/mo", -r.Savings.Amount)
	}

	blocks := []map[string]interface{}{
		{
			"type": "header",
			"text": map[string]interface{}{
				"type": "plain_text",
				"text": fmt.Sprintf("%s Azure to AWS Cost Comparison", statusIcon),
			},
		},
		{
			"type": "context",
			"elements": []map[string]interface{}{
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Subscription:* %s | *Discount:* %d%% | *Pricing:* azure=%s, aws=%s",
						subscription, r.DiscountPercent, r.SourceOrigin, r.TargetOrigin),
				},
			},
		},
		{
			"type": "divider",
		},
		{
			"type": "section",
			"text": map[string]interface{}{
				"type": "mrkdwn",
				"text": "*" + headline + "*",
			},
			"fields": []map[string]interface{}{
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Azure:*\n$%.2f/mo", r.SourceTotal),
				},
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*AWS:*\n$%.2f/mo", r.TargetTotal),
				},
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Resources:*\n%d (%d skipped)", r.ResourceCount, r.SkippedCount),
				},
			},
		},
	}

	if len(trend.Alerts) > 0 {
		blocks = append(blocks, map[string]interface{}{
			"type": "section",
			"text": map[string]interface{}{
				"type": "mrkdwn",
				"text": "⚠️ *Since the last run*\n• " + strings.Join(trend.Alerts, "\n• "),
			},
		})
	}

	payload := map[string]interface{}{
		"text":   headline,
		"blocks": blocks,
	}
	if s.Channel != "" {
		payload["channel"] = s.Channel
	}
	return payload
}
