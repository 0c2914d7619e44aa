// workflows/slack_alerts.go
package workflows

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type SlackPayload struct {
	Text string `json:"text"`
}

// SlackAlerter posts batch failures to an incoming webhook. A zero-value
// alerter with no webhook URL is a no-op.
type SlackAlerter struct {
	webhookURL string
	client     *http.Client
}

func NewSlackAlerter(webhookURL string) *SlackAlerter {
	return &SlackAlerter{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

func (a *SlackAlerter) Enabled() bool {
	return a != nil && a.webhookURL != ""
}

// ReportBatchFailure reports a batch in which no platform produced a response.
func (a *SlackAlerter) ReportBatchFailure(ctx context.Context, summary map[string]interface{}, reasons []string) error {
	if !a.Enabled() {
		return nil
	}

	if len(reasons) == 0 {
		reasons = []string{"unknown"}
	}
	message := fmt.Sprintf(
		":rotating_light: *Query Batch Failed*\n"+
			"*Time:* %s\n"+
			"*Company:* %v\n"+
			"*Template:* %v\n"+
			"*Platforms:* %v\n"+
			"*Errors:* ```%s```",
		time.Now().UTC().Format(time.RFC3339),
		summary["company_id"],
		summary["template_id"],
		summary["total"],
		strings.Join(reasons, "\n"),
	)
	return a.post(ctx, message)
}

func (a *SlackAlerter) post(ctx context.Context, text string) error {
	body, err := json.Marshal(SlackPayload{Text: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}
