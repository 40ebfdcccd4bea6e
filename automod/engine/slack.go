package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

type SlackNotifier struct {
	SlackWebhookURL string
	Client          *http.Client
	// optional cap on webhook requests; Slack rejects bursts above ~1/sec
	Limiter *rate.Limiter
}

var _ Notifier = (*SlackNotifier)(nil)

func (n *SlackNotifier) SendModLog(ctx context.Context, entry ModLogEntry) error {
	if n.Limiter != nil {
		if err := n.Limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return n.sendSlackMsg(ctx, slackBody(entry))
}

type SlackWebhookBody struct {
	Text string `json:"text"`
}

// Sends a simple slack message to a channel via "incoming webhook".
//
// The slack incoming webhook must be already configured in the slack workplace.
func (n *SlackNotifier) sendSlackMsg(ctx context.Context, msg string) error {
	body, err := json.Marshal(SlackWebhookBody{Text: msg})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.SlackWebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	if resp.StatusCode != 200 || buf.String() != "ok" {
		return fmt.Errorf("failed slack webhook POST request. status=%d", resp.StatusCode)
	}
	return nil
}

func slackBody(entry ModLogEntry) string {
	msg := fmt.Sprintf("⚠️ Automod: %s ⚠️\n", entry.Action)
	msg += fmt.Sprintf("Guild `%s` / User `%s` (`%s`) / Moderator `%s`\n",
		entry.GuildID,
		entry.Target.Tag,
		entry.Target.ID,
		entry.Moderator.Tag,
	)
	if entry.Duration != "" {
		msg += fmt.Sprintf("Duration: %s\n", entry.Duration)
	}
	if entry.CaseID != 0 {
		msg += fmt.Sprintf("Case: #%d\n", entry.CaseID)
	}
	msg += fmt.Sprintf("Reason: %s\n", entry.Reason)
	return msg
}
