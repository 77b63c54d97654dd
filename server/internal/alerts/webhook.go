package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dicekv/dicekv/server/internal/config"
)

// deliver posts a to every webhook with a resolvable URL. Failures are
// logged only.
func (e *Engine) deliver(webhooks []config.WebhookConfig, a *Alert) {
	for _, wh := range webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}

		var body []byte
		switch wh.Type {
		case "slack":
			body = slackPayload(a)
		case "teams":
			body = teamsPayload(a)
		case "pagerduty":
			body = pagerDutyPayload(a)
		case "http":
			body, _ = json.Marshal(map[string]interface{}{"alert": a})
		default:
			slog.Warn("alerts: unknown webhook type, skipping", "type", wh.Type)
			continue
		}

		if err := e.post(url, body); err != nil {
			slog.Error("alerts: webhook delivery failed", "type", wh.Type, "rule", a.RuleName, "err", err)
			continue
		}
		slog.Debug("alerts: webhook delivered", "type", wh.Type, "rule", a.RuleName, "state", a.State)
	}
}

func slackPayload(a *Alert) []byte {
	body, _ := json.Marshal(map[string]string{
		"text": fmt.Sprintf("*%s* %s (%s)", severityLabel(a.Severity), a.Message, a.State),
	})
	return body
}

func teamsPayload(a *Alert) []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": severityColor(a.Severity),
		"summary":    a.RuleName,
		"title":      fmt.Sprintf("dicekv alert %s: %s", a.State, a.RuleName),
		"text":       a.Message,
	})
	return body
}

// pagerDutyPayload builds an Events API v2 body. The rule name is the dedup
// key so a resolve closes the incident its fire opened.
func pagerDutyPayload(a *Alert) []byte {
	action := "trigger"
	if a.State == StateResolved {
		action = "resolve"
	}
	sev := a.Severity
	if sev != "critical" && sev != "warning" && sev != "info" {
		sev = "error"
	}
	body, _ := json.Marshal(map[string]interface{}{
		"event_action": action,
		"dedup_key":    "dicekv:" + a.RuleName,
		"payload": map[string]interface{}{
			"summary":        a.Message,
			"source":         "dicekv",
			"severity":       sev,
			"custom_details": a,
		},
	})
	return body
}

func (e *Engine) post(url string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func severityLabel(s string) string {
	switch s {
	case "critical":
		return "[CRITICAL]"
	case "warning":
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}

func severityColor(s string) string {
	switch s {
	case "critical":
		return "FF4F6A"
	case "warning":
		return "FFAB40"
	default:
		return "00D4FF"
	}
}
