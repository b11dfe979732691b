// Package notify posts run status to a Slack-style incoming webhook.
// Delivery is best effort: failures are logged and never propagate, so
// a broken webhook cannot abort a reconciliation run.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Text is a webhook text object, usually mrkdwn.
type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Block is one structured message block.
type Block struct {
	Type   string `json:"type"`
	Text   *Text  `json:"text,omitempty"`
	Fields []Text `json:"fields,omitempty"`
}

// Mrkdwn builds a mrkdwn text object.
func Mrkdwn(format string, args ...any) Text {
	return Text{Type: "mrkdwn", Text: fmt.Sprintf(format, args...)}
}

// Section builds a section block with one text body.
func Section(t Text) Block {
	return Block{Type: "section", Text: &t}
}

// FieldSection builds a section block with side-by-side fields.
func FieldSection(fields ...Text) Block {
	return Block{Type: "section", Fields: fields}
}

// Webhook is the notifier target.
type Webhook struct {
	URL        string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func (w *Webhook) httpClient() *http.Client {
	if w.HTTPClient != nil {
		return w.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// Text posts a plain text message.
func (w *Webhook) Text(ctx context.Context, msg string) {
	w.post(ctx, map[string]any{"text": msg})
}

// Blocks posts a structured message; text doubles as the fallback line.
func (w *Webhook) Blocks(ctx context.Context, text string, blocks []Block) {
	w.post(ctx, map[string]any{"text": text, "blocks": blocks})
}

func (w *Webhook) post(ctx context.Context, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.warn("encode notification", err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		w.warn("build notification request", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient().Do(req)
	if err != nil {
		w.warn("post notification", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		w.warn("post notification", fmt.Errorf("webhook returned %s", resp.Status))
	}
}

func (w *Webhook) warn(op string, err error) {
	if w.Logger != nil {
		w.Logger.Warn(op, zap.Error(err))
	}
}
