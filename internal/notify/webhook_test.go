package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTextPostsPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
	}))
	defer srv.Close()

	w := &Webhook{URL: srv.URL, HTTPClient: srv.Client()}
	w.Text(context.Background(), "hello")
	if got["text"] != "hello" {
		t.Fatalf("payload=%v", got)
	}
}

func TestBlocksPostsStructuredMessage(t *testing.T) {
	var got struct {
		Text   string  `json:"text"`
		Blocks []Block `json:"blocks"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
	}))
	defer srv.Close()

	w := &Webhook{URL: srv.URL, HTTPClient: srv.Client()}
	w.Blocks(context.Background(), "fallback", []Block{
		Section(Mrkdwn("*run* finished with %d domains", 2)),
		FieldSection(Mrkdwn("watermark"), Mrkdwn("May 1, 2024 at 9:00 AM")),
	})
	if got.Text != "fallback" || len(got.Blocks) != 2 {
		t.Fatalf("payload=%+v", got)
	}
	if got.Blocks[0].Text == nil || got.Blocks[0].Text.Text != "*run* finished with 2 domains" {
		t.Fatalf("blocks=%+v", got.Blocks)
	}
}

func TestFailedDeliveryDoesNotPanic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	w := &Webhook{URL: srv.URL, HTTPClient: srv.Client()}
	w.Text(context.Background(), "ignored")
	srv.Close()
	// server closed: transport error path
	w.Text(context.Background(), "also ignored")
}
