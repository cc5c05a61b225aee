package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const simplePushEndpoint = "https://api.simplepush.io/send"

// SimplePush sends push notifications through the SimplePush HTTP API.
type SimplePush struct {
	key      string
	endpoint string
	client   *http.Client
	lg       *slog.Logger
}

// NewSimplePush returns a notifier for the given SimplePush key.
func NewSimplePush(key string, lg *slog.Logger) *SimplePush {
	return &SimplePush{
		key:      key,
		endpoint: simplePushEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		lg:       lg,
	}
}

func (s *SimplePush) Name() string { return "simplepush" }

// Send posts the notification to the SimplePush API.
func (s *SimplePush) Send(ctx context.Context, title, message string) error {
	payload, err := json.Marshal(map[string]string{
		"key":   s.key,
		"title": title,
		"msg":   message,
	})
	if err != nil {
		return fmt.Errorf("encode simplepush payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build simplepush request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send simplepush notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("simplepush returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	s.lg.Debug("simplepush notification accepted")
	return nil
}

func (s *SimplePush) Close() error { return nil }
