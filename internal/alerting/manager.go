// Package alerting delivers flag notifications to configured sinks and
// tracks how often flagged tokens worked out.
package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"gemscan/internal/domain"
)

// Alert is the payload delivered to sinks when a scan flags a token.
type Alert struct {
	ScanID      string                      `json:"scan_id"`
	TokenID     string                      `json:"token_id"`
	Symbol      string                      `json:"symbol"`
	Score       float64                     `json:"score"`
	Confidence  float64                     `json:"confidence"`
	FlagDebug   map[string]domain.FlagCheck `json:"flag_debug"`
	CompletedAt int64                       `json:"completed_at"`
}

// Sink delivers one alert. Implementations own their timeouts.
type Sink interface {
	Deliver(ctx context.Context, alert Alert) error
	Name() string
}

// Manager fans alerts out to all sinks. Delivery failures are logged and
// never propagate; the scan result stands regardless of alert outcomes.
type Manager struct {
	sinks  []Sink
	logger *zap.Logger
}

// NewManager creates an alert manager. A nil logger falls back to no-op.
func NewManager(logger *zap.Logger, sinks ...Sink) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{sinks: sinks, logger: logger}
}

// Notify builds an alert from a flagged result and delivers it to every
// sink. Results that are not flagged are ignored.
func (m *Manager) Notify(ctx context.Context, res *domain.ScanResult) {
	if res == nil || !res.Flagged {
		return
	}
	alert := Alert{
		ScanID:      res.ScanID,
		TokenID:     res.Token.TokenID,
		Symbol:      res.Token.Symbol,
		Score:       res.GemScore.Score,
		Confidence:  res.GemScore.Confidence,
		FlagDebug:   res.FlagDebug,
		CompletedAt: res.CompletedAt,
	}
	for _, sink := range m.sinks {
		if err := sink.Deliver(ctx, alert); err != nil {
			m.logger.Warn("alert delivery failed",
				zap.String("sink", sink.Name()),
				zap.String("scan_id", alert.ScanID),
				zap.Error(err))
		}
	}
}

// LogSink writes alerts to the structured log.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a log sink.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(_ context.Context, alert Alert) error {
	s.logger.Info("token flagged for review",
		zap.String("scan_id", alert.ScanID),
		zap.String("token", alert.TokenID),
		zap.String("symbol", alert.Symbol),
		zap.Float64("score", alert.Score),
		zap.Float64("confidence", alert.Confidence))
	return nil
}

// WebhookSink POSTs alerts as JSON to an HTTP endpoint.
type WebhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSink creates a webhook sink with a bounded request timeout.
func NewWebhookSink(url string, client *http.Client) *WebhookSink {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookSink{url: url, client: client}
}

func (s *WebhookSink) Name() string { return "webhook" }

func (s *WebhookSink) Deliver(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
