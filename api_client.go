package takkencrawler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const contentType = "application/json"

// apiSink posts each record to the relay service.
type apiSink struct {
	endpoint string
	username string
	password string
	client   *http.Client
}

func newAPISink(cfg SinkConfig, client *http.Client) *apiSink {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &apiSink{
		endpoint: strings.TrimRight(cfg.APIEndpoint, "/") + "/item/",
		username: cfg.APIUsername,
		password: cfg.APIPassword,
		client:   client,
	}
}

func (s *apiSink) Name() string {
	return "api"
}

func (s *apiSink) Write(ctx context.Context, record MirroredRecord) error {
	jsonPayload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("json conversion error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", record.Key(), err)
	}
	if s.username != "" {
		req.SetBasicAuth(s.username, s.password)
	}
	req.Header.Set("Content-Type", contentType)

	response, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: failed to submit request: %w", record.Key(), err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(response.Body)
		return fmt.Errorf("API error for %s: status %d, body: %s", record.Key(), response.StatusCode, string(bodyBytes))
	}
	return nil
}

func (s *apiSink) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
