package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/boostxlresults/intellisend/pkg/logging"
)

// HTTPReplySender posts agent replies to the SMS platform's outbound message
// API. The platform owns delivery, opt-out footers, and compliance.
type HTTPReplySender struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewHTTPReplySender creates a sender for the given outbound endpoint. It
// panics if endpoint is empty.
func NewHTTPReplySender(endpoint, apiKey string, logger *logging.Logger) *HTTPReplySender {
	if endpoint == "" {
		panic("dispatch: outbound endpoint cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &HTTPReplySender{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type outboundMessage struct {
	OrgID          string `json:"org_id"`
	ConversationID string `json:"conversation_id"`
	ToPhone        string `json:"to_phone"`
	Body           string `json:"body"`
}

// SendReply posts one outbound SMS to the platform.
func (s *HTTPReplySender) SendReply(ctx context.Context, orgID, conversationID, toPhone, body string) error {
	payload, err := json.Marshal(outboundMessage{
		OrgID:          orgID,
		ConversationID: conversationID,
		ToPhone:        toPhone,
		Body:           body,
	})
	if err != nil {
		return fmt.Errorf("dispatch: encode outbound message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("dispatch: build outbound request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch: send outbound message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("dispatch: outbound API returned %d: %s", resp.StatusCode, string(snippet))
	}

	s.logger.Debug("reply sent",
		"conversation_id", conversationID,
		"status", resp.StatusCode,
	)
	return nil
}

// LogReplySender logs replies instead of sending them, for development and
// dry runs.
type LogReplySender struct {
	logger *logging.Logger
}

// NewLogReplySender creates a log-only reply sender.
func NewLogReplySender(logger *logging.Logger) *LogReplySender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogReplySender{logger: logger}
}

// SendReply logs the reply that would have been sent.
func (s *LogReplySender) SendReply(_ context.Context, orgID, conversationID, toPhone, body string) error {
	s.logger.Info("dry-run reply",
		"org_id", orgID,
		"conversation_id", conversationID,
		"to", toPhone,
		"body", body,
	)
	return nil
}

var _ ReplySender = (*HTTPReplySender)(nil)
var _ ReplySender = (*LogReplySender)(nil)
