package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrNotConfigured means the gateway credentials are absent. Callers must
// short-circuit before attempting any send.
var ErrNotConfigured = errors.New("whatsapp gateway is not configured")

// SendResult is the transport-reported outcome of one send.
type SendResult struct {
	ID   string
	Sent bool
}

// Transport is the outbound messaging capability. The production
// implementation is the UltraMsg client below; tests substitute a mock.
type Transport interface {
	Configured() bool
	InstanceID() string
	SendText(ctx context.Context, to, body string) (*SendResult, error)
	SendImage(ctx context.Context, to, imageURL, caption string) (*SendResult, error)
}

// Client talks to the UltraMsg WhatsApp gateway.
type Client struct {
	logger     *logrus.Logger
	client     *http.Client
	baseURL    string
	instanceID string
	token      string
}

func NewClient(logger *logrus.Logger, baseURL, instanceID, token string, timeout time.Duration) *Client {
	return &Client{
		logger:     logger,
		client:     &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		instanceID: instanceID,
		token:      token,
	}
}

func (c *Client) Configured() bool {
	return c.instanceID != "" && c.token != ""
}

func (c *Client) InstanceID() string {
	return c.instanceID
}

// SendText delivers a plain text message.
func (c *Client) SendText(ctx context.Context, to, body string) (*SendResult, error) {
	payload := map[string]interface{}{
		"token":    c.token,
		"to":       to,
		"body":     body,
		"priority": "high",
	}
	return c.post(ctx, "chat", to, payload)
}

// SendImage delivers an image with the message as its caption.
func (c *Client) SendImage(ctx context.Context, to, imageURL, caption string) (*SendResult, error) {
	payload := map[string]interface{}{
		"token":    c.token,
		"to":       to,
		"image":    imageURL,
		"caption":  caption,
		"priority": "high",
	}
	return c.post(ctx, "image", to, payload)
}

// ultraMsgResponse tolerates the gateway's loose typing: sent arrives as
// true or "true", id as a number or a string.
type ultraMsgResponse struct {
	Sent json.RawMessage `json:"sent"`
	ID   json.RawMessage `json:"id"`
}

func (c *Client) post(ctx context.Context, endpoint, to string, payload map[string]interface{}) (*SendResult, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	url := fmt.Sprintf("%s/%s/messages/%s", c.baseURL, c.instanceID, endpoint)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gateway payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("to", to).Error("Gateway request failed")
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WithFields(logrus.Fields{
			"to":     to,
			"status": resp.StatusCode,
		}).Error("Gateway rejected message")
		return &SendResult{Sent: false}, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed ultraMsgResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse gateway response: %w", err)
	}

	result := &SendResult{
		ID:   rawString(parsed.ID),
		Sent: rawString(parsed.Sent) == "true",
	}
	if !result.Sent {
		return result, fmt.Errorf("gateway did not accept message: %s", string(respBody))
	}
	return result, nil
}

func rawString(raw json.RawMessage) string {
	return strings.Trim(string(raw), `"`)
}
