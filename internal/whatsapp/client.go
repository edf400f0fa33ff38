// Package whatsapp implements the outbound chat send client against a
// gowa-compatible gateway.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lead_engine_backend/platform/config"
	"lead_engine_backend/platform/logger"
	"lead_engine_backend/platform/phone"

	"github.com/google/uuid"
)

type Client struct {
	baseURL       string
	apiKey        string
	deviceID      string
	defaultRegion string
	http          *http.Client
	log           *logger.Logger
}

type gowaRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type gowaResponse struct {
	Results struct {
		MessageID string `json:"message_id"`
	} `json:"results"`
}

// NewClient creates the send client. Returns nil when no gateway is
// configured; callers treat a nil client as a disabled channel.
func NewClient(cfg config.WhatsAppConfig, phoneCfg config.PhoneConfig, log *logger.Logger) *Client {
	if cfg.GetWhatsAppURL() == "" {
		return nil
	}

	return &Client{
		baseURL:       strings.TrimRight(cfg.GetWhatsAppURL(), "/"),
		apiKey:        cfg.GetWhatsAppKey(),
		deviceID:      cfg.GetWhatsAppDeviceID(),
		defaultRegion: phoneCfg.GetPhoneDefaultRegion(),
		http:          &http.Client{Timeout: 10 * time.Second},
		log:           log,
	}
}

// SendText sends a text message and returns the provider message id.
func (c *Client) SendText(ctx context.Context, phoneNumber string, message string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("whatsapp gateway not configured")
	}

	normalized := strings.TrimPrefix(phone.NormalizeE164(phoneNumber, c.defaultRegion), "+")

	body, err := json.Marshal(gowaRequest{Phone: normalized, Message: message})
	if err != nil {
		return "", fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/send/message", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", formatAuthHeader(c.apiKey))
	}
	if c.deviceID != "" {
		req.Header.Set("X-Device-Id", c.deviceID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("whatsapp service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed gowaResponse
	messageID := ""
	if err := json.Unmarshal(data, &parsed); err == nil {
		messageID = parsed.Results.MessageID
	}
	if messageID == "" {
		// Gateway variants omit the id; synthesize one so the outbound row
		// still has a unique provider key.
		messageID = "out-" + uuid.NewString()
	}

	c.log.Info("whatsapp sent via gowa", "phone", normalized)
	return messageID, nil
}

func formatAuthHeader(apiKey string) string {
	if strings.HasPrefix(strings.ToLower(apiKey), "basic ") {
		return apiKey
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(apiKey))
	return "Basic " + encoded
}
