// Package telegram provides Telegram bot notifications for new occurrences.
//
// This package handles:
//   - Announcing each registered occurrence to the inspection group chat
//   - Posting the pending-occurrences summary image
//   - Critical alerts when the record store is unreachable
//
// A nil *Client is valid and disables every notification, so callers never
// need to check whether Telegram is configured.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"urbfisc/internal/logging"
	"urbfisc/internal/occurrence"
)

// DefaultBaseURL is the Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// Message represents a Telegram message for sending.
type Message struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// Client represents a Telegram bot client.
//
// Fields:
//   - BotToken: Telegram bot API token
//   - ChatID: Target chat ID for notifications
//   - DebugMode: If true, messages are logged instead of sent
//   - BaseURL: API root, overridden in tests
type Client struct {
	BotToken  string
	ChatID    string
	DebugMode bool
	BaseURL   string

	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a client, or returns nil when the token or chat id is
// missing.
func NewClient(botToken, chatID string, debugMode bool, logger *zap.Logger) *Client {
	logger = logging.OrNop(logger)

	if botToken == "" || chatID == "" {
		logger.Warn("⚠️  TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID not set. Telegram notifications disabled.",
			zap.Bool("token_set", botToken != ""),
			zap.Bool("chat_id_set", chatID != ""))
		return nil
	}

	logger.Info("✓ Telegram configured successfully")
	if debugMode {
		logger.Info("🐛 DEBUG MODE ENABLED - Telegram calls will be simulated")
	}

	return &Client{
		BotToken:   botToken,
		ChatID:     chatID,
		DebugMode:  debugMode,
		BaseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		// Bot API allows about 20 messages per minute in a group
		limiter: rate.NewLimiter(rate.Every(3*time.Second), 5),
		logger:  logger,
	}
}

// Enabled reports whether notifications will be sent.
func (c *Client) Enabled() bool {
	return c != nil
}

func (c *Client) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(c.BaseURL, "/"), c.BotToken, method)
}

// doRequest posts a JSON payload to a Bot API method and returns the parsed
// response.
func (c *Client) doRequest(ctx context.Context, method string, payload any) (map[string]any, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(method), bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req)
}

func (c *Client) send(req *http.Request) (map[string]any, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if ok, exists := result["ok"].(bool); !exists || !ok {
		return nil, fmt.Errorf("telegram API error: %v", result["description"])
	}
	return result, nil
}

// FormatOccurrence builds the HTML announcement for a new occurrence.
//
// Message format:
//
//	📋 Nova ocorrência: 001/2026
//	📍 Rua A, 10 - Centro (Norte)
//	🕒 Registrada em: 02/01/2026 14:05
//	📞 Origem: Telefone
//	💬 Descrição:
//	[texto]
//	🗺️ link do mapa, when present
func FormatOccurrence(rec occurrence.Record) string {
	esc := html.EscapeString

	var b strings.Builder
	fmt.Fprintf(&b, "📋 <b>Nova ocorrência: %s</b>\n\n", esc(rec.ExternalID))

	address := rec.Street
	if rec.Number != "" {
		address += ", " + rec.Number
	}
	fmt.Fprintf(&b, "📍 %s - %s", esc(address), esc(rec.Neighborhood))
	if rec.Zone != "" {
		fmt.Fprintf(&b, " (%s)", esc(rec.Zone))
	}
	b.WriteString("\n")

	if !rec.CreatedAt.Time.IsZero() {
		fmt.Fprintf(&b, "🕒 Registrada em: %s\n", rec.CreatedAt.Time.Format("02/01/2006 15:04"))
	}
	if rec.Origin != "" {
		fmt.Fprintf(&b, "📞 Origem: %s\n", esc(rec.Origin))
	}
	if rec.NightAction {
		b.WriteString("🌙 Ação noturna\n")
	}
	if rec.Description != "" {
		fmt.Fprintf(&b, "\n💬 <b>Descrição:</b>\n%s\n", esc(rec.Description))
	}
	if rec.MapsLink != "" {
		fmt.Fprintf(&b, "\n🗺️ %s", esc(rec.MapsLink))
	}
	return strings.TrimRight(b.String(), "\n")
}

// SendOccurrenceMessage announces a new occurrence and returns the Telegram
// message id.
func (c *Client) SendOccurrenceMessage(ctx context.Context, rec occurrence.Record) (string, error) {
	if c == nil {
		return "", nil
	}

	text := FormatOccurrence(rec)
	if c.DebugMode {
		c.logger.Debug("🐛 Telegram message (not sent)", zap.String("text", text))
		return "", nil
	}

	c.logger.Info("📨 Sending occurrence to Telegram...", zap.String("external_id", rec.ExternalID))
	result, err := c.doRequest(ctx, "sendMessage", Message{
		ChatID:                c.ChatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to send Telegram message: %w", err)
	}

	var messageID string
	if msgResult, ok := result["result"].(map[string]any); ok {
		if msgID, ok := msgResult["message_id"].(float64); ok {
			messageID = fmt.Sprintf("%.0f", msgID)
		}
	}
	c.logger.Info("✓ Occurrence sent to Telegram", zap.String("message_id", messageID))
	return messageID, nil
}

// SendCriticalAlert reports a failure that needs manual intervention.
func (c *Client) SendCriticalAlert(ctx context.Context, errorType, errorMsg string, at time.Time) error {
	if c == nil {
		return nil
	}

	message := fmt.Sprintf(
		"🚨 <b>ALERTA CRÍTICO - FISCALIZAÇÃO</b>\n\n"+
			"<b>Tipo:</b> %s\n"+
			"<b>Erro:</b> %s\n"+
			"<b>Horário:</b> %s\n\n"+
			"⚠️ <b>Ação necessária:</b> verifique o serviço.",
		html.EscapeString(errorType),
		html.EscapeString(errorMsg),
		at.Format("02/01/2006 15:04:05"),
	)
	if c.DebugMode {
		c.logger.Debug("🐛 Telegram alert (not sent)", zap.String("text", message))
		return nil
	}

	c.logger.Warn("🚨 Sending critical alert to Telegram...", zap.String("type", errorType))
	if _, err := c.doRequest(ctx, "sendMessage", Message{
		ChatID:                c.ChatID,
		Text:                  message,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	}); err != nil {
		return fmt.Errorf("failed to send Telegram alert: %w", err)
	}
	return nil
}

// SendPhoto uploads a PNG with a caption, used for the pending summary.
func (c *Client) SendPhoto(ctx context.Context, png []byte, caption string) error {
	if c == nil {
		return nil
	}
	if c.DebugMode {
		c.logger.Debug("🐛 Telegram photo (not sent)", zap.Int("bytes", len(png)), zap.String("caption", caption))
		return nil
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("chat_id", c.ChatID); err != nil {
		return err
	}
	if err := mw.WriteField("caption", caption); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("photo", "pendentes.png")
	if err != nil {
		return err
	}
	if _, err := part.Write(png); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("sendPhoto"), &body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	if _, err := c.send(req); err != nil {
		return fmt.Errorf("failed to send Telegram photo: %w", err)
	}
	c.logger.Info("✓ Summary image sent to Telegram")
	return nil
}
