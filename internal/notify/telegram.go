package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dealwatch/backend/internal/apperror"
	"github.com/dealwatch/backend/internal/model"
	"github.com/dealwatch/backend/pkg/currency"
)

// DefaultTelegramAPIURL is the public Bot API endpoint.
const DefaultTelegramAPIURL = "https://api.telegram.org"

// TelegramConfig holds Bot API settings
type TelegramConfig struct {
	Token             string
	APIURL            string
	MessagesPerSecond int
	Timeout           time.Duration
	Quoter            *currency.Quoter
}

// TelegramChannel sends drop alerts as chat messages through the Bot API.
type TelegramChannel struct {
	httpClient *http.Client
	endpoint   string
	quoter     *currency.Quoter
	limiter    *rate.Limiter
	logger     *slog.Logger
}

type sendMessageRequest struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type botResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// NewTelegramChannel creates a rate-limited Bot API channel
func NewTelegramChannel(cfg TelegramConfig, log *slog.Logger) *TelegramChannel {
	if log == nil {
		log = slog.Default()
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultTelegramAPIURL
	}
	if cfg.MessagesPerSecond <= 0 {
		cfg.MessagesPerSecond = 25
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &TelegramChannel{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(cfg.APIURL, "/"), cfg.Token),
		quoter:     cfg.Quoter,
		limiter:    rate.NewLimiter(rate.Limit(cfg.MessagesPerSecond), 1),
		logger:     log,
	}
}

// Deliver sends the formatted alert to the user's chat
func (c *TelegramChannel) Deliver(ctx context.Context, userID int64, event model.DropEvent) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return apperror.NewDeliveryError("telegram", userID, fmt.Errorf("rate limit wait: %w", err))
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:                userID,
		Text:                  FormatDropMessage(event, quoteFor(ctx, c.quoter, c.logger)),
		DisableWebPagePreview: true,
	})
	if err != nil {
		return apperror.NewDeliveryError("telegram", userID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return apperror.NewDeliveryError("telegram", userID, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperror.NewDeliveryError("telegram", userID, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apperror.NewDeliveryError("telegram", userID, err)
	}

	var out botResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return apperror.NewDeliveryError("telegram", userID,
			fmt.Errorf("unexpected response (status %d): %w", resp.StatusCode, err))
	}
	if !out.OK {
		return apperror.NewDeliveryError("telegram", userID,
			fmt.Errorf("sendMessage failed (%d): %s", out.ErrorCode, out.Description))
	}

	c.logger.Debug("Telegram message sent", slog.Int64("user_id", userID), slog.String("game_id", event.GameID))
	return nil
}
