package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

// TelegramNotifier sends messages through the Telegram Bot API.
type TelegramNotifier struct {
	bot   *tgbotapi.BotAPI
	token string
	log   *slog.Logger
}

// TelegramConfig configures a TelegramNotifier.
type TelegramConfig struct {
	APIURL  string
	Token   string
	Timeout time.Duration
}

// NewTelegramNotifier connects to the Bot API and verifies the token with getMe.
func NewTelegramNotifier(cfg TelegramConfig) (*TelegramNotifier, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	endpoint := tgbotapi.APIEndpoint
	if cfg.APIURL != "" {
		endpoint = strings.TrimRight(cfg.APIURL, "/") + "/bot%s/%s"
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, endpoint, &http.Client{Timeout: cfg.Timeout})
	if err != nil {
		// transport errors carry the request URL, which embeds the token
		return nil, fmt.Errorf("telegram bot init: %s", redact(err, cfg.Token))
	}

	log := slog.Default().With("component", "telegram")
	log.Info("Telegram bot authorized", "bot", bot.Self.UserName)
	return &TelegramNotifier{bot: bot, token: cfg.Token, log: log}, nil
}

// SendMessage posts text to chatID, a numeric chat id or an @channel name.
// Any failure wraps domain.ErrDelivery.
func (n *TelegramNotifier) SendMessage(ctx context.Context, chatID, text string) error {
	if text == "" {
		n.log.Warn("Skipping empty message", "chat", chatID)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}

	var msg tgbotapi.MessageConfig
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		msg = tgbotapi.NewMessage(id, text)
	} else {
		msg = tgbotapi.NewMessageToChannel(chatID, text)
	}
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if _, err := n.bot.Send(msg); err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) {
			if apiErr.RetryAfter > 0 {
				return fmt.Errorf("%w: telegram error %d: %s (retry after %ds)",
					domain.ErrDelivery, apiErr.Code, apiErr.Message, apiErr.RetryAfter)
			}
			return fmt.Errorf("%w: telegram error %d: %s", domain.ErrDelivery, apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("%w: send message: %s", domain.ErrDelivery, redact(err, n.token))
	}

	n.log.Debug("Message sent", "chat", chatID)
	return nil
}

func redact(err error, token string) string {
	if token == "" {
		return err.Error()
	}
	return strings.ReplaceAll(err.Error(), token, "<redacted>")
}
