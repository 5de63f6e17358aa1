package notifications

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"courtbook/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender hands a formatted message to an outbound channel.
type Sender interface {
	Send(ctx context.Context, destination, subject, body string) error
}

// Directory resolves where a user's messages should go on one channel.
type Directory interface {
	Lookup(userID int64) (string, bool)
}

type StaticDirectory map[int64]string

func (d StaticDirectory) Lookup(userID int64) (string, bool) {
	dest, ok := d[userID]
	return dest, ok && dest != ""
}

// LogSender writes outgoing messages to the log instead of delivering them.
type LogSender struct {
	channel string
	log     *logger.Logger
}

func NewLogSender(log *logger.Logger, channel string) *LogSender {
	return &LogSender{channel: channel, log: log}
}

func (s *LogSender) Send(ctx context.Context, destination, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.log.Info("Outbound notification",
		"channel", s.channel,
		"destination", destination,
		"subject", subject,
		"body", body,
	)
	return nil
}

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender delivers messages through a bot. Destinations are chat ids.
type TelegramSender struct {
	bot telegramAPI
}

func NewTelegramSender(token string) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to start telegram bot: %w", err)
	}
	return &TelegramSender{bot: bot}, nil
}

func (s *TelegramSender) Send(ctx context.Context, destination, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	chatID, err := strconv.ParseInt(strings.TrimSpace(destination), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", destination, err)
	}

	text := body
	if subject != "" {
		text = subject + "\n\n" + body
	}

	if _, err := s.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	return nil
}
