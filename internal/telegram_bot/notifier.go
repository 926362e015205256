package telegram_bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kadavilrahul/reddit-bot/internal/config"
	"github.com/kadavilrahul/reddit-bot/internal/models"
)

// Notifier pushes keyword match alerts to a Telegram chat
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// NewNotifier creates a Telegram notifier. It returns (nil, nil) when
// notifications are disabled or no token is configured.
func NewNotifier(cfg config.TelegramConfig, logger *zap.Logger) (*Notifier, error) {
	if !cfg.Enabled || cfg.BotToken == "" {
		logger.Info("Telegram notifications are disabled (telegram.enabled=false or token is empty)")
		return nil, nil
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}

	logger.Info("Telegram bot authorized", zap.String("username", botAPI.Self.UserName))

	return &Notifier{
		api:    botAPI,
		chatID: cfg.ChatID,
		logger: logger,
	}, nil
}

// NotifyMatch sends an alert for one keyword hit. Send failures are
// logged, never propagated.
func (n *Notifier) NotifyMatch(match models.KeywordMatch) {
	if n == nil {
		return
	}

	text := fmt.Sprintf(
		"🔔 Keyword match found\n\n"+
			"🔑 Keyword: %s\n"+
			"📝 Post: %s\n"+
			"🔗 %s",
		match.Keyword,
		match.Title,
		match.Permalink,
	)

	if match.Comment != nil {
		if match.Comment.Success {
			text += "\n\n✅ Comment posted"
		} else {
			text += fmt.Sprintf("\n\n❌ Comment failed: %s", match.Comment.Error)
		}
	}

	n.send(text)
}

// NotifyReport sends the summary of a finished monitoring run.
func (n *Notifier) NotifyReport(report models.MonitorReport) {
	if n == nil {
		return
	}

	text := fmt.Sprintf(
		"📊 Monitoring completed for r/%s\n\n"+
			"🔑 Keywords: %s\n"+
			"🎯 Matches: %d\n"+
			"⏱ Duration: %s",
		report.Subreddit,
		strings.Join(report.Keywords, ", "),
		report.TotalMatches,
		report.Duration,
	)

	n.send(text)
}

// send is a helper to send a simple text message
func (n *Notifier) send(text string) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		n.logger.Error("Failed to send Telegram notification", zap.Int64("chat_id", n.chatID), zap.Error(err))
	}
}
