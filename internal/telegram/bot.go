package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Bot wraps the Telegram bot API
type Bot struct {
	api     *tgbotapi.BotAPI
	sender  Sender
	router  *Router
	logger  *logrus.Logger
	timeout time.Duration
}

// NewBotAPI authorizes with the Telegram API
func NewBotAPI(token string, logger *logrus.Logger) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	logger.Infof("Authorized on account %s", api.Self.UserName)
	return api, nil
}

// NewBot creates a bot that dispatches updates through router and sends
// replies through sender. Each update gets at most timeout to finish.
func NewBot(api *tgbotapi.BotAPI, sender Sender, router *Router, logger *logrus.Logger, timeout time.Duration) *Bot {
	return &Bot{
		api:     api,
		sender:  sender,
		router:  router,
		logger:  logger,
		timeout: timeout,
	}
}

// SetWebhook points Telegram at the webhook endpoint
func (b *Bot) SetWebhook(webhookURL, secret string) error {
	wh, err := tgbotapi.NewWebhook(fmt.Sprintf("%s/webhook/%s", webhookURL, secret))
	if err != nil {
		return fmt.Errorf("failed to create webhook: %w", err)
	}

	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	b.logger.Infof("Webhook set to %s/webhook/***", webhookURL)
	return nil
}

// Start starts the bot with long polling
func (b *Bot) Start(ctx context.Context) error {
	// Delete webhook if exists and use polling
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Bot started with long polling")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Stopping bot...")
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes one update synchronously, bounded by the
// configured timeout.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	b.router.HandleUpdate(ctx, b.sender, update)
}
