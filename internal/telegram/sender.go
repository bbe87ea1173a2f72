package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// Sender is the part of *tgbotapi.BotAPI the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

var _ Sender = (*tgbotapi.BotAPI)(nil)

// ContextSender is a Sender whose calls can stop waiting once ctx is done.
type ContextSender interface {
	Sender
	SendContext(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error)
	RequestContext(ctx context.Context, c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// maxThrottleWait bounds the limiter wait of calls made without a context.
const maxThrottleWait = 10 * time.Second

// ThrottledSender spaces outbound calls so bursts of sends (notification
// fan-out in particular) stay under Telegram's flood limits.
type ThrottledSender struct {
	next    Sender
	limiter *rate.Limiter
}

var _ ContextSender = (*ThrottledSender)(nil)

// NewThrottledSender allows one call per interval with the given burst.
func NewThrottledSender(next Sender, interval time.Duration, burst int) *ThrottledSender {
	return &ThrottledSender{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(interval), burst),
	}
}

func (t *ThrottledSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	ctx, cancel := context.WithTimeout(context.Background(), maxThrottleWait)
	defer cancel()
	return t.SendContext(ctx, c)
}

func (t *ThrottledSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), maxThrottleWait)
	defer cancel()
	return t.RequestContext(ctx, c)
}

// SendContext waits for the limiter no longer than ctx allows.
func (t *ThrottledSender) SendContext(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return tgbotapi.Message{}, fmt.Errorf("send throttled: %w", err)
	}
	return t.next.Send(c)
}

// RequestContext waits for the limiter no longer than ctx allows.
func (t *ThrottledSender) RequestContext(ctx context.Context, c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("request throttled: %w", err)
	}
	return t.next.Request(c)
}

// Bind returns a Sender whose calls are tied to ctx. Senders that do not
// implement ContextSender are returned as is.
func Bind(ctx context.Context, s Sender) Sender {
	cs, ok := s.(ContextSender)
	if !ok {
		return s
	}
	return boundSender{ctx: ctx, next: cs}
}

type boundSender struct {
	ctx  context.Context
	next ContextSender
}

func (b boundSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return b.next.SendContext(b.ctx, c)
}

func (b boundSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return b.next.RequestContext(b.ctx, c)
}

// Notifier delivers co-member notices as HTML messages.
type Notifier struct {
	sender Sender
}

// NewNotifier creates a notifier sending through sender.
func NewNotifier(sender Sender) *Notifier {
	return &Notifier{sender: sender}
}

// Notify sends html to chatID unless ctx is already done.
func (n *Notifier) Notify(ctx context.Context, chatID int64, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, html)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := Bind(ctx, n.sender).Send(msg); err != nil {
		return fmt.Errorf("failed to notify chat %d: %w", chatID, err)
	}
	return nil
}
