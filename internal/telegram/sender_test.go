package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Kerhoff/wishbot/internal/telegram/telegramtest"
)

func TestThrottledSenderSpacesCalls(t *testing.T) {
	rec := telegramtest.NewSender()
	s := NewThrottledSender(rec, 20*time.Millisecond, 1)

	start := time.Now()
	for i := 0; i < 4; i++ {
		if _, err := s.Send(tgbotapi.NewMessage(1, "hi")); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("4 sends at 1 per 20ms finished in %s", elapsed)
	}
	if len(rec.Texts(1)) != 4 {
		t.Errorf("expected 4 messages delivered, got %d", len(rec.Texts(1)))
	}
}

func TestThrottledSenderHonoursContext(t *testing.T) {
	rec := telegramtest.NewSender()
	s := NewThrottledSender(rec, time.Hour, 1)

	if _, err := s.SendContext(context.Background(), tgbotapi.NewMessage(1, "first")); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, err := Bind(ctx, s).Send(tgbotapi.NewMessage(1, "second")); err == nil {
		t.Fatal("expected the limiter to give up")
	}
	if _, err := s.Send(tgbotapi.NewMessage(1, "third")); err == nil {
		t.Fatal("expected a bounded wait without context")
	}
	if err := NewNotifier(s).Notify(ctx, 1, "fourth"); err == nil {
		t.Fatal("expected the notifier to give up")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("throttled calls blocked for %s", elapsed)
	}
	if got := rec.Texts(1); len(got) != 1 {
		t.Errorf("only the first message should go out, got %q", got)
	}

	cancelled, stop := context.WithCancel(context.Background())
	stop()
	if _, err := s.RequestContext(cancelled, tgbotapi.NewCallback("cb", "")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNotifierSendsHTML(t *testing.T) {
	rec := telegramtest.NewSender()
	n := NewNotifier(rec)

	if err := n.Notify(context.Background(), 7, "<b>hi</b>"); err != nil {
		t.Fatal(err)
	}
	msg, ok := rec.Last(7).(tgbotapi.MessageConfig)
	if !ok || msg.ParseMode != tgbotapi.ModeHTML || msg.Text != "<b>hi</b>" {
		t.Fatalf("unexpected message %+v", rec.Last(7))
	}

	rec.FailFor(8)
	if err := n.Notify(context.Background(), 8, "x"); !errors.Is(err, telegramtest.ErrBlocked) {
		t.Errorf("expected blocked error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.Notify(ctx, 7, "late"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context error, got %v", err)
	}
}
