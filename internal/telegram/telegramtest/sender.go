// Package telegramtest provides a recording Sender for tests.
package telegramtest

import (
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrBlocked is returned for chats marked as failing.
var ErrBlocked = errors.New("Forbidden: bot was blocked by the user")

// ErrNotModifiable is returned for edits once FailEdits is set.
var ErrNotModifiable = errors.New("Bad Request: message can't be edited")

// Sender records everything sent through it.
type Sender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	failing  map[int64]bool
	noEdits  bool
	nextID   int
}

// NewSender creates an empty recorder.
func NewSender() *Sender {
	return &Sender{failing: map[int64]bool{}}
}

// FailFor makes every send to chatID fail.
func (s *Sender) FailFor(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[chatID] = true
}

// FailEdits makes every message edit fail while plain sends still succeed.
func (s *Sender) FailEdits() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noEdits = true
}

func (s *Sender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chatID := chatOf(c)
	if s.failing[chatID] {
		return tgbotapi.Message{}, ErrBlocked
	}
	if _, edit := c.(tgbotapi.EditMessageTextConfig); edit && s.noEdits {
		return tgbotapi.Message{}, ErrNotModifiable
	}
	s.sent = append(s.sent, c)
	s.nextID++
	return tgbotapi.Message{MessageID: s.nextID, Chat: &tgbotapi.Chat{ID: chatID}}, nil
}

func (s *Sender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// Texts returns the text of every message and edit sent to chatID, in order.
func (s *Sender) Texts(chatID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var texts []string
	for _, c := range s.sent {
		if chatOf(c) != chatID {
			continue
		}
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			texts = append(texts, m.Text)
		case tgbotapi.EditMessageTextConfig:
			texts = append(texts, m.Text)
		case tgbotapi.PhotoConfig:
			texts = append(texts, m.Caption)
		}
	}
	return texts
}

// Last returns the last Chattable sent to chatID, or nil.
func (s *Sender) Last(chatID int64) tgbotapi.Chattable {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.sent) - 1; i >= 0; i-- {
		if chatOf(s.sent[i]) == chatID {
			return s.sent[i]
		}
	}
	return nil
}

// Toasts returns the texts of all callback answers.
func (s *Sender) Toasts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var toasts []string
	for _, c := range s.requests {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok {
			toasts = append(toasts, cb.Text)
		}
	}
	return toasts
}

// Reset forgets everything recorded so far.
func (s *Sender) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = nil
	s.requests = nil
}

func chatOf(c tgbotapi.Chattable) int64 {
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		return m.ChatID
	case tgbotapi.EditMessageTextConfig:
		return m.ChatID
	case tgbotapi.EditMessageReplyMarkupConfig:
		return m.ChatID
	case tgbotapi.PhotoConfig:
		return m.ChatID
	}
	return 0
}
