package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/repository"
)

// Notifier delivers an HTML message to a private chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, html string) error
}

// Service is the central business logic layer. It keeps no state between
// calls: members, households and drafts are reloaded from the store every
// time.
type Service struct {
	store    repository.Store
	notifier Notifier
	logger   *logrus.Logger
	codeGen  func() (string, error)
}

// New creates a new Service with all required dependencies.
func New(store repository.Store, notifier Notifier, logger *logrus.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   logger,
		codeGen:  generateInviteCode,
	}
}
