package service

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/metrics"
	"github.com/Kerhoff/wishbot/internal/models"
)

// fanOut sends text to every co-member of actor, one after another.
// Delivery is best effort: failures are logged and counted, never returned,
// since the actor's own change already succeeded.
func (s *Service) fanOut(ctx context.Context, actor *models.Member, householdID int64, text string) {
	recipients, err := s.CoMembers(ctx, householdID, actor.TelegramID)
	if err != nil {
		s.logger.WithError(err).WithField("household_id", householdID).Warn("Failed to resolve notification recipients")
		return
	}

	var result *multierror.Error
	for _, r := range recipients {
		if err := s.notifier.Notify(ctx, r.TelegramID, text); err != nil {
			metrics.Notifications.WithLabelValues("failed").Inc()
			result = multierror.Append(result, fmt.Errorf("member %d: %w", r.ID, err))
			continue
		}
		metrics.Notifications.WithLabelValues("sent").Inc()
	}

	if err := result.ErrorOrNil(); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"household_id": householdID,
			"actor_id":     actor.ID,
			"failed":       len(result.Errors),
			"recipients":   len(recipients),
		}).Warn("Some co-member notifications were not delivered")
	}
}
