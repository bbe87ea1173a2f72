package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Kerhoff/wishbot/internal/metrics"
)

func TestFanOutIsolatesFailures(t *testing.T) {
	svc, _, notifier := setupService(t)
	ctx := context.Background()
	h, ann, bob := pairedHousehold(t, svc)

	carol := mustMember(t, svc, 300, "Carol")
	if _, err := svc.JoinHousehold(ctx, carol, h.InviteCode); err != nil {
		t.Fatal(err)
	}

	notifier.fail[bob.TelegramID] = true
	annBefore := notifier.count(ann.TelegramID)
	failed := testutil.ToFloat64(metrics.Notifications.WithLabelValues("failed"))

	item, err := svc.QuickAdd(ctx, ann, "Велосипед", "")
	if err != nil {
		t.Fatalf("actor's change must succeed despite delivery failures: %v", err)
	}
	if item == nil {
		t.Fatal("no item returned")
	}

	if notifier.count(carol.TelegramID) != 1 {
		t.Errorf("carol should still be notified, got %d", notifier.count(carol.TelegramID))
	}
	if notifier.count(ann.TelegramID) != annBefore {
		t.Errorf("actor must not be notified about own item")
	}
	if got := testutil.ToFloat64(metrics.Notifications.WithLabelValues("failed")) - failed; got != 1 {
		t.Errorf("failed deliveries counted %v, want 1", got)
	}
}
