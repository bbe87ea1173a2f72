package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Kerhoff/wishbot/internal/models"
	"github.com/Kerhoff/wishbot/internal/repository/sqlstore"
	"github.com/Kerhoff/wishbot/internal/repository/sqlstore/sqlstoretest"
	"github.com/Kerhoff/wishbot/pkg/logger"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent map[int64][]string
	fail map[int64]bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: map[int64][]string{}, fail: map[int64]bool{}}
}

func (n *fakeNotifier) Notify(_ context.Context, chatID int64, html string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail[chatID] {
		return errors.New("Forbidden: bot was blocked by the user")
	}
	n.sent[chatID] = append(n.sent[chatID], html)
	return nil
}

func (n *fakeNotifier) count(chatID int64) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent[chatID])
}

func (n *fakeNotifier) total() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, msgs := range n.sent {
		total += len(msgs)
	}
	return total
}

func setupService(t *testing.T) (*Service, *sqlstore.Store, *fakeNotifier) {
	t.Helper()
	store := sqlstoretest.Open(t)
	notifier := newFakeNotifier()
	return New(store, notifier, logger.Discard()), store, notifier
}

func mustMember(t *testing.T, svc *Service, telegramID int64, name string) *models.Member {
	t.Helper()
	m, err := svc.ResolveMember(context.Background(), telegramID, "", name, "")
	if err != nil {
		t.Fatalf("ResolveMember(%d): %v", telegramID, err)
	}
	return m
}

// pairedHousehold returns a household with two members, Ann (100) who
// created it and Bob (200) who joined.
func pairedHousehold(t *testing.T, svc *Service) (*models.Household, *models.Member, *models.Member) {
	t.Helper()
	ctx := context.Background()

	ann := mustMember(t, svc, 100, "Ann")
	h, err := svc.CreateHousehold(ctx, ann, "Дом")
	if err != nil {
		t.Fatalf("CreateHousehold: %v", err)
	}

	bob := mustMember(t, svc, 200, "Bob")
	if _, err := svc.JoinHousehold(ctx, bob, h.InviteCode); err != nil {
		t.Fatalf("JoinHousehold: %v", err)
	}
	return h, ann, bob
}
