package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/format"
	"github.com/Kerhoff/wishbot/internal/models"
	"github.com/Kerhoff/wishbot/internal/service"
	"github.com/Kerhoff/wishbot/internal/telegram"
)

const onboardingText = `👋 <b>Привет! Я веду общий список желаний для семьи.</b>

Чтобы начать, создайте семью:
/create_household &lt;название&gt;

Или присоединитесь к существующей по коду приглашения:
/join_household &lt;код&gt;

Все команды: /help`

// StartHandler handles the /start command
type StartHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewStartHandler creates a new start command handler
func NewStartHandler(svc *service.Service, logger *logrus.Logger) *StartHandler {
	return &StartHandler{svc: svc, logger: logger}
}

// Handle greets the member and shows their household, if any.
func (h *StartHandler) Handle(ctx context.Context, bot telegram.Sender, member *models.Member, message *tgbotapi.Message, args []string) error {
	if !member.HasHousehold() {
		return sendHTML(bot, message.Chat.ID, onboardingText, nil)
	}

	household, err := h.svc.Household(ctx, member)
	if err != nil {
		return err
	}
	others, err := h.svc.CoMembers(ctx, household.ID, member.TelegramID)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏠 <b>%s</b>\n", format.Escape(household.Name))
	fmt.Fprintf(&b, "Код приглашения: <code>%s</code>\n", household.InviteCode)
	if len(others) == 0 {
		b.WriteString("\nВ семье пока только вы. Отправьте код второму участнику.\n")
	} else {
		names := make([]string, 0, len(others))
		for _, m := range others {
			names = append(names, format.Escape(m.DisplayName()))
		}
		fmt.Fprintf(&b, "\nВместе с вами: %s\n", strings.Join(names, ", "))
	}
	b.WriteString("\nДобавить желание: /add\nСписок: /list\nВсе команды: /help")

	if err := sendHTML(bot, message.Chat.ID, b.String(), nil); err != nil {
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id":      message.Chat.ID,
		"household_id": household.ID,
	}).Info("Sent start message")
	return nil
}
