package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/format"
	"github.com/Kerhoff/wishbot/internal/models"
	"github.com/Kerhoff/wishbot/internal/service"
	"github.com/Kerhoff/wishbot/internal/telegram"
)

// ---------------------------------------------------------------------------
// CreateHouseholdHandler – /create_household <name>
// ---------------------------------------------------------------------------

// CreateHouseholdHandler creates a household owned by the caller.
type CreateHouseholdHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewCreateHouseholdHandler creates a new CreateHouseholdHandler.
func NewCreateHouseholdHandler(svc *service.Service, logger *logrus.Logger) *CreateHouseholdHandler {
	return &CreateHouseholdHandler{svc: svc, logger: logger}
}

// Handle processes the /create_household command.
func (h *CreateHouseholdHandler) Handle(ctx context.Context, bot telegram.Sender, member *models.Member, message *tgbotapi.Message, args []string) error {
	household, err := h.svc.CreateHousehold(ctx, member, telegram.CommandText(message))
	if err != nil {
		return replyOrFail(bot, message.Chat.ID, err)
	}

	text := fmt.Sprintf("🏠 Семья <b>%s</b> создана!\n\n"+
		"Код приглашения: <code>%s</code>\n"+
		"Второй участник присоединяется командой\n<code>/join_household %s</code>\n\n"+
		"Добавить первое желание: /add",
		format.Escape(household.Name), household.InviteCode, household.InviteCode)
	return sendHTML(bot, message.Chat.ID, text, nil)
}

// ---------------------------------------------------------------------------
// JoinHouseholdHandler – /join_household <code>
// ---------------------------------------------------------------------------

// JoinHouseholdHandler attaches the caller to a household by invite code.
type JoinHouseholdHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewJoinHouseholdHandler creates a new JoinHouseholdHandler.
func NewJoinHouseholdHandler(svc *service.Service, logger *logrus.Logger) *JoinHouseholdHandler {
	return &JoinHouseholdHandler{svc: svc, logger: logger}
}

// Handle processes the /join_household command.
func (h *JoinHouseholdHandler) Handle(ctx context.Context, bot telegram.Sender, member *models.Member, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return sendHTML(bot, message.Chat.ID, "❌ Укажите код: /join_household &lt;код&gt;", nil)
	}

	household, err := h.svc.JoinHousehold(ctx, member, args[0])
	if err != nil {
		return replyOrFail(bot, message.Chat.ID, err)
	}

	text := fmt.Sprintf("🎉 Вы присоединились к семье <b>%s</b>!\n\nСписок желаний: /list\nДобавить: /add",
		format.Escape(household.Name))
	return sendHTML(bot, message.Chat.ID, text, nil)
}
