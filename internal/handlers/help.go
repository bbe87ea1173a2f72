package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/models"
	"github.com/Kerhoff/wishbot/internal/telegram"
)

const helpText = `📚 <b>Команды</b>

<b>Семья:</b>
• /create_household &lt;название&gt; - создать семью
• /join_household &lt;код&gt; - присоединиться по коду
• /start - ваша семья и код приглашения

<b>Желания:</b>
• /add - добавить желание по шагам
• /add &lt;текст&gt; - добавить сразу, без категории и цены
• /list [all|active|done|категория] - список желаний
• /setprice &lt;id&gt; &lt;сумма&gt; - изменить цену
• /cancel - прервать добавление

<b>Прочее:</b>
• /categories - категории
• /budget [сумма] - бюджет и остаток

<i>Суммы можно писать так: 1500, 1 500, 1500,50 или 1500 грн</i>`

// HelpHandler handles the /help command
type HelpHandler struct {
	logger *logrus.Logger
}

func NewHelpHandler(logger *logrus.Logger) *HelpHandler {
	return &HelpHandler{logger: logger}
}

func (h *HelpHandler) Handle(ctx context.Context, bot telegram.Sender, member *models.Member, message *tgbotapi.Message, args []string) error {
	if err := sendHTML(bot, message.Chat.ID, helpText, nil); err != nil {
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"user_id": member.TelegramID,
	}).Debug("Sent help message")
	return nil
}
