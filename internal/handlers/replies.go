package handlers

import (
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Kerhoff/wishbot/internal/service"
	"github.com/Kerhoff/wishbot/internal/telegram"
)

// Corrective replies for user input and precondition errors.
const (
	noHouseholdText      = "🏠 Сначала создайте семью: /create_household &lt;название&gt;\nили присоединитесь: /join_household &lt;код&gt;"
	alreadyInHousehold   = "ℹ️ Вы уже состоите в семье. Посмотреть: /start"
	invalidCodeText      = "❌ Код приглашения не найден. Проверьте его и попробуйте ещё раз."
	emptyNameText        = "❌ Укажите название: /create_household &lt;название&gt;"
	emptyTitleText       = "✏️ Название не может быть пустым. Напишите, что хотите добавить."
	invalidPriceText     = "❌ Не понял сумму. Пример: <code>1 500</code> или <code>1500,50</code>. Чтобы пропустить, отправьте «-»."
	itemNotFoundText     = "❌ Желание не найдено."
	itemDeletedText      = "🗑 Это желание уже удалено."
	categoryNotFoundText = "❌ Такой категории нет. Список: /categories"
	unknownFilterText    = "❌ Неизвестный фильтр. Доступно: all, active, done или категория из /categories"
	staleActionText      = "⌛ Эта кнопка уже неактуальна."
	draftCorruptedText   = "⚠️ Черновик повреждён и удалён. Начните заново: /add"
)

var titleTooLongText = fmt.Sprintf("✏️ Слишком длинное название, максимум %d символов. Попробуйте короче.", service.MaxTitleLength)

// userMessage maps known service errors to the reply shown to the user. It
// returns false for anything else, which is left to the router.
func userMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, service.ErrNoHousehold):
		return noHouseholdText, true
	case errors.Is(err, service.ErrAlreadyInHousehold):
		return alreadyInHousehold, true
	case errors.Is(err, service.ErrInvalidInviteCode):
		return invalidCodeText, true
	case errors.Is(err, service.ErrEmptyHouseholdName):
		return emptyNameText, true
	case errors.Is(err, service.ErrEmptyTitle):
		return emptyTitleText, true
	case errors.Is(err, service.ErrTitleTooLong):
		return titleTooLongText, true
	case errors.Is(err, service.ErrInvalidPrice):
		return invalidPriceText, true
	case errors.Is(err, service.ErrItemNotFound), errors.Is(err, service.ErrForbidden):
		return itemNotFoundText, true
	case errors.Is(err, service.ErrItemDeleted):
		return itemDeletedText, true
	case errors.Is(err, service.ErrCategoryNotFound):
		return categoryNotFoundText, true
	case errors.Is(err, service.ErrUnknownFilter):
		return unknownFilterText, true
	case errors.Is(err, service.ErrStaleAction):
		return staleActionText, true
	case errors.Is(err, service.ErrDraftCorrupted):
		return draftCorruptedText, true
	}
	return "", false
}

// toastText is userMessage for callback toasts, which are plain text.
func toastText(err error) (string, bool) {
	switch {
	case errors.Is(err, service.ErrNoHousehold):
		return "Сначала создайте семью или присоединитесь к ней", true
	case errors.Is(err, service.ErrInvalidPrice):
		return "Некорректная сумма", true
	case errors.Is(err, service.ErrCategoryNotFound):
		return "Такой категории нет", true
	case errors.Is(err, service.ErrUnknownFilter):
		return "Неизвестный фильтр", true
	}
	return userMessage(err)
}

// sendHTML sends an HTML message with an optional inline keyboard.
func sendHTML(bot telegram.Sender, chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// replyOrFail answers a known service error with its corrective message and
// returns any other error unchanged.
func replyOrFail(bot telegram.Sender, chatID int64, err error) error {
	text, ok := userMessage(err)
	if !ok {
		return err
	}
	return sendHTML(bot, chatID, text, nil)
}

// editHTML replaces the text and keyboard of the message a button belongs
// to. Photo messages and inline-mode presses get a new message instead.
func editHTML(bot telegram.Sender, query *tgbotapi.CallbackQuery, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	if query.Message == nil || query.Message.Chat == nil || len(query.Message.Photo) > 0 {
		return sendHTML(bot, telegram.CallbackChatID(query), text, markup)
	}

	edit := tgbotapi.NewEditMessageText(query.Message.Chat.ID, query.Message.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true
	edit.ReplyMarkup = markup
	if _, err := bot.Send(edit); err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}
