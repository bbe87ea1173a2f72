package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/format"
	"github.com/Kerhoff/wishbot/internal/models"
	"github.com/Kerhoff/wishbot/internal/service"
	"github.com/Kerhoff/wishbot/internal/telegram"
)

const (
	titlePrompt      = "📝 Что хотите добавить? Напишите название.\nМожно прислать фото с подписью. Отмена: /cancel"
	photoTitlePrompt = "📝 Добавьте к фото подпись с названием."
)

func categoryPrompt(item *models.Item) string {
	return fmt.Sprintf("📂 В какую категорию добавить <b>%s</b>?", format.Escape(item.Title))
}

func pricePrompt(item *models.Item, category *models.Category) string {
	text := fmt.Sprintf("💰 Сколько стоит <b>%s</b>?", format.Escape(item.Title))
	if category != nil {
		text = fmt.Sprintf("📂 %s\n\n%s", format.Escape(category.Name), text)
	}
	return text + "\nВыберите сумму или напишите свою."
}

func savedText(item *models.Item) string {
	text := fmt.Sprintf("✅ Сохранено: <b>%s</b> (#%d)", format.Escape(item.Title), item.ID)
	if item.Price.IsPositive() {
		text += "\nЦена: " + format.Money(item.Price)
	}
	return text
}

// ---------------------------------------------------------------------------
// WizardInput – free text and photos while a draft is open
// ---------------------------------------------------------------------------

// WizardInput feeds non-command messages to the member's open draft.
// Messages without a draft are ignored.
type WizardInput struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewWizardInput creates a new WizardInput.
func NewWizardInput(svc *service.Service, logger *logrus.Logger) *WizardInput {
	return &WizardInput{svc: svc, logger: logger}
}

// HandleInput answers the draft's current stage.
func (h *WizardInput) HandleInput(ctx context.Context, bot telegram.Sender, member *models.Member, message *tgbotapi.Message) error {
	draft, err := h.svc.OpenDraft(ctx, member)
	if err != nil {
		return err
	}
	if draft == nil {
		return nil
	}

	log := h.logger.WithFields(logrus.Fields{
		"member_id": member.ID,
		"draft_id":  draft.ID,
		"stage":     draft.Stage,
	})

	switch draft.Stage {
	case models.DraftStageAwaitingTitle:
		err = h.title(ctx, bot, member, draft, message)
	case models.DraftStageAwaitingCategory:
		err = h.repeatCategories(ctx, bot, member, draft, message.Chat.ID)
	case models.DraftStageAwaitingPrice:
		err = h.price(ctx, bot, member, draft, message)
	default:
		log.Warn("Draft in unknown stage, discarding")
		if _, err := h.svc.DiscardDraft(ctx, member); err != nil {
			return err
		}
		err = service.ErrDraftCorrupted
	}

	if errors.Is(err, service.ErrStaleAction) {
		log.Debug("Ignoring input for a draft that already moved on")
		return nil
	}
	if err != nil {
		return replyOrFail(bot, message.Chat.ID, err)
	}
	return nil
}

func (h *WizardInput) title(ctx context.Context, bot telegram.Sender, member *models.Member, draft *models.Draft, message *tgbotapi.Message) error {
	photo := telegram.LargestPhoto(message)
	text := message.Text
	if text == "" {
		text = message.Caption
	}
	if strings.TrimSpace(text) == "" && photo != "" {
		return sendHTML(bot, message.Chat.ID, photoTitlePrompt, nil)
	}

	item, err := h.svc.SubmitTitle(ctx, member, draft, text, photo)
	if err != nil {
		return err
	}

	categories, err := h.svc.Categories(ctx, member)
	if err != nil {
		return err
	}
	markup := telegram.CategoryPicker(item.ID, categories)
	return sendHTML(bot, message.Chat.ID, categoryPrompt(item), &markup)
}

// repeatCategories answers free text at the category stage by showing the
// picker again; the category is only taken from a button.
func (h *WizardInput) repeatCategories(ctx context.Context, bot telegram.Sender, member *models.Member, draft *models.Draft, chatID int64) error {
	item, err := h.svc.DraftItem(ctx, draft)
	if err != nil {
		return err
	}
	categories, err := h.svc.Categories(ctx, member)
	if err != nil {
		return err
	}
	markup := telegram.CategoryPicker(item.ID, categories)
	return sendHTML(bot, chatID, "👇 Выберите категорию кнопкой.\n\n"+categoryPrompt(item), &markup)
}

func (h *WizardInput) price(ctx context.Context, bot telegram.Sender, member *models.Member, draft *models.Draft, message *tgbotapi.Message) error {
	amount, err := service.ParsePrice(message.Text)
	if err != nil {
		return err
	}

	result, err := h.svc.SubmitPrice(ctx, member, draft, amount)
	if err != nil {
		return err
	}

	markup := telegram.ItemActions(result.Item)
	return sendHTML(bot, message.Chat.ID, savedText(result.Item), &markup)
}

// ---------------------------------------------------------------------------
// WizardCallbacks – pc, pp, pm, ep
// ---------------------------------------------------------------------------

// WizardCallbacks handles the category and price buttons of the wizard.
type WizardCallbacks struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewWizardCallbacks creates a new WizardCallbacks.
func NewWizardCallbacks(svc *service.Service, logger *logrus.Logger) *WizardCallbacks {
	return &WizardCallbacks{svc: svc, logger: logger}
}

// Kinds lists the actions WizardCallbacks handles.
func (h *WizardCallbacks) Kinds() []telegram.ActionKind {
	return []telegram.ActionKind{
		telegram.ActionPickCategory,
		telegram.ActionPickPrice,
		telegram.ActionManualPrice,
		telegram.ActionEditPrice,
	}
}

// HandleCallback processes one wizard button press.
func (h *WizardCallbacks) HandleCallback(ctx context.Context, bot telegram.Sender, member *models.Member, query *tgbotapi.CallbackQuery, action telegram.Action) (string, error) {
	var (
		toast string
		err   error
	)
	switch action.Kind {
	case telegram.ActionPickCategory:
		toast, err = h.pickCategory(ctx, bot, member, query, action)
	case telegram.ActionPickPrice:
		toast, err = h.pickPrice(ctx, bot, member, query, action)
	case telegram.ActionManualPrice:
		err = h.manualPrice(ctx, bot, member, query, action.ItemID)
	case telegram.ActionEditPrice:
		err = h.editPrice(ctx, bot, member, query, action.ItemID)
	}
	if err != nil {
		if errors.Is(err, service.ErrStaleAction) {
			h.logger.WithFields(logrus.Fields{
				"member_id": member.ID,
				"action":    action.Kind,
				"item_id":   action.ItemID,
			}).Debug("Stale wizard button")
		}
		if text, ok := toastText(err); ok {
			return text, nil
		}
		return "", err
	}
	return toast, nil
}

func (h *WizardCallbacks) pickCategory(ctx context.Context, bot telegram.Sender, member *models.Member, query *tgbotapi.CallbackQuery, action telegram.Action) (string, error) {
	choice, err := h.svc.ChooseCategory(ctx, member, action.ItemID, action.CategoryID)
	if err != nil {
		return "", err
	}

	name := format.NoCategory
	if choice.Category != nil {
		name = choice.Category.Name
	}
	if choice.Replayed {
		return name, nil
	}

	markup := telegram.PricePicker(choice.Item.ID)
	if err := editHTML(bot, query, pricePrompt(choice.Item, choice.Category), &markup); err != nil {
		h.editFailed(err, member, choice.Item.ID)
	}
	return name, nil
}

func (h *WizardCallbacks) pickPrice(ctx context.Context, bot telegram.Sender, member *models.Member, query *tgbotapi.CallbackQuery, action telegram.Action) (string, error) {
	result, err := h.svc.SubmitPriceForItem(ctx, member, action.ItemID, action.Amount)
	if err != nil {
		return "", err
	}
	if result.Replayed {
		return "Уже сохранено", nil
	}

	markup := telegram.ItemActions(result.Item)
	if err := editHTML(bot, query, savedText(result.Item), &markup); err != nil {
		h.editFailed(err, member, result.Item.ID)
	}
	return "Сохранено", nil
}

// editFailed logs a failed edit of the wizard message. The action itself is
// already committed, so the user still gets the success toast.
func (h *WizardCallbacks) editFailed(err error, member *models.Member, itemID int64) {
	h.logger.WithFields(logrus.Fields{
		"member_id": member.ID,
		"item_id":   itemID,
	}).WithError(err).Warn("Failed to update wizard message")
}

func (h *WizardCallbacks) manualPrice(ctx context.Context, bot telegram.Sender, member *models.Member, query *tgbotapi.CallbackQuery, itemID int64) error {
	item, err := h.svc.ManualPrice(ctx, member, itemID)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("✏️ Напишите сумму для <b>%s</b>, например <code>1 500</code>.", format.Escape(item.Title))
	return sendHTML(bot, telegram.CallbackChatID(query), text, nil)
}

func (h *WizardCallbacks) editPrice(ctx context.Context, bot telegram.Sender, member *models.Member, query *tgbotapi.CallbackQuery, itemID int64) error {
	item, err := h.svc.StartPriceEdit(ctx, member, itemID)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("💰 Новая цена для <b>%s</b>?\nСейчас: %s", format.Escape(item.Title), format.Money(item.Price))
	markup := telegram.PricePicker(item.ID)
	return sendHTML(bot, telegram.CallbackChatID(query), text, &markup)
}

// ---------------------------------------------------------------------------
// CancelHandler – /cancel
// ---------------------------------------------------------------------------

// CancelHandler discards the member's open draft.
type CancelHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewCancelHandler creates a new CancelHandler.
func NewCancelHandler(svc *service.Service, logger *logrus.Logger) *CancelHandler {
	return &CancelHandler{svc: svc, logger: logger}
}

// Handle processes the /cancel command.
func (h *CancelHandler) Handle(ctx context.Context, bot telegram.Sender, member *models.Member, message *tgbotapi.Message, args []string) error {
	discarded, err := h.svc.DiscardDraft(ctx, member)
	if err != nil {
		return err
	}
	if !discarded {
		return sendHTML(bot, message.Chat.ID, "Нечего отменять.", nil)
	}
	return sendHTML(bot, message.Chat.ID, "🚫 Добавление прервано.", nil)
}
