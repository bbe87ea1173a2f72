package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/format"
	"github.com/Kerhoff/wishbot/internal/models"
	"github.com/Kerhoff/wishbot/internal/service"
	"github.com/Kerhoff/wishbot/internal/telegram"
)

// ---------------------------------------------------------------------------
// AddHandler – /add [text]
// ---------------------------------------------------------------------------

// AddHandler starts the item wizard, or adds an item in one step when the
// command carries a title.
type AddHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewAddHandler creates a new AddHandler.
func NewAddHandler(svc *service.Service, logger *logrus.Logger) *AddHandler {
	return &AddHandler{svc: svc, logger: logger}
}

// Handle processes the /add command.
func (h *AddHandler) Handle(ctx context.Context, bot telegram.Sender, member *models.Member, message *tgbotapi.Message, args []string) error {
	if title := telegram.CommandText(message); title != "" {
		item, err := h.svc.QuickAdd(ctx, member, title, telegram.LargestPhoto(message))
		if err != nil {
			return replyOrFail(bot, message.Chat.ID, err)
		}

		markup := telegram.ItemActions(item)
		text := fmt.Sprintf("✅ Добавлено: <b>%s</b> (#%d)\nЦену можно указать кнопкой ниже.", format.Escape(item.Title), item.ID)
		return sendHTML(bot, message.Chat.ID, text, &markup)
	}

	draft, err := h.svc.StartDraft(ctx, member)
	if err != nil {
		return replyOrFail(bot, message.Chat.ID, err)
	}

	h.logger.WithFields(logrus.Fields{
		"member_id": member.ID,
		"draft_id":  draft.ID,
	}).Debug("Wizard started")
	return sendHTML(bot, message.Chat.ID, titlePrompt, nil)
}

// ---------------------------------------------------------------------------
// ListHandler – /list [filter]
// ---------------------------------------------------------------------------

// ListHandler shows the household wishlist.
type ListHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewListHandler creates a new ListHandler.
func NewListHandler(svc *service.Service, logger *logrus.Logger) *ListHandler {
	return &ListHandler{svc: svc, logger: logger}
}

// Handle processes the /list command.
func (h *ListHandler) Handle(ctx context.Context, bot telegram.Sender, member *models.Member, message *tgbotapi.Message, args []string) error {
	list, err := h.svc.ListItems(ctx, member, strings.Join(args, " "))
	if err != nil {
		return replyOrFail(bot, message.Chat.ID, err)
	}

	text := format.ItemList(list.Title, list.Items, list.Categories)
	return sendHTML(bot, message.Chat.ID, text, telegram.ItemButtons(list.Items))
}

// ---------------------------------------------------------------------------
// SetPriceHandler – /setprice <id> <amount>
// ---------------------------------------------------------------------------

const setPriceUsage = "❌ Использование: /setprice &lt;id&gt; &lt;сумма&gt;\nНапример: <code>/setprice 12 1 500</code>"

// SetPriceHandler changes the price of an existing item.
type SetPriceHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewSetPriceHandler creates a new SetPriceHandler.
func NewSetPriceHandler(svc *service.Service, logger *logrus.Logger) *SetPriceHandler {
	return &SetPriceHandler{svc: svc, logger: logger}
}

// Handle processes the /setprice command.
func (h *SetPriceHandler) Handle(ctx context.Context, bot telegram.Sender, member *models.Member, message *tgbotapi.Message, args []string) error {
	if len(args) < 2 {
		return sendHTML(bot, message.Chat.ID, setPriceUsage, nil)
	}

	itemID, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || itemID <= 0 {
		return sendHTML(bot, message.Chat.ID, setPriceUsage, nil)
	}

	amount, err := service.ParsePrice(strings.Join(args[1:], " "))
	if err != nil {
		return replyOrFail(bot, message.Chat.ID, err)
	}

	result, err := h.svc.SetPrice(ctx, member, itemID, amount)
	if err != nil {
		return replyOrFail(bot, message.Chat.ID, err)
	}

	return sendHTML(bot, message.Chat.ID, priceConfirmation(result), nil)
}

func priceConfirmation(result *service.PriceResult) string {
	if !result.Changed {
		return fmt.Sprintf("💰 <b>%s</b>: цена не изменилась (%s)", format.Escape(result.Item.Title), format.Money(result.Item.Price))
	}
	return fmt.Sprintf("💰 <b>%s</b>: %s → %s", format.Escape(result.Item.Title), format.Money(result.Previous), format.Money(result.Item.Price))
}

// ---------------------------------------------------------------------------
// CategoriesHandler – /categories
// ---------------------------------------------------------------------------

// CategoriesHandler lists the household categories with browse buttons.
type CategoriesHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewCategoriesHandler creates a new CategoriesHandler.
func NewCategoriesHandler(svc *service.Service, logger *logrus.Logger) *CategoriesHandler {
	return &CategoriesHandler{svc: svc, logger: logger}
}

// Handle processes the /categories command.
func (h *CategoriesHandler) Handle(ctx context.Context, bot telegram.Sender, member *models.Member, message *tgbotapi.Message, args []string) error {
	categories, err := h.svc.Categories(ctx, member)
	if err != nil {
		return replyOrFail(bot, message.Chat.ID, err)
	}

	markup := telegram.CategoryBrowser(categories)
	return sendHTML(bot, message.Chat.ID, format.CategoryList(categories), &markup)
}

// ---------------------------------------------------------------------------
// BudgetHandler – /budget [amount]
// ---------------------------------------------------------------------------

// BudgetHandler reports the household budget or sets a new ceiling.
type BudgetHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(svc *service.Service, logger *logrus.Logger) *BudgetHandler {
	return &BudgetHandler{svc: svc, logger: logger}
}

// Handle processes the /budget command.
func (h *BudgetHandler) Handle(ctx context.Context, bot telegram.Sender, member *models.Member, message *tgbotapi.Message, args []string) error {
	var (
		report *service.BudgetReport
		err    error
	)
	if len(args) == 0 {
		report, err = h.svc.Budget(ctx, member)
	} else {
		amount, parseErr := service.ParsePrice(strings.Join(args, " "))
		if parseErr != nil {
			return replyOrFail(bot, message.Chat.ID, parseErr)
		}
		report, err = h.svc.SetBudget(ctx, member, amount)
	}
	if err != nil {
		return replyOrFail(bot, message.Chat.ID, err)
	}

	return sendHTML(bot, message.Chat.ID, format.Budget(report.Ceiling, report.Spent, report.Remaining), nil)
}

// ---------------------------------------------------------------------------
// ItemCallbacks – st, del, cat, it
// ---------------------------------------------------------------------------

// ItemCallbacks handles the buttons on lists and item cards.
type ItemCallbacks struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewItemCallbacks creates a new ItemCallbacks.
func NewItemCallbacks(svc *service.Service, logger *logrus.Logger) *ItemCallbacks {
	return &ItemCallbacks{svc: svc, logger: logger}
}

// Kinds lists the actions ItemCallbacks handles.
func (h *ItemCallbacks) Kinds() []telegram.ActionKind {
	return []telegram.ActionKind{
		telegram.ActionToggleStatus,
		telegram.ActionDelete,
		telegram.ActionShowCategory,
		telegram.ActionShowItem,
	}
}

// HandleCallback processes one button press.
func (h *ItemCallbacks) HandleCallback(ctx context.Context, bot telegram.Sender, member *models.Member, query *tgbotapi.CallbackQuery, action telegram.Action) (string, error) {
	var (
		toast string
		err   error
	)
	switch action.Kind {
	case telegram.ActionToggleStatus:
		toast, err = h.toggle(ctx, bot, member, query, action.ItemID)
	case telegram.ActionDelete:
		toast, err = h.remove(ctx, bot, member, query, action.ItemID)
	case telegram.ActionShowCategory:
		err = h.showCategory(ctx, bot, member, query, action.CategoryID)
	case telegram.ActionShowItem:
		err = h.showItem(ctx, bot, member, query, action.ItemID)
	}
	if err != nil {
		if text, ok := toastText(err); ok {
			return text, nil
		}
		return "", err
	}
	return toast, nil
}

func (h *ItemCallbacks) toggle(ctx context.Context, bot telegram.Sender, member *models.Member, query *tgbotapi.CallbackQuery, itemID int64) (string, error) {
	item, err := h.svc.ToggleStatus(ctx, member, itemID)
	if err != nil {
		return "", err
	}
	if err := h.refreshCard(ctx, bot, member, query, item); err != nil {
		return "", err
	}
	if item.IsDone() {
		return "Отмечено как купленное", nil
	}
	return "Возвращено в список", nil
}

func (h *ItemCallbacks) remove(ctx context.Context, bot telegram.Sender, member *models.Member, query *tgbotapi.CallbackQuery, itemID int64) (string, error) {
	item, err := h.svc.DeleteItem(ctx, member, itemID)
	if err != nil {
		return "", err
	}
	text := fmt.Sprintf("🗑 <s>%s</s> удалено", format.Escape(item.Title))
	if err := editHTML(bot, query, text, nil); err != nil {
		return "", err
	}
	return "Удалено", nil
}

func (h *ItemCallbacks) showCategory(ctx context.Context, bot telegram.Sender, member *models.Member, query *tgbotapi.CallbackQuery, categoryID int64) error {
	list, err := h.svc.ItemsInCategory(ctx, member, categoryID)
	if err != nil {
		return err
	}
	text := format.ItemList(list.Title, list.Items, list.Categories)
	return sendHTML(bot, telegram.CallbackChatID(query), text, telegram.ItemButtons(list.Items))
}

func (h *ItemCallbacks) showItem(ctx context.Context, bot telegram.Sender, member *models.Member, query *tgbotapi.CallbackQuery, itemID int64) error {
	item, category, err := h.svc.Item(ctx, member, itemID)
	if err != nil {
		return err
	}
	images, err := h.svc.ItemImages(ctx, member, itemID)
	if err != nil {
		return err
	}

	chatID := telegram.CallbackChatID(query)
	markup := telegram.ItemActions(item)
	if len(images) == 0 {
		return sendHTML(bot, chatID, format.ItemCard(item, category), &markup)
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(images[0].FileID))
	photo.Caption = format.ItemCard(item, category)
	photo.ParseMode = tgbotapi.ModeHTML
	photo.ReplyMarkup = markup
	if _, err := bot.Send(photo); err != nil {
		return fmt.Errorf("failed to send item photo: %w", err)
	}
	return nil
}

// refreshCard redraws the item card the button was pressed on.
func (h *ItemCallbacks) refreshCard(ctx context.Context, bot telegram.Sender, member *models.Member, query *tgbotapi.CallbackQuery, item *models.Item) error {
	_, category, err := h.svc.Item(ctx, member, item.ID)
	if err != nil {
		return err
	}
	markup := telegram.ItemActions(item)
	return editHTML(bot, query, format.ItemCard(item, category), &markup)
}
