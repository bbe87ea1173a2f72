package handlers_test

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/Kerhoff/wishbot/internal/format"
	"github.com/Kerhoff/wishbot/internal/handlers"
	"github.com/Kerhoff/wishbot/internal/models"
	"github.com/Kerhoff/wishbot/internal/repository"
	"github.com/Kerhoff/wishbot/internal/repository/sqlstore"
	"github.com/Kerhoff/wishbot/internal/repository/sqlstore/sqlstoretest"
	"github.com/Kerhoff/wishbot/internal/service"
	"github.com/Kerhoff/wishbot/internal/telegram"
	"github.com/Kerhoff/wishbot/internal/telegram/telegramtest"
	"github.com/Kerhoff/wishbot/pkg/logger"
)

const (
	ann int64 = 100
	bob int64 = 200
)

var (
	inviteCodeRe = regexp.MustCompile(`<code>([A-Z0-9]{6})</code>`)
	names        = map[int64]string{ann: "Ann", bob: "Bob"}
)

type harness struct {
	t      *testing.T
	store  *sqlstore.Store
	bot    *telegramtest.Sender
	router *telegram.Router
	nextID int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := sqlstoretest.Open(t)
	bot := telegramtest.NewSender()
	log := logger.Discard()

	svc := service.New(store, telegram.NewNotifier(bot), log)
	router := telegram.NewRouter(log, svc)
	handlers.Register(router, svc, log)

	return &harness{t: t, store: store, bot: bot, router: router}
}

func (h *harness) user(id int64) *tgbotapi.User {
	return &tgbotapi.User{ID: id, FirstName: names[id]}
}

func (h *harness) say(from int64, text string) {
	h.nextID++
	h.router.HandleUpdate(context.Background(), h.bot, tgbotapi.Update{
		UpdateID: h.nextID,
		Message: &tgbotapi.Message{
			MessageID: h.nextID,
			From:      h.user(from),
			Chat:      &tgbotapi.Chat{ID: from, Type: "private"},
			Text:      text,
		},
	})
}

func (h *harness) sendPhoto(from int64, caption, fileID string) {
	h.nextID++
	h.router.HandleUpdate(context.Background(), h.bot, tgbotapi.Update{
		UpdateID: h.nextID,
		Message: &tgbotapi.Message{
			MessageID: h.nextID,
			From:      h.user(from),
			Chat:      &tgbotapi.Chat{ID: from, Type: "private"},
			Caption:   caption,
			Photo:     []tgbotapi.PhotoSize{{FileID: fileID, Width: 640, Height: 480}},
		},
	})
}

func (h *harness) press(from int64, data string) {
	h.nextID++
	h.router.HandleUpdate(context.Background(), h.bot, tgbotapi.Update{
		UpdateID: h.nextID,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb",
			From:    h.user(from),
			Message: &tgbotapi.Message{MessageID: h.nextID, Chat: &tgbotapi.Chat{ID: from}},
			Data:    data,
		},
	})
}

func (h *harness) lastText(chatID int64) string {
	h.t.Helper()
	texts := h.bot.Texts(chatID)
	if len(texts) == 0 {
		h.t.Fatalf("nothing was sent to chat %d", chatID)
	}
	return texts[len(texts)-1]
}

func (h *harness) lastToast() string {
	h.t.Helper()
	toasts := h.bot.Toasts()
	if len(toasts) == 0 {
		h.t.Fatal("no callback was answered")
	}
	return toasts[len(toasts)-1]
}

// button returns the callback data of the button labelled label on the last
// message sent to chatID.
func (h *harness) button(chatID int64, label string) string {
	h.t.Helper()

	var markup *tgbotapi.InlineKeyboardMarkup
	switch m := h.bot.Last(chatID).(type) {
	case tgbotapi.MessageConfig:
		if kb, ok := m.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); ok {
			markup = &kb
		}
	case tgbotapi.EditMessageTextConfig:
		markup = m.ReplyMarkup
	case tgbotapi.PhotoConfig:
		if kb, ok := m.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); ok {
			markup = &kb
		}
	}
	if markup == nil {
		h.t.Fatalf("last message to %d has no keyboard", chatID)
	}

	for _, row := range markup.InlineKeyboard {
		for _, b := range row {
			if b.Text == label && b.CallbackData != nil {
				return *b.CallbackData
			}
		}
	}
	h.t.Fatalf("no button %q on last message to %d", label, chatID)
	return ""
}

func (h *harness) member(telegramID int64) *models.Member {
	h.t.Helper()
	m, err := h.store.Members().GetByTelegramID(context.Background(), telegramID)
	if err != nil || m == nil {
		h.t.Fatalf("member %d not found: %v", telegramID, err)
	}
	return m
}

func (h *harness) items(telegramID int64, statuses ...models.ItemStatus) []*models.Item {
	h.t.Helper()
	m := h.member(telegramID)
	if m.HouseholdID == nil {
		h.t.Fatalf("member %d has no household", telegramID)
	}
	items, err := h.store.Items().List(context.Background(), repository.ItemFilters{
		HouseholdID: *m.HouseholdID,
		Statuses:    statuses,
	})
	if err != nil {
		h.t.Fatal("Failed to list items:", err)
	}
	return items
}

func (h *harness) draft(telegramID int64) *models.Draft {
	h.t.Helper()
	d, err := h.store.Drafts().GetByMember(context.Background(), h.member(telegramID).ID)
	if err != nil {
		h.t.Fatal("Failed to get draft:", err)
	}
	return d
}

// pair creates Ann's household and lets Bob join it.
func (h *harness) pair() {
	h.t.Helper()
	h.say(ann, "/create_household Дом")
	match := inviteCodeRe.FindStringSubmatch(h.lastText(ann))
	if match == nil {
		h.t.Fatalf("no invite code in %q", h.lastText(ann))
	}
	h.say(bob, "/join_household "+strings.ToLower(match[1]))
	if !strings.Contains(h.lastText(bob), "Вы присоединились") {
		h.t.Fatalf("join failed: %q", h.lastText(bob))
	}
	h.bot.Reset()
}

func TestStartWithoutHousehold(t *testing.T) {
	h := newHarness(t)

	h.say(ann, "/start")
	if !strings.Contains(h.lastText(ann), "/create_household") {
		t.Errorf("expected onboarding, got %q", h.lastText(ann))
	}

	h.say(ann, "/add")
	if !strings.Contains(h.lastText(ann), "Сначала создайте семью") {
		t.Errorf("expected household hint, got %q", h.lastText(ann))
	}
}

func TestPairingNotifiesOwner(t *testing.T) {
	h := newHarness(t)

	h.say(ann, "/create_household Дом")
	code := inviteCodeRe.FindStringSubmatch(h.lastText(ann))[1]

	h.say(bob, "/join_household WRONG1")
	if !strings.Contains(h.lastText(bob), "не найден") {
		t.Errorf("expected invalid code reply, got %q", h.lastText(bob))
	}
	if h.member(bob).HouseholdID != nil {
		t.Fatal("wrong code attached the member")
	}

	h.say(bob, "/join_household "+code)
	if !strings.Contains(h.lastText(ann), "Bob присоединился") {
		t.Errorf("owner not told about the join, got %q", h.lastText(ann))
	}

	h.say(bob, "/start")
	if !strings.Contains(h.lastText(bob), "Вместе с вами: Ann") {
		t.Errorf("start does not list co-members: %q", h.lastText(bob))
	}

	h.say(bob, "/create_household Другой")
	if !strings.Contains(h.lastText(bob), "уже состоите") {
		t.Errorf("expected already-in-household reply, got %q", h.lastText(bob))
	}
}

func TestWizardEndToEnd(t *testing.T) {
	h := newHarness(t)
	h.pair()

	h.say(ann, "/add")
	if !strings.Contains(h.lastText(ann), "Что хотите добавить") {
		t.Fatalf("no title prompt: %q", h.lastText(ann))
	}

	h.say(ann, "   ")
	if !strings.Contains(h.lastText(ann), "не может быть пустым") {
		t.Errorf("blank title not rejected: %q", h.lastText(ann))
	}
	if d := h.draft(ann); d == nil || d.Stage != models.DraftStageAwaitingTitle {
		t.Fatalf("blank title moved the draft: %+v", d)
	}

	h.say(ann, "Кроссовки")
	if !strings.Contains(h.lastText(ann), "В какую категорию") {
		t.Fatalf("no category prompt: %q", h.lastText(ann))
	}

	h.press(ann, h.button(ann, "Вещи"))
	if h.lastToast() != "Вещи" {
		t.Errorf("unexpected toast %q", h.lastToast())
	}
	if !strings.Contains(h.lastText(ann), "Сколько стоит") {
		t.Fatalf("no price prompt: %q", h.lastText(ann))
	}

	h.say(ann, "abc")
	if !strings.Contains(h.lastText(ann), "Не понял сумму") {
		t.Errorf("bad price not rejected: %q", h.lastText(ann))
	}
	if d := h.draft(ann); d == nil || d.Stage != models.DraftStageAwaitingPrice {
		t.Fatalf("bad price moved the draft: %+v", d)
	}

	h.say(ann, "1 500")
	if !strings.Contains(h.lastText(ann), "Сохранено") {
		t.Fatalf("price not confirmed: %q", h.lastText(ann))
	}
	if h.draft(ann) != nil {
		t.Error("draft not consumed")
	}

	items := h.items(ann)
	if len(items) != 1 {
		t.Fatalf("expected one item, got %d", len(items))
	}
	item := items[0]
	if item.Title != "Кроссовки" || !item.Price.Equal(decimal.NewFromInt(1500)) || item.Status != models.ItemStatusActive || item.CategoryID == nil {
		t.Errorf("unexpected item %+v", item)
	}

	bobTexts := h.bot.Texts(bob)
	if len(bobTexts) != 2 {
		t.Fatalf("co-member should get two notices, got %q", bobTexts)
	}
	if !strings.Contains(bobTexts[0], "добавил(а) желание") || !strings.Contains(bobTexts[1], "0 ₴ → 1 500 ₴") {
		t.Errorf("unexpected notices %q", bobTexts)
	}
	if len(h.bot.Texts(ann)) == 0 {
		t.Fatal("actor got no replies")
	}

	h.say(ann, "Ещё одно")
	h.say(bob, "/list")
	list := h.lastText(bob)
	if !strings.Contains(list, "Кроссовки · 1 500 ₴") || strings.Contains(list, "Ещё одно") {
		t.Errorf("unexpected list %q", list)
	}
}

func TestCommandDuringWizardIsNotAnAnswer(t *testing.T) {
	h := newHarness(t)
	h.pair()

	h.say(ann, "/add")
	h.say(ann, "/list")
	if !strings.Contains(h.lastText(ann), "Список желаний") {
		t.Fatalf("command not dispatched mid-wizard: %q", h.lastText(ann))
	}
	if d := h.draft(ann); d == nil || d.Stage != models.DraftStageAwaitingTitle {
		t.Fatalf("command changed the draft: %+v", d)
	}
	if len(h.items(ann)) != 0 {
		t.Fatal("command text became an item")
	}

	h.say(ann, "/cancel")
	if h.draft(ann) != nil {
		t.Error("draft survived /cancel")
	}
	h.say(ann, "/cancel")
	if h.lastText(ann) != "Нечего отменять." {
		t.Errorf("unexpected reply %q", h.lastText(ann))
	}
}

func TestBareSlashDuringWizardIsNotATitle(t *testing.T) {
	h := newHarness(t)
	h.pair()

	h.say(ann, "/add")
	h.say(ann, "/ oops")
	if len(h.items(ann)) != 0 {
		t.Fatalf("slash text became an item: %+v", h.items(ann))
	}
	if d := h.draft(ann); d == nil || d.Stage != models.DraftStageAwaitingTitle {
		t.Fatalf("slash text advanced the draft: %+v", d)
	}
	if !strings.Contains(h.lastText(ann), "/help") {
		t.Errorf("expected the unknown command hint, got %q", h.lastText(ann))
	}
}

func TestFreeTextWithoutDraftIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.pair()

	h.say(ann, "просто сообщение")
	if texts := h.bot.Texts(ann); len(texts) != 0 {
		t.Errorf("expected silence, got %q", texts)
	}
}

func TestCategoryStageRepeatsPicker(t *testing.T) {
	h := newHarness(t)
	h.pair()

	h.say(ann, "/add")
	h.say(ann, "Лампа")
	h.say(ann, "Дом")
	if !strings.Contains(h.lastText(ann), "Выберите категорию кнопкой") {
		t.Fatalf("picker not repeated: %q", h.lastText(ann))
	}
	if d := h.draft(ann); d == nil || d.Stage != models.DraftStageAwaitingCategory {
		t.Fatalf("text moved the draft: %+v", d)
	}
}

func TestDuplicateButtonPresses(t *testing.T) {
	h := newHarness(t)
	h.pair()

	h.say(ann, "/add")
	h.say(ann, "Книга")
	pick := h.button(ann, "Хобби")

	h.press(ann, pick)
	h.press(ann, pick)
	if h.lastToast() != "Хобби" {
		t.Errorf("replayed press should be acknowledged, got %q", h.lastToast())
	}
	if n := len(h.bot.Texts(bob)); n != 1 {
		t.Errorf("replay must not notify again, got %d notices", n)
	}

	price := h.button(ann, "1 000 ₴")
	h.press(ann, price)
	h.press(ann, price)
	if h.lastToast() != "Уже сохранено" {
		t.Errorf("replayed price press should be acknowledged, got %q", h.lastToast())
	}
	if n := len(h.bot.Texts(bob)); n != 2 {
		t.Errorf("expected one price notice, got %d notices", n)
	}

	h.press(ann, strings.Replace(pick, ":", ":9", 1))
	if h.lastToast() != "⌛ Эта кнопка уже неактуальна." {
		t.Errorf("stale press toast %q", h.lastToast())
	}
}

func TestFailedEditStillConfirmsTheAction(t *testing.T) {
	h := newHarness(t)
	h.pair()

	h.say(ann, "/add")
	h.say(ann, "Палатка")
	category := h.button(ann, "Путешествия")
	h.bot.FailEdits()

	h.press(ann, category)
	if h.lastToast() != "Путешествия" {
		t.Fatalf("expected the category toast, got %q", h.lastToast())
	}
	if d := h.draft(ann); d == nil || d.Stage != models.DraftStageAwaitingPrice {
		t.Fatalf("category was not applied: %+v", d)
	}

	item := h.items(ann)[0]
	h.press(ann, "pp:"+strconv.FormatInt(item.ID, 10)+":1000")
	if h.lastToast() != "Сохранено" {
		t.Fatalf("expected the saved toast, got %q", h.lastToast())
	}
	if h.draft(ann) != nil {
		t.Error("draft should be finished")
	}
	if got := h.items(ann)[0].Price; !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("price = %s, want 1000", got)
	}
}

func TestSkipPriceDoesNotNotify(t *testing.T) {
	h := newHarness(t)
	h.pair()

	h.say(ann, "/add")
	h.say(ann, "Плед")
	h.press(ann, h.button(ann, "Без категории"))
	h.press(ann, h.button(ann, "Пропустить"))

	if n := len(h.bot.Texts(bob)); n != 1 {
		t.Errorf("expected only the new item notice, got %d", n)
	}
	items := h.items(ann)
	if len(items) != 1 || items[0].CategoryID != nil || !items[0].Price.IsZero() {
		t.Errorf("unexpected items %+v", items)
	}
}

func TestManualPriceButton(t *testing.T) {
	h := newHarness(t)
	h.pair()

	h.say(ann, "/add")
	h.say(ann, "Чайник")
	h.press(ann, h.button(ann, "Дом"))
	h.press(ann, h.button(ann, "✏️ Своя сумма"))
	if !strings.Contains(h.lastText(ann), "Напишите сумму") {
		t.Fatalf("no manual price prompt: %q", h.lastText(ann))
	}
	h.say(ann, "799,90 грн")

	items := h.items(ann)
	if len(items) != 1 || !items[0].Price.Equal(decimal.RequireFromString("799.9")) {
		t.Errorf("unexpected items %+v", items)
	}
}

func TestQuickAddWithPhotoAndItemCard(t *testing.T) {
	h := newHarness(t)
	h.pair()

	h.sendPhoto(ann, "/add Картина", "photo-1")
	if !strings.Contains(h.lastText(ann), "Добавлено") {
		t.Fatalf("quick add not confirmed: %q", h.lastText(ann))
	}
	if !strings.Contains(h.lastText(bob), "Картина") {
		t.Errorf("co-member not notified: %q", h.lastText(bob))
	}

	items := h.items(ann)
	if len(items) != 1 {
		t.Fatalf("expected one item, got %d", len(items))
	}
	images, err := h.store.Images().ListByItem(context.Background(), items[0].ID)
	if err != nil || len(images) != 1 || images[0].FileID != "photo-1" {
		t.Fatalf("photo not attached: %v %+v", err, images)
	}

	h.say(bob, "/list")
	h.press(bob, h.button(bob, "Картина"))
	photo, ok := h.bot.Last(bob).(tgbotapi.PhotoConfig)
	if !ok {
		t.Fatalf("item card should be a photo, got %T", h.bot.Last(bob))
	}
	if !strings.Contains(photo.Caption, "Картина") {
		t.Errorf("unexpected caption %q", photo.Caption)
	}
}

func TestToggleAndDelete(t *testing.T) {
	h := newHarness(t)
	h.pair()

	h.say(ann, "/add Зонт")
	id := h.items(ann)[0].ID

	h.press(ann, h.button(ann, "✅ Куплено"))
	if h.lastToast() != "Отмечено как купленное" {
		t.Errorf("unexpected toast %q", h.lastToast())
	}
	h.press(ann, h.button(ann, "↩️ Вернуть в список"))
	if items := h.items(ann); items[0].Status != models.ItemStatusActive {
		t.Errorf("double toggle should restore active, got %s", items[0].Status)
	}

	bobBefore := len(h.bot.Texts(bob))
	h.press(ann, h.button(ann, "🗑 Удалить"))
	if len(h.bot.Texts(bob)) != bobBefore {
		t.Error("toggle or delete must not notify")
	}

	h.say(ann, "/list")
	if strings.Contains(h.lastText(ann), "Зонт") {
		t.Errorf("deleted item listed: %q", h.lastText(ann))
	}
	stored, err := h.store.Items().GetByID(context.Background(), id)
	if err != nil || stored == nil || stored.Status != models.ItemStatusDeleted {
		t.Fatalf("item should be soft-deleted: %v %+v", err, stored)
	}

	h.press(ann, "st:"+strconv.FormatInt(id, 10))
	if h.lastToast() != "🗑 Это желание уже удалено." {
		t.Errorf("unexpected toast %q", h.lastToast())
	}
}

func TestSetPriceAndBudget(t *testing.T) {
	h := newHarness(t)
	h.pair()

	h.say(ann, "/budget 10 000")
	h.say(ann, "/add Кресло")
	h.say(ann, "/add Стол")
	h.say(ann, "/add Старый шкаф")

	items := h.items(ann)
	h.say(ann, "/setprice "+strconv.FormatInt(items[0].ID, 10)+" 1500")
	if !strings.Contains(h.lastText(ann), "0 ₴ → 1 500 ₴") {
		t.Errorf("unexpected setprice reply %q", h.lastText(ann))
	}
	if !strings.Contains(h.lastText(bob), "изменил(а) цену") {
		t.Errorf("price change not announced: %q", h.lastText(bob))
	}
	h.say(ann, "/setprice #"+strconv.FormatInt(items[1].ID, 10)+" 2 000")
	h.say(ann, "/setprice "+strconv.FormatInt(items[2].ID, 10)+" 700")
	h.press(ann, "st:"+strconv.FormatInt(items[2].ID, 10))

	h.say(bob, "/budget")
	report := h.lastText(bob)
	for _, want := range []string{"Лимит: 10 000 ₴", "Желания: 3 500 ₴", "Остаток: 6 500 ₴"} {
		if !strings.Contains(report, want) {
			t.Errorf("budget report %q lacks %q", report, want)
		}
	}

	h.say(ann, "/setprice 1")
	if !strings.Contains(h.lastText(ann), "Использование") {
		t.Errorf("expected usage, got %q", h.lastText(ann))
	}
	h.say(ann, "/setprice 99999 100")
	if h.lastText(ann) != "❌ Желание не найдено." {
		t.Errorf("unexpected reply %q", h.lastText(ann))
	}
}

func TestListFiltersAndCategories(t *testing.T) {
	h := newHarness(t)
	h.pair()

	h.say(ann, "/categories")
	if !strings.Contains(h.lastText(ann), "Путешествия") {
		t.Fatalf("categories not listed: %q", h.lastText(ann))
	}

	h.say(ann, "/add")
	h.say(ann, "Билеты")
	h.press(ann, h.button(ann, "Путешествия"))
	h.press(ann, h.button(ann, "Пропустить"))

	h.say(ann, "/list travel")
	if !strings.Contains(h.lastText(ann), "Билеты") {
		t.Errorf("category filter missed the item: %q", h.lastText(ann))
	}
	h.say(ann, "/list done")
	if strings.Contains(h.lastText(ann), "Билеты") {
		t.Errorf("done filter shows an active item: %q", h.lastText(ann))
	}
	h.say(ann, "/list nonsense")
	if !strings.Contains(h.lastText(ann), "Неизвестный фильтр") {
		t.Errorf("unexpected reply %q", h.lastText(ann))
	}

	h.say(ann, "/categories")
	h.press(ann, h.button(ann, "Путешествия"))
	if !strings.Contains(h.lastText(ann), "Билеты") {
		t.Errorf("category browser missed the item: %q", h.lastText(ann))
	}
}

func TestLongListStaysWithinMessageLimit(t *testing.T) {
	h := newHarness(t)
	h.pair()

	for i := 0; i < 60; i++ {
		h.say(ann, "/add "+strings.Repeat("ж", 120)+strconv.Itoa(i))
	}
	if n := len(h.items(ann)); n != 60 {
		t.Fatalf("expected 60 items, got %d", n)
	}

	h.say(ann, "/list")
	out := h.lastText(ann)
	if n := utf8.RuneCountInString(out); n > format.MaxMessageLength {
		t.Fatalf("/list reply is %d characters long", n)
	}
	if !strings.Contains(out, "…и ещё") {
		t.Errorf("expected a footer for hidden items")
	}
}

func TestEditPriceFromCard(t *testing.T) {
	h := newHarness(t)
	h.pair()

	h.say(ann, "/add Наушники")
	h.press(ann, h.button(ann, "💰 Цена"))
	if d := h.draft(ann); d == nil || d.Stage != models.DraftStageAwaitingPrice {
		t.Fatalf("price edit did not open a draft: %+v", d)
	}
	h.press(ann, h.button(ann, "2 000 ₴"))

	if items := h.items(ann); !items[0].Price.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("price not saved: %s", items[0].Price)
	}
	if h.draft(ann) != nil {
		t.Error("draft not consumed")
	}
}

func TestBlockedCoMemberDoesNotBreakTheFlow(t *testing.T) {
	h := newHarness(t)
	h.pair()
	h.bot.FailFor(bob)

	h.say(ann, "/add Велосипед")
	if !strings.Contains(h.lastText(ann), "Добавлено") {
		t.Fatalf("actor reply lost: %q", h.lastText(ann))
	}
	if len(h.items(ann)) != 1 {
		t.Fatal("item not kept after failed notification")
	}
}
