package telegram

import (
	"context"
	"runtime/debug"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/metrics"
	"github.com/Kerhoff/wishbot/internal/models"
)

const (
	genericFailureText = "❌ Что-то пошло не так. Попробуйте ещё раз."
	unknownCommandText = "❓ Неизвестная команда. Список команд: /help"
)

// MemberResolver maps a Telegram user to a member, creating it on first
// contact.
type MemberResolver interface {
	ResolveMember(ctx context.Context, telegramID int64, username, firstName, lastName string) (*models.Member, error)
}

// CommandHandler defines the interface for command handlers
type CommandHandler interface {
	Handle(ctx context.Context, bot Sender, member *models.Member, message *tgbotapi.Message, args []string) error
}

// CallbackHandler handles decoded button presses. The returned text is shown
// as the callback toast.
type CallbackHandler interface {
	HandleCallback(ctx context.Context, bot Sender, member *models.Member, query *tgbotapi.CallbackQuery, action Action) (string, error)
}

// InputHandler receives free text and photos that are not commands.
type InputHandler interface {
	HandleInput(ctx context.Context, bot Sender, member *models.Member, message *tgbotapi.Message) error
}

// Router handles update routing and command parsing
type Router struct {
	logger    *logrus.Logger
	members   MemberResolver
	commands  map[string]CommandHandler
	callbacks map[ActionKind]CallbackHandler
	input     InputHandler
}

// NewRouter creates a new update router
func NewRouter(logger *logrus.Logger, members MemberResolver) *Router {
	return &Router{
		logger:    logger,
		members:   members,
		commands:  make(map[string]CommandHandler),
		callbacks: make(map[ActionKind]CallbackHandler),
	}
}

// RegisterCommand registers a command handler
func (r *Router) RegisterCommand(command string, handler CommandHandler) {
	r.commands[command] = handler
	r.logger.Debugf("Registered command: %s", command)
}

// RegisterCallback registers a handler for one or more action kinds
func (r *Router) RegisterCallback(handler CallbackHandler, kinds ...ActionKind) {
	for _, k := range kinds {
		r.callbacks[k] = handler
		r.logger.Debugf("Registered callback: %s", k)
	}
}

// SetInputHandler sets the handler for non-command messages
func (r *Router) SetInputHandler(handler InputHandler) {
	r.input = handler
}

// HandleUpdate dispatches one update: button presses first, then slash
// commands, then anything else as wizard input. It never panics and never
// returns an error; failures are logged and reported to the user.
func (r *Router) HandleUpdate(ctx context.Context, bot Sender, update tgbotapi.Update) {
	bot = Bind(ctx, bot)
	log := r.logger.WithFields(logrus.Fields{
		"rid":       uuid.NewString(),
		"update_id": update.UpdateID,
	})

	defer func() {
		if p := recover(); p != nil {
			metrics.HandlerErrors.WithLabelValues("panic").Inc()
			log.WithField("stack", string(debug.Stack())).Errorf("Panic in update handler: %v", p)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		r.handleCallback(ctx, bot, log, update.CallbackQuery)
	case update.Message != nil:
		r.handleMessage(ctx, bot, log, update.Message)
	default:
		metrics.Updates.WithLabelValues("ignored").Inc()
	}
}

func (r *Router) resolve(ctx context.Context, from *tgbotapi.User) (*models.Member, error) {
	return r.members.ResolveMember(ctx, from.ID, from.UserName, from.FirstName, from.LastName)
}

func (r *Router) handleMessage(ctx context.Context, bot Sender, log *logrus.Entry, message *tgbotapi.Message) {
	if message.From == nil || message.Chat == nil {
		metrics.Updates.WithLabelValues("ignored").Inc()
		return
	}
	log = log.WithFields(logrus.Fields{
		"chat_id":    message.Chat.ID,
		"user_id":    message.From.ID,
		"message_id": message.MessageID,
	})

	member, err := r.resolve(ctx, message.From)
	if err != nil {
		metrics.HandlerErrors.WithLabelValues("resolve_member").Inc()
		log.WithError(err).Error("Failed to resolve member")
		r.reply(bot, log, message.Chat.ID, genericFailureText)
		return
	}

	command, args, ok := ParseCommand(message)
	if !ok {
		metrics.Updates.WithLabelValues("input").Inc()
		if r.input == nil {
			return
		}
		if err := r.input.HandleInput(ctx, bot, member, message); err != nil {
			metrics.HandlerErrors.WithLabelValues("input").Inc()
			log.WithError(err).Error("Input handler failed")
			r.reply(bot, log, message.Chat.ID, genericFailureText)
		}
		return
	}

	metrics.Updates.WithLabelValues("command").Inc()
	log = log.WithField("command", command)
	log.Info("Received command")

	handler, exists := r.commands[command]
	if !exists {
		log.Warn("Unknown command")
		r.reply(bot, log, message.Chat.ID, unknownCommandText)
		return
	}

	if err := handler.Handle(ctx, bot, member, message, args); err != nil {
		metrics.HandlerErrors.WithLabelValues(command).Inc()
		log.WithError(err).Error("Command handler failed")
		r.reply(bot, log, message.Chat.ID, genericFailureText)
	}
}

func (r *Router) handleCallback(ctx context.Context, bot Sender, log *logrus.Entry, query *tgbotapi.CallbackQuery) {
	metrics.Updates.WithLabelValues("callback").Inc()
	if query.From == nil {
		r.answer(bot, log, query.ID, "")
		return
	}
	log = log.WithFields(logrus.Fields{
		"callback_id": query.ID,
		"user_id":     query.From.ID,
		"data":        query.Data,
	})

	action, err := ParseAction(query.Data)
	if err != nil {
		log.Debug("Ignoring malformed callback")
		r.answer(bot, log, query.ID, "")
		return
	}
	log = log.WithField("action", action.Kind)

	handler, exists := r.callbacks[action.Kind]
	if !exists {
		log.Warn("No handler for callback action")
		r.answer(bot, log, query.ID, "")
		return
	}

	member, err := r.resolve(ctx, query.From)
	if err != nil {
		metrics.HandlerErrors.WithLabelValues("resolve_member").Inc()
		log.WithError(err).Error("Failed to resolve member")
		r.answer(bot, log, query.ID, genericFailureText)
		return
	}

	toast, err := handler.HandleCallback(ctx, bot, member, query, action)
	if err != nil {
		metrics.HandlerErrors.WithLabelValues(string(action.Kind)).Inc()
		log.WithError(err).Error("Callback handler failed")
		toast = genericFailureText
	}
	r.answer(bot, log, query.ID, toast)
}

func (r *Router) reply(bot Sender, log *logrus.Entry, chatID int64, text string) {
	if _, err := bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.WithError(err).Warn("Failed to send reply")
	}
}

func (r *Router) answer(bot Sender, log *logrus.Entry, callbackID, text string) {
	if _, err := bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		log.WithError(err).Warn("Failed to answer callback")
	}
}

// ParseCommand extracts a slash command from the message text or photo
// caption. The command is lower-cased with any @botname suffix removed. Any
// text starting with "/" is reported as a command, possibly with an empty
// name.
func ParseCommand(message *tgbotapi.Message) (command string, args []string, ok bool) {
	text := strings.TrimSpace(messageText(message))
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}

	// "/" alone or followed by a space still counts as a command, with an
	// empty name, so it never reaches wizard input.
	fields := strings.Fields(text)
	command = strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(command, '@'); at >= 0 {
		command = command[:at]
	}
	return strings.ToLower(command), fields[1:], true
}

// CommandText returns everything after the command token, untouched apart
// from surrounding whitespace.
func CommandText(message *tgbotapi.Message) string {
	text := strings.TrimSpace(messageText(message))
	if i := strings.IndexFunc(text, isSpace); i >= 0 {
		return strings.TrimSpace(text[i:])
	}
	return ""
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t'
}

func messageText(message *tgbotapi.Message) string {
	if message.Text != "" {
		return message.Text
	}
	return message.Caption
}

// LargestPhoto returns the file ID of the best resolution photo in the
// message, or "".
func LargestPhoto(message *tgbotapi.Message) string {
	if len(message.Photo) == 0 {
		return ""
	}
	best := message.Photo[0]
	for _, p := range message.Photo[1:] {
		if p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}
	return best.FileID
}

// CallbackChatID returns the chat a callback came from, falling back to the
// user's private chat.
func CallbackChatID(query *tgbotapi.CallbackQuery) int64 {
	if query.Message != nil && query.Message.Chat != nil {
		return query.Message.Chat.ID
	}
	return query.From.ID
}
