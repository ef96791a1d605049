package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/patrickmn/go-cache"

	"figaro-tab/internal/model"
	"figaro-tab/internal/repository"
	"figaro-tab/internal/service"
)

type pendingInput int

const (
	pendingNone pendingInput = iota
	pendingComboName
	pendingToken
)

const conversationTTL = 10 * time.Minute

const (
	cbCategoryPrefix    = "cat:"
	cbComboPrefix       = "combo:"
	cbDeleteComboPrefix = "delcombo:"
	cbDockPrefix        = "dock:"
)

const (
	menuLabelSounds     = "🎧 Sounds"
	menuLabelCategories = "🗂 Categories"
	menuLabelStatus     = "📊 Status"
	menuLabelHelp       = "ℹ️ Help"
	btnCancelDialog     = "⏪ Cancel"
)

// sender is the part of the Telegram client handlers talk to.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Services groups what the bot drives.
type Services struct {
	Users  *repository.UserRepository
	Sounds *service.SoundscapeService
	Figaro *service.FigaroService
	Dock   *service.DockService
	Digest *service.DigestService
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api     sender
	updates *tgbotapi.BotAPI
	svc     Services
	logger  *log.Logger
	now     func() time.Time

	// conversations holds the pending free-text input per user.
	conversations *cache.Cache
}

func New(token string, svc Services, logger *log.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	b := newBot(api, svc, logger)
	b.updates = api
	b.logger.Info("bot authorized", "account", api.Self.UserName)
	return b, nil
}

func newBot(api sender, svc Services, logger *log.Logger) *Bot {
	if logger == nil {
		logger = log.Default()
	}
	return &Bot{
		api:           api,
		svc:           svc,
		logger:        logger.With("component", "bot"),
		now:           time.Now,
		conversations: cache.New(conversationTTL, 2*conversationTTL),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.updates == nil {
		return errors.New("bot has no update source")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.updates.GetUpdatesChan(updateConfig)

	b.logger.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.updates.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.logger.Error("handle callback", "err", err)
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.logger.Error("handle message", "err", err)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && strings.TrimSpace(msg.Text) == btnCancelDialog {
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	}

	if msg.IsCommand() {
		// Login arguments are secrets.
		args := msg.CommandArguments()
		if msg.Command() == "login" && args != "" {
			args = "***"
		}
		b.logger.Info("command", "user", msg.From.ID, "cmd", msg.Command(), "args", args)
		return b.handleCommand(ctx, msg)
	}

	if pending := b.getConversation(msg.From.ID); pending != pendingNone {
		return b.handleConversation(ctx, msg, pending)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Try /sounds, /status or /help.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.sendText(msg.Chat.ID, helpText)
	case "sounds":
		return b.handleSounds(ctx, msg)
	case "categories":
		return b.handleCategories(msg)
	case "play":
		return b.handlePlay(ctx, msg)
	case "random":
		return b.handleRandom(ctx, msg)
	case "toggle":
		return b.handleToggle(ctx, msg)
	case "stop":
		return b.handleStop(ctx, msg)
	case "typing":
		return b.handleTyping(ctx, msg)
	case "volume":
		return b.handleVolume(ctx, msg)
	case "master":
		return b.handleMaster(ctx, msg)
	case "pause":
		return b.handlePause(ctx, msg)
	case "resume":
		return b.handleResume(ctx, msg)
	case "shuffle":
		return b.handleShuffle(ctx, msg)
	case "oscillate":
		return b.handleOscillate(ctx, msg)
	case "reset":
		return b.handleReset(ctx, msg)
	case "combos":
		return b.handleCombos(ctx, msg)
	case "savecombo":
		return b.handleSaveCombo(ctx, msg)
	case "playcombo":
		return b.handlePlayCombo(ctx, msg)
	case "deletecombo":
		return b.handleDeleteCombo(ctx, msg)
	case "share":
		return b.handleShare(ctx, msg)
	case "join":
		return b.handleJoin(ctx, msg)
	case "status":
		return b.handleStatus(ctx, msg)
	case "login":
		return b.handleLogin(ctx, msg)
	case "logout":
		return b.handleLogout(ctx, msg)
	case "sync":
		return b.handleSync(ctx, msg)
	case "lists":
		return b.handleLists(ctx, msg)
	case "reminders":
		return b.handleReminders(ctx, msg)
	case "briefing":
		return b.handleBriefing(ctx, msg)
	case "nutrition", "fitness", "people", "money":
		return b.handleDetail(ctx, msg, msg.Command())
	case "digest":
		return b.handleDigest(ctx, msg)
	case "dock":
		return b.handleDock(ctx, msg)
	case "widget":
		return b.handleWidget(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I mix ambient sounds and keep your Figaro day in view.</b>\n\n%s", escape(name), helpText)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(msg.Text) {
	case menuLabelSounds:
		return true, b.handleSounds(ctx, msg)
	case menuLabelCategories:
		return true, b.handleCategories(msg)
	case menuLabelStatus:
		return true, b.handleStatus(ctx, msg)
	case menuLabelHelp:
		return true, b.sendText(msg.Chat.ID, helpText)
	default:
		return false, nil
	}
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message, pending pendingInput) error {
	b.clearConversation(msg.From.ID)
	text := strings.TrimSpace(msg.Text)
	switch pending {
	case pendingComboName:
		return b.saveCombo(ctx, msg.Chat.ID, msg.From.ID, text)
	case pendingToken:
		b.deleteMessage(msg.Chat.ID, msg.MessageID)
		return b.login(ctx, msg.Chat.ID, msg.From.ID, text)
	default:
		return nil
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("callback ack", "err", err)
	}

	data := cb.Data
	chatID := cb.Message.Chat.ID
	b.logger.Info("callback", "user", cb.From.ID, "data", data)

	switch {
	case strings.HasPrefix(data, cbCategoryPrefix):
		return b.playCategory(ctx, chatID, cb.From.ID, strings.TrimPrefix(data, cbCategoryPrefix))
	case strings.HasPrefix(data, cbComboPrefix):
		return b.playCombo(ctx, chatID, cb.From.ID, strings.TrimPrefix(data, cbComboPrefix))
	case strings.HasPrefix(data, cbDeleteComboPrefix):
		return b.deleteCombo(ctx, chatID, cb.From.ID, strings.TrimPrefix(data, cbDeleteComboPrefix))
	case strings.HasPrefix(data, cbDockPrefix):
		return b.toggleWidget(ctx, chatID, cb.From.ID, strings.TrimPrefix(data, cbDockPrefix))
	default:
		return nil
	}
}

// SendDigests sends the daily Figaro digest to every user who wants it.
func (b *Bot) SendDigests(ctx context.Context) error {
	users, err := b.svc.Users.ListDigestRecipients(ctx)
	if err != nil {
		return err
	}
	now := b.now()
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		text, ok, err := b.svc.Digest.Summary(ctx, user, now)
		if err != nil {
			b.logger.Error("build digest", "user", user.TelegramID, "err", err)
			continue
		}
		if !ok {
			continue
		}
		if err := b.sendText(user.TelegramID, text); err != nil {
			b.logger.Error("send digest", "user", user.TelegramID, "err", err)
		}
	}
	return nil
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.svc.Users.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendWithReplyMarkup(chatID, text, mainMenuKeyboard())
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.logger.Warn("delete message", "err", err)
	}
}

func conversationKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func (b *Bot) setConversation(userID int64, p pendingInput) {
	b.conversations.SetDefault(conversationKey(userID), p)
}

func (b *Bot) getConversation(userID int64) pendingInput {
	if v, ok := b.conversations.Get(conversationKey(userID)); ok {
		return v.(pendingInput)
	}
	return pendingNone
}

func (b *Bot) clearConversation(userID int64) {
	b.conversations.Delete(conversationKey(userID))
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelSounds),
			tgbotapi.NewKeyboardButton(menuLabelCategories),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelStatus),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}
