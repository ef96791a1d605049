package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"

	"figaro-tab/internal/service"
)

const notConnected = "You are not connected to Figaro. Use /login first."

func (b *Bot) handleStatus(ctx context.Context, msg *tgbotapi.Message) error {
	st, err := b.store(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	fs, err := b.svc.Figaro.State(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	text := "📊 <b>Status</b>\n" + renderMixer(st.Snapshot()) + "\n" + renderFigaroStatus(fs, b.now())
	return b.sendText(msg.Chat.ID, strings.TrimSpace(text))
}

func (b *Bot) handleLogin(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	token := strings.TrimSpace(msg.CommandArguments())
	if token != "" {
		b.deleteMessage(msg.Chat.ID, msg.MessageID)
		return b.login(ctx, msg.Chat.ID, msg.From.ID, token)
	}
	b.setConversation(msg.From.ID, pendingToken)
	return b.sendWithReplyMarkup(msg.Chat.ID, "🔑 Send me your Figaro API token. I will delete the message right away.", cancelKeyboard())
}

func (b *Bot) login(ctx context.Context, chatID, userID int64, token string) error {
	err := b.svc.Figaro.Login(ctx, userID, token)
	switch {
	case errors.Is(err, service.ErrEmptyToken):
		return b.sendText(chatID, "The token cannot be empty. Try /login again.")
	case errors.Is(err, service.ErrLoginRejected):
		return b.sendText(chatID, "❌ Figaro rejected that token. Check it and try /login again.")
	case err != nil:
		return err
	}

	fs, err := b.svc.Figaro.State(ctx, userID)
	if err != nil {
		return err
	}
	return b.sendText(chatID, "✅ Connected.\n"+renderFigaroStatus(fs, b.now()))
}

func (b *Bot) handleLogout(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.svc.Figaro.Logout(ctx, msg.From.ID); err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, "👋 Disconnected from Figaro. Cached data was removed.")
}

func (b *Bot) handleSync(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.svc.Figaro.Sync(ctx, msg.From.ID); err != nil {
		return err
	}
	fs, err := b.svc.Figaro.State(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, renderFigaroStatus(fs, b.now()))
}

// figaroState syncs when stale and returns the state, or nil after telling
// the user to log in.
func (b *Bot) figaroState(ctx context.Context, chatID, userID int64) (*service.FigaroState, error) {
	if err := b.svc.Figaro.Sync(ctx, userID); err != nil {
		return nil, err
	}
	fs, err := b.svc.Figaro.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !fs.CanAccessWidgets(b.now()) {
		return nil, b.sendText(chatID, notConnected)
	}
	return &fs, nil
}

func (b *Bot) handleLists(ctx context.Context, msg *tgbotapi.Message) error {
	fs, err := b.figaroState(ctx, msg.Chat.ID, msg.From.ID)
	if fs == nil {
		return err
	}
	return b.sendText(msg.Chat.ID, "📝 <b>Lists</b>\n"+service.FormatLists(fs.Lists))
}

func (b *Bot) handleReminders(ctx context.Context, msg *tgbotapi.Message) error {
	fs, err := b.figaroState(ctx, msg.Chat.ID, msg.From.ID)
	if fs == nil {
		return err
	}
	return b.sendText(msg.Chat.ID, "⏰ <b>Reminders</b>\n"+service.FormatReminders(fs.Reminders, b.now()))
}

func (b *Bot) handleBriefing(ctx context.Context, msg *tgbotapi.Message) error {
	fs, err := b.figaroState(ctx, msg.Chat.ID, msg.From.ID)
	if fs == nil {
		return err
	}
	return b.sendText(msg.Chat.ID, "📰 <b>Briefing</b>\n"+service.FormatBriefing(fs.Briefing, b.now()))
}

func (b *Bot) handleDetail(ctx context.Context, msg *tgbotapi.Message, section string) error {
	userID := msg.From.ID
	fs, err := b.svc.Figaro.State(ctx, userID)
	if err != nil {
		return err
	}
	if !fs.CanAccessWidgets(b.now()) {
		return b.sendText(msg.Chat.ID, notConnected)
	}

	var fetchErr error
	switch section {
	case "nutrition":
		fetchErr = b.svc.Figaro.FetchNutrition(ctx, userID)
	case "fitness":
		fetchErr = b.svc.Figaro.FetchFitness(ctx, userID)
	case "people":
		fetchErr = b.svc.Figaro.FetchPeople(ctx, userID)
	case "money":
		fetchErr = b.svc.Figaro.FetchMoney(ctx, userID)
	}

	fs, err = b.svc.Figaro.State(ctx, userID)
	if err != nil {
		return err
	}
	var text string
	switch section {
	case "nutrition":
		text = renderNutrition(fs.Nutrition)
	case "fitness":
		text = renderFitness(fs.Fitness)
	case "people":
		text = renderPeople(fs.People)
	case "money":
		text = renderMoney(fs.Money)
	}
	if fetchErr != nil {
		text += fmt.Sprintf("\n\n⚠️ Could not refresh: %s", escape(fetchErr.Error()))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleDigest(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	enabled, ok := parseOnOff(msg.CommandArguments())
	if !ok {
		return b.sendText(msg.Chat.ID, "Usage: /digest on|off")
	}
	err := b.svc.Users.SetDigestEnabled(ctx, msg.From.ID, enabled)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return b.sendText(msg.Chat.ID, "Send /start first.")
	}
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("📬 Daily digest %s.", onOff(enabled)))
}

const dockUsage = "Usage: /dock [reset | labels on|off | icon &lt;name&gt; on|off]"

func (b *Bot) handleDock(ctx context.Context, msg *tgbotapi.Message) error {
	userID := msg.From.ID
	args := strings.Fields(strings.ToLower(msg.CommandArguments()))

	var (
		d   service.DockState
		err error
	)
	switch {
	case len(args) == 0:
		d, err = b.svc.Dock.Get(ctx, userID)
	case len(args) == 1 && args[0] == "reset":
		d, err = b.svc.Dock.Reset(ctx, userID)
	case len(args) == 2 && args[0] == "labels":
		show, ok := parseOnOff(args[1])
		if !ok {
			return b.sendText(msg.Chat.ID, dockUsage)
		}
		d, err = b.svc.Dock.SetShowIconLabels(ctx, userID, show)
	case len(args) == 3 && args[0] == "icon":
		show, ok := parseOnOff(args[2])
		if !ok {
			return b.sendText(msg.Chat.ID, dockUsage)
		}
		icon := args[1]
		if w, ok := service.ParseWidget(icon); ok {
			icon = string(w)
		}
		d, err = b.svc.Dock.SetDockIconVisible(ctx, userID, icon, show)
		if errors.Is(err, service.ErrUnknownWidget) {
			return b.sendText(msg.Chat.ID, fmt.Sprintf("Unknown icon %q.", escape(args[1])))
		}
	default:
		return b.sendText(msg.Chat.ID, dockUsage)
	}
	if err != nil {
		return err
	}
	return b.sendWithReplyMarkup(msg.Chat.ID, renderDock(d), dockKeyboard(d))
}

func parseOnOff(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on":
		return true, true
	case "off":
		return false, true
	}
	return false, false
}

func (b *Bot) handleWidget(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 || len(args) > 2 {
		return b.sendText(msg.Chat.ID, "Usage: /widget &lt;name&gt; [on|off]")
	}
	w, ok := service.ParseWidget(args[0])
	if !ok {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Unknown widget %q. See /dock.", escape(args[0])))
	}
	if len(args) == 1 {
		return b.toggleWidget(ctx, msg.Chat.ID, msg.From.ID, string(w))
	}

	visible, ok := parseOnOff(args[1])
	if !ok {
		return b.sendText(msg.Chat.ID, "Usage: /widget &lt;name&gt; [on|off]")
	}
	d, err := b.svc.Dock.SetVisible(ctx, msg.From.ID, w, visible)
	if err != nil {
		return err
	}
	return b.sendWithReplyMarkup(msg.Chat.ID, renderDock(d), dockKeyboard(d))
}

func (b *Bot) toggleWidget(ctx context.Context, chatID, userID int64, name string) error {
	w, ok := service.ParseWidget(name)
	if !ok {
		return nil
	}
	d, err := b.svc.Dock.Toggle(ctx, userID, w)
	if err != nil {
		return err
	}
	return b.sendWithReplyMarkup(chatID, renderDock(d), dockKeyboard(d))
}

func dockKeyboard(d service.DockState) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, w := range service.Widgets {
		label := string(w)
		if d.Visible(w) {
			label = "✅ " + label
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cbDockPrefix+string(w)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
