package bot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"figaro-tab/internal/model"
	"figaro-tab/internal/service"
	"figaro-tab/internal/soundscape"
)

var errBadPercent = errors.New("volume must be a number from 0 to 100")

// parsePercent reads "40" or "40%" as 0.4.
func parsePercent(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil || math.IsNaN(v) || v < 0 || v > 100 {
		return 0, errBadPercent
	}
	return v / 100, nil
}

func (b *Bot) store(ctx context.Context, userID int64) (*soundscape.Store, error) {
	return b.svc.Sounds.Store(ctx, userID)
}

// withStore runs fn on the user's store and replies with the mixer state.
func (b *Bot) withStore(ctx context.Context, chatID, userID int64, fn func(st *soundscape.Store)) error {
	st, err := b.store(ctx, userID)
	if err != nil {
		return err
	}
	fn(st)
	return b.sendText(chatID, renderMixer(st.Snapshot()))
}

func (b *Bot) handleSounds(ctx context.Context, msg *tgbotapi.Message) error {
	st, err := b.store(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, renderSounds(st.Snapshot()))
}

func (b *Bot) handleCategories(msg *tgbotapi.Message) error {
	return b.sendWithReplyMarkup(msg.Chat.ID, renderCategories(), categoryKeyboard())
}

func (b *Bot) handlePlay(ctx context.Context, msg *tgbotapi.Message) error {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		return b.handleCategories(msg)
	}
	return b.playCategory(ctx, msg.Chat.ID, msg.From.ID, arg)
}

func (b *Bot) playCategory(ctx context.Context, chatID, userID int64, name string) error {
	c, ok := soundscape.ParseCategory(name)
	if !ok {
		return b.sendText(chatID, fmt.Sprintf("Unknown category %q. See /categories.", escape(name)))
	}
	return b.withStore(ctx, chatID, userID, func(st *soundscape.Store) {
		if c == soundscape.Random {
			st.PlayRandom()
			return
		}
		st.PlayCategory(c)
	})
}

func (b *Bot) handleRandom(ctx context.Context, msg *tgbotapi.Message) error {
	return b.withStore(ctx, msg.Chat.ID, msg.From.ID, func(st *soundscape.Store) { st.PlayRandom() })
}

func (b *Bot) handleToggle(ctx context.Context, msg *tgbotapi.Message) error {
	st, err := b.store(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	snd, ok := soundscape.FindSound(st.Snapshot().Sounds, msg.CommandArguments())
	if !ok {
		return b.sendText(msg.Chat.ID, "Which sound? Use an id or name from /sounds, e.g. /toggle rain")
	}
	st.ToggleSoundState(snd.ID)
	return b.sendText(msg.Chat.ID, renderMixer(st.Snapshot()))
}

func (b *Bot) handleStop(ctx context.Context, msg *tgbotapi.Message) error {
	st, err := b.store(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	snd, ok := soundscape.FindSound(st.Snapshot().Sounds, msg.CommandArguments())
	if !ok {
		return b.sendText(msg.Chat.ID, "Which sound? Use an id or name from /sounds, e.g. /stop rain")
	}
	st.PauseSound(snd.ID)
	return b.sendText(msg.Chat.ID, renderMixer(st.Snapshot()))
}

func (b *Bot) handleTyping(ctx context.Context, msg *tgbotapi.Message) error {
	enabled, ok := parseOnOff(msg.CommandArguments())
	if !ok {
		return b.sendText(msg.Chat.ID, "Usage: /typing on|off")
	}
	return b.withStore(ctx, msg.Chat.ID, msg.From.ID, func(st *soundscape.Store) { st.SetEditorTypingSoundEnabled(enabled) })
}

func (b *Bot) handleVolume(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 || len(args) > 3 {
		return b.sendText(msg.Chat.ID, "Usage: /volume &lt;sound&gt; &lt;0-100&gt; [combo]")
	}
	volume, err := parsePercent(args[1])
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error()))
	}
	st, err := b.store(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	snd, ok := soundscape.FindSound(st.Snapshot().Sounds, args[0])
	if !ok {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Unknown sound %q.", escape(args[0])))
	}

	if len(args) == 3 {
		combo, ok := service.FindCombo(st.Snapshot().Combos, args[2])
		if !ok {
			return b.sendText(msg.Chat.ID, "Combo not found. See /combos.")
		}
		err := b.svc.Sounds.SetComboVolume(ctx, msg.From.ID, combo.ID, snd.ID, volume)
		if errors.Is(err, service.ErrSoundNotInCombo) {
			return b.sendText(msg.Chat.ID, fmt.Sprintf("%s is not part of <b>%s</b>.", escape(snd.Name), escape(combo.Name)))
		}
		if err != nil {
			return err
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("🎛 %s in <b>%s</b> set to %d%%.", escape(snd.Name), escape(combo.Name), percent(volume)))
	}

	st.SetVolumeForSound(snd.ID, volume, "")
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🔊 %s set to %d%%.", escape(snd.Name), percent(volume)))
}

func (b *Bot) handleMaster(ctx context.Context, msg *tgbotapi.Message) error {
	volume, err := parsePercent(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Usage: /master &lt;0-100&gt;")
	}
	return b.withStore(ctx, msg.Chat.ID, msg.From.ID, func(st *soundscape.Store) { st.SetGlobalVolume(volume) })
}

func (b *Bot) handlePause(ctx context.Context, msg *tgbotapi.Message) error {
	return b.withStore(ctx, msg.Chat.ID, msg.From.ID, func(st *soundscape.Store) { st.PausePlayingSounds() })
}

func (b *Bot) handleResume(ctx context.Context, msg *tgbotapi.Message) error {
	return b.withStore(ctx, msg.Chat.ID, msg.From.ID, func(st *soundscape.Store) { st.ResumePausedSounds() })
}

func (b *Bot) handleShuffle(ctx context.Context, msg *tgbotapi.Message) error {
	return b.withStore(ctx, msg.Chat.ID, msg.From.ID, func(st *soundscape.Store) { st.ToggleShuffle() })
}

func (b *Bot) handleOscillate(ctx context.Context, msg *tgbotapi.Message) error {
	return b.withStore(ctx, msg.Chat.ID, msg.From.ID, func(st *soundscape.Store) { st.ToggleOscillation() })
}

func (b *Bot) handleReset(ctx context.Context, msg *tgbotapi.Message) error {
	return b.withStore(ctx, msg.Chat.ID, msg.From.ID, func(st *soundscape.Store) { st.Reset() })
}

func (b *Bot) handleCombos(ctx context.Context, msg *tgbotapi.Message) error {
	st, err := b.store(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	snap := st.Snapshot()
	text := renderCombos(snap.Combos, snap.Sounds)
	if len(snap.Combos) == 0 {
		return b.sendText(msg.Chat.ID, text)
	}
	return b.sendWithReplyMarkup(msg.Chat.ID, text, comboKeyboard(snap.Combos))
}

func (b *Bot) handleSaveCombo(ctx context.Context, msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.CommandArguments())
	if name != "" {
		return b.saveCombo(ctx, msg.Chat.ID, msg.From.ID, name)
	}
	st, err := b.store(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	if !st.Snapshot().IsAnyPlaying() {
		return b.sendText(msg.Chat.ID, "Nothing is playing. Start some sounds first.")
	}
	b.setConversation(msg.From.ID, pendingComboName)
	return b.sendWithReplyMarkup(msg.Chat.ID, "💾 How should I name this combo?", cancelKeyboard())
}

func (b *Bot) saveCombo(ctx context.Context, chatID, userID int64, name string) error {
	combo, err := b.svc.Sounds.SaveCurrentAsCombo(ctx, userID, name)
	switch {
	case errors.Is(err, service.ErrNothingPlaying):
		return b.sendText(chatID, "Nothing is playing. Start some sounds first.")
	case errors.Is(err, service.ErrEmptyComboName):
		return b.sendText(chatID, "The name cannot be empty. Try /savecombo again.")
	case err != nil:
		return b.sendText(chatID, fmt.Sprintf("Could not save the combo: %s", escape(err.Error())))
	}
	return b.sendText(chatID, fmt.Sprintf("✅ Saved <b>%s</b> with %d sound(s). Play it from /combos.", escape(combo.Name), len(combo.Sounds)))
}

func (b *Bot) handlePlayCombo(ctx context.Context, msg *tgbotapi.Message) error {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		return b.handleCombos(ctx, msg)
	}
	return b.playCombo(ctx, msg.Chat.ID, msg.From.ID, arg)
}

func (b *Bot) playCombo(ctx context.Context, chatID, userID int64, query string) error {
	st, err := b.store(ctx, userID)
	if err != nil {
		return err
	}
	combo, ok := service.FindCombo(st.Snapshot().Combos, query)
	if !ok {
		return b.sendText(chatID, "Combo not found. See /combos.")
	}
	st.PlayCombo(combo.ID)
	return b.sendText(chatID, fmt.Sprintf("🎛 <b>%s</b>\n%s", escape(combo.Name), renderMixer(st.Snapshot())))
}

func (b *Bot) handleDeleteCombo(ctx context.Context, msg *tgbotapi.Message) error {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		return b.sendText(msg.Chat.ID, "Usage: /deletecombo &lt;combo&gt;")
	}
	return b.deleteCombo(ctx, msg.Chat.ID, msg.From.ID, arg)
}

func (b *Bot) deleteCombo(ctx context.Context, chatID, userID int64, query string) error {
	st, err := b.store(ctx, userID)
	if err != nil {
		return err
	}
	combo, ok := service.FindCombo(st.Snapshot().Combos, query)
	if !ok {
		return b.sendText(chatID, "Combo not found. See /combos.")
	}
	if err := b.svc.Sounds.DeleteCombo(ctx, userID, combo.ID); err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not delete the combo: %s", escape(err.Error())))
	}
	return b.sendText(chatID, fmt.Sprintf("🗑 Deleted <b>%s</b>.", escape(combo.Name)))
}

func (b *Bot) handleShare(ctx context.Context, msg *tgbotapi.Message) error {
	st, err := b.store(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	shared := soundscape.SharedStateOf(st.Snapshot())
	if len(shared) == 0 {
		return b.sendText(msg.Chat.ID, "Nothing is playing, so there is nothing to share.")
	}
	st.SetSharedSoundState(shared)
	code := soundscape.EncodeShareCode(shared)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🔗 Share this with a friend:\n<code>/join %s</code>", escape(code)))
}

func (b *Bot) handleJoin(ctx context.Context, msg *tgbotapi.Message) error {
	states, err := soundscape.DecodeShareCode(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "That share code is not valid.")
	}
	return b.withStore(ctx, msg.Chat.ID, msg.From.ID, func(st *soundscape.Store) {
		st.SetSharedSoundState(states)
		for _, s := range states {
			st.SetVolumeForSound(s.ID, s.Volume, "")
		}
		st.PlaySharedSound(states)
	})
}

func categoryKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, info := range soundscape.Categories {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(info.Title, cbCategoryPrefix+string(info.Name)))
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

func comboKeyboard(combos []model.Combo) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(combos))
	for _, c := range combos {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("▶️ "+shortTitle(c.Name, 24), cbComboPrefix+c.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeleteComboPrefix+c.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}
