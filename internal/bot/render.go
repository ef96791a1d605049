package bot

import (
	"fmt"
	"html"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"figaro-tab/internal/figaro"
	"figaro-tab/internal/model"
	"figaro-tab/internal/service"
	"figaro-tab/internal/soundscape"
)

const (
	iconPlaying = "▶️"
	iconPaused  = "⏸"
	maxRows     = 5
)

func escape(s string) string {
	return html.EscapeString(s)
}

func percent(v float64) int {
	return int(math.Round(v * 100))
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func renderSounds(st soundscape.State) string {
	var sb strings.Builder
	sb.WriteString("🎧 <b>Sounds</b>\n")
	for _, snd := range st.Sounds {
		icon := iconPaused
		if snd.Playing {
			icon = iconPlaying
		}
		sb.WriteString(fmt.Sprintf("%s <code>%2d</code> %s · %d%%\n", icon, snd.ID, escape(snd.Name), percent(snd.Volume)))
	}
	sb.WriteString("\n")
	sb.WriteString(renderMixer(st))
	return strings.TrimSpace(sb.String())
}

// renderMixer is the short mixer summary shared by /sounds and /status.
func renderMixer(st soundscape.State) string {
	var sb strings.Builder
	playing := st.PlayingIDs()
	if len(playing) == 0 {
		sb.WriteString("Nothing is playing.\n")
	} else {
		names := make([]string, 0, len(playing))
		for _, snd := range st.Sounds {
			if snd.Playing {
				names = append(names, escape(snd.Name))
			}
		}
		sb.WriteString(fmt.Sprintf("Playing: %s\n", strings.Join(names, ", ")))
	}
	sb.WriteString(fmt.Sprintf("Master volume: %d%%\n", percent(st.GlobalVolume)))
	if st.ActiveCategory != "" {
		if info, ok := st.ActiveCategory.Info(); ok {
			sb.WriteString(fmt.Sprintf("Category: %s\n", escape(info.Title)))
		}
	}
	if len(st.PausedSounds) > 0 {
		sb.WriteString(fmt.Sprintf("Paused: %d sound(s), /resume to continue\n", len(st.PausedSounds)))
	}
	sb.WriteString(fmt.Sprintf("Shuffle %s · Oscillation %s\n", onOff(st.IsShuffling), onOff(st.IsOscillating)))
	if st.EditorTypingSoundEnabled {
		sb.WriteString("Typing sound on\n")
	}
	return sb.String()
}

func renderCategories() string {
	var sb strings.Builder
	sb.WriteString("🗂 <b>Categories</b>\n")
	for _, info := range soundscape.Categories {
		sb.WriteString(fmt.Sprintf("• <b>%s</b> (<code>%s</code>)\n   %s\n", escape(info.Title), info.Name, escape(info.Description)))
	}
	sb.WriteString("\nTap a category to play it, tap it again to stop.")
	return sb.String()
}

func renderCombos(combos []model.Combo, catalog []soundscape.Sound) string {
	if len(combos) == 0 {
		return "You have no combos yet. Start some sounds and use /savecombo."
	}
	names := make(map[int]string, len(catalog))
	for _, snd := range catalog {
		names[snd.ID] = snd.Name
	}

	var sb strings.Builder
	sb.WriteString("🎛 <b>Your combos</b>\n")
	for _, c := range combos {
		sb.WriteString(fmt.Sprintf("\n<b>%s</b> <code>%s</code>\n", escape(c.Name), shortID(c.ID)))
		parts := make([]string, 0, len(c.Sounds))
		for _, cs := range c.Sounds {
			parts = append(parts, fmt.Sprintf("%s %d%%", escape(names[cs.SoundID]), percent(cs.Volume)))
		}
		sb.WriteString("   " + strings.Join(parts, ", ") + "\n")
	}
	return strings.TrimSpace(sb.String())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func renderFigaroStatus(fs service.FigaroState, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("🔗 <b>Figaro</b>\n")
	if !fs.IsAuthenticated || fs.Session == nil {
		sb.WriteString("Not connected. Use /login to connect.\n")
		if fs.SyncError != "" {
			sb.WriteString(fmt.Sprintf("Last error: %s\n", escape(fs.SyncError)))
		}
		return sb.String()
	}

	tier := string(fs.SubscriptionTier)
	if tier == "" {
		tier = "unknown"
	}
	sb.WriteString(fmt.Sprintf("Plan: %s", escape(tier)))
	if fs.IsPremium {
		sb.WriteString(" ⭐")
	}
	sb.WriteByte('\n')
	sb.WriteString(fmt.Sprintf("Session expires %s\n", humanize.RelTime(fs.Session.ExpiresAt, now, "ago", "from now")))
	if !fs.SessionValid(now) {
		sb.WriteString("⚠️ Session is about to expire, log in again.\n")
	}
	switch {
	case fs.IsSyncing:
		sb.WriteString("Syncing…\n")
	case fs.LastSyncAt != nil:
		sb.WriteString(fmt.Sprintf("Last sync %s\n", humanize.RelTime(*fs.LastSyncAt, now, "ago", "from now")))
	default:
		sb.WriteString("Never synced\n")
	}
	if fs.SyncError != "" {
		sb.WriteString(fmt.Sprintf("⚠️ %s\n", escape(fs.SyncError)))
	}
	sb.WriteString(fmt.Sprintf("%d list(s), %d reminder(s), %s memories\n", len(fs.Lists), len(fs.Reminders), humanize.Comma(int64(fs.MemoriesCount))))
	return sb.String()
}

func goalLine(label string, value float64, goal *figaro.Goal, unit string) string {
	if goal == nil || goal.Target <= 0 {
		return fmt.Sprintf("• %s: %s %s\n", label, humanize.FormatFloat("#,###.", value), unit)
	}
	if goal.Unit != "" {
		unit = goal.Unit
	}
	return fmt.Sprintf("• %s: %s / %s %s (%d%%)\n", label,
		humanize.FormatFloat("#,###.", value), humanize.FormatFloat("#,###.", goal.Target), escape(unit),
		int(math.Round(value/goal.Target*100)))
}

func renderNutrition(n *figaro.Nutrition) string {
	if n == nil {
		return "No nutrition data yet."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🥗 <b>Nutrition</b> %s\n", escape(n.Date)))
	sb.WriteString(goalLine("Calories", n.Totals.Calories, n.Goals.Calories, "kcal"))
	sb.WriteString(goalLine("Protein", n.Totals.Protein, n.Goals.Protein, "g"))
	sb.WriteString(goalLine("Carbs", n.Totals.Carbs, n.Goals.Carbs, "g"))
	sb.WriteString(goalLine("Fat", n.Totals.Fat, n.Goals.Fat, "g"))
	sb.WriteString(goalLine("Water", n.Totals.Water, n.Goals.Water, "ml"))
	sb.WriteString(fmt.Sprintf("• Meals: %d\n", n.Totals.Meals))
	for i, l := range n.Logs {
		if i == maxRows {
			sb.WriteString(fmt.Sprintf("   <i>+%d more</i>\n", len(n.Logs)-maxRows))
			break
		}
		line := fmt.Sprintf("   %s · %s", escape(l.MealType), escape(l.Description))
		if l.Calories != nil {
			line += fmt.Sprintf(" (%s kcal)", humanize.FormatFloat("#,###.", *l.Calories))
		}
		sb.WriteString(line + "\n")
	}
	return strings.TrimSpace(sb.String())
}

func renderFitness(f *figaro.Fitness) string {
	if f == nil {
		return "No fitness data yet."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏋️ <b>Fitness</b> week of %s\n", escape(f.WeekStart)))
	sb.WriteString(goalLine("Workouts", float64(f.Summary.TotalWorkouts), f.Goals.Workouts, ""))
	sb.WriteString(goalLine("Strength sessions", float64(f.Summary.StrengthSessions), f.Goals.StrengthSessions, ""))
	sb.WriteString(fmt.Sprintf("• Cardio sessions: %d\n", f.Summary.CardioSessions))
	sb.WriteString(fmt.Sprintf("• Active time: %s\n", (time.Duration(f.Summary.TotalDurationMins) * time.Minute).String()))
	sb.WriteString(fmt.Sprintf("• Calories burned: %s\n", humanize.FormatFloat("#,###.", f.Summary.CaloriesBurned)))
	if len(f.RecentPRs) > 0 {
		sb.WriteString("🏆 <b>Recent PRs</b>\n")
		for i, pr := range f.RecentPRs {
			if i == maxRows {
				break
			}
			line := fmt.Sprintf("   %s", escape(pr.ExerciseName))
			if pr.Weight != nil {
				line += fmt.Sprintf(" %s", humanize.FormatFloat("#,###.#", *pr.Weight))
			}
			if pr.Reps != nil {
				line += fmt.Sprintf(" × %d", *pr.Reps)
			}
			sb.WriteString(line + "\n")
		}
	}
	return strings.TrimSpace(sb.String())
}

func renderPeople(p *figaro.People) string {
	if p == nil {
		return "No people data yet."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👥 <b>People</b> · %d tracked\n", p.TotalPeople))
	if len(p.UpcomingBirthdays) == 0 {
		sb.WriteString("No upcoming birthdays.\n")
	}
	birthdays := slices.Clone(p.UpcomingBirthdays)
	slices.SortStableFunc(birthdays, func(a, b figaro.UpcomingBirthday) int { return a.DaysUntil - b.DaysUntil })
	for i, bd := range birthdays {
		if i == maxRows {
			break
		}
		when := fmt.Sprintf("in %d days", bd.DaysUntil)
		switch bd.DaysUntil {
		case 0:
			when = "today"
		case 1:
			when = "tomorrow"
		}
		sb.WriteString(fmt.Sprintf("🎂 %s %s", escape(bd.Name), when))
		if len(bd.GiftIdeas) > 0 {
			sb.WriteString(fmt.Sprintf(" · gift ideas: %s", escape(strings.Join(bd.GiftIdeas, ", "))))
		}
		sb.WriteByte('\n')
	}
	if len(p.RecentContacts) > 0 {
		names := make([]string, 0, len(p.RecentContacts))
		for _, c := range p.RecentContacts {
			names = append(names, escape(c.Name))
		}
		sb.WriteString(fmt.Sprintf("Recently in touch: %s\n", strings.Join(names, ", ")))
	}
	return strings.TrimSpace(sb.String())
}

func money(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

func renderMoney(m *figaro.Money) string {
	if m == nil {
		return "No money data yet."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("💸 <b>Money</b> %s\n", escape(m.Month)))
	sb.WriteString(fmt.Sprintf("• Spent: %s in %d transactions\n", money(m.Spending.Total), m.Spending.TransactionCount))
	if m.Spending.TopMerchant != "" {
		sb.WriteString(fmt.Sprintf("• Top merchant: %s\n", escape(m.Spending.TopMerchant)))
	}

	categories := make([]string, 0, len(m.Spending.CategoryBreakdown))
	for c := range m.Spending.CategoryBreakdown {
		categories = append(categories, c)
	}
	slices.SortFunc(categories, func(a, b string) int {
		da, db := m.Spending.CategoryBreakdown[a], m.Spending.CategoryBreakdown[b]
		switch {
		case da > db:
			return -1
		case da < db:
			return 1
		}
		return strings.Compare(a, b)
	})
	for i, c := range categories {
		if i == maxRows {
			break
		}
		sb.WriteString(fmt.Sprintf("   %s: %s\n", escape(c), money(m.Spending.CategoryBreakdown[c])))
	}

	sb.WriteString(fmt.Sprintf("• Owed to me: %s · I owe: %s · Net: %s\n", money(m.IOUs.OwedToMe), money(m.IOUs.IOwe), money(m.IOUs.NetBalance)))
	for i, iou := range m.IOUs.Pending {
		if i == maxRows {
			break
		}
		arrow := "→"
		if iou.Direction == figaro.OwedToMe {
			arrow = "←"
		}
		sb.WriteString(fmt.Sprintf("   %s %s %s\n", arrow, escape(iou.PersonName), money(iou.Amount)))
	}
	sb.WriteString(fmt.Sprintf("• Subscriptions: %d, %s / month\n", len(m.Subscriptions.Active), money(m.Subscriptions.MonthlyTotal)))
	return strings.TrimSpace(sb.String())
}

func renderDock(d service.DockState) string {
	var sb strings.Builder
	sb.WriteString("🧩 <b>Dock</b>\n")
	for _, w := range service.Widgets {
		icon := "▫️"
		if d.Visible(w) {
			icon = "✅"
		}
		sb.WriteString(fmt.Sprintf("%s %s", icon, w))
		if shown, ok := d.DockIconsVisible[string(w)]; ok && !shown {
			sb.WriteString(" <i>(icon hidden)</i>")
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(fmt.Sprintf("Icon labels %s\n", onOff(d.ShowIconLabels)))
	return strings.TrimSpace(sb.String())
}

const helpText = "ℹ️ <b>Commands</b>\n" +
	"<b>Sounds</b>\n" +
	"• /sounds — sound list and mixer state\n" +
	"• /categories — play a preset category\n" +
	"• /play &lt;category&gt; · /random\n" +
	"• /toggle &lt;sound&gt; — start or stop one sound · /stop &lt;sound&gt;\n" +
	"• /volume &lt;sound&gt; &lt;0-100&gt; [combo] — sound volume\n" +
	"• /master &lt;0-100&gt; — master volume\n" +
	"• /pause · /resume · /reset\n" +
	"• /shuffle · /oscillate · /typing on|off\n" +
	"• /combos · /savecombo [name] · /playcombo &lt;combo&gt; · /deletecombo &lt;combo&gt;\n" +
	"• /share · /join &lt;code&gt;\n" +
	"<b>Figaro</b>\n" +
	"• /login · /logout · /sync · /status\n" +
	"• /lists · /reminders · /briefing\n" +
	"• /nutrition · /fitness · /people · /money\n" +
	"• /digest on|off — daily digest\n" +
	"<b>Dock</b>\n" +
	"• /dock · /widget &lt;name&gt; [on|off]\n" +
	"• /cancel — cancel the current input"
