package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"figaro-tab/internal/figaro"
	"figaro-tab/internal/model"
)

const maxListItems = 3

// DigestService builds the daily Figaro digest sent to each user.
type DigestService struct {
	figaro *FigaroService
}

func NewDigestService(figaro *FigaroService) *DigestService {
	return &DigestService{figaro: figaro}
}

// Summary renders the digest for user. ok is false when the user has no
// Figaro session and nothing should be sent.
func (s *DigestService) Summary(ctx context.Context, user model.User, now time.Time) (text string, ok bool, err error) {
	st, err := s.figaro.State(ctx, user.TelegramID)
	if err != nil {
		return "", false, err
	}
	if !st.CanAccessWidgets(now) {
		return "", false, nil
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Your Figaro digest</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("Mon, 02 Jan 2006")))

	builder.WriteString("⏰ <b>Reminders</b>\n")
	builder.WriteString(FormatReminders(st.Reminders, now))

	builder.WriteString("\n📝 <b>Lists</b>\n")
	builder.WriteString(FormatLists(st.Lists))

	builder.WriteString("\n📰 <b>Briefing</b>\n")
	builder.WriteString(FormatBriefing(st.Briefing, now))

	builder.WriteString(fmt.Sprintf("\n🧠 %s memories saved", humanize.Comma(int64(st.MemoriesCount))))
	if st.SyncError != "" {
		builder.WriteString(fmt.Sprintf("\n\n⚠️ Last sync failed: %s", html.EscapeString(st.SyncError)))
	}

	return strings.TrimSpace(builder.String()), true, nil
}

// FormatReminders lists reminders soonest first. Reminders without a
// parseable time go last.
func FormatReminders(reminders []figaro.Reminder, now time.Time) string {
	if len(reminders) == 0 {
		return "— no upcoming reminders\n"
	}

	type timed struct {
		r  figaro.Reminder
		at time.Time
		ok bool
	}
	items := make([]timed, len(reminders))
	for i, r := range reminders {
		at, err := time.Parse(time.RFC3339, r.Time)
		items[i] = timed{r: r, at: at, ok: err == nil}
	}
	sort.SliceStable(items, func(i, j int) bool {
		switch {
		case !items[i].ok:
			return false
		case !items[j].ok:
			return true
		default:
			return items[i].at.Before(items[j].at)
		}
	})

	var sb strings.Builder
	for _, it := range items {
		icon := "🔔"
		if it.ok {
			switch {
			case now.After(it.at):
				icon = "⚠️"
			case it.at.Sub(now) <= 2*time.Hour:
				icon = "⏳"
			}
		}
		sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(strings.TrimSpace(it.r.Content))))
		if it.ok {
			local := it.at.In(now.Location())
			sb.WriteString(fmt.Sprintf("\n   %s · %s", local.Format("02 Jan 15:04"), humanize.RelTime(it.at, now, "ago", "from now")))
		} else if it.r.Time != "" {
			sb.WriteString(fmt.Sprintf("\n   %s", html.EscapeString(it.r.Time)))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatLists shows each list with its size and first few items.
func FormatLists(lists []figaro.ListSummary) string {
	if len(lists) == 0 {
		return "— no lists\n"
	}
	var sb strings.Builder
	for _, l := range lists {
		sb.WriteString(fmt.Sprintf("• <b>%s</b> (%d)\n", html.EscapeString(l.Name), l.Count))
		for i, item := range l.Items {
			if i == maxListItems {
				break
			}
			sb.WriteString(fmt.Sprintf("   – %s\n", html.EscapeString(item)))
		}
		if more := l.Count - min(len(l.Items), maxListItems); more > 0 {
			sb.WriteString(fmt.Sprintf("   <i>+%d more</i>\n", more))
		}
	}
	return sb.String()
}

func FormatBriefing(b *figaro.Briefing, now time.Time) string {
	if b == nil {
		return "— no briefing yet\n"
	}
	line := fmt.Sprintf("Code <code>%s</code>", html.EscapeString(b.Shortcode))
	if at, err := time.Parse(time.RFC3339, b.GeneratedAt); err == nil {
		line += ", generated " + humanize.RelTime(at, now, "ago", "from now")
	}
	return line + "\n"
}
