package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"figaro-tab/internal/figaro"
	"figaro-tab/internal/model"
)

func TestDigestSkipsUsersWithoutSession(t *testing.T) {
	svc, _ := newTestFigaroService(t, newTestRepos(t), newFakeFigaro())
	digest := NewDigestService(svc)

	_, ok, err := digest.Summary(context.Background(), model.User{TelegramID: 1}, testNow)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDigestSummary(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestFigaroService(t, newTestRepos(t), newFakeFigaro())
	require.NoError(t, svc.Login(ctx, 1, "tok"))

	text, ok, err := NewDigestService(svc).Summary(ctx, model.User{TelegramID: 1}, testNow)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, text, "Call mom")
	assert.Contains(t, text, "from now")
	assert.Contains(t, text, "<b>Groceries</b> (1)")
	assert.Contains(t, text, "<code>abc</code>")
	assert.Contains(t, text, "1,234 memories")
	assert.NotContains(t, text, "Last sync failed")
}

func TestFormatRemindersOrdersAndMarks(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	out := FormatReminders([]figaro.Reminder{
		{Content: "later", Time: "2026-10-21T09:00:00Z"},
		{Content: "someday", Time: "whenever"},
		{Content: "<soon>", Time: "2026-10-19T13:00:00Z"},
		{Content: "missed", Time: "2026-10-19T08:00:00Z"},
	}, now)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	var titles []string
	for _, l := range lines {
		if !strings.HasPrefix(l, "   ") {
			titles = append(titles, l)
		}
	}
	assert.Equal(t, []string{"⚠️ missed", "⏳ &lt;soon&gt;", "🔔 later", "🔔 someday"}, titles)
	assert.Contains(t, out, "ago")
	assert.Contains(t, out, "whenever")

	assert.Equal(t, "— no upcoming reminders\n", FormatReminders(nil, now))
}

func TestFormatListsTruncates(t *testing.T) {
	out := FormatLists([]figaro.ListSummary{{Name: "Todo", Items: []string{"a", "b", "c", "d"}, Count: 9}})
	assert.Contains(t, out, "<b>Todo</b> (9)")
	assert.Contains(t, out, "– c")
	assert.NotContains(t, out, "– d")
	assert.Contains(t, out, "+6 more")
}

func TestFormatBriefing(t *testing.T) {
	assert.Equal(t, "— no briefing yet\n", FormatBriefing(nil, testNow))
	out := FormatBriefing(&figaro.Briefing{Shortcode: "x1", GeneratedAt: "2026-10-19T10:00:00Z"}, testNow)
	assert.Contains(t, out, "<code>x1</code>")
	assert.Contains(t, out, "2 hours ago")
}
