package bot

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEntries(n int, prefix string) []pagedEntry {
	entries := make([]pagedEntry, 0, n)
	for i := 1; i <= n; i++ {
		entries = append(entries, pagedEntry{
			ID:     uint(i),
			Label:  fmt.Sprintf("Entry %d", i),
			Prefix: prefix,
		})
	}
	return entries
}

func TestPagedKeyboardSinglePage(t *testing.T) {
	markup := pagedKeyboard(makeEntries(4, "event-s"), 0, "base")

	// Four entry rows plus the back row, no navigation row.
	require.Len(t, markup.InlineKeyboard, 5)
	assert.Equal(t, "data_event-s_1", *markup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "base", *markup.InlineKeyboard[4][0].CallbackData)
}

func TestPagedKeyboardNavigation(t *testing.T) {
	entries := makeEntries(15, "team-s")

	first := pagedKeyboard(entries, 0, "base")
	require.Len(t, first.InlineKeyboard, entriesPerPage+2)
	nav := first.InlineKeyboard[entriesPerPage]
	require.Len(t, nav, 3)
	assert.Equal(t, noopCallback, *nav[0].CallbackData, "no page before the first")
	assert.Equal(t, "1/3", nav[1].Text)
	assert.Equal(t, "_team-s_forward_0", *nav[2].CallbackData)

	middle := pagedKeyboard(entries, 1, "base")
	nav = middle.InlineKeyboard[entriesPerPage]
	assert.Equal(t, "_team-s_back_1", *nav[0].CallbackData)
	assert.Equal(t, "2/3", nav[1].Text)
	assert.Equal(t, "_team-s_forward_1", *nav[2].CallbackData)

	last := pagedKeyboard(entries, 2, "base")
	// The last page holds the remaining three entries.
	require.Len(t, last.InlineKeyboard, 3+2)
	nav = last.InlineKeyboard[3]
	assert.Equal(t, "_team-s_back_2", *nav[0].CallbackData)
	assert.Equal(t, noopCallback, *nav[2].CallbackData, "no page after the last")
}

func TestPagedKeyboardClampsPage(t *testing.T) {
	entries := makeEntries(15, "event-s")

	overshoot := pagedKeyboard(entries, 99, "base")
	nav := overshoot.InlineKeyboard[3]
	assert.Equal(t, "3/3", nav[1].Text)

	undershoot := pagedKeyboard(entries, -5, "base")
	nav = undershoot.InlineKeyboard[entriesPerPage]
	assert.Equal(t, "1/3", nav[1].Text)
}

func TestLinksKeyboardSortedByLabel(t *testing.T) {
	markup := linksKeyboard(map[string]string{
		"Zeta":  "https://player.twitch.tv/?channel=zeta",
		"Alpha": "https://player.twitch.tv/?channel=alpha",
	})

	require.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, "Alpha", markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "Zeta", markup.InlineKeyboard[1][0].Text)
	require.NotNil(t, markup.InlineKeyboard[0][0].URL)
	assert.Equal(t, "https://player.twitch.tv/?channel=alpha", *markup.InlineKeyboard[0][0].URL)
}

func TestSubKeyboardLabels(t *testing.T) {
	sub := subKeyboard("sub_event_3", "data_event-s_3")
	assert.Equal(t, "Subscribe", sub.InlineKeyboard[0][0].Text)

	unsub := subKeyboard("unsub_team_3", "data_team-u_3")
	assert.Equal(t, "Unsubscribe", unsub.InlineKeyboard[0][0].Text)
}
