package bot

import (
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const entriesPerPage = 6

// noopCallback pads pagination rows; the handler answers it silently.
const noopCallback = "."

// pagedEntry is one button of a paginated listing. Prefix encodes both the
// entity kind and the origin listing (-s for the full catalog, -u for the
// user's subscriptions) so the detail view knows which way leads back.
type pagedEntry struct {
	ID     uint
	Label  string
	Prefix string
}

func basicKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("All events", "all_events")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("All teams", "all_teams")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Upcoming matches", "my_matches")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Profile", "profile")),
	)
}

func backKeyboard(callback string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Back", callback)),
	)
}

func subKeyboard(subCallback, backCallback string) tgbotapi.InlineKeyboardMarkup {
	label := "Subscribe"
	if strings.HasPrefix(subCallback, "unsub_") {
		label = "Unsubscribe"
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(label, subCallback)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Back", backCallback)),
	)
}

func subscriptionsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Events", "show_sub_events")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Teams", "show_sub_teams")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Back", "base")),
	)
}

// linksKeyboard renders one URL button per stream, sorted by label so the
// layout is stable between sends.
func linksKeyboard(links map[string]string) tgbotapi.InlineKeyboardMarkup {
	names := make([]string, 0, len(links))
	for name := range links {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(names))
	for _, name := range names {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(name, links[name]),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// pagedKeyboard lays out one page of entries plus a navigation row. The
// navigation callbacks carry the prefix and current page:
// "_<prefix>_forward_<page>".
func pagedKeyboard(entries []pagedEntry, page int, backCallback string) tgbotapi.InlineKeyboardMarkup {
	totalPages := (len(entries) + entriesPerPage - 1) / entriesPerPage
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 0 {
		page = 0
	}
	if page >= totalPages {
		page = totalPages - 1
	}

	start := page * entriesPerPage
	end := start + entriesPerPage
	if end > len(entries) {
		end = len(entries)
	}
	visible := entries[start:end]

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, entry := range visible {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(entry.Label, fmt.Sprintf("data_%s_%d", entry.Prefix, entry.ID)),
		))
	}

	if totalPages > 1 {
		prefix := visible[0].Prefix
		back := tgbotapi.NewInlineKeyboardButtonData("...", noopCallback)
		forward := tgbotapi.NewInlineKeyboardButtonData("...", noopCallback)
		if page > 0 {
			back = tgbotapi.NewInlineKeyboardButtonData("<", fmt.Sprintf("_%s_back_%d", prefix, page))
		}
		if page < totalPages-1 {
			forward = tgbotapi.NewInlineKeyboardButtonData(">", fmt.Sprintf("_%s_forward_%d", prefix, page))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			back,
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d/%d", page+1, totalPages), noopCallback),
			forward,
		))
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Back", backCallback),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
