package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/hltvnotify/hltv-notify-bot/internal/config"
	"github.com/hltvnotify/hltv-notify-bot/internal/database"
	"github.com/hltvnotify/hltv-notify-bot/internal/notify"
)

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	// A misbehaving handler must not take the polling loop down.
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Panic while handling update: %v", r)
		}
	}()

	switch {
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	}
}

func (b *Bot) handleCommand(message *tgbotapi.Message) {
	userID := message.From.ID
	log.Infof("/%s called by %d", message.Command(), userID)

	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "time_zone":
		b.handleTimezone(message)
	case "logs":
		b.handleFileDump(message, config.LogFilePath)
	case "db":
		b.handleFileDump(message, config.DatabasePath)
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	if _, err := b.Repo.GetOrCreateUser(message.From.ID); err != nil {
		log.Errorf("Error creating user %d: %v", message.From.ID, err)
	}
	msg := tgbotapi.NewMessage(message.Chat.ID, greeting(message.From.FirstName))
	msg.ReplyMarkup = basicKeyboard()
	if err := b.send(msg); err != nil {
		log.Errorf("Error sending start reply: %v", err)
	}
}

func (b *Bot) handleTimezone(message *tgbotapi.Message) {
	reply := func(text string) {
		if err := b.send(tgbotapi.NewMessage(message.Chat.ID, text)); err != nil {
			log.Errorf("Error sending timezone reply: %v", err)
		}
	}

	args := strings.Fields(message.CommandArguments())
	if len(args) != 1 {
		reply("Usage: /time_zone <offset in hours>")
		return
	}
	offset, err := strconv.Atoi(args[0])
	if err != nil {
		reply("Usage: /time_zone <offset in hours>")
		return
	}

	if _, err := b.Repo.GetOrCreateUser(message.From.ID); err != nil {
		log.Errorf("Error creating user %d: %v", message.From.ID, err)
	}
	if err := b.Repo.SetTimezone(message.From.ID, offset); err != nil {
		if errors.Is(err, database.ErrInvalidTimezone) {
			reply("Timezone offset must be between -12 and 14")
			return
		}
		log.Errorf("Error setting timezone for %d: %v", message.From.ID, err)
		reply("Something went wrong")
		return
	}
	reply("Timezone set")
}

func (b *Bot) handleFileDump(message *tgbotapi.Message, path string) {
	if !b.isAdmin(message.From.ID) {
		return
	}
	doc := tgbotapi.NewDocument(message.Chat.ID, tgbotapi.FilePath(path))
	if err := b.send(doc); err != nil {
		log.Errorf("Error sending %s: %v", path, err)
	}
}

func (b *Bot) handleCallback(cq *tgbotapi.CallbackQuery) {
	data := cq.Data
	log.Infof("Callback %q from %d", data, cq.From.ID)

	switch {
	case data == noopCallback:
		b.answerCallback(cq, "")
	case data == "base":
		b.editTo(cq, greeting(cq.From.FirstName), basicKeyboard())
	case data == "to_base":
		msg := tgbotapi.NewMessage(cq.Message.Chat.ID, greeting(cq.From.FirstName))
		msg.ReplyMarkup = basicKeyboard()
		if err := b.send(msg); err != nil {
			log.Errorf("Error sending main menu: %v", err)
		}
		b.answerCallback(cq, "")
	case data == "all_events":
		b.showAllEvents(cq, 0)
	case data == "all_teams":
		b.showAllTeams(cq, 0)
	case data == "my_matches":
		b.showMyMatches(cq)
	case data == "profile":
		b.showProfile(cq)
	case data == "show_sub_events":
		b.showSubscribedEvents(cq)
	case data == "show_sub_teams":
		b.showSubscribedTeams(cq)
	case strings.HasPrefix(data, "_"):
		b.handlePageTurn(cq)
	case strings.HasPrefix(data, "data_"):
		b.showDetail(cq)
	case strings.HasPrefix(data, "sub_"), strings.HasPrefix(data, "unsub_"):
		b.handleSubscription(cq)
	}
}

func (b *Bot) showAllEvents(cq *tgbotapi.CallbackQuery, page int) {
	events, err := b.Repo.GetAllEvents()
	if err != nil {
		log.Errorf("Error listing events: %v", err)
		b.answerCallback(cq, "Something went wrong while listing events")
		return
	}
	if len(events) == 0 {
		b.answerCallback(cq, "No events found")
		return
	}

	entries := make([]pagedEntry, 0, len(events))
	for _, event := range events {
		entries = append(entries, pagedEntry{ID: event.ID, Label: event.Name, Prefix: "event-s"})
	}
	b.editTo(cq, "All events:", pagedKeyboard(entries, page, "base"))
}

func (b *Bot) showAllTeams(cq *tgbotapi.CallbackQuery, page int) {
	teams, err := b.Repo.GetAllTeams()
	if err != nil {
		log.Errorf("Error listing teams: %v", err)
		b.answerCallback(cq, "Something went wrong while listing teams")
		return
	}
	if len(teams) == 0 {
		b.answerCallback(cq, "No teams found")
		return
	}

	entries := make([]pagedEntry, 0, len(teams))
	for _, team := range teams {
		entries = append(entries, pagedEntry{ID: team.ID, Label: team.Name, Prefix: "team-s"})
	}
	b.editTo(cq, "All teams:", pagedKeyboard(entries, page, "base"))
}

func (b *Bot) showSubscribedEvents(cq *tgbotapi.CallbackQuery) {
	events, err := b.Repo.GetUserSubscribedEvents(cq.From.ID)
	if err != nil {
		log.Errorf("Error listing subscribed events: %v", err)
		b.answerCallback(cq, "Something went wrong")
		return
	}
	entries := make([]pagedEntry, 0, len(events))
	for _, event := range events {
		entries = append(entries, pagedEntry{ID: event.ID, Label: event.Name, Prefix: "event-u"})
	}
	b.editTo(cq, "Your event subscriptions:", pagedKeyboard(entries, 0, "profile"))
}

func (b *Bot) showSubscribedTeams(cq *tgbotapi.CallbackQuery) {
	teams, err := b.Repo.GetUserSubscribedTeams(cq.From.ID)
	if err != nil {
		log.Errorf("Error listing subscribed teams: %v", err)
		b.answerCallback(cq, "Something went wrong")
		return
	}
	entries := make([]pagedEntry, 0, len(teams))
	for _, team := range teams {
		entries = append(entries, pagedEntry{ID: team.ID, Label: team.Name, Prefix: "team-u"})
	}
	b.editTo(cq, "Your team subscriptions:", pagedKeyboard(entries, 0, "profile"))
}

// handlePageTurn parses "_<prefix>_<direction>_<page>" navigation callbacks.
func (b *Bot) handlePageTurn(cq *tgbotapi.CallbackQuery) {
	parts := strings.Split(cq.Data[1:], "_")
	if len(parts) != 3 {
		return
	}
	prefix, direction := parts[0], parts[1]
	page, err := strconv.Atoi(parts[2])
	if err != nil {
		return
	}
	if direction == "forward" {
		page++
	} else {
		page--
	}

	if strings.HasPrefix(prefix, "event") {
		b.showAllEvents(cq, page)
	} else if strings.HasPrefix(prefix, "team") {
		b.showAllTeams(cq, page)
	}
}

// showDetail renders one event or team with a context-sensitive
// subscribe/unsubscribe button, parsed from "data_<prefix>_<id>".
func (b *Bot) showDetail(cq *tgbotapi.CallbackQuery) {
	parts := strings.Split(cq.Data, "_")
	if len(parts) != 3 {
		return
	}
	prefix := parts[1]
	id, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return
	}
	fromCatalog := strings.HasSuffix(prefix, "-s")

	var text, subCallback, backCallback string
	switch {
	case strings.HasPrefix(prefix, "event"):
		event, err := b.Repo.GetEventByID(uint(id))
		if err != nil {
			b.answerCallback(cq, "Event not found")
			return
		}
		offset := time.Duration(b.Repo.GetTimezone(cq.From.ID)) * time.Hour
		text = fmt.Sprintf("%s\n%s - %s", event.Name,
			formatDate(event.StartDate, offset), formatDate(event.EndDate, offset))
		if fromCatalog {
			subCallback = fmt.Sprintf("sub_event_%d", event.ID)
			backCallback = "all_events"
		} else {
			subCallback = fmt.Sprintf("unsub_event_%d", event.ID)
			backCallback = "show_sub_events"
		}
	case strings.HasPrefix(prefix, "team"):
		team, err := b.Repo.GetTeamByID(uint(id))
		if err != nil {
			b.answerCallback(cq, "Team not found")
			return
		}
		text = team.Name
		if fromCatalog {
			subCallback = fmt.Sprintf("sub_team_%d", team.ID)
			backCallback = "all_teams"
		} else {
			subCallback = fmt.Sprintf("unsub_team_%d", team.ID)
			backCallback = "show_sub_teams"
		}
	default:
		return
	}

	b.editTo(cq, text, subKeyboard(subCallback, backCallback))
}

// handleSubscription parses "sub_<kind>_<id>" and "unsub_<kind>_<id>".
func (b *Bot) handleSubscription(cq *tgbotapi.CallbackQuery) {
	parts := strings.Split(cq.Data, "_")
	if len(parts) != 3 {
		return
	}
	action, kind := parts[0], parts[1]
	id, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return
	}

	if _, err := b.Repo.GetOrCreateUser(cq.From.ID); err != nil {
		log.Errorf("Error creating user %d: %v", cq.From.ID, err)
	}

	if action == "sub" {
		var name string
		switch kind {
		case "event":
			name, err = b.Repo.SubscribeUserToEvent(cq.From.ID, uint(id))
		case "team":
			name, err = b.Repo.SubscribeUserToTeam(cq.From.ID, uint(id))
		}
		if err != nil || name == "" {
			log.Errorf("Error subscribing user %d to %s %d: %v", cq.From.ID, kind, id, err)
			b.answerCallback(cq, "Something went wrong")
			return
		}
		b.answerCallback(cq, fmt.Sprintf("Subscribed to all matches of %s", name))
		return
	}

	var removed bool
	switch kind {
	case "event":
		removed, err = b.Repo.UnsubscribeUserFromEvent(cq.From.ID, uint(id))
	case "team":
		removed, err = b.Repo.UnsubscribeUserFromTeam(cq.From.ID, uint(id))
	}
	if err != nil || !removed {
		log.Errorf("Error unsubscribing user %d from %s %d: %v", cq.From.ID, kind, id, err)
		b.answerCallback(cq, "Something went wrong")
		return
	}
	b.answerCallback(cq, "Unsubscribed")
}

// showMyMatches sends the long-form listing of every upcoming match the user
// is subscribed to, split into multiple messages at the payload limit.
func (b *Bot) showMyMatches(cq *tgbotapi.CallbackQuery) {
	matches, err := b.Repo.GetMatchesForUser(cq.From.ID)
	if err != nil {
		log.Errorf("Error listing matches for %d: %v", cq.From.ID, err)
		b.answerCallback(cq, "Something went wrong while listing matches")
		return
	}
	if len(matches) == 0 {
		b.answerCallback(cq, "No matches found")
		return
	}

	offset := b.Repo.GetTimezone(cq.From.ID)
	notify.SortMatchesByStart(matches)

	lines := make([]string, 0, len(matches)+1)
	lines = append(lines, "Upcoming matches:\n\n")
	for _, match := range matches {
		lines = append(lines, notify.RenderMatchLine(match, offset))
	}

	for _, chunk := range notify.ChunkLines(lines, notify.MessageLimit) {
		msg := tgbotapi.NewMessage(cq.Message.Chat.ID, chunk)
		msg.ReplyMarkup = backKeyboard("to_base")
		if err := b.send(msg); err != nil {
			log.Errorf("Error sending match listing: %v", err)
		}
	}
	b.answerCallback(cq, "")
}

func (b *Bot) showProfile(cq *tgbotapi.CallbackQuery) {
	offset := b.Repo.GetTimezone(cq.From.ID)
	sign := "+"
	if offset < 0 {
		sign = ""
	}
	text := fmt.Sprintf("/time_zone <offset> sets your timezone\nCurrent timezone: UTC%s%d\nSubscriptions:", sign, offset)
	b.editTo(cq, text, subscriptionsKeyboard())
}

func (b *Bot) editTo(cq *tgbotapi.CallbackQuery, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(cq.Message.Chat.ID, cq.Message.MessageID, text, keyboard)
	if err := b.send(edit); err != nil {
		log.Errorf("Error editing message: %v", err)
	}
	b.answerCallback(cq, "")
}

func (b *Bot) answerCallback(cq *tgbotapi.CallbackQuery, text string) {
	if _, err := b.API.Request(tgbotapi.NewCallback(cq.ID, text)); err != nil {
		log.Errorf("Error answering callback: %v", err)
	}
}

func greeting(firstName string) string {
	return fmt.Sprintf("Hi, %s.\nThis bot tracks matches on HLTV and notifies you when subscribed teams and events go live.", firstName)
}

func formatDate(t *time.Time, offset time.Duration) string {
	if t == nil {
		return "date unknown"
	}
	return t.Add(offset).Format("02.01.2006")
}
