package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hltvnotify/hltv-notify-bot/internal/models"
)

// MessageLimit is the Telegram maximum text payload size.
const MessageLimit = 4096

// RenderMatchAlert builds the body of a went-live notification.
func RenderMatchAlert(match models.Match) string {
	return fmt.Sprintf("Event: %s\nTeams: %s\nFormat: %s\nMatch page: %s",
		match.Event.Name, joinTeamNames(match.Teams), match.Format, match.URL)
}

// RenderMatchLine builds one entry of the upcoming-matches listing, with the
// start time shifted into the user's timezone.
func RenderMatchLine(match models.Match, tzOffsetHours int) string {
	start := "already live"
	if match.StartTime != nil {
		start = match.StartTime.Add(time.Duration(tzOffsetHours) * time.Hour).Format("02-01-2006 15:04")
	}
	return fmt.Sprintf("• %s\n%s\n%s\n\n", match.Event.Name, joinTeamNames(match.Teams), start)
}

// SortMatchesByStart orders matches chronologically; matches without a start
// time (already live) come first.
func SortMatchesByStart(matches []models.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i].StartTime, matches[j].StartTime
		if a == nil {
			return b != nil
		}
		if b == nil {
			return false
		}
		return a.Before(*b)
	})
}

// ChunkLines packs lines into messages, starting a new one whenever adding a
// line would reach the payload limit. Every returned message is individually
// under the limit.
func ChunkLines(lines []string, limit int) []string {
	var messages []string
	var current strings.Builder
	for _, line := range lines {
		if current.Len() > 0 && current.Len()+len(line) >= limit {
			messages = append(messages, current.String())
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		messages = append(messages, current.String())
	}
	return messages
}

func joinTeamNames(teams []*models.Team) string {
	names := make([]string, 0, len(teams))
	for _, team := range teams {
		names = append(names, team.Name)
	}
	return strings.Join(names, " - ")
}
