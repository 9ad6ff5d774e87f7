package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hltvnotify/hltv-notify-bot/internal/models"
)

func matchWith(event string, start *time.Time, teams ...string) models.Match {
	match := models.Match{
		Event:     models.Event{Name: event},
		StartTime: start,
		Format:    "bo3",
		URL:       "https://www.hltv.org/matches/1/x-vs-y",
	}
	for _, name := range teams {
		match.Teams = append(match.Teams, &models.Team{Name: name})
	}
	return match
}

func TestRenderMatchAlert(t *testing.T) {
	match := matchWith("IEM Katowice", nil, "NAVI", "FaZe")

	text := RenderMatchAlert(match)
	assert.Contains(t, text, "Event: IEM Katowice")
	assert.Contains(t, text, "Teams: NAVI - FaZe")
	assert.Contains(t, text, "Format: bo3")
	assert.Contains(t, text, match.URL)
}

func TestRenderMatchLineShiftsTimezone(t *testing.T) {
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	match := matchWith("BLAST Premier", &start, "Vitality", "G2")

	assert.Contains(t, RenderMatchLine(match, 3), "01-03-2026 21:00")
	assert.Contains(t, RenderMatchLine(match, -5), "01-03-2026 13:00")
}

func TestRenderMatchLineLiveWithoutStart(t *testing.T) {
	match := matchWith("BLAST Premier", nil, "Vitality", "G2")
	assert.Contains(t, RenderMatchLine(match, 0), "already live")
}

func TestSortMatchesByStart(t *testing.T) {
	early := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	late := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	matches := []models.Match{
		matchWith("late", &late),
		matchWith("live", nil),
		matchWith("early", &early),
	}

	SortMatchesByStart(matches)

	assert.Equal(t, "live", matches[0].Event.Name)
	assert.Equal(t, "early", matches[1].Event.Name)
	assert.Equal(t, "late", matches[2].Event.Name)
}

func TestChunkLinesSplitsAtLimit(t *testing.T) {
	line := strings.Repeat("x", 100) + "\n"
	var lines []string
	for i := 0; i < 60; i++ {
		lines = append(lines, line)
	}

	messages := ChunkLines(lines, MessageLimit)
	require.Greater(t, len(messages), 1)

	total := 0
	for _, msg := range messages {
		assert.Less(t, len(msg), MessageLimit)
		total += len(msg)
	}
	assert.Equal(t, len(line)*60, total, "no content may be lost")
}

func TestChunkLinesSingleMessage(t *testing.T) {
	messages := ChunkLines([]string{"hello\n", "world\n"}, MessageLimit)
	require.Len(t, messages, 1)
	assert.Equal(t, "hello\nworld\n", messages[0])
}

func TestChunkLinesEmpty(t *testing.T) {
	assert.Empty(t, ChunkLines(nil, MessageLimit))
}
