package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const upcomingHTML = `
<div class="matches-list-column">
  <div class="match-zone-wrapper" data-zonedgrouping-entry-unix="1772388000000">
    <div class="match">
      <a href="/matches/1/navi-vs-faze">
        <div class="match-team team1"><div class="text-ellipsis">NAVI</div></div>
        <div class="match-team team2"><div class="text-ellipsis">FaZe</div></div>
        <div class="match-meta">bo3</div>
        <div class="match-event" data-event-headline="IEM Katowice"></div>
      </a>
    </div>
  </div>
  <div class="match-zone-wrapper" data-zonedgrouping-entry-unix="not-a-number">
    <div class="match"><a href="/matches/2/broken"></a></div>
  </div>
  <div class="match-zone-wrapper" data-zonedgrouping-entry-unix="1772391600000">
    <div class="match">
      <a href="/matches/3/spirit-vs-mouz">
        <div class="match-team team1"><div class="text-ellipsis">Spirit</div></div>
        <div class="match-team team2"><div class="text-ellipsis">MOUZ</div></div>
        <div class="match-meta">bo5</div>
        <div class="match-event" data-event-headline="IEM Katowice"></div>
      </a>
    </div>
  </div>
</div>`

func TestExtractUpcomingMatches(t *testing.T) {
	records, err := ExtractUpcomingMatches(upcomingHTML)
	require.NoError(t, err)
	require.Len(t, records, 2, "the malformed entry is skipped")

	first := records[0]
	assert.Equal(t, "/matches/1/navi-vs-faze", first.URL)
	assert.Equal(t, "NAVI", first.Team1)
	assert.Equal(t, "FaZe", first.Team2)
	assert.Equal(t, "bo3", first.Format)
	assert.Equal(t, "IEM Katowice", first.Event)
	assert.Equal(t, int64(1772388000000), first.StartTimeMS)
	require.NotNil(t, first.StartTime())
	assert.Equal(t, time.UnixMilli(1772388000000).UTC(), *first.StartTime())

	assert.Equal(t, "/matches/3/spirit-vs-mouz", records[1].URL)
}

func TestExtractUpcomingMatchesEmptyListing(t *testing.T) {
	records, err := ExtractUpcomingMatches(`<div class="matches-list-column"></div>`)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExtractUpcomingMatchesEmptyDocument(t *testing.T) {
	_, err := ExtractUpcomingMatches("")
	assert.ErrorIs(t, err, ErrParse)
}

const liveHTML = `
<div class="matches-list-column">
  <div class="liveMatches">
    <div class="match-wrapper live-match-container">
      <a href="/matches/4/vitality-vs-g2"></a>
      <div class="match-event"><div class="text-ellipsis">BLAST Premier</div></div>
      <div class="match-meta">bo3</div>
      <div class="match-teamname">Vitality</div>
      <div class="match-teamname">G2</div>
    </div>
  </div>
</div>`

func TestExtractLiveMatches(t *testing.T) {
	records, err := ExtractLiveMatches(liveHTML)
	require.NoError(t, err)
	require.Len(t, records, 1)

	record := records[0]
	assert.Equal(t, "/matches/4/vitality-vs-g2", record.URL)
	assert.Equal(t, "BLAST Premier", record.Event)
	assert.Equal(t, "Vitality", record.Team1)
	assert.Equal(t, "G2", record.Team2)
	assert.True(t, record.Ongoing)
	assert.Nil(t, record.StartTime())
}

func TestExtractLiveMatchesColumnMissing(t *testing.T) {
	_, err := ExtractLiveMatches(`<div class="unrelated"></div>`)
	assert.ErrorIs(t, err, ErrParse)
}

func TestExtractLiveMatchesNoneRunning(t *testing.T) {
	records, err := ExtractLiveMatches(`<div class="matches-list-column"></div>`)
	require.NoError(t, err)
	assert.Empty(t, records)
}

const rankingHTML = `
<div class="ranking">
  <div class="ranked-team standard-box"><span class="name">NAVI</span></div>
  <div class="ranked-team standard-box"><span class="name">FaZe</span></div>
  <div class="ranked-team standard-box"><span class="name"> Vitality </span></div>
</div>`

func TestExtractTeams(t *testing.T) {
	teams, err := ExtractTeams(rankingHTML)
	require.NoError(t, err)
	assert.Equal(t, []string{"NAVI", "FaZe", "Vitality"}, teams)
}

func TestExtractTeamsRankingMissing(t *testing.T) {
	_, err := ExtractTeams(`<div class="content"></div>`)
	assert.ErrorIs(t, err, ErrParse)
}

const eventsHTML = `
<a class="a-reset ongoing-event" href="/events/1/iem">
  <div class="text-ellipsis">IEM Katowice</div>
  <span class="col-desc">
    <span data-unix="1772236800000">Feb 28</span> -
    <span data-unix="1772841600000">Mar 7</span>
  </span>
</a>
<div class="big-event-info">
  <div class="big-event-name">PGL Major</div>
  <table><tr><td class="col-value col-date">
    <span data-unix="1773446400000">Mar 14</span>
    <span data-unix="1774656000000">Mar 28</span>
  </td></tr></table>
</div>
<a class="a-reset small-event standard-box" href="/events/3/cct">
  <div class="text-ellipsis">CCT Season 3</div>
  <table><tr class="eventDetails"><td><span class="col-desc">
    <span data-unix="1774051200000">Mar 21</span>
    <span data-unix="1774224000000">Mar 23</span>
  </span></td></tr></table>
</a>
<a class="a-reset small-event standard-box" href="/events/4/undated">
  <div class="text-ellipsis">Undated Cup</div>
</a>`

func TestExtractEvents(t *testing.T) {
	records, err := ExtractEvents(eventsHTML)
	require.NoError(t, err)
	require.Len(t, records, 3, "the event without dates is skipped")

	assert.Equal(t, "IEM Katowice", records[0].Name)
	assert.Equal(t, int64(1772236800000), records[0].StartMS)
	assert.Equal(t, int64(1772841600000), records[0].EndMS)
	assert.Equal(t, "PGL Major", records[1].Name)
	assert.Equal(t, "CCT Season 3", records[2].Name)

	require.NotNil(t, records[0].StartDate())
	assert.Equal(t, time.UnixMilli(1772236800000).UTC(), *records[0].StartDate())
}

const matchPageHTML = `
<div class="streams">
  <div class="stream-box">
    <div class="stream-box-embed" data-stream-embed="https://player.twitch.tv/?channel=esl_csgo">ESL (Main)</div>
  </div>
  <div class="stream-box">
    <div class="stream-box-embed" data-stream-embed="https://player.twitch.tv/?channel=blast">BLAST</div>
  </div>
  <div class="stream-box">
    <div class="stream-box-embed">No embed attr</div>
  </div>
</div>`

func TestExtractStreamLinks(t *testing.T) {
	links, err := ExtractStreamLinks(matchPageHTML)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"ESL (Main)": "https://player.twitch.tv/?channel=esl_csgo",
		"BLAST":      "https://player.twitch.tv/?channel=blast",
	}, links)
}

func TestExtractStreamLinksBlockMissing(t *testing.T) {
	_, err := ExtractStreamLinks(`<div class="match-page"></div>`)
	assert.ErrorIs(t, err, ErrParse)
}
