package scraper

import (
	"errors"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrParse reports that an expected structural anchor is missing from the
// document. On a client-rendered page this is indistinguishable from a page
// that never finished loading, so callers retry.
var ErrParse = errors.New("expected HTML structure not found")

func parseDocument(html string) (*goquery.Document, error) {
	if html == "" {
		return nil, ErrParse
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// ExtractUpcomingMatches pulls the scheduled matches from the matches
// listing. Malformed entries are skipped; a page without any match wrapper is
// a legal empty listing.
func ExtractUpcomingMatches(html string) ([]MatchRecord, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, err
	}

	var records []MatchRecord
	doc.Find("div.match-zone-wrapper").Each(func(_ int, s *goquery.Selection) {
		unix, err := strconv.ParseInt(s.AttrOr("data-zonedgrouping-entry-unix", ""), 10, 64)
		if err != nil {
			return
		}
		record := MatchRecord{
			URL:         s.Find("div.match a").First().AttrOr("href", ""),
			Team1:       strings.TrimSpace(s.Find("div.match-team.team1 div.text-ellipsis").First().Text()),
			Team2:       strings.TrimSpace(s.Find("div.match-team.team2 div.text-ellipsis").First().Text()),
			Format:      strings.TrimSpace(s.Find("div.match-meta").First().Text()),
			Event:       s.Find("div.match-event").First().AttrOr("data-event-headline", ""),
			StartTimeMS: unix,
		}
		if record.URL == "" || record.Event == "" {
			return
		}
		records = append(records, record)
	})
	return records, nil
}

// ExtractLiveMatches pulls the currently running matches. The live section is
// optional; the column that carries it is not.
func ExtractLiveMatches(html string) ([]MatchRecord, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, err
	}

	column := doc.Find("div.matches-list-column")
	if column.Length() == 0 {
		return nil, ErrParse
	}

	var records []MatchRecord
	column.Find("div.liveMatches div.match-wrapper.live-match-container").Each(func(_ int, s *goquery.Selection) {
		record := MatchRecord{
			URL:     s.Find("a").First().AttrOr("href", ""),
			Event:   strings.TrimSpace(s.Find("div.match-event div.text-ellipsis").First().Text()),
			Format:  strings.TrimSpace(s.Find("div.match-meta").First().Text()),
			Ongoing: true,
		}
		teams := s.Find("div.match-teamname")
		if teams.Length() > 0 {
			record.Team1 = strings.TrimSpace(teams.Eq(0).Text())
		}
		if teams.Length() > 1 {
			record.Team2 = strings.TrimSpace(teams.Eq(1).Text())
		}
		if record.URL == "" || record.Event == "" {
			return
		}
		records = append(records, record)
	})
	return records, nil
}

// ExtractTeams returns the team ranking in page order.
func ExtractTeams(html string) ([]string, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, err
	}

	ranking := doc.Find("div.ranking")
	if ranking.Length() == 0 {
		return nil, ErrParse
	}

	var teams []string
	ranking.Find("div.ranked-team.standard-box").Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Find("span.name").First().Text())
		if name != "" {
			teams = append(teams, name)
		}
	})
	return teams, nil
}

// ExtractEvents collects events from the three calendar blocks: ongoing, big
// and small. Entries missing a name or either date are skipped.
func ExtractEvents(html string) ([]EventRecord, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, err
	}

	var records []EventRecord

	appendEvent := func(name string, scope *goquery.Selection) {
		start, end, ok := eventDates(scope)
		if name == "" || !ok {
			return
		}
		records = append(records, EventRecord{Name: name, StartMS: start, EndMS: end})
	}

	doc.Find("a.a-reset.ongoing-event").Each(func(_ int, s *goquery.Selection) {
		appendEvent(strings.TrimSpace(s.Find("div.text-ellipsis").First().Text()), s.Find("span.col-desc"))
	})
	doc.Find("div.big-event-info").Each(func(_ int, s *goquery.Selection) {
		appendEvent(strings.TrimSpace(s.Find("div.big-event-name").First().Text()), s.Find("td.col-value.col-date"))
	})
	doc.Find("a.a-reset.small-event.standard-box").Each(func(_ int, s *goquery.Selection) {
		appendEvent(strings.TrimSpace(s.Find("div.text-ellipsis").First().Text()), s.Find("tr.eventDetails span.col-desc"))
	})

	return records, nil
}

// eventDates reads the first two unix-millisecond markers under the scope.
func eventDates(scope *goquery.Selection) (start, end int64, ok bool) {
	marks := scope.Find("span[data-unix]")
	if marks.Length() < 2 {
		return 0, 0, false
	}
	start, err := strconv.ParseInt(marks.Eq(0).AttrOr("data-unix", ""), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	end, err = strconv.ParseInt(marks.Eq(1).AttrOr("data-unix", ""), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}

// ExtractStreamLinks maps stream display names to embed URLs on a match page.
func ExtractStreamLinks(html string) (map[string]string, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, err
	}

	streams := doc.Find("div.streams")
	if streams.Length() == 0 {
		return nil, ErrParse
	}

	links := make(map[string]string)
	streams.Find("div.stream-box").Each(func(_ int, s *goquery.Selection) {
		box := s.Find("div.stream-box-embed").First()
		if box.Length() == 0 {
			return
		}
		link := box.AttrOr("data-stream-embed", "")
		name := strings.TrimSpace(box.Text())
		if link == "" || name == "" {
			return
		}
		links[name] = link
	})
	return links, nil
}
