package scraper

import (
	"time"
)

// MatchRecord is a normalized match entry from the matches listing. Records
// from the live section carry Ongoing=true and no start time.
type MatchRecord struct {
	URL         string
	Team1       string
	Team2       string
	Format      string
	Event       string
	StartTimeMS int64
	Ongoing     bool
}

// TeamNames returns the non-empty team names in listing order.
func (m MatchRecord) TeamNames() []string {
	names := make([]string, 0, 2)
	if m.Team1 != "" {
		names = append(names, m.Team1)
	}
	if m.Team2 != "" {
		names = append(names, m.Team2)
	}
	return names
}

// StartTime converts the millisecond timestamp to UTC, nil when absent.
func (m MatchRecord) StartTime() *time.Time {
	if m.StartTimeMS == 0 {
		return nil
	}
	t := time.UnixMilli(m.StartTimeMS).UTC()
	return &t
}

// EventRecord is a normalized event entry from the events calendar.
type EventRecord struct {
	Name    string
	StartMS int64
	EndMS   int64
}

func (e EventRecord) StartDate() *time.Time {
	if e.StartMS == 0 {
		return nil
	}
	t := time.UnixMilli(e.StartMS).UTC()
	return &t
}

func (e EventRecord) EndDate() *time.Time {
	if e.EndMS == 0 {
		return nil
	}
	t := time.UnixMilli(e.EndMS).UTC()
	return &t
}
