package models

import (
	"time"
)

// User is a Telegram chat identity, created lazily on first interaction.
type User struct {
	ID       int64 `gorm:"primaryKey;autoIncrement:false;column:id"`
	IsAdmin  bool  `gorm:"column:is_admin"`
	TimeZone int   `gorm:"column:time_zone;default:0"` // offset in hours, -12..14
}

func (User) TableName() string {
	return "users"
}

// Team is identified by name. Teams are created on first sighting and never
// updated or deleted by the scrape pipeline.
type Team struct {
	ID   uint   `gorm:"primaryKey;autoIncrement;column:id"`
	Name string `gorm:"uniqueIndex;not null;column:name"`

	Matches []*Match `gorm:"many2many:match_teams;"`
}

func (Team) TableName() string {
	return "teams"
}

// Event is identified by name. Dates are UTC and may be absent.
type Event struct {
	ID        uint       `gorm:"primaryKey;autoIncrement;column:id"`
	Name      string     `gorm:"uniqueIndex;not null;column:name"`
	StartDate *time.Time `gorm:"column:start_date"`
	EndDate   *time.Time `gorm:"column:end_date"`

	Matches []Match `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
}

func (Event) TableName() string {
	return "events"
}

// Match is identified by its source URL, not by team/time tuple: start times
// shift between scrapes, the URL does not.
type Match struct {
	ID        uint       `gorm:"primaryKey;autoIncrement;column:id"`
	URL       string     `gorm:"uniqueIndex;not null;column:url"`
	StartTime *time.Time `gorm:"column:start_time"`
	Format    string     `gorm:"column:format"`
	Ongoing   bool       `gorm:"column:ongoing"`
	Notified  bool       `gorm:"column:notified"`
	EventID   uint       `gorm:"not null;column:event_id"`

	Event   Event    `gorm:"foreignKey:EventID"`
	Teams   []*Team  `gorm:"many2many:match_teams;"`
	Streams []Stream `gorm:"foreignKey:MatchID;constraint:OnDelete:CASCADE"`
}

func (Match) TableName() string {
	return "matches"
}

// Stream is a live-stream embed attached to an ongoing match. Links are
// unique system-wide so the same embed is never recorded twice across polls.
type Stream struct {
	ID      uint   `gorm:"primaryKey;autoIncrement;column:id"`
	Name    string `gorm:"column:name"`
	Link    string `gorm:"uniqueIndex;not null;column:link"`
	MatchID uint   `gorm:"not null;column:match_id"`
}

func (Stream) TableName() string {
	return "streams"
}

type UserEventSubscription struct {
	UserID  int64 `gorm:"primaryKey;column:user_id"`
	EventID uint  `gorm:"primaryKey;column:event_id"`
}

func (UserEventSubscription) TableName() string {
	return "user_event_subscriptions"
}

type UserTeamSubscription struct {
	UserID int64 `gorm:"primaryKey;column:user_id"`
	TeamID uint  `gorm:"primaryKey;column:team_id"`
}

func (UserTeamSubscription) TableName() string {
	return "user_team_subscriptions"
}

// ServiceStatus is a heartbeat row for each long-running component.
type ServiceStatus struct {
	ServiceName   string    `gorm:"primaryKey;column:service_name"`
	Status        string    `gorm:"column:status"`
	LastHeartbeat time.Time `gorm:"column:last_heartbeat"`
	Details       string    `gorm:"column:details"`
}

func (ServiceStatus) TableName() string {
	return "service_status"
}

// ScrapeHealthStat accumulates fetch attempt/success counts per target so an
// operator can spot selector rot without reading logs.
type ScrapeHealthStat struct {
	ServiceName        string `gorm:"primaryKey;column:service_name"`
	TotalRequests      uint64 `gorm:"column:total_requests"`
	SuccessfulRequests uint64 `gorm:"column:successful_requests"`
}

func (ScrapeHealthStat) TableName() string {
	return "scrape_health_stats"
}
