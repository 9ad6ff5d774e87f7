package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hltvnotify/hltv-notify-bot/internal/models"
)

// ErrEventNotFound is returned when a match references an event that has not
// been scraped yet. Callers skip the record; it heals on the next events pass.
var ErrEventNotFound = errors.New("event not found")

// ErrInvalidTimezone is returned for offsets outside the UTC-12..UTC+14 range.
var ErrInvalidTimezone = errors.New("timezone offset out of range")

// Repository handles all database operations for the bot and the poller.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a repository bound to the package-level connection.
func NewRepository() *Repository {
	return &Repository{db: DB}
}

// NewRepositoryWithDB creates a repository bound to an explicit connection.
// Used by tests running against an in-memory database.
func NewRepositoryWithDB(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// --- Users ---

// GetOrCreateUser registers a chat identity on first interaction.
func (r *Repository) GetOrCreateUser(userID int64) (*models.User, error) {
	var user models.User
	err := WithRetry(func() error {
		return r.db.Where(models.User{ID: userID}).FirstOrCreate(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) IsAdmin(userID int64) bool {
	var user models.User
	err := r.db.Where("id = ? AND is_admin = ?", userID, true).First(&user).Error
	return err == nil
}

// GetTimezone returns the stored hour offset, defaulting to UTC for unknown
// users.
func (r *Repository) GetTimezone(userID int64) int {
	var user models.User
	if err := r.db.First(&user, "id = ?", userID).Error; err != nil {
		return 0
	}
	return user.TimeZone
}

// SetTimezone stores an hour offset. Offsets outside [-12, 14] are rejected
// and the previous value is kept.
func (r *Repository) SetTimezone(userID int64, offset int) error {
	if offset < -12 || offset > 14 {
		return ErrInvalidTimezone
	}
	return WithRetry(func() error {
		result := r.db.Model(&models.User{}).
			Where("id = ?", userID).
			Update("time_zone", offset)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// --- Teams ---

// UpsertTeam creates a team on first sighting. Existing teams are left
// untouched; name is the identity key.
func (r *Repository) UpsertTeam(name string) error {
	return WithRetry(func() error {
		return r.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&models.Team{Name: name}).Error
	})
}

func (r *Repository) GetAllTeams() ([]models.Team, error) {
	var teams []models.Team
	err := WithRetry(func() error {
		return r.db.Order("id").Find(&teams).Error
	})
	return teams, err
}

func (r *Repository) GetTeamByID(id uint) (*models.Team, error) {
	var team models.Team
	err := WithRetry(func() error {
		return r.db.First(&team, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// --- Events ---

// UpsertEvent creates or refreshes an event. Name is the identity key; dates
// are overwritten on every pass.
func (r *Repository) UpsertEvent(name string, startDate, endDate *time.Time) error {
	return WithRetry(func() error {
		return r.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"start_date", "end_date"}),
		}).Create(&models.Event{Name: name, StartDate: startDate, EndDate: endDate}).Error
	})
}

func (r *Repository) GetAllEvents() ([]models.Event, error) {
	var events []models.Event
	err := WithRetry(func() error {
		return r.db.Order("start_date").Find(&events).Error
	})
	return events, err
}

func (r *Repository) GetEventByID(id uint) (*models.Event, error) {
	var event models.Event
	err := WithRetry(func() error {
		return r.db.First(&event, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// DeleteEndedEvents removes events whose end date lies before the cutoff,
// together with any matches still referencing them.
func (r *Repository) DeleteEndedEvents(cutoff time.Time) (int64, error) {
	var deleted int64
	err := WithRetry(func() error {
		return r.db.Transaction(func(tx *gorm.DB) error {
			var ids []uint
			if err := tx.Model(&models.Event{}).
				Where("end_date IS NOT NULL AND end_date < ?", cutoff).
				Pluck("id", &ids).Error; err != nil {
				return err
			}
			if len(ids) == 0 {
				deleted = 0
				return nil
			}
			if err := deleteMatchesOfEvents(tx, ids); err != nil {
				return err
			}
			result := tx.Where("id IN ?", ids).Delete(&models.Event{})
			if result.Error != nil {
				return result.Error
			}
			deleted = result.RowsAffected
			return nil
		})
	})
	return deleted, err
}

func deleteMatchesOfEvents(tx *gorm.DB, eventIDs []uint) error {
	var matchIDs []uint
	if err := tx.Model(&models.Match{}).
		Where("event_id IN ?", eventIDs).
		Pluck("id", &matchIDs).Error; err != nil {
		return err
	}
	return deleteMatchRows(tx, matchIDs)
}

// --- Matches ---

// UpsertMatch creates or refreshes a match keyed by URL. The team set is
// fully replaced on every refresh so the operation is safe to repeat; the
// notified flag is never touched here.
func (r *Repository) UpsertMatch(eventName string, teamNames []string, url, format string, ongoing bool, startTime *time.Time) error {
	return WithRetry(func() error {
		return r.db.Transaction(func(tx *gorm.DB) error {
			var event models.Event
			if err := tx.Where("name = ?", eventName).First(&event).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %s", ErrEventNotFound, eventName)
				}
				return err
			}

			teams := make([]*models.Team, 0, len(teamNames))
			for _, name := range teamNames {
				if name == "" {
					continue
				}
				var team models.Team
				if err := tx.Where(models.Team{Name: name}).FirstOrCreate(&team).Error; err != nil {
					return err
				}
				teams = append(teams, &team)
			}

			var match models.Match
			err := tx.Where("url = ?", url).First(&match).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				match = models.Match{
					URL:       url,
					StartTime: startTime,
					Format:    format,
					Ongoing:   ongoing,
					Notified:  false,
					EventID:   event.ID,
					Teams:     teams,
				}
				return tx.Create(&match).Error
			case err != nil:
				return err
			}

			updates := map[string]any{
				"format":   format,
				"ongoing":  ongoing,
				"event_id": event.ID,
			}
			// Live-listing records carry no start time; keep the one
			// recorded from the upcoming listing.
			if startTime != nil {
				updates["start_time"] = startTime
			}
			if err := tx.Model(&match).Updates(updates).Error; err != nil {
				return err
			}
			return tx.Model(&match).Association("Teams").Replace(teams)
		})
	})
}

// DeleteMatchesNotIn prunes every match whose URL is absent from the freshly
// scraped set. This is the only deletion path for matches.
func (r *Repository) DeleteMatchesNotIn(urls []string) (int64, error) {
	var deleted int64
	err := WithRetry(func() error {
		return r.db.Transaction(func(tx *gorm.DB) error {
			query := tx.Model(&models.Match{})
			if len(urls) > 0 {
				query = query.Where("url NOT IN ?", urls)
			}
			var ids []uint
			if err := query.Pluck("id", &ids).Error; err != nil {
				return err
			}
			deleted = int64(len(ids))
			return deleteMatchRows(tx, ids)
		})
	})
	return deleted, err
}

func deleteMatchRows(tx *gorm.DB, matchIDs []uint) error {
	if len(matchIDs) == 0 {
		return nil
	}
	if err := tx.Where("match_id IN ?", matchIDs).Delete(&models.Stream{}).Error; err != nil {
		return err
	}
	if err := tx.Exec("DELETE FROM match_teams WHERE match_id IN ?", matchIDs).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", matchIDs).Delete(&models.Match{}).Error
}

// GetOngoingMatches returns live matches with event, teams and streams loaded.
func (r *Repository) GetOngoingMatches() ([]models.Match, error) {
	var matches []models.Match
	err := WithRetry(func() error {
		return r.db.Preload("Event").Preload("Teams").Preload("Streams").
			Where("ongoing = ?", true).Find(&matches).Error
	})
	return matches, err
}

// SetMatchNotified flips the persisted announce flag. The flag is the sole
// de-duplication mechanism for notifications and is never reset.
func (r *Repository) SetMatchNotified(url string) error {
	return WithRetry(func() error {
		return r.db.Model(&models.Match{}).
			Where("url = ?", url).
			Update("notified", true).Error
	})
}

// GetMatchesForUser returns the matches of every event and team the user is
// subscribed to, deduplicated.
func (r *Repository) GetMatchesForUser(userID int64) ([]models.Match, error) {
	var eventMatches []models.Match
	var teamMatches []models.Match
	err := WithRetry(func() error {
		if err := r.db.Preload("Event").Preload("Teams").
			Joins("JOIN user_event_subscriptions ues ON ues.event_id = matches.event_id").
			Where("ues.user_id = ?", userID).
			Find(&eventMatches).Error; err != nil {
			return err
		}
		return r.db.Preload("Event").Preload("Teams").
			Joins("JOIN match_teams mt ON mt.match_id = matches.id").
			Joins("JOIN user_team_subscriptions uts ON uts.team_id = mt.team_id").
			Where("uts.user_id = ?", userID).
			Find(&teamMatches).Error
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]bool)
	matches := make([]models.Match, 0, len(eventMatches)+len(teamMatches))
	for _, m := range append(eventMatches, teamMatches...) {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		matches = append(matches, m)
	}
	return matches, nil
}

// GetUsersSubscribedToMatch returns the union of users subscribed to the
// match's event or to any of its teams.
func (r *Repository) GetUsersSubscribedToMatch(url string) ([]models.User, error) {
	var match models.Match
	err := WithRetry(func() error {
		return r.db.Preload("Teams").Where("url = ?", url).First(&match).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	teamIDs := make([]uint, 0, len(match.Teams))
	for _, team := range match.Teams {
		teamIDs = append(teamIDs, team.ID)
	}

	var eventUsers []models.User
	var teamUsers []models.User
	err = WithRetry(func() error {
		if err := r.db.
			Joins("JOIN user_event_subscriptions ues ON ues.user_id = users.id").
			Where("ues.event_id = ?", match.EventID).
			Find(&eventUsers).Error; err != nil {
			return err
		}
		if len(teamIDs) == 0 {
			return nil
		}
		return r.db.
			Joins("JOIN user_team_subscriptions uts ON uts.user_id = users.id").
			Where("uts.team_id IN ?", teamIDs).
			Find(&teamUsers).Error
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	users := make([]models.User, 0, len(eventUsers)+len(teamUsers))
	for _, u := range append(eventUsers, teamUsers...) {
		if seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		users = append(users, u)
	}
	return users, nil
}

// --- Streams ---

// AddStreamToMatch attaches a stream link to an ongoing match. Returns true
// when a row was inserted; links already present anywhere are skipped, as are
// matches that are not live.
func (r *Repository) AddStreamToMatch(matchURL, name, link string) (bool, error) {
	var inserted bool
	err := WithRetry(func() error {
		return r.db.Transaction(func(tx *gorm.DB) error {
			inserted = false
			var match models.Match
			if err := tx.Where("url = ?", matchURL).First(&match).Error; err != nil {
				return err
			}
			if !match.Ongoing {
				return nil
			}
			var count int64
			if err := tx.Model(&models.Stream{}).Where("link = ?", link).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return nil
			}
			if err := tx.Create(&models.Stream{Name: name, Link: link, MatchID: match.ID}).Error; err != nil {
				return err
			}
			inserted = true
			return nil
		})
	})
	return inserted, err
}

func (r *Repository) GetStreamsForMatch(url string) ([]models.Stream, error) {
	var match models.Match
	err := WithRetry(func() error {
		return r.db.Preload("Streams").Where("url = ?", url).First(&match).Error
	})
	if err != nil {
		return nil, err
	}
	return match.Streams, nil
}

// --- Subscriptions ---

// SubscribeUserToEvent records a subscription and returns the event name.
// Re-subscribing is a no-op that still reports the name.
func (r *Repository) SubscribeUserToEvent(userID int64, eventID uint) (string, error) {
	event, err := r.GetEventByID(eventID)
	if err != nil {
		return "", err
	}
	err = WithRetry(func() error {
		return r.db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.UserEventSubscription{UserID: userID, EventID: eventID}).Error
	})
	if err != nil {
		return "", err
	}
	return event.Name, nil
}

// SubscribeUserToTeam records a subscription and returns the team name.
func (r *Repository) SubscribeUserToTeam(userID int64, teamID uint) (string, error) {
	team, err := r.GetTeamByID(teamID)
	if err != nil {
		return "", err
	}
	err = WithRetry(func() error {
		return r.db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.UserTeamSubscription{UserID: userID, TeamID: teamID}).Error
	})
	if err != nil {
		return "", err
	}
	return team.Name, nil
}

func (r *Repository) UnsubscribeUserFromEvent(userID int64, eventID uint) (bool, error) {
	var removed bool
	err := WithRetry(func() error {
		result := r.db.Delete(&models.UserEventSubscription{UserID: userID, EventID: eventID})
		removed = result.RowsAffected > 0
		return result.Error
	})
	return removed, err
}

func (r *Repository) UnsubscribeUserFromTeam(userID int64, teamID uint) (bool, error) {
	var removed bool
	err := WithRetry(func() error {
		result := r.db.Delete(&models.UserTeamSubscription{UserID: userID, TeamID: teamID})
		removed = result.RowsAffected > 0
		return result.Error
	})
	return removed, err
}

func (r *Repository) GetUserSubscribedEvents(userID int64) ([]models.Event, error) {
	var events []models.Event
	err := WithRetry(func() error {
		return r.db.
			Joins("JOIN user_event_subscriptions ues ON ues.event_id = events.id").
			Where("ues.user_id = ?", userID).
			Order("events.start_date").
			Find(&events).Error
	})
	return events, err
}

func (r *Repository) GetUserSubscribedTeams(userID int64) ([]models.Team, error) {
	var teams []models.Team
	err := WithRetry(func() error {
		return r.db.
			Joins("JOIN user_team_subscriptions uts ON uts.team_id = teams.id").
			Where("uts.user_id = ?", userID).
			Order("teams.id").
			Find(&teams).Error
	})
	return teams, err
}

// --- Operational ---

func (r *Repository) UpsertServiceStatus(status *models.ServiceStatus) error {
	return WithRetry(func() error {
		return r.db.Save(status).Error
	})
}

// UpdateScrapeHealthBulk adds aggregated fetch counters to the per-target
// health row, creating it on first flush.
func (r *Repository) UpdateScrapeHealthBulk(serviceName string, totalToAdd, successfulToAdd uint64) error {
	if totalToAdd == 0 && successfulToAdd == 0 {
		return nil
	}
	return WithRetry(func() error {
		return r.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.ScrapeHealthStat{ServiceName: serviceName}).Error; err != nil {
				return err
			}
			return tx.Model(&models.ScrapeHealthStat{}).
				Where("service_name = ?", serviceName).
				Updates(map[string]any{
					"total_requests":      gorm.Expr("total_requests + ?", totalToAdd),
					"successful_requests": gorm.Expr("successful_requests + ?", successfulToAdd),
				}).Error
		})
	})
}
