package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hltvnotify/hltv-notify-bot/internal/models"
)

var DB *gorm.DB

const (
	maxRetries = 5
	retryDelay = 100 * time.Millisecond
)

// Init opens the database and migrates the schema. Supported types are
// "sqlite" (default, CGO-free driver) and "postgres".
func Init(databaseType, dsn string) error {
	var dialector gorm.Dialector

	switch databaseType {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
		dialector = sqlite.Open(dsn)
	default:
		return fmt.Errorf("unsupported database type: %s", databaseType)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	if databaseType == "sqlite" {
		// Single writer plus WAL keeps the bot and the poller from
		// tripping over each other on SQLITE_BUSY.
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		sqlDB.SetMaxOpenConns(1)
		db.Exec("PRAGMA journal_mode=WAL;")
		db.Exec("PRAGMA foreign_keys=ON;")
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.Event{},
		&models.Match{},
		&models.Stream{},
		&models.UserEventSubscription{},
		&models.UserTeamSubscription{},
		&models.ServiceStatus{},
		&models.ScrapeHealthStat{},
	)
	if err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}

	DB = db
	log.Infof("Database initialized (%s)", databaseType)
	return nil
}

func Close() {
	if DB == nil {
		return
	}
	sqlDB, err := DB.DB()
	if err == nil {
		sqlDB.Close()
	}
}

// WithRetry retries an operation a few times when sqlite reports the file as
// busy or locked. Other errors are returned immediately.
func WithRetry(op func() error) error {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
		time.Sleep(retryDelay * time.Duration(attempt+1))
	}
	return err
}

func isTransient(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}
