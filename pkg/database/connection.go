package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/teamarr/teamarr/internal/models"
)

type DB struct {
	*gorm.DB
}

// NewConnection opens the database. A postgres:// URL selects the postgres
// driver; anything else is treated as a sqlite file path.
func NewConnection(databaseURL string, isDevelopment bool) (*DB, error) {
	logLevel := logger.Error
	if isDevelopment {
		logLevel = logger.Info
	}

	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		PrepareStmt: true,
	}

	var (
		db  *gorm.DB
		err error
	)
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		db, err = gorm.Open(postgres.Open(databaseURL), cfg)
	} else {
		db, err = gorm.Open(sqlite.Open(databaseURL), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("Database connection established successfully")

	return &DB{db}, nil
}

// Migrate creates or updates all application tables.
func (db *DB) Migrate() error {
	return db.AutoMigrate(
		&models.Settings{},
		&models.EPGTemplate{},
		&models.TeamConfig{},
		&models.EventGroup{},
		&models.ManagedChannel{},
		&models.ManagedChannelStream{},
		&models.ChannelHistory{},
		&models.TeamAlias{},
		&models.DetectionKeyword{},
		&models.CachedTeamLeague{},
		&models.GenerationRun{},
		&models.CacheEntry{},
	)
}

// LoadSettings returns the singleton settings row, creating it on first run.
func (db *DB) LoadSettings() (*models.Settings, error) {
	var settings models.Settings
	err := db.FirstOrCreate(&settings, models.Settings{ID: 1}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return &settings, nil
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
