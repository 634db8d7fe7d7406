package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/teamarr/teamarr/internal/models"
	"github.com/teamarr/teamarr/pkg/config"
	"github.com/teamarr/teamarr/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed]")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := os.Args[1]

	switch command {
	case "up":
		if err := db.Migrate(); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		if err := seedData(db); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func dropTables(db *database.DB) error {
	// Reverse dependency order
	tables := []string{
		"cache_entries",
		"generation_runs",
		"team_league_cache",
		"detection_keywords",
		"team_aliases",
		"channel_history",
		"managed_channel_streams",
		"managed_channels",
		"event_groups",
		"teams",
		"epg_templates",
		"settings",
	}

	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)).Error; err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}

func seedData(db *database.DB) error {
	if err := db.Migrate(); err != nil {
		return err
	}
	if _, err := db.LoadSettings(); err != nil {
		return err
	}

	// A usable starter template; every field is editable afterwards.
	tmpl := models.EPGTemplate{
		Name:            "Default",
		GameTitle:       "{team_name} {vs_at} {opponent}",
		GameSubtitle:    "{game_date}",
		GameDescription: "{matchup} - {game_time} {today_tonight}. {team_name} ({team_record}) take on {opponent} ({opponent_record}) at {venue}.",

		PregameEnabled:     true,
		PregameTitle:       "{team_name} Pregame",
		PregameDescription: "Coming up: {team_name} {vs_at.next} {opponent.next} at {game_time.next}.",

		PostgameEnabled:     true,
		PostgameTitle:       "{team_name} Postgame",
		PostgameDescription: "Final: {team_name} {result.last} {opponent.last} {score.last}.",

		IdleEnabled:              true,
		IdleTitle:                "{team_name} All Day",
		IdleDescription:          "Next game: {game_date.next} at {game_time.next} against {opponent.next}.",
		IdleOffseasonEnabled:     true,
		IdleDescriptionOffseason: "The {team_name} are in the offseason. See you next season!",

		GameDurationMode: "sport",
	}
	err := db.Where(models.EPGTemplate{Name: tmpl.Name}).FirstOrCreate(&tmpl).Error
	if err != nil {
		return fmt.Errorf("failed to seed default template: %w", err)
	}
	return nil
}
