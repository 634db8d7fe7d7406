package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/teamarr/teamarr/internal/api"
	"github.com/teamarr/teamarr/internal/api/middleware"
	"github.com/teamarr/teamarr/internal/cache"
	"github.com/teamarr/teamarr/internal/dispatcharr"
	"github.com/teamarr/teamarr/internal/epg"
	"github.com/teamarr/teamarr/internal/goldzone"
	"github.com/teamarr/teamarr/internal/lifecycle"
	"github.com/teamarr/teamarr/internal/providers"
	"github.com/teamarr/teamarr/internal/scheduler"
	"github.com/teamarr/teamarr/internal/services"
	"github.com/teamarr/teamarr/pkg/config"
	"github.com/teamarr/teamarr/pkg/database"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	if cfg.IsDevelopment() {
		logrus.SetLevel(logrus.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}

	settings, err := db.LoadSettings()
	if err != nil {
		logrus.Fatalf("Failed to load settings: %v", err)
	}

	// Redis is an optional hot cache tier
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logrus.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opt)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logrus.Warnf("Redis unavailable, continuing without hot tier: %v", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	loc, err := time.LoadLocation(settings.EPGTimezone)
	if err != nil {
		logrus.Warnf("Invalid timezone %q, using UTC", settings.EPGTimezone)
		loc = time.UTC
	}

	// Provider stack: ESPN primary, TheSportsDB fallback
	leagues := providers.NewStaticLeagueMap()
	registry := providers.DefaultRegistry(leagues, float64(cfg.ESPNRateLimit), cfg.ProviderTimeout, cfg.ProviderRetryCount, cfg.TheSportsDBAPIKey)

	cacheStore := cache.New(db.DB, redisClient)
	sports := services.NewSportsDataService(registry, cacheStore, loc)
	teamCache := services.NewTeamCacheService(db.DB, registry, leagues)
	detection := services.NewDetectionService(db.DB)
	hub := services.NewWebSocketHub()

	// Learned soccer leagues from previous refreshes rejoin the league map
	if err := teamCache.SyncLeagueMap(context.Background()); err != nil {
		logrus.Warnf("League map sync failed: %v", err)
	}

	// Downstream manager client; settings take precedence over env
	var client *dispatcharr.Client
	url, user, pass := settings.DispatcharrURL, settings.DispatcharrUsername, settings.DispatcharrPassword
	if url == "" {
		url, user, pass = cfg.DispatcharrURL, cfg.DispatcharrUsername, cfg.DispatcharrPassword
	}
	if url != "" {
		client = dispatcharr.NewClient(url, user, pass, cfg.ProviderTimeout)
	}

	orch := epg.NewOrchestrator(db.DB, sports, teamCache, leagues)
	manager := lifecycle.NewManager(db.DB, client)
	enforcer := lifecycle.NewOrderingEnforcer(db.DB, client, detection)
	groupSync := lifecycle.NewGroupSync(db.DB, client, sports, detection, teamCache, manager, goldzone.DayNDate(1))
	goldZone := goldzone.NewService(db.DB, client)

	upload := func(ctx context.Context, xml []byte) error {
		current, err := db.LoadSettings()
		if err != nil {
			return err
		}
		if client == nil || !current.DispatcharrEnabled || current.DispatcharrEPGID == nil {
			return nil
		}
		if err := client.UploadEPG(ctx, *current.DispatcharrEPGID, xml); err != nil {
			return err
		}
		return client.RefreshEPG(ctx, *current.DispatcharrEPGID)
	}

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CorsOrigins))

	epgHandler := api.SetupRoutes(router, api.Deps{
		DB:        db.DB,
		Cache:     cacheStore,
		Sports:    sports,
		TeamCache: teamCache,
		Detection: detection,
		Hub:       hub,
		Orch:      orch,
		Lifecycle: manager,
		Enforcer:  enforcer,
		GroupSync: groupSync,
		Upload:    upload,
		Version:   version,
	})

	// Scheduler drives recurring generation and reconciliation
	sched := scheduler.New(db.DB, cacheStore, epgHandler.RunNow, manager, enforcer, groupSync, goldZone, client)
	if err := sched.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
