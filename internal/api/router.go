package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/teamarr/teamarr/internal/api/handlers"
	"github.com/teamarr/teamarr/internal/cache"
	"github.com/teamarr/teamarr/internal/epg"
	"github.com/teamarr/teamarr/internal/lifecycle"
	"github.com/teamarr/teamarr/internal/services"
)

// Deps carries everything the route handlers need.
type Deps struct {
	DB        *gorm.DB
	Cache     *cache.Cache
	Sports    *services.SportsDataService
	TeamCache *services.TeamCacheService
	Detection *services.DetectionService
	Hub       *services.WebSocketHub
	Orch      *epg.Orchestrator
	Lifecycle *lifecycle.Manager
	Enforcer  *lifecycle.OrderingEnforcer
	GroupSync *lifecycle.GroupSync
	Upload    func(ctx context.Context, xml []byte) error
	Version   string
}

// SetupRoutes registers every route on the engine: the /api surface, the
// guide document at /epg.xml, websocket progress at /ws, and probes.
func SetupRoutes(r *gin.Engine, deps Deps) *handlers.EPGHandler {
	teamHandler := handlers.NewTeamHandler(deps.DB, deps.Sports, deps.TeamCache, deps.Hub)
	templateHandler := handlers.NewTemplateHandler(deps.DB)
	settingsHandler := handlers.NewSettingsHandler(deps.DB, deps.Detection)
	epgHandler := handlers.NewEPGHandler(deps.DB, deps.Orch, deps.Hub, deps.Upload)
	cacheHandler := handlers.NewCacheHandler(deps.Cache)
	channelHandler := handlers.NewChannelHandler(deps.DB)
	lifecycleHandler := handlers.NewLifecycleHandler(deps.Lifecycle, deps.Enforcer, deps.GroupSync)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Version)

	r.GET("/health", healthHandler.GetHealth)
	r.GET("/ready", healthHandler.GetReady)
	r.GET("/epg.xml", epgHandler.ServeXMLTV)
	r.GET("/ws", func(c *gin.Context) {
		deps.Hub.Serve(c.Writer, c.Request)
	})

	api := r.Group("/api")
	{
		api.GET("/teams", teamHandler.ListTeams)
		api.POST("/teams", teamHandler.CreateTeam)
		api.POST("/teams/import", teamHandler.ImportTeams)
		api.GET("/teams/:id", teamHandler.GetTeam)
		api.PUT("/teams/:id", teamHandler.UpdateTeam)
		api.DELETE("/teams/:id", teamHandler.DeleteTeam)
		api.POST("/teams/:id/refresh", teamHandler.RefreshTeam)

		api.GET("/leagues/:league/teams", teamHandler.SearchLeagueTeams)
		api.GET("/team-cache", teamHandler.TeamCacheStatus)
		api.POST("/team-cache/refresh", teamHandler.RefreshTeamCache)

		api.GET("/templates", templateHandler.ListTemplates)
		api.POST("/templates", templateHandler.CreateTemplate)
		api.GET("/templates/variables", templateHandler.ListVariables)
		api.POST("/templates/preview", templateHandler.PreviewTemplate)
		api.GET("/templates/:id", templateHandler.GetTemplate)
		api.PUT("/templates/:id", templateHandler.UpdateTemplate)
		api.DELETE("/templates/:id", templateHandler.DeleteTemplate)

		api.GET("/settings", settingsHandler.GetSettings)
		api.PUT("/settings", settingsHandler.UpdateSettings)
		api.POST("/settings/dispatcharr/test", settingsHandler.TestDispatcharr)

		api.GET("/keywords", settingsHandler.ListKeywords)
		api.POST("/keywords", settingsHandler.CreateKeyword)
		api.PUT("/keywords/:id", settingsHandler.UpdateKeyword)
		api.DELETE("/keywords/:id", settingsHandler.DeleteKeyword)
		api.POST("/keywords/warm", settingsHandler.WarmKeywords)

		api.POST("/epg/generate", epgHandler.Generate)
		api.GET("/epg/status", epgHandler.Status)
		api.GET("/epg/runs", epgHandler.ListRuns)

		api.GET("/cache/stats", cacheHandler.Stats)
		api.POST("/cache/clear", cacheHandler.Clear)
		api.POST("/cache/purge", cacheHandler.Purge)

		api.GET("/groups", channelHandler.ListGroups)
		api.POST("/groups", channelHandler.CreateGroup)
		api.PUT("/groups/:id", channelHandler.UpdateGroup)
		api.DELETE("/groups/:id", channelHandler.DeleteGroup)

		api.GET("/channels", channelHandler.ListChannels)
		api.GET("/channels/:id/history", channelHandler.ChannelHistory)

		api.GET("/aliases", channelHandler.ListAliases)
		api.POST("/aliases", channelHandler.CreateAlias)
		api.DELETE("/aliases/:id", channelHandler.DeleteAlias)

		api.POST("/lifecycle/sync", lifecycleHandler.SyncGroups)
		api.POST("/lifecycle/sweep", lifecycleHandler.Sweep)
		api.POST("/lifecycle/enforce-ordering", lifecycleHandler.EnforceOrdering)
		api.POST("/lifecycle/enforce-streams", lifecycleHandler.EnforceStreams)
	}

	return epgHandler
}
