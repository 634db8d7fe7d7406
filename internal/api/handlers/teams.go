package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/teamarr/teamarr/internal/models"
	"github.com/teamarr/teamarr/internal/services"
	"github.com/teamarr/teamarr/pkg/utils"
)

type TeamHandler struct {
	db        *gorm.DB
	sports    *services.SportsDataService
	teamCache *services.TeamCacheService
	hub       *services.WebSocketHub
}

func NewTeamHandler(db *gorm.DB, sports *services.SportsDataService, teamCache *services.TeamCacheService, hub *services.WebSocketHub) *TeamHandler {
	return &TeamHandler{db: db, sports: sports, teamCache: teamCache, hub: hub}
}

func (h *TeamHandler) ListTeams(c *gin.Context) {
	var teams []models.TeamConfig
	if err := h.db.Preload("Template").Order("team_name asc").Find(&teams).Error; err != nil {
		utils.SendInternalError(c, "failed to load teams")
		return
	}
	utils.SendSuccess(c, teams)
}

func (h *TeamHandler) GetTeam(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "invalid team id", c.Param("id"))
		return
	}
	var team models.TeamConfig
	if err := h.db.Preload("Template").First(&team, id).Error; err != nil {
		utils.SendNotFound(c, "team not found")
		return
	}
	utils.SendSuccess(c, team)
}

func (h *TeamHandler) CreateTeam(c *gin.Context) {
	var team models.TeamConfig
	if err := c.ShouldBindJSON(&team); err != nil {
		utils.SendValidationError(c, "invalid team payload", err.Error())
		return
	}
	if team.TeamID == "" || team.League == "" {
		utils.SendValidationError(c, "team_id and league are required", "")
		return
	}
	if err := h.db.Create(&team).Error; err != nil {
		if utils.IsDuplicateKey(err) {
			utils.SendConflict(c, "team already configured for this league")
			return
		}
		utils.SendInternalError(c, "failed to create team")
		return
	}
	utils.SendSuccess(c, team)
}

// ImportTeams bulk-creates team configs, skipping ones already present.
// Safe to re-run with the same payload.
func (h *TeamHandler) ImportTeams(c *gin.Context) {
	var payload struct {
		Teams []models.TeamConfig `json:"teams"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.SendValidationError(c, "invalid import payload", err.Error())
		return
	}
	if len(payload.Teams) == 0 {
		utils.SendValidationError(c, "teams list is empty", "")
		return
	}
	imported, skipped := 0, 0
	for i := range payload.Teams {
		t := payload.Teams[i]
		if t.TeamID == "" || t.League == "" {
			skipped++
			continue
		}
		t.ID = 0
		var existing models.TeamConfig
		err := h.db.Where("team_id = ? AND league = ?", t.TeamID, t.League).First(&existing).Error
		if err == nil {
			skipped++
			continue
		}
		if err != gorm.ErrRecordNotFound {
			utils.SendInternalError(c, "team import failed")
			return
		}
		if err := h.db.Create(&t).Error; err != nil {
			if utils.IsDuplicateKey(err) {
				skipped++
				continue
			}
			utils.SendInternalError(c, "team import failed")
			return
		}
		imported++
	}
	utils.SendSuccess(c, gin.H{"imported": imported, "skipped": skipped})
}

func (h *TeamHandler) UpdateTeam(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "invalid team id", c.Param("id"))
		return
	}
	var team models.TeamConfig
	if err := h.db.First(&team, id).Error; err != nil {
		utils.SendNotFound(c, "team not found")
		return
	}
	var payload models.TeamConfig
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.SendValidationError(c, "invalid team payload", err.Error())
		return
	}
	payload.ID = team.ID
	if err := h.db.Model(&team).Updates(&payload).Error; err != nil {
		utils.SendInternalError(c, "failed to update team")
		return
	}
	utils.SendSuccess(c, team)
}

func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "invalid team id", c.Param("id"))
		return
	}
	if err := h.db.Delete(&models.TeamConfig{}, id).Error; err != nil {
		utils.SendInternalError(c, "failed to delete team")
		return
	}
	utils.SendSuccess(c, gin.H{"deleted": id})
}

// RefreshTeam drops the team's cached provider data so the next cycle
// refetches everything.
func (h *TeamHandler) RefreshTeam(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "invalid team id", c.Param("id"))
		return
	}
	var team models.TeamConfig
	if err := h.db.First(&team, id).Error; err != nil {
		utils.SendNotFound(c, "team not found")
		return
	}
	if err := h.sports.InvalidateTeam(c.Request.Context(), team.TeamID, team.League); err != nil {
		utils.SendInternalError(c, "cache invalidation failed")
		return
	}
	utils.SendSuccess(c, gin.H{"invalidated": team.TeamName})
}

// SearchLeagueTeams lists known teams in a league from the reverse index,
// for the add-team picker.
func (h *TeamHandler) SearchLeagueTeams(c *gin.Context) {
	league := c.Param("league")
	teams, err := h.teamCache.TeamsInLeague(c.Request.Context(), league)
	if err != nil {
		utils.SendInternalError(c, "team cache lookup failed")
		return
	}
	utils.SendSuccess(c, teams)
}

// RefreshTeamCache rebuilds the team-league reverse index in the
// background, streaming progress over the websocket hub.
func (h *TeamHandler) RefreshTeamCache(c *gin.Context) {
	var payload struct {
		Patterns []string `json:"patterns"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil || len(payload.Patterns) == 0 {
		payload.Patterns = []string{"soccer_all"}
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		err := h.teamCache.Refresh(ctx, payload.Patterns, func(p services.RefreshProgress) {
			h.hub.Broadcast("team_cache_refresh", p)
		})
		if err != nil {
			h.hub.Broadcast("team_cache_refresh", services.RefreshProgress{
				Stage: "error", Message: err.Error(),
			})
		}
	}()
	utils.SendSuccess(c, gin.H{"started": true, "patterns": payload.Patterns})
}

// TeamCacheStatus reports index size and staleness.
func (h *TeamHandler) TeamCacheStatus(c *gin.Context) {
	count, err := h.teamCache.Count(c.Request.Context())
	if err != nil {
		utils.SendInternalError(c, "team cache lookup failed")
		return
	}
	utils.SendSuccess(c, gin.H{
		"teams": count,
		"stale": h.teamCache.IsStale(c.Request.Context()),
	})
}
