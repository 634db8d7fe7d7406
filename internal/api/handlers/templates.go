package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/teamarr/teamarr/internal/models"
	"github.com/teamarr/teamarr/internal/templates"
	"github.com/teamarr/teamarr/pkg/utils"
)

type TemplateHandler struct {
	db       *gorm.DB
	resolver *templates.Resolver
}

func NewTemplateHandler(db *gorm.DB) *TemplateHandler {
	return &TemplateHandler{db: db, resolver: templates.NewResolver()}
}

func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	var rows []models.EPGTemplate
	if err := h.db.Order("name asc").Find(&rows).Error; err != nil {
		utils.SendInternalError(c, "failed to load templates")
		return
	}
	utils.SendSuccess(c, rows)
}

func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "invalid template id", c.Param("id"))
		return
	}
	var row models.EPGTemplate
	if err := h.db.First(&row, id).Error; err != nil {
		utils.SendNotFound(c, "template not found")
		return
	}
	utils.SendSuccess(c, row)
}

func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var row models.EPGTemplate
	if err := c.ShouldBindJSON(&row); err != nil {
		utils.SendValidationError(c, "invalid template payload", err.Error())
		return
	}
	if row.Name == "" {
		utils.SendValidationError(c, "template name is required", "")
		return
	}
	if err := h.db.Create(&row).Error; err != nil {
		if utils.IsDuplicateKey(err) {
			utils.SendConflict(c, "template name already in use")
			return
		}
		utils.SendInternalError(c, "failed to create template")
		return
	}
	utils.SendSuccess(c, row)
}

func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "invalid template id", c.Param("id"))
		return
	}
	var row models.EPGTemplate
	if err := h.db.First(&row, id).Error; err != nil {
		utils.SendNotFound(c, "template not found")
		return
	}
	var payload models.EPGTemplate
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.SendValidationError(c, "invalid template payload", err.Error())
		return
	}
	payload.ID = row.ID
	if err := h.db.Model(&row).Updates(&payload).Error; err != nil {
		utils.SendInternalError(c, "failed to update template")
		return
	}
	utils.SendSuccess(c, row)
}

func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "invalid template id", c.Param("id"))
		return
	}
	var inUse int64
	h.db.Model(&models.TeamConfig{}).Where("template_id = ?", id).Count(&inUse)
	if inUse > 0 {
		utils.SendConflict(c, "template is assigned to teams")
		return
	}
	if err := h.db.Delete(&models.EPGTemplate{}, id).Error; err != nil {
		utils.SendInternalError(c, "failed to delete template")
		return
	}
	utils.SendSuccess(c, gin.H{"deleted": id})
}

// ListVariables returns the variable catalog grouped by category, with
// the suffix forms each variable supports.
func (h *TemplateHandler) ListVariables(c *gin.Context) {
	utils.SendSuccess(c, templates.Catalog())
}

// PreviewTemplate resolves arbitrary template text against a synthetic
// matchup so the editor can show live output.
func (h *TemplateHandler) PreviewTemplate(c *gin.Context) {
	var payload struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.SendValidationError(c, "invalid preview payload", err.Error())
		return
	}
	tctx := previewContext()
	vars := h.resolver.BuildVariables(tctx)
	utils.SendSuccess(c, gin.H{
		"title":       h.resolver.Resolve(payload.Title, vars),
		"description": h.resolver.Resolve(payload.Description, vars),
	})
}

// previewContext fabricates a representative NHL matchup for the editor.
func previewContext() *models.TemplateContext {
	start := time.Now().Add(26 * time.Hour).Truncate(time.Hour)
	team := models.Team{ID: "17", Name: "Detroit Red Wings", Abbreviation: "DET"}
	opp := models.Team{ID: "4", Name: "Chicago Blackhawks", Abbreviation: "CHI"}
	ev := models.EnrichedEvent{
		Event: models.Event{
			ID:        "preview-1",
			StartTime: start,
			HomeTeam:  team,
			AwayTeam:  opp,
			League:    "nhl",
			Sport:     "hockey",
			Venue:     &models.Venue{Name: "Little Caesars Arena", City: "Detroit", State: "MI"},
			Broadcasts: []models.Broadcast{
				{Name: "ESPN", Market: "national", Type: "TV"},
			},
		},
	}
	stats := &models.TeamStats{Record: "30-20", Streak: 3}
	return &models.TemplateContext{
		TeamConfig: &models.TeamConfig{
			TeamID: team.ID, TeamName: team.Name, TeamAbbrev: team.Abbreviation,
			League: "nhl", Sport: "hockey",
		},
		TeamStats: stats,
		Current: &models.GameContext{
			Event: &ev, IsHome: true,
			TeamSide: team, OpponentSide: opp,
			TeamStats: stats,
		},
		EPGTimezone:     "America/Detroit",
		ProgramDatetime: start,
	}
}
