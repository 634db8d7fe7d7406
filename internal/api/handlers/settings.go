package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/teamarr/teamarr/internal/dispatcharr"
	"github.com/teamarr/teamarr/internal/models"
	"github.com/teamarr/teamarr/internal/services"
	"github.com/teamarr/teamarr/pkg/utils"
)

type SettingsHandler struct {
	db        *gorm.DB
	detection *services.DetectionService
}

func NewSettingsHandler(db *gorm.DB, detection *services.DetectionService) *SettingsHandler {
	return &SettingsHandler{db: db, detection: detection}
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	var settings models.Settings
	if err := h.db.FirstOrCreate(&settings, models.Settings{ID: 1}).Error; err != nil {
		utils.SendInternalError(c, "failed to load settings")
		return
	}
	utils.SendSuccess(c, settings)
}

func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var settings models.Settings
	if err := h.db.FirstOrCreate(&settings, models.Settings{ID: 1}).Error; err != nil {
		utils.SendInternalError(c, "failed to load settings")
		return
	}
	var payload models.Settings
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.SendValidationError(c, "invalid settings payload", err.Error())
		return
	}
	payload.ID = settings.ID
	if err := h.db.Model(&settings).Updates(&payload).Error; err != nil {
		utils.SendInternalError(c, "failed to update settings")
		return
	}
	utils.SendSuccess(c, settings)
}

// TestDispatcharr verifies connectivity and credentials against the
// configured downstream instance without persisting anything.
func (h *SettingsHandler) TestDispatcharr(c *gin.Context) {
	var payload struct {
		URL      string `json:"url"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil || payload.URL == "" {
		utils.SendValidationError(c, "url, username and password are required", "")
		return
	}
	client := dispatcharr.NewClient(payload.URL, payload.Username, payload.Password, 10*time.Second)
	if err := client.Ping(c.Request.Context()); err != nil {
		utils.SendSuccess(c, gin.H{"connected": false, "error": err.Error()})
		return
	}
	utils.SendSuccess(c, gin.H{"connected": true})
}

// Detection keyword CRUD. Edits invalidate the compiled pattern cache.

func (h *SettingsHandler) ListKeywords(c *gin.Context) {
	q := h.db.Order("category, priority DESC, keyword")
	if category := c.Query("category"); category != "" {
		q = q.Where("category = ?", category)
	}
	var rows []models.DetectionKeyword
	if err := q.Find(&rows).Error; err != nil {
		utils.SendInternalError(c, "failed to load keywords")
		return
	}
	utils.SendSuccess(c, rows)
}

func (h *SettingsHandler) CreateKeyword(c *gin.Context) {
	var row models.DetectionKeyword
	if err := c.ShouldBindJSON(&row); err != nil {
		utils.SendValidationError(c, "invalid keyword payload", err.Error())
		return
	}
	if row.Category == "" || row.Keyword == "" {
		utils.SendValidationError(c, "category and keyword are required", "")
		return
	}
	if err := h.db.Create(&row).Error; err != nil {
		utils.SendInternalError(c, "failed to create keyword")
		return
	}
	h.detection.Invalidate()
	utils.SendSuccess(c, row)
}

func (h *SettingsHandler) UpdateKeyword(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "invalid keyword id", c.Param("id"))
		return
	}
	var row models.DetectionKeyword
	if err := h.db.First(&row, id).Error; err != nil {
		utils.SendNotFound(c, "keyword not found")
		return
	}
	var payload models.DetectionKeyword
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.SendValidationError(c, "invalid keyword payload", err.Error())
		return
	}
	payload.ID = row.ID
	if err := h.db.Model(&row).Select("category", "keyword", "is_regex", "target_value", "enabled", "priority").Updates(&payload).Error; err != nil {
		utils.SendInternalError(c, "failed to update keyword")
		return
	}
	h.detection.Invalidate()
	utils.SendSuccess(c, row)
}

func (h *SettingsHandler) DeleteKeyword(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "invalid keyword id", c.Param("id"))
		return
	}
	if err := h.db.Delete(&models.DetectionKeyword{}, id).Error; err != nil {
		utils.SendInternalError(c, "failed to delete keyword")
		return
	}
	h.detection.Invalidate()
	utils.SendSuccess(c, gin.H{"deleted": id})
}

// WarmKeywords recompiles all detection patterns and reports counts plus
// the active separator list.
func (h *SettingsHandler) WarmKeywords(c *gin.Context) {
	h.detection.Invalidate()
	utils.SendSuccess(c, gin.H{
		"counts":     h.detection.Warm(),
		"separators": h.detection.Separators(),
	})
}
