package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/teamarr/teamarr/internal/models"
	"github.com/teamarr/teamarr/pkg/utils"
)

// ChannelHandler covers event groups, managed channels, their audit
// history, and team aliases.
type ChannelHandler struct {
	db *gorm.DB
}

func NewChannelHandler(db *gorm.DB) *ChannelHandler {
	return &ChannelHandler{db: db}
}

func (h *ChannelHandler) ListGroups(c *gin.Context) {
	var rows []models.EventGroup
	if err := h.db.Order("name asc").Find(&rows).Error; err != nil {
		utils.SendInternalError(c, "failed to load event groups")
		return
	}
	utils.SendSuccess(c, rows)
}

func (h *ChannelHandler) CreateGroup(c *gin.Context) {
	var row models.EventGroup
	if err := c.ShouldBindJSON(&row); err != nil {
		utils.SendValidationError(c, "invalid group payload", err.Error())
		return
	}
	if row.Name == "" {
		utils.SendValidationError(c, "group name is required", "")
		return
	}
	if row.LeagueMode == "single" && row.League == "" {
		utils.SendValidationError(c, "single-league groups need a league", "")
		return
	}
	if err := h.db.Create(&row).Error; err != nil {
		utils.SendInternalError(c, "failed to create group")
		return
	}
	utils.SendSuccess(c, row)
}

func (h *ChannelHandler) UpdateGroup(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "invalid group id", c.Param("id"))
		return
	}
	var row models.EventGroup
	if err := h.db.First(&row, id).Error; err != nil {
		utils.SendNotFound(c, "group not found")
		return
	}
	var payload models.EventGroup
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.SendValidationError(c, "invalid group payload", err.Error())
		return
	}
	payload.ID = row.ID
	if err := h.db.Model(&row).Updates(&payload).Error; err != nil {
		utils.SendInternalError(c, "failed to update group")
		return
	}
	utils.SendSuccess(c, row)
}

func (h *ChannelHandler) DeleteGroup(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "invalid group id", c.Param("id"))
		return
	}
	var active int64
	h.db.Model(&models.ManagedChannel{}).
		Where("event_epg_group_id = ? AND deleted_at IS NULL", id).
		Count(&active)
	if active > 0 {
		utils.SendConflict(c, "group still has active channels")
		return
	}
	if err := h.db.Delete(&models.EventGroup{}, id).Error; err != nil {
		utils.SendInternalError(c, "failed to delete group")
		return
	}
	utils.SendSuccess(c, gin.H{"deleted": id})
}

// ListChannels returns managed channels, active only unless
// ?include_deleted=true.
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	q := h.db.Order("channel_number asc, id asc")
	if c.Query("include_deleted") != "true" {
		q = q.Where("deleted_at IS NULL")
	}
	if group := c.Query("group_id"); group != "" {
		q = q.Where("event_epg_group_id = ?", group)
	}
	var rows []models.ManagedChannel
	if err := q.Find(&rows).Error; err != nil {
		utils.SendInternalError(c, "failed to load channels")
		return
	}
	utils.SendSuccess(c, rows)
}

func (h *ChannelHandler) ChannelHistory(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "invalid channel id", c.Param("id"))
		return
	}
	var rows []models.ChannelHistory
	if err := h.db.Where("managed_channel_id = ?", id).
		Order("created_at desc").Limit(200).Find(&rows).Error; err != nil {
		utils.SendInternalError(c, "failed to load history")
		return
	}
	utils.SendSuccess(c, rows)
}

func (h *ChannelHandler) ListAliases(c *gin.Context) {
	var rows []models.TeamAlias
	if err := h.db.Order("alias asc").Find(&rows).Error; err != nil {
		utils.SendInternalError(c, "failed to load aliases")
		return
	}
	utils.SendSuccess(c, rows)
}

func (h *ChannelHandler) CreateAlias(c *gin.Context) {
	var row models.TeamAlias
	if err := c.ShouldBindJSON(&row); err != nil {
		utils.SendValidationError(c, "invalid alias payload", err.Error())
		return
	}
	if row.Alias == "" || row.TeamName == "" {
		utils.SendValidationError(c, "alias and team_name are required", "")
		return
	}
	if err := h.db.Create(&row).Error; err != nil {
		utils.SendInternalError(c, "failed to create alias")
		return
	}
	utils.SendSuccess(c, row)
}

func (h *ChannelHandler) DeleteAlias(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "invalid alias id", c.Param("id"))
		return
	}
	if err := h.db.Delete(&models.TeamAlias{}, id).Error; err != nil {
		utils.SendInternalError(c, "failed to delete alias")
		return
	}
	utils.SendSuccess(c, gin.H{"deleted": id})
}
