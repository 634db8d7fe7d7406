package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/teamarr/teamarr/internal/lifecycle"
	"github.com/teamarr/teamarr/pkg/utils"
)

// LifecycleHandler exposes manual triggers for the channel lifecycle,
// normally driven by the scheduler.
type LifecycleHandler struct {
	manager  *lifecycle.Manager
	enforcer *lifecycle.OrderingEnforcer
	sync     *lifecycle.GroupSync
}

func NewLifecycleHandler(manager *lifecycle.Manager, enforcer *lifecycle.OrderingEnforcer, sync *lifecycle.GroupSync) *LifecycleHandler {
	return &LifecycleHandler{manager: manager, enforcer: enforcer, sync: sync}
}

// SyncGroups matches group streams against today's events and queues the
// resulting channels.
func (h *LifecycleHandler) SyncGroups(c *gin.Context) {
	stats, err := h.sync.Sync(c.Request.Context(), time.Now())
	if err != nil {
		utils.SendInternalError(c, "group sync failed")
		return
	}
	utils.SendSuccess(c, stats)
}

// Sweep processes due channel creations and deletions now.
func (h *LifecycleHandler) Sweep(c *gin.Context) {
	created, deleted, err := h.manager.Sweep(c.Request.Context(), time.Now())
	if err != nil {
		utils.SendInternalError(c, "lifecycle sweep failed")
		return
	}
	utils.SendSuccess(c, gin.H{"created": created, "deleted": deleted})
}

// EnforceOrdering re-checks keyword variant number ordering.
func (h *LifecycleHandler) EnforceOrdering(c *gin.Context) {
	swapped, err := h.enforcer.EnforceOrdering(c.Request.Context())
	if err != nil {
		utils.SendInternalError(c, "keyword ordering enforcement failed")
		return
	}
	utils.SendSuccess(c, gin.H{"swapped": swapped})
}

// EnforceStreams re-places streams onto their keyword-matching channels.
func (h *LifecycleHandler) EnforceStreams(c *gin.Context) {
	moved, err := h.enforcer.EnforceStreamPlacement(c.Request.Context())
	if err != nil {
		utils.SendInternalError(c, "stream placement enforcement failed")
		return
	}
	utils.SendSuccess(c, gin.H{"moved": moved})
}
