package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/teamarr/teamarr/internal/cache"
	"github.com/teamarr/teamarr/pkg/utils"
)

type CacheHandler struct {
	cache *cache.Cache
}

func NewCacheHandler(c *cache.Cache) *CacheHandler {
	return &CacheHandler{cache: c}
}

func (h *CacheHandler) Stats(c *gin.Context) {
	stats, err := h.cache.Stats(c.Request.Context())
	if err != nil {
		utils.SendInternalError(c, "failed to read cache stats")
		return
	}
	utils.SendSuccess(c, stats)
}

func (h *CacheHandler) Clear(c *gin.Context) {
	if err := h.cache.Clear(c.Request.Context()); err != nil {
		utils.SendInternalError(c, "failed to clear cache")
		return
	}
	utils.SendSuccess(c, gin.H{"cleared": true})
}

func (h *CacheHandler) Purge(c *gin.Context) {
	removed, err := h.cache.Purge(c.Request.Context())
	if err != nil {
		utils.SendInternalError(c, "failed to purge cache")
		return
	}
	utils.SendSuccess(c, gin.H{"removed": removed})
}
