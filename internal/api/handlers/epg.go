package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/teamarr/teamarr/internal/epg"
	"github.com/teamarr/teamarr/internal/models"
	"github.com/teamarr/teamarr/internal/services"
	"github.com/teamarr/teamarr/pkg/utils"
)

// EPGHandler exposes guide generation and the rendered XMLTV document.
// One generation runs at a time; the latest output is kept in memory for
// /epg.xml and re-served until the next cycle replaces it.
type EPGHandler struct {
	db     *gorm.DB
	orch   *epg.Orchestrator
	hub    *services.WebSocketHub
	upload func(ctx context.Context, xml []byte) error

	mu       sync.Mutex
	running  bool
	lastXML  []byte
	lastRun  *epg.GenerationStats
	lastErr  string
	lastTime time.Time
}

func NewEPGHandler(db *gorm.DB, orch *epg.Orchestrator, hub *services.WebSocketHub, upload func(ctx context.Context, xml []byte) error) *EPGHandler {
	return &EPGHandler{db: db, orch: orch, hub: hub, upload: upload}
}

// Generate runs a full cycle in the background, streaming per-team
// progress over the websocket hub.
func (h *EPGHandler) Generate(c *gin.Context) {
	var payload struct {
		DaysAhead     int    `json:"days_ahead"`
		StartDatetime string `json:"start_datetime"`
	}
	_ = c.ShouldBindJSON(&payload)

	var explicit *time.Time
	if payload.StartDatetime != "" {
		t, err := time.Parse(time.RFC3339, payload.StartDatetime)
		if err != nil {
			utils.SendValidationError(c, "start_datetime must be RFC3339", payload.StartDatetime)
			return
		}
		explicit = &t
	}

	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		utils.SendConflict(c, "generation already in progress")
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run(epg.GenerateOptions{
		DaysAhead:     payload.DaysAhead,
		StartDatetime: explicit,
		Progress: func(done, total int, teamName string) {
			h.hub.Broadcast("epg_progress", gin.H{
				"done": done, "total": total, "team": teamName,
			})
		},
	})
	utils.SendSuccess(c, gin.H{"started": true})
}

func (h *EPGHandler) run(opts epg.GenerateOptions) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	defer func() {
		h.mu.Lock()
		h.running = false
		h.mu.Unlock()
	}()

	started := time.Now()
	result, err := h.orch.Generate(ctx, opts)
	if err != nil {
		logrus.Errorf("[EPG] Generation failed: %v", err)
		h.mu.Lock()
		h.lastErr = err.Error()
		h.mu.Unlock()
		h.recordRun(started, nil, err)
		h.hub.Broadcast("epg_complete", gin.H{"error": err.Error()})
		return
	}
	h.recordRun(started, result, nil)

	var buf bytes.Buffer
	if err := epg.WriteXMLTV(&buf, result.Listings); err != nil {
		logrus.Errorf("[EPG] XMLTV encoding failed: %v", err)
		h.hub.Broadcast("epg_complete", gin.H{"error": err.Error()})
		return
	}

	h.mu.Lock()
	h.lastXML = buf.Bytes()
	h.lastRun = &result.Stats
	h.lastErr = ""
	h.lastTime = time.Now()
	h.mu.Unlock()

	if h.upload != nil {
		if err := h.upload(ctx, buf.Bytes()); err != nil {
			logrus.Warnf("[EPG] Downstream upload failed: %v", err)
		}
	}
	h.hub.Broadcast("epg_complete", result.Stats)
}

// RunNow generates synchronously. Used by the scheduler, not routed.
func (h *EPGHandler) RunNow(ctx context.Context) error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = true
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.run(epg.GenerateOptions{})
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// recordRun appends a run-history row; failures here never affect the
// cycle itself.
func (h *EPGHandler) recordRun(started time.Time, result *epg.GenerationResult, genErr error) {
	row := models.GenerationRun{
		ID:         uuid.NewString(),
		Success:    genErr == nil,
		StartedAt:  started,
		DurationMS: time.Since(started).Milliseconds(),
	}
	if genErr != nil {
		row.Error = genErr.Error()
	} else {
		row.Channels = result.Stats.Channels
		row.Programmes = result.Stats.Programmes
		if data, err := json.Marshal(result.Stats); err == nil {
			row.Stats = datatypes.JSON(data)
		}
	}
	if err := h.db.Create(&row).Error; err != nil {
		logrus.Warnf("[EPG] Could not record generation run: %v", err)
	}
}

// ListRuns returns recent generation runs, newest first.
func (h *EPGHandler) ListRuns(c *gin.Context) {
	var rows []models.GenerationRun
	if err := h.db.Order("started_at desc").Limit(50).Find(&rows).Error; err != nil {
		utils.SendInternalError(c, "failed to load generation runs")
		return
	}
	utils.SendSuccess(c, rows)
}

// ServeXMLTV returns the latest rendered guide. 503 until the first
// cycle completes.
func (h *EPGHandler) ServeXMLTV(c *gin.Context) {
	h.mu.Lock()
	data := h.lastXML
	h.mu.Unlock()
	if len(data) == 0 {
		utils.SendUnavailable(c, "guide not generated yet")
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", data)
}

// Status reports the last run's stats and whether a cycle is active.
func (h *EPGHandler) Status(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var teams int64
	h.db.Model(&models.TeamConfig{}).Where("enabled = ?", true).Count(&teams)
	utils.SendSuccess(c, gin.H{
		"running":       h.running,
		"enabled_teams": teams,
		"last_error":    h.lastErr,
		"last_run_at":   h.lastTime,
		"last_stats":    h.lastRun,
	})
}
