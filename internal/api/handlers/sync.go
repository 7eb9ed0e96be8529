package handlers

import (
	"net/http"
	"strings"

	"sellersync/internal/logger"
	"sellersync/internal/scheduler"
	"sellersync/internal/states"
	"sellersync/internal/store"
	syncjob "sellersync/internal/sync"

	"github.com/gin-gonic/gin"
)

// SyncHandler exposes the manual operator triggers: immediate
// single-state sync, full fan-out, and purge.
type SyncHandler struct {
	scheduler    *scheduler.Scheduler
	orchestrator *syncjob.Orchestrator
	reconciler   *store.Reconciler
	logger       *logger.Logger
}

func NewSyncHandler(sched *scheduler.Scheduler, orch *syncjob.Orchestrator, rec *store.Reconciler, logger *logger.Logger) *SyncHandler {
	return &SyncHandler{
		scheduler:    sched,
		orchestrator: orch,
		reconciler:   rec,
		logger:       logger,
	}
}

// EnqueueAll queues one staggered job per state. Safe to call while a
// fan-out is pending; already-queued states are skipped.
func (h *SyncHandler) EnqueueAll(c *gin.Context) {
	queued, err := h.scheduler.EnqueueAllStates(c.Request.Context())
	if err != nil {
		h.logger.Error("manual fan-out failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue sync"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "seller sync queued", "queued": queued})
}

// SyncState runs one state's sync synchronously. Partial failures
// inside the run are logged, not surfaced.
func (h *SyncHandler) SyncState(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("state")))

	if !states.Known(code) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown state code"})
		return
	}

	if err := h.orchestrator.SyncState(c.Request.Context(), code); err != nil {
		h.logger.Error("manual state sync failed (state=%s): %v", code, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "State sync failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "state sync complete: " + code})
}

// Purge deletes every synced seller, logo asset, and state term.
// Routed behind the admin token middleware.
func (h *SyncHandler) Purge(c *gin.Context) {
	if err := h.reconciler.Purge(c.Request.Context()); err != nil {
		h.logger.Error("purge failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Purge failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "sellers and states purged"})
}
