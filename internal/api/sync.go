package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/persistor/internal/models"
)

// SyncHandler serves the Bidirectional Synchronizer's public endpoints.
type SyncHandler struct {
	repo SyncRepository
	log  *logrus.Logger
}

// NewSyncHandler creates a SyncHandler with the given repository and logger.
func NewSyncHandler(repo SyncRepository, log *logrus.Logger) *SyncHandler {
	return &SyncHandler{repo: repo, log: log}
}

// RunForward handles POST /api/sync/forward, triggering a forward pass
// outside its periodic ticker (spec §4.4's "periodic or triggered").
func (h *SyncHandler) RunForward(c *gin.Context) {
	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	summary, err := h.repo.RunOnce(c.Request.Context(), tenantID, models.SyncForward)
	if err != nil {
		h.log.WithError(err).Error("running forward sync")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{
		"action": "sync.forward", "tenant_id": tenantID,
		"rows_applied": summary.RowsApplied, "conflicts": summary.Conflicts,
	}).Info("audit")

	c.JSON(http.StatusOK, summary)
}

// Checkpoints handles GET /api/sync/checkpoints.
func (h *SyncHandler) Checkpoints(c *gin.Context) {
	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	checkpoints, err := h.repo.Checkpoints(c.Request.Context(), tenantID)
	if err != nil {
		h.log.WithError(err).Error("listing sync checkpoints")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"checkpoints": checkpoints})
}

// Quarantined handles GET /api/sync/quarantine.
func (h *SyncHandler) Quarantined(c *gin.Context) {
	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	limit := parseInt(c.DefaultQuery("limit", "50"), 50)
	offset := parseOffset(c.DefaultQuery("offset", "0"))

	entries, err := h.repo.Quarantined(c.Request.Context(), tenantID, limit, offset)
	if err != nil {
		h.log.WithError(err).Error("listing quarantined sync entries")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
