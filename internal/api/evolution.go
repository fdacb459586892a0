package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// EvolutionHandler serves the Evolution Tracker's public endpoints.
type EvolutionHandler struct {
	repo EvolutionRepository
	log  *logrus.Logger
}

// NewEvolutionHandler creates an EvolutionHandler with the given repository and logger.
func NewEvolutionHandler(repo EvolutionRepository, log *logrus.Logger) *EvolutionHandler {
	return &EvolutionHandler{repo: repo, log: log}
}

// Snapshot handles GET /api/evolution.
func (h *EvolutionHandler) Snapshot(c *gin.Context) {
	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	c.JSON(http.StatusOK, h.repo.Snapshot(tenantID))
}

// Evaluate handles POST /api/evolution/evaluate, triggering an out-of-band
// advancement check instead of waiting for the next query-driven evaluation.
func (h *EvolutionHandler) Evaluate(c *gin.Context) {
	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	result, err := h.repo.EvaluateAdvancement(c.Request.Context(), tenantID)
	if err != nil {
		h.log.WithError(err).Error("evaluating evolution advancement")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{
		"action": "evolution.evaluate", "tenant_id": tenantID,
		"advanced": result.Advanced, "to_phase": result.ToPhase,
	}).Info("audit")

	c.JSON(http.StatusOK, result)
}
