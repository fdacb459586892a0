package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// QuotaHandler serves the Quota Gate's public endpoints.
type QuotaHandler struct {
	repo QuotaRepository
	log  *logrus.Logger
}

// NewQuotaHandler creates a QuotaHandler with the given repository and logger.
func NewQuotaHandler(repo QuotaRepository, log *logrus.Logger) *QuotaHandler {
	return &QuotaHandler{repo: repo, log: log}
}

// Usage handles GET /api/quota.
func (h *QuotaHandler) Usage(c *gin.Context) {
	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	snapshot, err := h.repo.Usage(c.Request.Context(), tenantID)
	if err != nil {
		h.log.WithError(err).Error("reading quota usage")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, snapshot)
}
