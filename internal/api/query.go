package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/persistor/internal/models"
)

// QueryHandler serves the Query Router's public endpoints.
type QueryHandler struct {
	repo RouterRepository
	log  *logrus.Logger
}

// NewQueryHandler creates a QueryHandler with the given repository and logger.
func NewQueryHandler(repo RouterRepository, log *logrus.Logger) *QueryHandler {
	return &QueryHandler{repo: repo, log: log}
}

// Execute handles POST /api/query.
func (h *QueryHandler) Execute(c *gin.Context) {
	var req models.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	result, err := h.repo.Execute(c.Request.Context(), tenantID, req)
	if err != nil {
		if errors.Is(err, models.ErrQuotaExceeded) {
			respondError(c, http.StatusTooManyRequests, ErrCodeRateLimited, "query quota exceeded")

			return
		}

		h.log.WithError(err).Error("executing routed query")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{
		"action": "query.execute", "tenant_id": tenantID,
		"decision": result.Decision, "degraded": result.Degraded,
	}).Info("audit")

	c.JSON(http.StatusOK, result)
}

// Explain handles POST /api/query/explain.
func (h *QueryHandler) Explain(c *gin.Context) {
	var req models.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	result, err := h.repo.ExplainQuery(c.Request.Context(), tenantID, req)
	if err != nil {
		h.log.WithError(err).Error("explaining routed query")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, result)
}
