package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/persistor/internal/models"
)

// BulkHandler serves batch operation endpoints.
type BulkHandler struct {
	repo BulkRepository
	log  *logrus.Logger
}

// NewBulkHandler creates a BulkHandler with the given repository and logger.
func NewBulkHandler(repo BulkRepository, log *logrus.Logger) *BulkHandler {
	return &BulkHandler{repo: repo, log: log}
}

// BulkConcepts handles POST /api/bulk/concepts.
func (h *BulkHandler) BulkConcepts(c *gin.Context) {
	var reqs []models.CreateConceptRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if len(reqs) > 1000 {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "bulk request exceeds maximum of 1000 items")

		return
	}

	for i, req := range reqs {
		if err := req.Validate(); err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeValidationError, "item "+strconv.Itoa(i)+": "+err.Error())

			return
		}
	}

	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	upserted, err := h.repo.BulkUpsertConcepts(c.Request.Context(), tenantID, reqs)
	if err != nil {
		h.log.WithError(err).Error("bulk upserting concepts")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{"action": "bulk.concepts", "tenant_id": tenantID, "upserted": upserted}).Info("audit")

	c.JSON(http.StatusOK, gin.H{"upserted": upserted})
}

// BulkRelations handles POST /api/bulk/relations.
func (h *BulkHandler) BulkRelations(c *gin.Context) {
	var reqs []models.CreateRelationRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if len(reqs) > 1000 {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "bulk request exceeds maximum of 1000 items")

		return
	}

	for i, req := range reqs {
		if err := req.Validate(); err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeValidationError, "item "+strconv.Itoa(i)+": "+err.Error())

			return
		}
	}

	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	upserted, err := h.repo.BulkUpsertRelations(c.Request.Context(), tenantID, reqs)
	if err != nil {
		h.log.WithError(err).Error("bulk upserting relations")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{"action": "bulk.relations", "tenant_id": tenantID, "upserted": upserted}).Info("audit")

	c.JSON(http.StatusOK, gin.H{"upserted": upserted})
}
