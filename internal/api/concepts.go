package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/persistor/internal/models"
)

// ConceptHandler serves concept CRUD endpoints.
type ConceptHandler struct {
	repo ConceptRepository
	log  *logrus.Logger
}

// NewConceptHandler creates a ConceptHandler with the given service and logger.
func NewConceptHandler(repo ConceptRepository, log *logrus.Logger) *ConceptHandler {
	return &ConceptHandler{repo: repo, log: log}
}

// List handles GET /api/concepts.
func (h *ConceptHandler) List(c *gin.Context) {
	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}
	typeFilter := c.Query("type")
	minStrength := parseFloat(c.DefaultQuery("min_strength", "0"))
	limit := parseInt(c.DefaultQuery("limit", "50"), 50)
	offset := parseOffset(c.DefaultQuery("offset", "0"))

	concepts, hasMore, err := h.repo.ListConcepts(c.Request.Context(), tenantID, typeFilter, minStrength, limit, offset)
	if err != nil {
		h.log.WithError(err).Error("listing concepts")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{"action": "concept.list", "tenant_id": tenantID, "type": typeFilter, "count": len(concepts)}).Info("audit")

	c.JSON(http.StatusOK, gin.H{"concepts": concepts, "has_more": hasMore})
}

// Get handles GET /api/concepts/:id.
func (h *ConceptHandler) Get(c *gin.Context) {
	conceptID := c.Param("id")
	if err := validatePathID(conceptID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	concept, err := h.repo.GetConcept(c.Request.Context(), tenantID, conceptID)
	if err != nil {
		if errors.Is(err, models.ErrConceptNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "concept not found")

			return
		}

		h.log.WithError(err).Error("getting concept")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{"action": "concept.get", "tenant_id": tenantID, "concept_id": conceptID}).Info("audit")

	c.JSON(http.StatusOK, concept)
}

// Create handles POST /api/concepts.
func (h *ConceptHandler) Create(c *gin.Context) {
	var req models.CreateConceptRequest
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

	concept, err := h.repo.CreateConcept(c.Request.Context(), tenantID, req)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			respondError(c, http.StatusConflict, "conflict", "concept with this ID already exists")

			return
		}

		h.log.WithError(err).Error("creating concept")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{"action": "concept.create", "tenant_id": tenantID, "concept_id": concept.ID}).Info("audit")

	c.JSON(http.StatusCreated, concept)
}

// Update handles PUT /api/concepts/:id.
func (h *ConceptHandler) Update(c *gin.Context) {
	conceptID := c.Param("id")
	if err := validatePathID(conceptID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	var req models.UpdateConceptRequest
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

	concept, err := h.repo.UpdateConcept(c.Request.Context(), tenantID, conceptID, req)
	if err != nil {
		if errors.Is(err, models.ErrConceptNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "concept not found")

			return
		}

		h.log.WithError(err).Error("updating concept")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{"action": "concept.update", "tenant_id": tenantID, "concept_id": conceptID}).Info("audit")

	c.JSON(http.StatusOK, concept)
}

// PatchProperties handles PATCH /api/concepts/:id/properties.
func (h *ConceptHandler) PatchProperties(c *gin.Context) {
	conceptID := c.Param("id")
	if err := validatePathID(conceptID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	var req models.PatchPropertiesRequest
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

	concept, err := h.repo.PatchConceptProperties(c.Request.Context(), tenantID, conceptID, req)
	if err != nil {
		if errors.Is(err, models.ErrConceptNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "concept not found")

			return
		}

		h.log.WithError(err).Error("patching concept properties")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{"action": "concept.patch_properties", "tenant_id": tenantID, "concept_id": conceptID}).Info("audit")

	c.JSON(http.StatusOK, concept)
}

// Merge handles POST /api/concepts/:id/merge. The path concept is always the
// merge winner; the loser comes from the request body. Any winner_id sent in
// the body is overwritten with the path id.
func (h *ConceptHandler) Merge(c *gin.Context) {
	conceptID := c.Param("id")
	if err := validatePathID(conceptID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	var req models.MergeConceptsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	req.WinnerID = conceptID

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	result, err := h.repo.MergeConcepts(c.Request.Context(), tenantID, req)
	if err != nil {
		if errors.Is(err, models.ErrConceptNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "concept not found")

			return
		}

		h.log.WithError(err).Error("merging concepts")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{
		"action": "concept.merge", "tenant_id": tenantID,
		"loser_id": req.LoserID, "winner_id": req.WinnerID,
	}).Info("audit")

	c.JSON(http.StatusOK, result)
}

// Delete handles DELETE /api/concepts/:id.
func (h *ConceptHandler) Delete(c *gin.Context) {
	conceptID := c.Param("id")
	if err := validatePathID(conceptID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	err := h.repo.DeleteConcept(c.Request.Context(), tenantID, conceptID)
	if err != nil {
		if errors.Is(err, models.ErrConceptNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "concept not found")

			return
		}

		h.log.WithError(err).Error("deleting concept")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{"action": "concept.delete", "tenant_id": tenantID, "concept_id": conceptID}).Info("audit")

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
