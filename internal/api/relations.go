package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/persistor/internal/models"
)

// RelationHandler serves relation CRUD endpoints.
type RelationHandler struct {
	repo RelationRepository
	log  *logrus.Logger
}

// NewRelationHandler creates a RelationHandler with the given service and logger.
func NewRelationHandler(repo RelationRepository, log *logrus.Logger) *RelationHandler {
	return &RelationHandler{repo: repo, log: log}
}

// List handles GET /api/relations.
func (h *RelationHandler) List(c *gin.Context) {
	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}
	source := c.Query("source")
	target := c.Query("target")
	relType := c.Query("type")
	limit := parseInt(c.DefaultQuery("limit", "50"), 50)
	offset := parseOffset(c.DefaultQuery("offset", "0"))

	relations, hasMore, err := h.repo.ListRelations(c.Request.Context(), tenantID, source, target, relType, limit, offset)
	if err != nil {
		h.log.WithError(err).Error("listing relations")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"relations": relations, "has_more": hasMore})
}

// Create handles POST /api/relations.
func (h *RelationHandler) Create(c *gin.Context) {
	var req models.CreateRelationRequest
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

	relation, err := h.repo.CreateRelation(c.Request.Context(), tenantID, req)
	if err != nil {
		if errors.Is(err, models.ErrConceptNotFound) {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

			return
		}

		if errors.Is(err, models.ErrDuplicateKey) {
			respondError(c, http.StatusConflict, "conflict", "relation with this source/target/type already exists")

			return
		}

		h.log.WithError(err).Error("creating relation")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{"action": "relation.create", "tenant_id": tenantID, "source": req.Source, "target": req.Target, "type": req.Type}).Info("audit")

	c.JSON(http.StatusCreated, relation)
}

// Update handles PUT /api/relations/:source/:target/:type.
func (h *RelationHandler) Update(c *gin.Context) {
	source := c.Param("source")
	target := c.Param("target")
	relType := c.Param("type")

	for _, pair := range []struct{ name, val string }{{"source", source}, {"target", target}, {"type", relType}} {
		if err := validatePathID(pair.val); err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid "+pair.name+": "+err.Error())
			return
		}
	}

	var req models.UpdateRelationRequest
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

	relation, err := h.repo.UpdateRelation(c.Request.Context(), tenantID, source, target, relType, req)
	if err != nil {
		if errors.Is(err, models.ErrRelationNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "relation not found")

			return
		}

		h.log.WithError(err).Error("updating relation")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{"action": "relation.update", "tenant_id": tenantID, "source": source, "target": target, "type": relType}).Info("audit")

	c.JSON(http.StatusOK, relation)
}

// PatchProperties handles PATCH /api/relations/:source/:target/:type/properties.
func (h *RelationHandler) PatchProperties(c *gin.Context) {
	source := c.Param("source")
	target := c.Param("target")
	relType := c.Param("type")

	for _, pair := range []struct{ name, val string }{{"source", source}, {"target", target}, {"type", relType}} {
		if err := validatePathID(pair.val); err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid "+pair.name+": "+err.Error())

			return
		}
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

	relation, err := h.repo.PatchRelationProperties(c.Request.Context(), tenantID, source, target, relType, req)
	if err != nil {
		if errors.Is(err, models.ErrRelationNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "relation not found")

			return
		}

		h.log.WithError(err).Error("patching relation properties")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{
		"action": "relation.patch_properties", "tenant_id": tenantID,
		"source": source, "target": target, "type": relType,
	}).Info("audit")

	c.JSON(http.StatusOK, relation)
}

// Delete handles DELETE /api/relations/:source/:target/:type.
func (h *RelationHandler) Delete(c *gin.Context) {
	source := c.Param("source")
	target := c.Param("target")
	relType := c.Param("type")

	for _, pair := range []struct{ name, val string }{{"source", source}, {"target", target}, {"type", relType}} {
		if err := validatePathID(pair.val); err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid "+pair.name+": "+err.Error())
			return
		}
	}

	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	err := h.repo.DeleteRelation(c.Request.Context(), tenantID, source, target, relType)
	if err != nil {
		if errors.Is(err, models.ErrRelationNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "relation not found")

			return
		}

		h.log.WithError(err).Error("deleting relation")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{"action": "relation.delete", "tenant_id": tenantID, "source": source, "target": target, "type": relType}).Info("audit")

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
