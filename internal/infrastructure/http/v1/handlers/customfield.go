package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"customfields/internal/core/apperror"
	"customfields/internal/domain/customfield"
	"customfields/internal/infrastructure/http/v1/dto"
	"customfields/internal/infrastructure/metrics"
	"customfields/internal/infrastructure/storage/postgres"
)

// HistoryReader returns the audit trail of one definition.
type HistoryReader interface {
	History(ctx context.Context, tenantID, definitionID string, limit int) ([]postgres.AuditEntry, error)
}

// CustomFieldHandler serves the custom field definitions API.
type CustomFieldHandler struct {
	*BaseHandler
	service *customfield.Service
	history HistoryReader
	metrics *metrics.Metrics
}

// CustomFieldHandlerConfig configures the handler. History and Metrics are optional.
type CustomFieldHandlerConfig struct {
	Service *customfield.Service
	History HistoryReader
	Metrics *metrics.Metrics
}

// NewCustomFieldHandler creates a new custom field handler.
func NewCustomFieldHandler(base *BaseHandler, cfg CustomFieldHandlerConfig) *CustomFieldHandler {
	return &CustomFieldHandler{
		BaseHandler: base,
		service:     cfg.Service,
		history:     cfg.History,
		metrics:     cfg.Metrics,
	}
}

// List handles GET /custom-fields.
func (h *CustomFieldHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToListFilter()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid filter format (json expected)").
			WithDetail("error", err.Error()))
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Create handles POST /custom-fields.
func (h *CustomFieldHandler) Create(c *gin.Context) {
	var d customfield.Definition
	if !h.BindJSON(c, &d) {
		return
	}

	created, err := h.service.Create(c.Request.Context(), &d)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, created)
}

// ReplaceAll handles PUT /custom-fields.
// The body is the complete ordered list of definitions of the tenant.
func (h *CustomFieldHandler) ReplaceAll(c *gin.Context) {
	var defs []*customfield.Definition
	if !h.BindJSON(c, &defs) {
		return
	}

	saved, err := h.service.ReplaceAll(c.Request.Context(), defs)
	if err != nil {
		if appErr, ok := apperror.AsAppError(err); ok && saved != nil {
			// definitions are committed; only record cleanup failed
			err = appErr.WithDetail("saved", saved)
		}
		h.Error(c, err)
		return
	}
	h.OK(c, saved)
}

// Get handles GET /custom-fields/:id.
func (h *CustomFieldHandler) Get(c *gin.Context) {
	d, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}

// Update handles PUT /custom-fields/:id.
func (h *CustomFieldHandler) Update(c *gin.Context) {
	var d customfield.Definition
	if !h.BindJSON(c, &d) {
		return
	}

	if err := h.service.Update(c.Request.Context(), c.Param("id"), &d); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Delete handles DELETE /custom-fields/:id.
func (h *CustomFieldHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Statistic handles GET /custom-fields/:id/stats.
func (h *CustomFieldHandler) Statistic(c *gin.Context) {
	stat, err := h.service.GetStatistic(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, stat)
}

// OptionStatistic handles GET /custom-fields/:id/options/:optId/stats.
func (h *CustomFieldHandler) OptionStatistic(c *gin.Context) {
	stat, err := h.service.GetOptionStatistic(c.Request.Context(), c.Param("id"), c.Param("optId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, stat)
}

// History handles GET /custom-fields/:id/history.
func (h *CustomFieldHandler) History(c *gin.Context) {
	if h.history == nil {
		h.Error(c, apperror.NewBusinessRule("HISTORY_DISABLED", "Audit history is not available"))
		return
	}
	var q dto.HistoryQuery
	if !h.BindQuery(c, &q) {
		return
	}

	ctx := c.Request.Context()
	// existence check keeps unknown ids a 404
	if _, err := h.service.Get(ctx, c.Param("id")); err != nil {
		h.Error(c, err)
		return
	}
	entries, err := h.history.History(ctx, h.GetTenantID(c), c.Param("id"), q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	if entries == nil {
		entries = []postgres.AuditEntry{}
	}
	h.OK(c, gin.H{"items": entries})
}

// ValidateValues handles POST /custom-fields/values/validate.
func (h *CustomFieldHandler) ValidateValues(c *gin.Context) {
	var req dto.ValidateValuesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	err := h.service.ValidateRecordValues(c.Request.Context(), req.Values)
	if h.metrics != nil {
		h.metrics.RecordValueValidation(err == nil)
	}
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ValidateValuesResponse{Valid: true})
}
