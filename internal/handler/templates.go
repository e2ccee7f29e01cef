package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/coldreach/email-generator/internal/middleware"
	"github.com/coldreach/email-generator/internal/model"
	"github.com/coldreach/email-generator/internal/service"
	"github.com/coldreach/email-generator/pkg/logger"
)

// TemplateHandler handles template endpoints.
type TemplateHandler struct {
	service *service.TemplateService
	logger  *logger.Logger
}

// NewTemplateHandler creates a new template handler.
func NewTemplateHandler(svc *service.TemplateService, log *logger.Logger) *TemplateHandler {
	return &TemplateHandler{
		service: svc,
		logger:  log,
	}
}

// List handles GET /api/v1/templates
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.List(r.Context())
	if err != nil {
		respondError(w, h.logger, err, "failed to list templates")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /api/v1/templates
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.CreateTemplateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateCreateTemplate(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tpl, err := h.service.Create(ctx, middleware.GetUserID(ctx), &req)
	if err != nil {
		respondError(w, h.logger, err, "failed to create template")
		return
	}

	writeJSON(w, http.StatusCreated, tpl)
}

// Get handles GET /api/v1/templates/{templateID}
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "templateID")
	if err := middleware.ValidateTemplateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tpl, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err, "failed to get template")
		return
	}

	writeJSON(w, http.StatusOK, tpl)
}

// Search handles POST /api/v1/templates/search
func (h *TemplateHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req model.SearchTemplatesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateSearch(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.Search(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err, "failed to search templates")
		return
	}

	h.logger.Debug("template search",
		zap.Int("results", len(resp.Templates)),
		zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
	)
	writeJSON(w, http.StatusOK, resp)
}
