package handler

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/coldreach/email-generator/internal/middleware"
	"github.com/coldreach/email-generator/internal/model"
	"github.com/coldreach/email-generator/internal/service"
	"github.com/coldreach/email-generator/pkg/logger"
)

// EmailHandler handles email generation endpoints.
type EmailHandler struct {
	service *service.EmailService
	logger  *logger.Logger
}

// NewEmailHandler creates a new email handler.
func NewEmailHandler(svc *service.EmailService, log *logger.Logger) *EmailHandler {
	return &EmailHandler{
		service: svc,
		logger:  log,
	}
}

// Generate handles POST /api/v1/emails/generate
func (h *EmailHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.GenerateEmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateGenerateRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.Generate(ctx, middleware.GetUserID(ctx), &req)
	if err != nil {
		respondError(w, h.logger.WithRequest(middleware.GetCorrelationID(ctx), middleware.GetUserID(ctx)), err, "failed to generate email")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Events handles GET /api/v1/emails/events
func (h *EmailHandler) Events(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", service.DefaultEventLimit)
	if err != nil || limit <= 0 || limit > service.MaxEventLimit {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(service.MaxEventLimit))
		return
	}

	var after uint64
	if a := r.URL.Query().Get("after"); a != "" {
		after, err = strconv.ParseUint(a, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "after must be a sequence number")
			return
		}
	}

	resp, err := h.service.History(r.Context(), after, limit)
	if err != nil {
		respondError(w, h.logger, err, "failed to list events")
		return
	}

	h.logger.Debug("listed events", zap.Int("count", len(resp.Events)), zap.Uint64("after", after))
	writeJSON(w, http.StatusOK, resp)
}
