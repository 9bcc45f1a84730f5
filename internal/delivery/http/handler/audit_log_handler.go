package handler

import (
	"net/http"
	"strconv"

	"patient-appointments-bff/internal/delivery/http/middleware"
	"patient-appointments-bff/internal/usecase"
	"patient-appointments-bff/pkg/response"
)

type AuditLogHandler struct {
	auditLogUsecase usecase.AuditLogUsecase
}

func NewAuditLogHandler(auditLogUsecase usecase.AuditLogUsecase) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUsecase: auditLogUsecase,
	}
}

// GetActivity lists recent session events of the current patient
// @Summary Session activity
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Max entries"
// @Success 200 {object} response.Response
// @Router /auth/activity [get]
func (h *AuditLogHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(w, http.StatusBadRequest, "Invalid limit", nil)
			return
		}
		limit = parsed
	}

	logs, err := h.auditLogUsecase.GetSessionActivity(r.Context(), session, limit)
	if err != nil {
		response.InternalServerError(w, "Failed to get activity")
		return
	}

	response.Success(w, http.StatusOK, "Activity retrieved successfully", logs)
}
