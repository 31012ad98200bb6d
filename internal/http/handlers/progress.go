package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/linguapath-backend/internal/http/middleware"
	"github.com/yungbote/linguapath-backend/internal/http/response"
	"github.com/yungbote/linguapath-backend/internal/platform/logger"
	"github.com/yungbote/linguapath-backend/internal/services"
)

type ProgressHandler struct {
	log      *logger.Logger
	progress services.ProgressService
}

func NewProgressHandler(log *logger.Logger, svc services.ProgressService) *ProgressHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ProgressHandler{log: log.With("handler", "ProgressHandler"), progress: svc}
}

// POST /progress/attempts
func (h *ProgressHandler) RecordAttempt(c *gin.Context) {
	var req services.RecordAttemptInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if !middleware.CanActFor(c.Request.Context(), req.UserID) {
		response.RespondError(c, http.StatusForbidden, "forbidden", errForbidden)
		return
	}
	out, err := h.progress.RecordAttempt(c.Request.Context(), req)
	if err != nil {
		h.log.Warn("record attempt failed", "user_id", req.UserID, "subconcept_id", req.SubconceptID, "error", err)
		response.RespondErr(c, "record_attempt_failed", err)
		return
	}
	response.RespondCreated(c, out)
}

type setCompletionRequest struct {
	Completed *bool `json:"completed"`
}

// PUT /progress/completion/:userId/:unitId
func (h *ProgressHandler) SetUnitCompletion(c *gin.Context) {
	ids, ok := pathIDs(c, "userId", "unitId")
	if !ok {
		return
	}
	var req setCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Completed == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errMissingCompleted)
		return
	}
	out, err := h.progress.SetUnitCompletion(c.Request.Context(), services.SetUnitCompletionInput{
		UserID:    ids[0],
		UnitID:    ids[1],
		Completed: *req.Completed,
	})
	if err != nil {
		h.log.Warn("set unit completion failed", "user_id", ids[0], "unit_id", ids[1], "error", err)
		response.RespondErr(c, "set_completion_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"completion": out})
}
