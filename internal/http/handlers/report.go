package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/linguapath-backend/internal/http/response"
	"github.com/yungbote/linguapath-backend/internal/modules/reports"
	"github.com/yungbote/linguapath-backend/internal/platform/logger"
)

type ReportHandler struct {
	log     *logger.Logger
	reports reports.Service
}

func NewReportHandler(log *logger.Logger, svc reports.Service) *ReportHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ReportHandler{log: log.With("handler", "ReportHandler"), reports: svc}
}

// GET /report/program/:userId/:programId
func (h *ReportHandler) ProgramReport(c *gin.Context) {
	ids, ok := pathIDs(c, "userId", "programId")
	if !ok {
		return
	}
	out, err := h.reports.ProgramReport(c.Request.Context(), ids[0], ids[1])
	if err != nil {
		h.fail(c, "program_report_failed", err)
		return
	}
	response.RespondOK(c, out)
}

// GET /report/program/:userId/:programId/concepts
func (h *ReportHandler) ProgramConcepts(c *gin.Context) {
	ids, ok := pathIDs(c, "userId", "programId")
	if !ok {
		return
	}
	out, err := h.reports.ProgramConcepts(c.Request.Context(), ids[0], ids[1])
	if err != nil {
		h.fail(c, "concept_report_failed", err)
		return
	}
	response.RespondOK(c, out)
}

// GET /report/user/:userId/summary
func (h *ReportHandler) UserSummary(c *gin.Context) {
	ids, ok := pathIDs(c, "userId")
	if !ok {
		return
	}
	out, err := h.reports.UserSummary(c.Request.Context(), ids[0])
	if err != nil {
		h.fail(c, "user_summary_failed", err)
		return
	}
	response.RespondOK(c, out)
}

// GET /report/attempts/:userId/:subconceptId
func (h *ReportHandler) UserAttempts(c *gin.Context) {
	ids, ok := pathIDs(c, "userId", "subconceptId")
	if !ok {
		return
	}
	rows, err := h.reports.UserAttempts(c.Request.Context(), ids[0], ids[1])
	if err != nil {
		h.fail(c, "attempts_failed", err)
		return
	}
	response.RespondOK(c, gin.H{
		"user_id":       ids[0],
		"subconcept_id": ids[1],
		"attempts":      rows,
	})
}

func (h *ReportHandler) fail(c *gin.Context, code string, err error) {
	h.log.Warn("report request failed", "path", c.FullPath(), "error", err)
	response.RespondErr(c, code, err)
}
