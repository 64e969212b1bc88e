package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/fixdesk-api/internal/application/service"
	"github.com/sangkips/fixdesk-api/internal/presentation/http/dto/request"
	"github.com/sangkips/fixdesk-api/internal/presentation/http/dto/response"
)

// SessionHandler handles cash register session requests
type SessionHandler struct {
	sessions *service.SessionService
	reports  *service.ReconciliationService
	exports  *service.ReportExportService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *service.SessionService, reports *service.ReconciliationService, exports *service.ReportExportService) *SessionHandler {
	return &SessionHandler{sessions: sessions, reports: reports, exports: exports}
}

// Ensure returns today's session of a location, opening it if needed.
func (h *SessionHandler) Ensure(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	var req request.EnsureSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.sessions.EnsureSession(c.Request.Context(), req.LocationID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Session ready", session)
}

// Get returns a session with its running totals.
func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	session, err := h.sessions.GetSession(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Session retrieved successfully", session)
}

// SetOpeningCash records the float put into the drawer.
func (h *SessionHandler) SetOpeningCash(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req request.OpeningCashRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.sessions.SetOpeningCash(c.Request.Context(), id, userID, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Opening cash updated", session)
}

// Close closes the register and returns the final Z report.
func (h *SessionHandler) Close(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req request.CloseSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	session, report, err := h.sessions.CloseRegister(c.Request.Context(), id, userID, req.ClosingCash)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Register closed", gin.H{
		"session": session,
		"report":  report,
	})
}

// GenerateReport recomputes the session's daily report.
func (h *SessionHandler) GenerateReport(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	report, err := h.reports.GenerateReport(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Report generated", report)
}

// GetReport returns the stored daily report.
func (h *SessionHandler) GetReport(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	report, err := h.reports.GetReport(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Report retrieved successfully", report)
}

// ReportPDF downloads the daily report as a PDF.
func (h *SessionHandler) ReportPDF(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	data, report, err := h.exports.PDF(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("z-report-%s.pdf", report.BusinessDate.Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
