package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/fixdesk-api/internal/application/service"
	"github.com/sangkips/fixdesk-api/internal/presentation/http/dto/response"
)

// AdminHandler exposes maintenance operations
type AdminHandler struct {
	sessions *service.SessionService
}

func NewAdminHandler(sessions *service.SessionService) *AdminHandler {
	return &AdminHandler{sessions: sessions}
}

// DailyClose runs the end-of-day sweep across all tenants now.
func (h *AdminHandler) DailyClose(c *gin.Context) {
	result, err := h.sessions.AutoDailyClose(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Daily close completed", result)
}
