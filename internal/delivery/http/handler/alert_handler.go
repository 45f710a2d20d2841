package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"satdesk-manager/internal/alerts"
	"satdesk-manager/pkg/utils"
)

type AlertHandler struct {
	engine *alerts.Engine
}

func NewAlertHandler(engine *alerts.Engine) *AlertHandler {
	return &AlertHandler{engine: engine}
}

func (h *AlertHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/alerts")
	{
		group.GET("", h.ScanAlerts)
		group.POST("/:id/dismiss", h.DismissAlert)
	}
}

// ScanAlerts recomputes the full alert set from current registry state.
func (h *AlertHandler) ScanAlerts(c *gin.Context) {
	result, err := h.engine.Scan(c.Request.Context(), time.Now())
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Alerts retrieved successfully", result)
}

func (h *AlertHandler) DismissAlert(c *gin.Context) {
	alertID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid alert ID")
		return
	}

	if err := h.engine.Dismiss(c.Request.Context(), alertID); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Alert dismissed successfully", nil)
}
