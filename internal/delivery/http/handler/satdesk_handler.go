package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"satdesk-manager/internal/usecase/satdesk"
	"satdesk-manager/pkg/utils"
)

type SatDeskHandler struct {
	service *satdesk.Service
}

func NewSatDeskHandler(service *satdesk.Service) *SatDeskHandler {
	return &SatDeskHandler{service: service}
}

func (h *SatDeskHandler) RegisterRoutes(router *gin.RouterGroup) {
	desks := router.Group("/satdesks")
	{
		desks.POST("", h.CreateSatDesk)
		desks.GET("", h.ListSatDesks)
		desks.GET("/:id", h.GetSatDesk)
		desks.PATCH("/:id", h.UpdateSatDesk)
	}
}

func (h *SatDeskHandler) CreateSatDesk(c *gin.Context) {
	var req satdesk.CreateSatDeskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "SatDesk created successfully", resp)
}

func (h *SatDeskHandler) GetSatDesk(c *gin.Context) {
	deskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid SatDesk ID")
		return
	}

	resp, err := h.service.Get(c.Request.Context(), deskID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "SatDesk retrieved successfully", resp)
}

func (h *SatDeskHandler) ListSatDesks(c *gin.Context) {
	resp, err := h.service.List(c.Request.Context())
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "SatDesks retrieved successfully", resp)
}

func (h *SatDeskHandler) UpdateSatDesk(c *gin.Context) {
	deskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid SatDesk ID")
		return
	}

	var req satdesk.UpdateSatDeskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.Update(c.Request.Context(), deskID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "SatDesk updated successfully", resp)
}
