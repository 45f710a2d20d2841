package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"satdesk-manager/internal/usecase/allocation"
	"satdesk-manager/internal/usecase/device"
	"satdesk-manager/pkg/utils"
)

type AllocationHandler struct {
	service *allocation.Service
}

func NewAllocationHandler(service *allocation.Service) *AllocationHandler {
	return &AllocationHandler{service: service}
}

func (h *AllocationHandler) RegisterRoutes(router *gin.RouterGroup) {
	alloc := router.Group("/allocation")
	{
		alloc.POST("/candidates", h.FindCandidates)
		alloc.POST("/recommend", h.Recommend)
		alloc.POST("/claim", h.ClaimDevice)
		alloc.POST("/release/:id", h.ReleaseDevice)
		alloc.POST("/bulk", h.AllocateBulk)
	}
}

func (h *AllocationHandler) FindCandidates(c *gin.Context) {
	var req allocation.CandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.FindCandidates(c.Request.Context(), &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Candidates retrieved successfully", resp)
}

func (h *AllocationHandler) Recommend(c *gin.Context) {
	var req allocation.CandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.Recommend(c.Request.Context(), &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Recommendations retrieved successfully", resp)
}

func (h *AllocationHandler) ClaimDevice(c *gin.Context) {
	var req allocation.ClaimDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	claimed, err := h.service.Claim(c.Request.Context(), &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device claimed successfully", device.ToDeviceResponse(claimed))
}

func (h *AllocationHandler) ReleaseDevice(c *gin.Context) {
	deviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid device ID")
		return
	}

	released, err := h.service.Release(c.Request.Context(), deviceID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device released successfully", device.ToDeviceResponse(released))
}

func (h *AllocationHandler) AllocateBulk(c *gin.Context) {
	var req allocation.BulkAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.AllocateBulk(c.Request.Context(), &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Bulk allocation completed", resp)
}
