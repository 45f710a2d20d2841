package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"satdesk-manager/internal/usecase/order"
	"satdesk-manager/pkg/utils"
)

type OrderHandler struct {
	service *order.Service
}

func NewOrderHandler(service *order.Service) *OrderHandler {
	return &OrderHandler{service: service}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.GET("/number/:number", h.GetOrderByNumber)
		orders.PATCH("/:id", h.UpdateOrder)
		orders.POST("/:id/assign-device", h.AssignDevice)
		orders.POST("/:id/ready-to-ship", h.MarkReadyToShip)
		orders.POST("/:id/ship", h.MarkShipped)
		orders.POST("/:id/complete", h.CompleteOrder)
		orders.POST("/:id/cancel", h.CancelOrder)
		orders.POST("/:id/escalate", h.EscalateOrder)
		orders.POST("/:id/park", h.MarkEscalated)
		orders.POST("/:id/reactivate", h.ReactivateOrder)
	}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req order.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Order created successfully", resp)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	resp, err := h.service.Get(c.Request.Context(), orderID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Order retrieved successfully", resp)
}

func (h *OrderHandler) GetOrderByNumber(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Order number required")
		return
	}

	resp, err := h.service.GetByOrderNumber(c.Request.Context(), number)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Order retrieved successfully", resp)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	var filter order.OrderFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	resp, err := h.service.List(c.Request.Context(), &filter)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Orders retrieved successfully", resp)
}

func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req order.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.Update(c.Request.Context(), orderID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Order updated successfully", resp)
}

func (h *OrderHandler) AssignDevice(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req order.AssignDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.AssignDevice(c.Request.Context(), orderID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device assigned successfully", resp)
}

func (h *OrderHandler) MarkReadyToShip(c *gin.Context) {
	h.transition(c, h.service.MarkReadyToShip, "Order marked ready to ship")
}

func (h *OrderHandler) MarkShipped(c *gin.Context) {
	h.transition(c, h.service.MarkShipped, "Order marked shipped")
}

func (h *OrderHandler) CompleteOrder(c *gin.Context) {
	h.transition(c, h.service.Complete, "Order completed successfully")
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	h.transition(c, h.service.Cancel, "Order cancelled successfully")
}

func (h *OrderHandler) MarkEscalated(c *gin.Context) {
	h.transition(c, h.service.MarkEscalated, "Order parked for escalation")
}

func (h *OrderHandler) ReactivateOrder(c *gin.Context) {
	h.transition(c, h.service.Reactivate, "Order reactivated successfully")
}

func (h *OrderHandler) EscalateOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req order.EscalateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.Escalate(c.Request.Context(), orderID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Order flagged for escalation", resp)
}

func (h *OrderHandler) transition(c *gin.Context, fn func(ctx context.Context, orderID uuid.UUID) (*order.OrderResponse, error), message string) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	resp, err := fn(c.Request.Context(), orderID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, message, resp)
}
