package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spiritgear-io/spiritgear/internal/models"
	"github.com/spiritgear-io/spiritgear/internal/repository"
	"github.com/spiritgear-io/spiritgear/internal/service"
)

// handleCheckout accepts a storefront cart and creates the order.
func (r *APIRouter) handleCheckout(c *gin.Context) {
	var in service.CheckoutInput
	if err := c.ShouldBindJSON(&in); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid checkout request: "+err.Error())
		return
	}
	order, err := r.orders.Checkout(c.Request.Context(), in)
	if err != nil {
		sendError(c, http.StatusBadRequest, "Checkout failed: "+err.Error())
		return
	}
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: order})
}

func (r *APIRouter) handleListOrders(c *gin.Context) {
	var query struct {
		Status string `form:"status"`
		Limit  int    `form:"limit"`
		Offset int    `form:"offset"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid query: "+err.Error())
		return
	}
	orders, err := r.orders.ListOrders(c.Request.Context(),
		models.OrderStatus(query.Status), query.Limit, query.Offset)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to list orders: "+err.Error())
		return
	}
	sendSuccess(c, orders)
}

func (r *APIRouter) handleGetOrder(c *gin.Context) {
	order, err := r.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrOrderNotFound) {
		sendError(c, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to load order: "+err.Error())
		return
	}
	sendSuccess(c, order)
}

// handleUpdateOrderStatus moves an order through the production state machine.
func (r *APIRouter) handleUpdateOrderStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid status request: "+err.Error())
		return
	}
	order, err := r.orders.UpdateStatus(c.Request.Context(),
		c.Param("id"), models.OrderStatus(req.Status))
	if errors.Is(err, repository.ErrOrderNotFound) {
		sendError(c, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}
	sendSuccess(c, order)
}

func (r *APIRouter) handleDeleteOrder(c *gin.Context) {
	err := r.orders.DeleteOrder(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrOrderNotFound) {
		sendError(c, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to delete order: "+err.Error())
		return
	}
	sendSuccess(c, gin.H{"deleted": true})
}
