package httpserver

import (
	"net/http"

	"casekart/internal/domain"
	"github.com/gin-gonic/gin"
)

type deliverOrderRequest struct {
	TrackingInfo *domain.TrackingInfo `json:"trackingInfo"`
}

func (h *handlers) listOrders(c *gin.Context) {
	orders, err := h.deps.OrderSvc.ListAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

func (h *handlers) deliverOrder(c *gin.Context) {
	var req deliverOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
	}
	order, err := h.deps.OrderSvc.MarkDelivered(c.Request.Context(), c.Param("id"), req.TrackingInfo)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *handlers) dashboard(c *gin.Context) {
	stats, err := h.deps.OrderSvc.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := gin.H{
		"totalOrders":     stats.TotalOrders,
		"deliveredOrders": stats.DeliveredOrders,
		"pendingOrders":   stats.PendingOrders,
		"revenuePaise":    stats.RevenuePaise,
	}
	if h.deps.ProductCount != nil {
		n, err := h.deps.ProductCount.Count(c.Request.Context())
		if err != nil {
			h.respondError(c, err)
			return
		}
		out["totalProducts"] = n
	}
	if h.deps.UserCount != nil {
		n, err := h.deps.UserCount.Count(c.Request.Context())
		if err != nil {
			h.respondError(c, err)
			return
		}
		out["totalUsers"] = n
	}
	c.JSON(http.StatusOK, out)
}
