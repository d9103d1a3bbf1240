package httpserver

import (
	"net/http"

	"casekart/internal/domain"
	ordersvc "casekart/internal/service/order"
	"github.com/gin-gonic/gin"
)

type orderItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Qty       int    `json:"qty" binding:"required,gt=0"`
	Color     string `json:"color"`
	// Legacy clients also send name/image/price; the server re-reads all of
	// that from the catalog and ignores these.
	Name       string `json:"name"`
	Image      string `json:"image"`
	PricePaise int64  `json:"pricePaise"`
}

type createOrderRequest struct {
	OrderItems      []orderItemRequest `json:"orderItems" binding:"required"`
	ShippingAddress domain.Address     `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod" binding:"required"`
	// Client-computed totals are accepted for mismatch detection only;
	// stored totals always come from the server-side calculator.
	ItemsPaise    int64 `json:"itemsPaise"`
	TaxPaise      int64 `json:"taxPaise"`
	ShippingPaise int64 `json:"shippingPaise"`
	TotalPaise    int64 `json:"totalPaise"`
}

type payOrderRequest struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	UpdateTime string `json:"update_time"`
	Email      string `json:"email_address"`
}

func (h *handlers) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	user, _ := currentUser(c)

	items := make([]ordersvc.ItemInput, 0, len(req.OrderItems))
	for _, it := range req.OrderItems {
		items = append(items, ordersvc.ItemInput{ProductID: it.ProductID, Color: it.Color, Quantity: it.Qty})
	}

	order, err := h.deps.OrderSvc.Place(c.Request.Context(), user.ID, ordersvc.PlaceInput{
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	if req.TotalPaise != 0 && req.TotalPaise != order.TotalPaise {
		h.logger.Printf("http: order %s client total %d != server total %d", order.ID, req.TotalPaise, order.TotalPaise)
	}

	// Only a successful placement empties the cart, so a failed attempt
	// leaves everything in place for retry.
	if err := h.deps.CartSvc.Clear(c.Request.Context(), domain.OwnerForUser(user.ID)); err != nil {
		h.logger.Printf("http: clear cart after order %s error=%v", order.ID, err)
	}

	c.JSON(http.StatusCreated, order)
}

func (h *handlers) myOrders(c *gin.Context) {
	user, _ := currentUser(c)
	orders, err := h.deps.OrderSvc.ListForUser(c.Request.Context(), user.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

func (h *handlers) getOrder(c *gin.Context) {
	user, _ := currentUser(c)
	order, err := h.deps.OrderSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if order.UserID != user.ID && !user.IsAdmin {
		// Hide other users' orders rather than confirming they exist.
		c.JSON(http.StatusNotFound, gin.H{"message": "order not found"})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *handlers) payOrder(c *gin.Context) {
	var req payOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	user, _ := currentUser(c)

	existing, err := h.deps.OrderSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if existing.UserID != user.ID && !user.IsAdmin {
		c.JSON(http.StatusNotFound, gin.H{"message": "order not found"})
		return
	}

	order, err := h.deps.OrderSvc.MarkPaid(c.Request.Context(), existing.ID, domain.PaymentResult{
		ID:         req.ID,
		Status:     req.Status,
		UpdateTime: req.UpdateTime,
		Email:      req.Email,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
