package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type addToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Qty       int    `json:"qty" binding:"required,gt=0"`
	Color     string `json:"color"`
}

type updateCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Qty       int    `json:"qty"`
	Color     string `json:"color"`
}

type mergeCartRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

func (h *handlers) createSession(c *gin.Context) {
	id, err := h.deps.SessionSvc.Issue(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sessionId": id})
}

func (h *handlers) getCart(c *gin.Context) {
	owner, _ := cartOwner(c)
	cart, err := h.deps.CartSvc.Get(c.Request.Context(), owner)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *handlers) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	owner, _ := cartOwner(c)
	cart, err := h.deps.CartSvc.AddItem(c.Request.Context(), owner, req.ProductID, req.Qty, req.Color)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cart)
}

func (h *handlers) updateCartItem(c *gin.Context) {
	var req updateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	owner, _ := cartOwner(c)
	cart, err := h.deps.CartSvc.UpdateQuantity(c.Request.Context(), owner, req.ProductID, req.Qty, req.Color)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *handlers) removeFromCart(c *gin.Context) {
	owner, _ := cartOwner(c)
	cart, err := h.deps.CartSvc.RemoveItem(c.Request.Context(), owner, c.Param("productId"), c.Query("color"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *handlers) clearCart(c *gin.Context) {
	owner, _ := cartOwner(c)
	if err := h.deps.CartSvc.Clear(c.Request.Context(), owner); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
}

func (h *handlers) mergeCart(c *gin.Context) {
	var req mergeCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	user, _ := currentUser(c)
	cart, err := h.deps.CartSvc.MergeGuestCart(c.Request.Context(), user.ID, req.SessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	// The session id no longer owns a cart; stop honoring it.
	if err := h.deps.SessionSvc.Revoke(c.Request.Context(), req.SessionID); err != nil {
		h.logger.Printf("http: revoke session after merge error=%v", err)
	}
	c.JSON(http.StatusOK, cart)
}
