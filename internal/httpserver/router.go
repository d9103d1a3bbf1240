package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"

	"casekart/internal/domain"
	orderrepo "casekart/internal/repository/order"
	cartsvc "casekart/internal/service/cart"
	ordersvc "casekart/internal/service/order"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type cartService interface {
	Get(ctx context.Context, owner domain.CartOwner) (*cartsvc.PricedCart, error)
	AddItem(ctx context.Context, owner domain.CartOwner, productID string, quantity int, color string) (*cartsvc.PricedCart, error)
	UpdateQuantity(ctx context.Context, owner domain.CartOwner, productID string, quantity int, color string) (*cartsvc.PricedCart, error)
	RemoveItem(ctx context.Context, owner domain.CartOwner, productID, color string) (*cartsvc.PricedCart, error)
	Clear(ctx context.Context, owner domain.CartOwner) error
	MergeGuestCart(ctx context.Context, userID, sessionID string) (*cartsvc.PricedCart, error)
}

type orderService interface {
	Place(ctx context.Context, userID string, in ordersvc.PlaceInput) (*domain.Order, error)
	MarkPaid(ctx context.Context, orderID string, result domain.PaymentResult) (*domain.Order, error)
	MarkDelivered(ctx context.Context, orderID string, tracking *domain.TrackingInfo) (*domain.Order, error)
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	Stats(ctx context.Context) (*orderrepo.Stats, error)
}

type authService interface {
	LookupByToken(ctx context.Context, token string) (*domain.User, error)
}

type sessionService interface {
	Issue(ctx context.Context) (string, error)
	Validate(ctx context.Context, id string) (bool, error)
	Revoke(ctx context.Context, id string) error
}

type counter interface {
	Count(ctx context.Context) (int, error)
}

// Deps carries the services the router wires into handlers.
type Deps struct {
	CartSvc      cartService
	OrderSvc     orderService
	AuthSvc      authService
	SessionSvc   sessionService
	ProductCount counter
	UserCount    counter
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps, corsOrigins []string) (*gin.Engine, error) {
	if deps.CartSvc == nil || deps.OrderSvc == nil || deps.AuthSvc == nil || deps.SessionSvc == nil {
		return nil, errors.New("httpserver: missing dependencies")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(corsOrigins) > 0 {
		corsCfg.AllowOrigins = corsOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", sessionHeader)
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{deps: deps, logger: logger}

	api := router.Group("/api")
	api.Use(identityMiddleware(deps.AuthSvc, deps.SessionSvc))

	api.POST("/session", h.createSession)

	cart := api.Group("/cart", requireIdentity())
	cart.GET("", h.getCart)
	cart.POST("/add", h.addToCart)
	cart.PUT("/update", h.updateCartItem)
	cart.DELETE("/:productId", h.removeFromCart)
	cart.DELETE("", h.clearCart)
	cart.POST("/merge", requireUser(), h.mergeCart)

	orders := api.Group("/orders", requireUser())
	orders.POST("", h.createOrder)
	orders.GET("/myorders", h.myOrders)
	orders.GET("/:id", h.getOrder)
	orders.PUT("/:id/pay", h.payOrder)

	admin := api.Group("/admin", requireUser(), requireAdmin())
	admin.GET("/orders", h.listOrders)
	admin.PUT("/orders/:id/deliver", h.deliverOrder)
	admin.GET("/dashboard", h.dashboard)

	return router, nil
}

type handlers struct {
	deps   Deps
	logger *log.Logger
}

// respondError maps domain errors onto HTTP statuses. Conflict-class errors
// (stock, variants) are distinguished from plain validation so clients can
// offer a "reduce quantity" flow.
func (h *handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrLineNotFound),
		errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrVariantUnavailable),
		errors.Is(err, domain.ErrOrderNotPaid):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	case errors.Is(err, domain.ErrEmptyOrder),
		errors.Is(err, domain.ErrInvalidAddress):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		h.logger.Printf("http: %s %s error=%v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "server error"})
	}
}
