package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/example/shopdesk/pkg/auth"
	"github.com/example/shopdesk/pkg/basket"
	"github.com/example/shopdesk/pkg/catalog"
	"github.com/example/shopdesk/pkg/config"
	"github.com/example/shopdesk/pkg/order"
	"github.com/example/shopdesk/pkg/repository"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// AuditReader returns the recorded history of an entity, newest first.
type AuditReader interface {
	GetAuditLogs(ctx context.Context, entityType string, entityID uint64, limit int64) ([]*repository.AuditLog, error)
}

// Services are the domain services the gateway exposes. Audit is optional.
type Services struct {
	Catalog    *catalog.Service
	Basket     *basket.Service
	Orders     *order.Service
	Authorizer *auth.Authorizer
	Tokens     *auth.TokenVerifier
	Audit      AuditReader
}

type Gateway struct {
	config   *config.Config
	logger   *zap.Logger
	router   *gin.Engine
	sessions sessions.Store
	svc      Services
	server   *http.Server
}

func NewGateway(cfg *config.Config, logger *zap.Logger, svc Services) *Gateway {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	store := sessions.NewCookieStore([]byte(cfg.Session.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.Session.MaxAge,
		Secure:   cfg.Session.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &Gateway{
		config:   cfg,
		logger:   logger,
		router:   router,
		sessions: store,
		svc:      svc,
	}
}

func (g *Gateway) SetupRoutes() {
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := g.router.Group("/api/v1")
	v1.Use(g.identify())
	{
		products := v1.Group("/products")
		{
			products.GET("", g.listProducts)
			products.GET("/:id", g.getProduct)
			products.POST("", g.require(auth.AddProduct), g.createProduct)
			products.PUT("/:id", g.require(auth.ChangeProduct), g.updateProduct)
			products.PUT("/:id/photo", g.require(auth.ChangeProduct), g.uploadPhoto)
			products.DELETE("/:id", g.require(auth.DeleteProduct), g.deleteProduct)
		}

		basketRoutes := v1.Group("/basket")
		basketRoutes.Use(g.session())
		{
			basketRoutes.GET("", g.viewBasket)
			basketRoutes.POST("/items/:product_id", g.addToBasket)
			basketRoutes.DELETE("/items/:product_id", g.removeFromBasket)
			basketRoutes.DELETE("", g.clearBasket)
			basketRoutes.POST("/checkout", g.checkout)
		}

		orders := v1.Group("/orders")
		{
			orders.GET("", g.require(auth.ViewOrder), g.listOrders)
			orders.POST("", g.require(auth.AddOrder), g.createOrder)
			orders.GET("/:id", g.require(auth.ViewOrder), g.getOrder)
			orders.PUT("/:id", g.require(auth.ChangeOrder), g.updateOrder)
			orders.POST("/:id/deliver", g.require(auth.DeliverOrder), g.deliverOrder)
			orders.POST("/:id/cancel", g.require(auth.CancelOrder), g.cancelOrder)
			orders.POST("/:id/lines", g.require(auth.AddOrder), g.addLine)
			orders.PUT("/:id/lines/:line_id", g.require(auth.ChangeOrder), g.updateLine)
			orders.DELETE("/:id/lines/:line_id", g.require(auth.DeleteOrder), g.deleteLine)
			if g.svc.Audit != nil {
				orders.GET("/:id/history", g.require(auth.ViewOrder), g.orderHistory)
			}
		}

		me := v1.Group("/me")
		me.Use(g.authenticated())
		{
			me.GET("/orders", g.myOrders)
			me.GET("/orders/:id", g.myOrder)
		}
	}

	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) Start() error {
	addr := g.config.Gateway.Addr()
	g.server = &http.Server{
		Addr:              addr,
		Handler:           g.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.logger.Info("Gateway starting", zap.String("address", addr))
	return g.server.ListenAndServe()
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	return g.server.Shutdown(ctx)
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
