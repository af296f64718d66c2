package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/vkruglov/coursepay/internal/server/http/handlers"
	"github.com/vkruglov/coursepay/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.CoursePayFacade, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authHandler := handlers.NewAuthHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade)
	paymentHandler := handlers.NewPaymentHandler(facade)
	webhookHandler := handlers.NewWebhookHandler(facade)
	courseHandler := handlers.NewCourseHandler(facade)

	api := engine.Group("/api")
	api.GET("/courses", courseHandler.List)
	api.POST("/webhooks/payment", webhookHandler.Payment)

	user := api.Group("/user")
	user.POST("/register", authHandler.Register)
	user.POST("/login", authHandler.Login)

	userAuth := user.Group("")
	userAuth.Use(middleware.AuthRequired(facade))
	userAuth.POST("/orders", orderHandler.Create)
	userAuth.GET("/orders", orderHandler.List)
	userAuth.GET("/orders/:orderID", orderHandler.Get)
	userAuth.POST("/orders/:orderID/verify", paymentHandler.Verify)
	userAuth.POST("/orders/:orderID/cancel", paymentHandler.Cancel)

	return engine
}
