package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/duinokary/supplychain-backend/internal/handlers"
)

type RouterConfig struct {
	AuthHandler         *handlers.AuthHandler
	OrderHandler        *handlers.OrderHandler
	ProductHandler      *handlers.ProductHandler
	ManufacturerHandler *handlers.ManufacturerHandler
	UserHandler         *handlers.UserHandler
	ShipmentHandler     *handlers.ShipmentHandler

	AuthMiddleware gin.HandlerFunc

	AllowOrigins []string
	ServiceName  string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware(cfg.ServiceName))

	allowOrigins := cfg.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/auth/register", cfg.AuthHandler.Register)
	router.POST("/auth/login", cfg.AuthHandler.Login)
	router.GET("/orders/:id/history", cfg.OrderHandler.GetHistory)
	router.POST("/manufacturers/assets/:id/predict", cfg.ManufacturerHandler.Predict)
	router.GET("/manufacturers/assets/:id/meter_readings", cfg.ManufacturerHandler.GetMeterReadings)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware)
	// Auth
	protected.POST("/auth/logout", cfg.AuthHandler.Logout)
	// Orders
	protected.POST("/orders/create", cfg.OrderHandler.Create)
	protected.GET("/orders/get_all_made", cfg.OrderHandler.GetAllMade)
	protected.GET("/orders/get_all_received", cfg.OrderHandler.GetAllReceived)
	protected.PUT("/orders/:id/update_status", cfg.OrderHandler.UpdateStatus)
	protected.PUT("/orders/:id/update_owner_status", cfg.OrderHandler.UpdateOwnerStatus)
	// Products
	protected.POST("/products/create", cfg.ProductHandler.Create)
	protected.GET("/products/get_all", cfg.ProductHandler.GetAll)
	protected.GET("/products/get_by_manufacturer/:id", cfg.ProductHandler.GetByManufacturer)
	// Manufacturers
	protected.POST("/manufacturers/create_asset", cfg.ManufacturerHandler.CreateAsset)
	protected.GET("/manufacturers/get_all_assets", cfg.ManufacturerHandler.GetAllAssets)
	protected.GET("/manufacturers/get_all", cfg.UserHandler.GetAllManufacturers)
	// Suppliers
	protected.GET("/suppliers/get_all", cfg.UserHandler.GetAllSuppliers)
	// Logistics
	protected.GET("/logistics/get_all", cfg.UserHandler.GetAllLogistics)
	// Users
	protected.DELETE("/users/:id", cfg.UserHandler.Delete)
	// Shipments
	protected.POST("/shipment/create_shipment", cfg.ShipmentHandler.Create)
	protected.POST("/shipment/transfer_shipment", cfg.ShipmentHandler.Transfer)
	protected.GET("/shipment/get_shipment_history/:id", cfg.ShipmentHandler.GetHistory)
	protected.GET("/shipment/get_shipment_status/:id", cfg.ShipmentHandler.GetStatus)

	return router
}
