package app

import (
	"github.com/gin-gonic/gin"

	"github.com/duinokary/supplychain-backend/internal/handlers"
	"github.com/duinokary/supplychain-backend/internal/logger"
	"github.com/duinokary/supplychain-backend/internal/middleware"
	"github.com/duinokary/supplychain-backend/internal/server"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	Order        *handlers.OrderHandler
	Product      *handlers.ProductHandler
	Manufacturer *handlers.ManufacturerHandler
	User         *handlers.UserHandler
	Shipment     *handlers.ShipmentHandler
}

func wireHandlers(serviceset Services) Handlers {
	return Handlers{
		Auth:         handlers.NewAuthHandler(serviceset.Auth),
		Order:        handlers.NewOrderHandler(serviceset.Order),
		Product:      handlers.NewProductHandler(serviceset.Product),
		Manufacturer: handlers.NewManufacturerHandler(serviceset.Asset, serviceset.Telemetry),
		User:         handlers.NewUserHandler(serviceset.User),
		Shipment:     handlers.NewShipmentHandler(serviceset.Shipment),
	}
}

func wireRouter(cfg Config, log *logger.Logger, serviceset Services, handlerset Handlers) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthHandler:         handlerset.Auth,
		OrderHandler:        handlerset.Order,
		ProductHandler:      handlerset.Product,
		ManufacturerHandler: handlerset.Manufacturer,
		UserHandler:         handlerset.User,
		ShipmentHandler:     handlerset.Shipment,
		AuthMiddleware:      middleware.RequireAuth(serviceset.Auth, log),
		AllowOrigins:        cfg.AllowOrigins,
		ServiceName:         cfg.ServiceName,
	})
}
