package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/duinokary/supplychain-backend/internal/requestdata"
	"github.com/duinokary/supplychain-backend/internal/services"
	"github.com/duinokary/supplychain-backend/internal/types"
)

type OrderHandler struct {
	orderService services.OrderService
}

func NewOrderHandler(orderService services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// serializeOrder renders an order with the embedded product, creator and
// current owner plus a space-separated timestamp, matching the wire format
// consumers already depend on.
func serializeOrder(o *types.Order) gin.H {
	return gin.H{
		"id":            o.ID,
		"product":       o.Product,
		"quantity":      o.Quantity,
		"origin":        o.Origin,
		"current_owner": o.CurrentOwner,
		"status":        o.Status,
		"user":          o.User,
		"created_at":    o.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func serializeOrders(orders []*types.Order) []gin.H {
	out := make([]gin.H, 0, len(orders))
	for _, o := range orders {
		out = append(out, serializeOrder(o))
	}
	return out
}

func (oh *OrderHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": services.ErrUnauthorized.Error()})
		return
	}

	var req struct {
		Product      string `json:"product"`
		Quantity     int    `json:"quantity"`
		Manufacturer string `json:"manufacturer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	productID, err := uuid.Parse(req.Product)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid product id"})
		return
	}
	originID, err := uuid.Parse(req.Manufacturer)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": services.ErrOriginNotFound.Error()})
		return
	}

	if _, err := oh.orderService.CreateOrder(c.Request.Context(), rd.UserID, productID, req.Quantity, originID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "Order created"})
}

func (oh *OrderHandler) GetAllMade(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": services.ErrUnauthorized.Error()})
		return
	}

	orders, err := oh.orderService.ListMade(c.Request.Context(), rd.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializeOrders(orders))
}

func (oh *OrderHandler) GetAllReceived(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": services.ErrUnauthorized.Error()})
		return
	}

	orders, err := oh.orderService.ListReceived(c.Request.Context(), rd.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializeOrders(orders))
}

func (oh *OrderHandler) UpdateStatus(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": services.ErrUnauthorized.Error()})
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": services.ErrOrderNotFound.Error()})
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	if _, err := oh.orderService.UpdateStatus(c.Request.Context(), orderID, rd.UserID, req.Status); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Order updated"})
}

func (oh *OrderHandler) UpdateOwnerStatus(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": services.ErrUnauthorized.Error()})
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": services.ErrOrderNotFound.Error()})
		return
	}

	var req struct {
		CurrentOwnerID string `json:"current_owner_id"`
		Status         string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	nextOwnerID, err := uuid.Parse(req.CurrentOwnerID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": services.ErrNextOwnerNotFound.Error()})
		return
	}

	if _, err := oh.orderService.UpdateOwnerStatus(c.Request.Context(), orderID, rd.UserID, nextOwnerID, req.Status); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Order updated"})
}

func (oh *OrderHandler) GetHistory(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": services.ErrOrderNotFound.Error()})
		return
	}

	result, err := oh.orderService.GetOrderHistory(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": result.History, "chain_history": result.ChainHistory})
}
