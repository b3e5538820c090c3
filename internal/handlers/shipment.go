package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/duinokary/supplychain-backend/internal/requestdata"
	"github.com/duinokary/supplychain-backend/internal/services"
)

type ShipmentHandler struct {
	shipmentService services.ShipmentService
}

func NewShipmentHandler(shipmentService services.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{shipmentService: shipmentService}
}

func (sh *ShipmentHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": services.ErrUnauthorized.Error()})
		return
	}

	var req struct {
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	txHash, err := sh.shipmentService.CreateShipment(c.Request.Context(), req.Description, rd.EthAddress)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "Shipment created", "tx_hash": txHash})
}

func (sh *ShipmentHandler) Transfer(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": services.ErrUnauthorized.Error()})
		return
	}

	var req struct {
		ShipmentID string `json:"shipment_id"`
		ToAddress  string `json:"to_address"`
		Status     string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	txHash, err := sh.shipmentService.TransferShipment(c.Request.Context(), req.ShipmentID, req.ToAddress, req.Status, rd.EthAddress)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Shipment transferred", "tx_hash": txHash})
}

func (sh *ShipmentHandler) GetHistory(c *gin.Context) {
	records, err := sh.shipmentService.GetShipmentHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": records})
}

func (sh *ShipmentHandler) GetStatus(c *gin.Context) {
	status, err := sh.shipmentService.GetShipmentStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}
