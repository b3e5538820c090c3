package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/duinokary/supplychain-backend/internal/requestdata"
	"github.com/duinokary/supplychain-backend/internal/services"
)

type ManufacturerHandler struct {
	assetService     services.AssetService
	telemetryService services.TelemetryService
}

func NewManufacturerHandler(assetService services.AssetService, telemetryService services.TelemetryService) *ManufacturerHandler {
	return &ManufacturerHandler{
		assetService:     assetService,
		telemetryService: telemetryService,
	}
}

func (mh *ManufacturerHandler) CreateAsset(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": services.ErrUnauthorized.Error()})
		return
	}

	var req services.CreateAssetInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	if _, err := mh.assetService.CreateAsset(c.Request.Context(), rd.UserID, req); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Asset created"})
}

func (mh *ManufacturerHandler) GetAllAssets(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": services.ErrUnauthorized.Error()})
		return
	}

	assets, err := mh.assetService.ListByOwner(c.Request.Context(), rd.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, assets)
}

// Predict scores one meter reading for the asset and persists it with the
// returned failure label.
func (mh *ManufacturerHandler) Predict(c *gin.Context) {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": services.ErrAssetNotFound.Error()})
		return
	}

	var req services.RecordReadingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	reading, err := mh.telemetryService.RecordReadingAndPredict(c.Request.Context(), assetID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prediction": reading.Prediction})
}

func (mh *ManufacturerHandler) GetMeterReadings(c *gin.Context) {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": services.ErrAssetNotFound.Error()})
		return
	}

	readings, err := mh.telemetryService.ListReadings(c.Request.Context(), assetID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, readings)
}
