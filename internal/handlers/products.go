package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/duinokary/supplychain-backend/internal/requestdata"
	"github.com/duinokary/supplychain-backend/internal/services"
)

type ProductHandler struct {
	productService services.ProductService
}

func NewProductHandler(productService services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (ph *ProductHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": services.ErrUnauthorized.Error()})
		return
	}

	var req services.CreateProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	if _, err := ph.productService.CreateProduct(c.Request.Context(), rd.UserID, req); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Product created"})
}

func (ph *ProductHandler) GetAll(c *gin.Context) {
	products, err := ph.productService.ListAll(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (ph *ProductHandler) GetByManufacturer(c *gin.Context) {
	manufacturerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": services.ErrUserNotFound.Error()})
		return
	}

	products, err := ph.productService.ListByManufacturer(c.Request.Context(), manufacturerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}
