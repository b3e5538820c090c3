package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/duinokary/supplychain-backend/internal/requestdata"
	"github.com/duinokary/supplychain-backend/internal/services"
	"github.com/duinokary/supplychain-backend/internal/types"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// roleLabel maps a stored role onto the display form used in registration
// responses. Logistics users register as a provider.
func roleLabel(role string) string {
	switch role {
	case types.RoleManufacturer:
		return "Manufacturer"
	case types.RoleSupplier:
		return "Supplier"
	case types.RoleLogistics:
		return "Logistics provider"
	}
	if role == "" {
		return "User"
	}
	return strings.ToUpper(role[:1]) + role[1:]
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	user, err := ah.authService.RegisterUser(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": roleLabel(user.Role) + " created successfully"})
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	result, err := ah.authService.LoginUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": result.AccessToken, "user": result.User})
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": services.ErrUnauthorized.Error()})
		return
	}
	if err := ah.authService.LogoutUser(c.Request.Context(), rd.UserID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
