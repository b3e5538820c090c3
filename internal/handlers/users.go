package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/duinokary/supplychain-backend/internal/services"
	"github.com/duinokary/supplychain-backend/internal/types"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (uh *UserHandler) getAllByRole(c *gin.Context, role string) {
	users, err := uh.userService.GetByRole(c.Request.Context(), role)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (uh *UserHandler) GetAllManufacturers(c *gin.Context) {
	uh.getAllByRole(c, types.RoleManufacturer)
}

func (uh *UserHandler) GetAllSuppliers(c *gin.Context) {
	uh.getAllByRole(c, types.RoleSupplier)
}

func (uh *UserHandler) GetAllLogistics(c *gin.Context) {
	uh.getAllByRole(c, types.RoleLogistics)
}

func (uh *UserHandler) Delete(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": services.ErrUserNotFound.Error()})
		return
	}

	if err := uh.userService.DeleteUser(c.Request.Context(), userID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
