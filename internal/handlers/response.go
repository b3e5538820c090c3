package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/duinokary/supplychain-backend/internal/services"
)

// respondServiceError maps the service failure taxonomy onto HTTP statuses.
// Anything unrecognized is an internal error.
func respondServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrEmailTaken):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrAssetNotFound),
		errors.Is(err, services.ErrOriginNotFound),
		errors.Is(err, services.ErrNextOwnerNotFound):
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"message": err.Error()})
}
