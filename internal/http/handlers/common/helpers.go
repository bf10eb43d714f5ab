package common

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rossfreedman/rally/internal/dto"
	"github.com/rossfreedman/rally/internal/http/middleware"
	"github.com/rossfreedman/rally/internal/pkg/apperror"
)

var (
	// ErrUserNotFound is returned when the context carries no user id.
	ErrUserNotFound = errors.New("user not found in context")

	// ErrInvalidID is returned when a numeric id cannot be parsed.
	ErrInvalidID = errors.New("invalid id")
)

// CurrentUserID extracts the user id set by AuthMiddleware.
func CurrentUserID(c *gin.Context) (int64, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, ErrUserNotFound
	}

	userID, ok := raw.(int64)
	if !ok || userID <= 0 {
		return 0, ErrUserNotFound
	}

	return userID, nil
}

// ParseIDParam parses a positive int64 URL parameter.
func ParseIDParam(c *gin.Context, paramName string) (int64, error) {
	param := c.Param(paramName)
	if param == "" {
		return 0, fmt.Errorf("parameter %s is missing", paramName)
	}

	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}

	return id, nil
}

// ParseOptionalIDQuery reads an optional positive int64 query parameter.
func ParseOptionalIDQuery(c *gin.Context, key string) (*int64, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%s must be a positive integer", key)
	}
	return &id, nil
}

// RespondFailure writes the {success:false, error} body with status 400.
// Only the public message of err is exposed.
func RespondFailure(c *gin.Context, err error) {
	RespondError(c, http.StatusBadRequest, apperror.PublicMessage(err))
}

// RespondAppError writes err with the status carried by the AppError.
func RespondAppError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status = appErr.HTTPStatus
	}
	RespondError(c, status, apperror.PublicMessage(err))
}

// RespondError sends a standardized error response.
func RespondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(message))
}

// RespondUnauthorized sends a 401 Unauthorized response.
func RespondUnauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "authentication required"
	}
	RespondError(c, http.StatusUnauthorized, message)
}

// RespondBadRequest sends a 400 Bad Request response.
func RespondBadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "invalid request"
	}
	RespondError(c, http.StatusBadRequest, message)
}
