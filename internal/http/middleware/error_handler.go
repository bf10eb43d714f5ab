package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rossfreedman/rally/internal/logger"
	"github.com/rossfreedman/rally/internal/pkg/apperror"
)

// ErrorHandler turns errors attached with c.Error into a JSON response when
// the handler did not write one. Only AppError messages reach the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		statusCode := http.StatusInternalServerError
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			statusCode = appErr.HTTPStatus
		}

		logger.Entry().WithFields(logrus.Fields{
			"error":      err.Error(),
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": c.GetString(ContextRequestIDKey),
		}).Error("request error")

		c.JSON(statusCode, gin.H{"success": false, "error": apperror.PublicMessage(err)})
	}
}
