package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talentgate/talentgate/internal/apperrors"
)

// respondError maps the domain error taxonomy onto HTTP. The payload
// carries the machine-readable kind plus the human message; internals
// below the message text never leak.
func respondError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	status := statusFor(kind)

	message := "internal error"
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	c.JSON(status, gin.H{
		"error":   string(kind),
		"message": message,
	})
}

func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindScoringUnavailable:
		return http.StatusBadGateway
	case apperrors.KindStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
