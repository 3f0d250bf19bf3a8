package handler

import (
	"errors"
	"net/http"

	"taskmind/internal/service"
	"taskmind/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSubmissionAlreadyReviewed),
		errors.Is(err, service.ErrPayoutInProgress):
		return http.StatusConflict
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidSignature):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrGateway):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrBelowMinimum),
		errors.Is(err, service.ErrInsufficientBalance),
		errors.Is(err, service.ErrInvalidPlan),
		errors.Is(err, service.ErrTaskInactive),
		errors.Is(err, service.ErrInvalidSubmission):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes the response envelope. Server errors are logged and
// replaced by fallback so internals never reach the client.
func respondError(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error(fallback, zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, response.Error(status, fallback))
		return
	}
	c.JSON(status, response.Error(status, err.Error()))
}

// paymentError writes the flat {"error": ...} body of the payment endpoints.
func paymentError(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	msg := err.Error()

	var below *service.BelowMinimumError
	switch {
	case errors.As(err, &below):
		msg = below.Error()
	case errors.Is(err, service.ErrMissingFields):
		msg = service.ErrMissingFields.Error()
	case errors.Is(err, service.ErrInvalidPlan):
		msg = service.ErrInvalidPlan.Error()
	case errors.Is(err, service.ErrInsufficientBalance):
		msg = service.ErrInsufficientBalance.Error()
	case errors.Is(err, service.ErrPayoutInProgress):
		msg = service.ErrPayoutInProgress.Error()
	case status >= http.StatusInternalServerError:
		zap.L().Error(fallback, zap.String("path", c.FullPath()), zap.Error(err))
		msg = fallback
	}
	c.JSON(status, gin.H{"error": msg})
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}
