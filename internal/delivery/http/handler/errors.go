package handler

import (
	"errors"
	"net/http"

	"account-service/internal/domain/token"
	domainUser "account-service/internal/domain/user"
	"account-service/internal/logger"
	"account-service/internal/middleware"
	appErrors "account-service/pkg/errors"
	"account-service/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	invalidResetTokenMessage = "Invalid token."
	expiredResetTokenMessage = "Token is invalid or has expired."
)

func respondWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	if fields, ok := appErrors.FieldErrors(err); ok {
		utils.FieldErrorResponse(c, http.StatusBadRequest, fields)
		return
	}

	var conflict *domainUser.ConflictError
	if errors.As(err, &conflict) {
		utils.FieldErrorResponse(c, http.StatusBadRequest, map[string][]string{
			conflict.Field: {conflict.Message()},
		})
		return
	}

	switch {
	case errors.Is(err, token.ErrInvalidResetToken):
		utils.FieldErrorResponse(c, http.StatusBadRequest, map[string][]string{"token": {invalidResetTokenMessage}})
	case errors.Is(err, token.ErrExpiredResetToken):
		utils.FieldErrorResponse(c, http.StatusBadRequest, map[string][]string{"token": {expiredResetTokenMessage}})
	case errors.Is(err, appErrors.ErrInvalidCredentials),
		errors.Is(err, appErrors.ErrAccountDisabled),
		errors.Is(err, appErrors.ErrUnauthorized):
		utils.ErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, token.ErrTokenBlacklisted):
		utils.ErrorResponse(c, http.StatusBadRequest, "Token is blacklisted")
	case errors.Is(err, token.ErrTokenWrongType):
		utils.ErrorResponse(c, http.StatusBadRequest, "Token has wrong type")
	case errors.Is(err, token.ErrTokenInvalid):
		utils.ErrorResponse(c, http.StatusBadRequest, "Token is invalid or expired")
	case errors.Is(err, domainUser.ErrUserNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, err.Error())
	default:
		var appErr *appErrors.AppError
		if errors.As(err, &appErr) && appErr.Code != appErrors.CodeInternal {
			utils.ErrorResponse(c, http.StatusBadRequest, appErr.Message)
			return
		}

		logger.Error("Internal server error",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		)
		_ = c.Error(err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
