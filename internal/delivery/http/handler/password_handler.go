package handler

import (
	"net/http"

	"account-service/internal/usecase/auth"
	"account-service/internal/usecase/passwordreset"
	"account-service/pkg/utils"

	"github.com/gin-gonic/gin"
)

type PasswordResetHandler struct {
	service *passwordreset.Service
}

func NewPasswordResetHandler(service *passwordreset.Service) *PasswordResetHandler {
	return &PasswordResetHandler{service: service}
}

func (h *PasswordResetHandler) RegisterRoutes(router *gin.RouterGroup, limit gin.HandlerFunc) {
	router.POST("/reset-password-request/", limit, h.RequestReset)
	router.POST("/reset-password-confirm/", limit, h.ConfirmReset)
}

func (h *PasswordResetHandler) RequestReset(c *gin.Context) {
	var req passwordreset.ResetRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.service.RequestReset(c.Request.Context(), &req); err != nil {
		respondWithError(c, err)
		return
	}

	utils.MessageResponse(c, http.StatusOK, passwordreset.RequestMessage)
}

func (h *PasswordResetHandler) ConfirmReset(c *gin.Context) {
	var req passwordreset.ConfirmRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.service.ConfirmReset(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, auth.NewPasswordChangedResponse(pair))
}
