package handler

import (
	"net/http"

	domainUser "account-service/internal/domain/user"
	"account-service/internal/middleware"
	"account-service/internal/usecase/auth"
	"account-service/pkg/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service *auth.Service
}

func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

// RegisterPublicRoutes mounts the credential endpoints. limit guards the
// endpoints that accept passwords.
func (h *AuthHandler) RegisterPublicRoutes(router *gin.RouterGroup, limit gin.HandlerFunc) {
	register := router.Group("/register", limit)
	{
		register.POST("/email/", h.register(domainUser.IdentifierEmail))
		register.POST("/phone/", h.register(domainUser.IdentifierPhone))
		register.POST("/username/", h.register(domainUser.IdentifierUsername))
	}

	router.POST("/login/", limit, h.Login)

	tokens := router.Group("/token")
	{
		tokens.POST("/refresh/", h.Refresh)
		tokens.POST("/verify/", h.Verify)
	}
}

func (h *AuthHandler) RegisterProtectedRoutes(router *gin.RouterGroup) {
	router.POST("/logout/", h.Logout)
	router.POST("/logout-all/", h.LogoutAll)
	router.POST("/logout/all/", h.LogoutAll)
	router.POST("/change-password/", h.ChangePassword)
	router.GET("/profile/", h.GetProfile)
	router.PUT("/profile/", h.UpdateProfile)
	router.GET("/sessions/", h.ListSessions)
}

func (h *AuthHandler) register(kind domainUser.IdentifierKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req auth.RegisterRequest
		if !bindJSON(c, &req) {
			return
		}

		resp, err := h.service.Register(c.Request.Context(), kind, &req)
		if err != nil {
			respondWithError(c, err)
			return
		}

		utils.SuccessResponse(c, http.StatusCreated, resp)
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, resp)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Refresh(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, resp)
}

func (h *AuthHandler) Verify(c *gin.Context) {
	var req auth.VerifyRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.service.Verify(c.Request.Context(), &req); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, gin.H{})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req auth.LogoutRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.service.Logout(c.Request.Context(), userID, &req); err != nil {
		respondWithError(c, err)
		return
	}

	utils.MessageResponse(c, http.StatusResetContent, "User logout")
}

func (h *AuthHandler) LogoutAll(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if _, err := h.service.LogoutAll(c.Request.Context(), userID); err != nil {
		respondWithError(c, err)
		return
	}

	utils.MessageResponse(c, http.StatusResetContent, "Successfully logged out of all devices")
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req auth.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.service.ChangePassword(c.Request.Context(), userID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, auth.NewPasswordChangedResponse(pair))
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, profile)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req auth.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, profile)
}

func (h *AuthHandler) ListSessions(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sessions, err := h.service.ListSessions(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, gin.H{"sessions": sessions})
}
