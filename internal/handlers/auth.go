package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"clinic-records-server/internal/config"
	"clinic-records-server/internal/core"
	"clinic-records-server/internal/middleware"
	"clinic-records-server/internal/models"
	"clinic-records-server/internal/store"
	"clinic-records-server/internal/utils"
)

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	Identity *core.Identity
	Linkage  *core.LinkageResolver
	Store    *store.Store
	Cfg      *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(identity *core.Identity, linkage *core.LinkageResolver, s *store.Store, cfg *config.Config) *AuthHandler {
	return &AuthHandler{Identity: identity, Linkage: linkage, Store: s, Cfg: cfg}
}

// RegisterRequest represents the request body for account registration.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required,oneof=PATIENT DOCTOR ADMIN"`
	// LinkedEntityID is only honored for admin-seeded accounts.
	LinkedEntityID string `json:"linkedEntityId"`
}

// Register handles account registration.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !utils.BindAndValidate(c, &req) {
		return // Error response handled by BindAndValidate
	}

	// Registration is public; an authenticated admin may pre-link.
	var actor *core.Session
	if session, ok := middleware.GetSessionFromContext(c); ok {
		actor = &session
	}

	account, err := h.Identity.Register(req.Username, req.Password, models.Role(req.Role), req.LinkedEntityID, actor)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Created(c, "Account registered successfully", account.Sanitize())
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the response body for successful login.
type LoginResponse struct {
	AccessToken  string                  `json:"accessToken"`
	RefreshToken string                  `json:"refreshToken"`
	Account      models.AccountSanitized `json:"account"`
}

// Login handles account login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	account, err := h.Identity.Login(req.Username, req.Password)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	accessToken, refreshTokenString, err := utils.GenerateTokens(account, h.Cfg)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate tokens: "+err.Error())
		return
	}
	// Store refresh token
	refreshToken := models.RefreshToken{
		AccountID: account.ID,
		Token:     refreshTokenString,
		ExpiresAt: time.Now().Add(time.Duration(h.Cfg.JWTRefreshExpirationHours) * time.Hour),
		IsRevoked: false,
	}
	if err := h.Store.RefreshTokens.Create(&refreshToken); err != nil {
		utils.InternalServerError(c, "Failed to store refresh token: "+err.Error())
		return
	}

	// Set refresh token as HTTP-only cookie
	c.SetCookie(
		"refresh_token",
		refreshTokenString,
		h.Cfg.JWTRefreshExpirationHours*60*60,
		"/",
		"",
		h.Cfg.Environment != "development",
		true,
	)

	utils.Success(c, "Login successful", LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenString,
		Account:      account.Sanitize(),
	})
}

// RefreshTokenRequest represents the request body for token refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshTokenResponse represents the response body for successful token refresh.
type RefreshTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken handles refreshing an access token using a refresh token.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	// First try to get the refresh token from HTTP-only cookie
	refreshTokenString, err := c.Cookie("refresh_token")

	// If no cookie, fall back to request body
	if err != nil || refreshTokenString == "" {
		var req RefreshTokenRequest
		if !utils.BindAndValidate(c, &req) {
			return
		}
		refreshTokenString = req.RefreshToken
	}

	claims, err := utils.ValidateToken(refreshTokenString, h.Cfg.JWTRefreshSecret)
	if err != nil {
		utils.Unauthorized(c, "Invalid refresh token structure or signature: "+err.Error())
		return
	}

	// Check the token is known, unexpired and not revoked
	storedToken, err := h.Store.RefreshTokens.GetActive(refreshTokenString, claims.AccountID)
	if err != nil {
		utils.Unauthorized(c, "Refresh token not found, expired, or revoked")
		return
	}

	account, err := h.Identity.Get(claims.AccountID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	// Refresh token rotation: revoke the old token, issue a new pair.
	if err := h.Store.RefreshTokens.Revoke(storedToken); err != nil {
		utils.InternalServerError(c, "Failed to revoke refresh token: "+err.Error())
		return
	}

	newAccessToken, newRefreshTokenString, err := utils.GenerateTokens(account, h.Cfg)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate new tokens: "+err.Error())
		return
	}

	newRefreshToken := models.RefreshToken{
		AccountID: account.ID,
		Token:     newRefreshTokenString,
		ExpiresAt: time.Now().Add(time.Duration(h.Cfg.JWTRefreshExpirationHours) * time.Hour),
		IsRevoked: false,
	}
	if err := h.Store.RefreshTokens.Create(&newRefreshToken); err != nil {
		utils.InternalServerError(c, "Failed to store new refresh token: "+err.Error())
		return
	}

	c.SetCookie(
		"refresh_token",
		newRefreshTokenString,
		h.Cfg.JWTRefreshExpirationHours*60*60,
		"/",
		"",
		h.Cfg.Environment != "development",
		true,
	)

	utils.Success(c, "Access token refreshed successfully", RefreshTokenResponse{
		AccessToken:  newAccessToken,
		RefreshToken: newRefreshTokenString,
	})
}

// LogoutRequest represents the request body for logout.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Logout handles logout by revoking the presented refresh token.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	if req.RefreshToken == "" {
		utils.BadRequest(c, "Refresh token is required")
		return
	}

	storedToken, err := h.Store.RefreshTokens.GetActive(req.RefreshToken, "")
	if err != nil {
		// Token not found or already revoked, which is acceptable for logout.
		utils.Success(c, "Logout successful (token not found or already invalid).", nil)
		return
	}

	if err := h.Store.RefreshTokens.Revoke(storedToken); err != nil {
		utils.InternalServerError(c, "Failed to revoke refresh token: "+err.Error())
		return
	}

	// Clear the refresh token cookie
	c.SetCookie(
		"refresh_token",
		"",
		-1,
		"/",
		"",
		h.Cfg.Environment != "development",
		true,
	)

	utils.Success(c, "Logout successful. Refresh token has been invalidated.", nil)
}

// SetAccountStatusRequest represents the request body for the admin
// activate/deactivate toggle.
type SetAccountStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// SetAccountStatus handles activating or deactivating an account
// (admin). Deactivated accounts cannot log in.
func (h *AuthHandler) SetAccountStatus(c *gin.Context) {
	var req SetAccountStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	account, err := h.Identity.SetActive(c.Param("id"), *req.IsActive)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Success(c, "Account status updated successfully", account.Sanitize())
}

// GetProfile handles fetching the authenticated account plus its
// resolved entity scope.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	session, ok := middleware.GetSessionFromContext(c)
	if !ok {
		utils.RespondError(c, core.Errorf(core.KindUnauthenticated, "authentication required"))
		return
	}

	account, err := h.Identity.Get(session.AccountID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	scope, err := h.Linkage.ResolveScope(session.AccountID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Success(c, "Profile fetched successfully", gin.H{
		"account": account.Sanitize(),
		"scope":   scope,
	})
}
