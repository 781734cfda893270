package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/service"
)

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
	}
}

type walletQuery struct {
	Address string `form:"wallet_address"`
	Network string `form:"network"`
}

// ChallengeResponse is returned by the auth-message endpoint
type ChallengeResponse struct {
	Message       string    `json:"message"`
	WalletAddress string    `json:"wallet_address"`
	Network       string    `json:"network"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// LoginRequest is a signed login challenge
type LoginRequest struct {
	WalletAddress string `json:"wallet_address"`
	Network       string `json:"network"`
	WalletType    string `json:"wallet_type"`
	Signature     string `json:"signature" binding:"required"`
	Message       string `json:"message" binding:"required"`
}

// TokenResponse carries a freshly issued session
type TokenResponse struct {
	AccessToken   string `json:"access_token"`
	RefreshToken  string `json:"refresh_token"`
	TokenType     string `json:"token_type"`
	ExpiresIn     int    `json:"expires_in"`
	IsAdmin       bool   `json:"is_admin"`
	WalletAddress string `json:"wallet_address"`
	AccountID     string `json:"account_id"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func networkOrDefault(raw string) (core.Network, error) {
	if raw == "" {
		return core.NetworkTron, nil
	}
	return core.ParseNetwork(raw)
}

// Challenge issues a login challenge for a wallet
func (h *AuthHandlers) Challenge(c *gin.Context) {
	var q walletQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	network, err := networkOrDefault(q.Network)
	if err != nil {
		writeError(c, err)
		return
	}

	challenge, err := h.authService.IssueChallenge(c.Request.Context(), q.Address, network)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ChallengeResponse{
		Message:       challenge.Message,
		WalletAddress: challenge.Address,
		Network:       string(challenge.Network),
		ExpiresAt:     challenge.ExpiresAt,
	})
}

// Login verifies a signed challenge and opens a session
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	network, err := networkOrDefault(req.Network)
	if err != nil {
		writeError(c, err)
		return
	}

	identity := core.WalletIdentity{
		Address:    req.WalletAddress,
		Network:    network,
		WalletType: core.WalletType(req.WalletType),
	}
	// Reject the wrong provider before the challenge gets consumed
	if identity.WalletType != "" && identity.WalletType != core.WalletTypeFor(network) {
		writeError(c, core.Errorf(core.KindInvalidAddress, "wallet type %q is not supported on %s", identity.WalletType, network))
		return
	}

	ctx := c.Request.Context()
	proof, err := h.authService.Verify(ctx, service.VerifyRequest{
		Purpose:   core.PurposeLogin,
		Address:   req.WalletAddress,
		Network:   network,
		Message:   req.Message,
		Signature: req.Signature,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	session, err := h.authService.LoginOrRegister(ctx, proof, identity)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.tokenResponse(session))
}

// Refresh handles token refresh
func (h *AuthHandlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.tokenResponse(session))
}

// Logout handles session logout
func (h *AuthHandlers) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	// Access token is optional - we only need refresh token to invalidate the session
	if err := h.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// CheckAdmin tells whether a wallet is an administrator
func (h *AuthHandlers) CheckAdmin(c *gin.Context) {
	var q walletQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	network, err := networkOrDefault(q.Network)
	if err != nil {
		writeError(c, err)
		return
	}

	isAdmin, err := h.authService.IsAdmin(c.Request.Context(), q.Address, network)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet_address": q.Address,
		"network":        network,
		"is_admin":       isAdmin,
	})
}

// Me returns information about the authenticated user
func (h *AuthHandlers) Me(c *gin.Context) {
	session := sessionFrom(c)
	if session == nil {
		writeError(c, core.ErrNotAuthorized)
		return
	}

	account, err := h.authService.GetAccount(c.Request.Context(), session.AccountID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account_id":     account.ID,
		"username":       account.Username,
		"wallet_address": session.Address,
		"network":        session.Network,
		"is_admin":       session.IsAdmin,
	})
}

func (h *AuthHandlers) tokenResponse(session *core.Session) TokenResponse {
	return TokenResponse{
		AccessToken:   session.AccessToken,
		RefreshToken:  session.RefreshToken,
		TokenType:     "Bearer",
		ExpiresIn:     int(h.authService.AccessTTL().Seconds()),
		IsAdmin:       session.IsAdmin,
		WalletAddress: session.Address,
		AccountID:     session.AccountID,
	}
}
