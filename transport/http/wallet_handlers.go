package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/service"
)

// WalletHandlers serve the linked wallet endpoints of an authenticated account
type WalletHandlers struct {
	authService *service.AuthService
}

func NewWalletHandlers(authService *service.AuthService) *WalletHandlers {
	return &WalletHandlers{authService: authService}
}

// WalletResponse describes a linked wallet
type WalletResponse struct {
	ID            string     `json:"id"`
	WalletAddress string     `json:"wallet_address"`
	Network       string     `json:"network"`
	WalletType    string     `json:"wallet_type"`
	IsVerified    bool       `json:"is_verified"`
	VerifiedAt    *time.Time `json:"verified_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ConnectRequest registers a wallet with the caller's account
type ConnectRequest struct {
	WalletAddress string `json:"wallet_address"`
	Network       string `json:"network"`
	WalletType    string `json:"wallet_type"`
}

// VerifyWalletRequest is a signed link challenge
type VerifyWalletRequest struct {
	WalletID  string `json:"wallet_id" binding:"required"`
	Signature string `json:"signature" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

func walletResponse(w *core.LinkedWallet) WalletResponse {
	return WalletResponse{
		ID:            w.ID,
		WalletAddress: w.Identity.Address,
		Network:       string(w.Identity.Network),
		WalletType:    string(w.Identity.WalletType),
		IsVerified:    w.IsVerified,
		VerifiedAt:    w.VerifiedAt,
		CreatedAt:     w.CreatedAt,
	}
}

// Connect links a new, unverified wallet
func (h *WalletHandlers) Connect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	network, err := networkOrDefault(req.Network)
	if err != nil {
		writeError(c, err)
		return
	}

	session := sessionFrom(c)
	wallet, err := h.authService.ConnectWallet(c.Request.Context(), session.AccountID, core.WalletIdentity{
		Address:    req.WalletAddress,
		Network:    network,
		WalletType: core.WalletType(req.WalletType),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, walletResponse(wallet))
}

// List returns the caller's wallets
func (h *WalletHandlers) List(c *gin.Context) {
	session := sessionFrom(c)
	wallets, err := h.authService.ListWallets(c.Request.Context(), session.AccountID)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]WalletResponse, 0, len(wallets))
	for i := range wallets {
		out = append(out, walletResponse(&wallets[i]))
	}
	c.JSON(http.StatusOK, gin.H{"wallets": out})
}

// VerificationMessage issues a challenge for one of the caller's wallets
func (h *WalletHandlers) VerificationMessage(c *gin.Context) {
	session := sessionFrom(c)
	challenge, err := h.authService.IssueLinkChallenge(c.Request.Context(), session.AccountID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet_id":      challenge.WalletID,
		"message":        challenge.Message,
		"wallet_address": challenge.Address,
		"expires_at":     challenge.ExpiresAt,
	})
}

// Verify checks a signed link challenge and marks the wallet verified
func (h *WalletHandlers) Verify(c *gin.Context) {
	var req VerifyWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session := sessionFrom(c)
	wallet, err := h.authService.VerifyWallet(c.Request.Context(), session.AccountID, req.WalletID, req.Message, req.Signature)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Wallet verified successfully",
		"wallet_id":   wallet.ID,
		"verified_at": wallet.VerifiedAt,
	})
}
