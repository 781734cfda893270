package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims combines standard claims with access-specific ones
type AccessClaims struct {
	jwt.RegisteredClaims
	RefreshID string `json:"rid"` // ID of the refresh token
	Address   string `json:"wallet_address"`
	Network   string `json:"network"`
	IsAdmin   bool   `json:"is_admin"`
}

// RefreshClaims carry what is needed to issue the next access token
type RefreshClaims struct {
	jwt.RegisteredClaims
	Address string `json:"wallet_address"`
	Network string `json:"network"`
}
