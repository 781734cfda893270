package core

import "time"

// Network identifies a supported chain family
type Network string

const (
	NetworkTron     Network = "tron"
	NetworkEthereum Network = "ethereum"
)

// ParseNetwork returns the Network for a request parameter
func ParseNetwork(s string) (Network, error) {
	switch Network(s) {
	case NetworkTron, NetworkEthereum:
		return Network(s), nil
	}
	return "", Errorf(KindInvalidAddress, "unsupported network %q", s)
}

// WalletType tags the signing provider that produced a signature
type WalletType string

const (
	WalletTypeTronLink WalletType = "tronlink"
	WalletTypeMetaMask WalletType = "metamask"
)

// WalletTypeFor returns the only wallet type accepted for a network
func WalletTypeFor(network Network) WalletType {
	if network == NetworkEthereum {
		return WalletTypeMetaMask
	}
	return WalletTypeTronLink
}

// WalletIdentity is a wallet address on a given network, signed for by a given provider
type WalletIdentity struct {
	Address    string     `json:"wallet_address"`
	Network    Network    `json:"network"`
	WalletType WalletType `json:"wallet_type"`
}

// Purpose tells which flow a challenge was issued for
type Purpose string

const (
	PurposeLogin Purpose = "login"
	PurposeLink  Purpose = "link"
)

// Challenge represents an authentication challenge
type Challenge struct {
	ID        string    // Unique identifier for the challenge
	Purpose   Purpose   // Flow the challenge belongs to
	Address   string    // Canonical wallet address
	Network   Network   // Network of the address
	Nonce     string    // Random nonce embedded in Message
	Message   string    // Exact text the wallet has to sign
	IssuedAt  time.Time // When the challenge was created
	ExpiresAt time.Time // When the challenge expires
	WalletID  string    // Linked wallet being verified, link challenges only
	AccountID string    // Account that requested a link challenge
	Consumed  bool      // Set once a verification succeeded
}

// Expired reports whether the challenge can no longer be answered at t
func (c *Challenge) Expired(t time.Time) bool {
	return !t.Before(c.ExpiresAt)
}

// VerifiedWallet is the proof returned by a successful signature verification.
// It is the only value the session and link flows accept.
type VerifiedWallet struct {
	Challenge Challenge
	Identity  WalletIdentity
}

// Account owns linked wallets
type Account struct {
	ID         string
	Username   string
	AuthMethod string
	IsActive   bool
	CreatedAt  time.Time
}

// LinkedWallet is a wallet attached to an account
type LinkedWallet struct {
	ID         string
	AccountID  string
	Identity   WalletIdentity
	IsVerified bool
	VerifiedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AdminWallet is an entry of the administrator whitelist
type AdminWallet struct {
	Address  string
	Network  Network
	IsActive bool
	Notes    string
	AddedAt  time.Time
}

// Session represents an authenticated user session
type Session struct {
	ID            string    // Unique session identifier
	AccountID     string    // Account the session belongs to
	Address       string    // Wallet address used to log in
	Network       Network   // Network of that wallet
	IsAdmin       bool      // Derived from the admin whitelist at login
	IssuedAt      time.Time // When the session was created
	RefreshExpiry time.Time // When the refresh capability expires
	AccessExpiry  time.Time // When the access capability expires
	RefreshID     string    // Unique identifier for the refresh token

	AccessToken  string
	RefreshToken string
}
