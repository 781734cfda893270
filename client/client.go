// Package client drives the wallet authentication endpoints on behalf of a wallet holder.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gojek/heimdall/v7"
	"github.com/gojek/heimdall/v7/httpclient"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/signer"
)

// Session is what the client keeps after a login
type Session struct {
	AccessToken   string `json:"access_token"`
	RefreshToken  string `json:"refresh_token"`
	ExpiresIn     int    `json:"expires_in"`
	IsAdmin       bool   `json:"is_admin"`
	WalletAddress string `json:"wallet_address"`
	AccountID     string `json:"account_id"`
}

// Wallet is a linked wallet as reported by the server
type Wallet struct {
	ID            string     `json:"id"`
	WalletAddress string     `json:"wallet_address"`
	Network       string     `json:"network"`
	WalletType    string     `json:"wallet_type"`
	IsVerified    bool       `json:"is_verified"`
	VerifiedAt    *time.Time `json:"verified_at"`
}

// APIError is a failure reported by the server
type APIError struct {
	Status    int
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// Unwrap exposes the matching core error so callers can use errors.Is with core sentinels
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "token_expired":
		return core.ErrTokenExpired
	case "token_invalidated":
		return core.ErrTokenInvalidated
	case "invalid_token":
		return core.ErrInvalidToken
	}
	kind := core.Kind(e.Code)
	if ce := core.ErrorForKind(kind); ce.Msg != string(kind) {
		return ce
	}
	return nil
}

// Options tune the underlying heimdall client
type Options struct {
	Timeout    time.Duration
	RetryCount int
	Backoff    time.Duration
}

func DefaultOptions() Options {
	return Options{
		Timeout:    10 * time.Second,
		RetryCount: 2,
		Backoff:    200 * time.Millisecond,
	}
}

// Client talks to a walletauth server. Session state lives in the SessionHolder it was given.
type Client struct {
	baseURL  string
	http     heimdall.Doer
	sessions *SessionHolder
}

// New creates a client for baseURL, e.g. http://localhost:8080
func New(baseURL string, sessions *SessionHolder, opts Options) *Client {
	backoff := heimdall.NewConstantBackoff(opts.Backoff, opts.Backoff/2)
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: httpclient.NewClient(
			httpclient.WithHTTPTimeout(opts.Timeout),
			httpclient.WithRetryCount(opts.RetryCount),
			httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
		),
		sessions: sessions,
	}
}

// AuthMessage fetches a login challenge for address
func (c *Client) AuthMessage(ctx context.Context, address string, network core.Network) (string, error) {
	q := url.Values{"wallet_address": {address}, "network": {string(network)}}
	var res struct {
		Message string `json:"message"`
	}
	if err := c.call(ctx, http.MethodGet, "/auth/wallet/auth-message?"+q.Encode(), nil, false, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

// Login asks adapter for its account, signs a fresh challenge with it and stores the session
func (c *Client) Login(ctx context.Context, adapter signer.Adapter, network core.Network) (*Session, error) {
	accounts, err := adapter.RequestAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to request accounts: %w", err)
	}
	address, err := signer.ResolveAddress(accounts, network)
	if err != nil {
		return nil, err
	}

	message, err := c.AuthMessage(ctx, address, network)
	if err != nil {
		return nil, err
	}
	sig, err := signer.SignMessage(ctx, adapter, message)
	if err != nil {
		return nil, fmt.Errorf("failed to sign challenge: %w", err)
	}

	session := &Session{}
	err = c.call(ctx, http.MethodPost, "/auth/wallet/login", map[string]string{
		"wallet_address": address,
		"network":        string(network),
		"wallet_type":    string(core.WalletTypeFor(network)),
		"signature":      sig,
		"message":        message,
	}, false, session)
	if err != nil {
		return nil, err
	}

	c.sessions.Set(session)
	return session, nil
}

// Refresh rotates the held session
func (c *Client) Refresh(ctx context.Context) (*Session, error) {
	current := c.sessions.Get()
	if current == nil {
		return nil, core.ErrNotAuthorized
	}

	session := &Session{}
	if err := c.call(ctx, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": current.RefreshToken}, false, session); err != nil {
		return nil, err
	}
	c.sessions.Set(session)
	return session, nil
}

// Logout invalidates the held session and forgets it
func (c *Client) Logout(ctx context.Context) error {
	current := c.sessions.Get()
	if current == nil {
		return nil
	}
	if err := c.call(ctx, http.MethodPost, "/auth/logout", map[string]string{"refresh_token": current.RefreshToken}, false, nil); err != nil {
		return err
	}
	c.sessions.Clear()
	return nil
}

// ConnectWallet links an unverified wallet to the logged in account
func (c *Client) ConnectWallet(ctx context.Context, address string, network core.Network) (*Wallet, error) {
	wallet := &Wallet{}
	err := c.call(ctx, http.MethodPost, "/wallets/connect", map[string]string{
		"wallet_address": address,
		"network":        string(network),
		"wallet_type":    string(core.WalletTypeFor(network)),
	}, true, wallet)
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// Wallets lists the wallets of the logged in account
func (c *Client) Wallets(ctx context.Context) ([]Wallet, error) {
	var res struct {
		Wallets []Wallet `json:"wallets"`
	}
	if err := c.call(ctx, http.MethodGet, "/wallets/my-wallets", nil, true, &res); err != nil {
		return nil, err
	}
	return res.Wallets, nil
}

// VerifyWallet proves control of a linked wallet by signing its verification message with adapter
func (c *Client) VerifyWallet(ctx context.Context, walletID string, adapter signer.Adapter) error {
	var challenge struct {
		Message string `json:"message"`
	}
	if err := c.call(ctx, http.MethodGet, "/wallets/verification-message/"+url.PathEscape(walletID), nil, true, &challenge); err != nil {
		return err
	}

	sig, err := signer.SignMessage(ctx, adapter, challenge.Message)
	if err != nil {
		return fmt.Errorf("failed to sign verification message: %w", err)
	}

	return c.call(ctx, http.MethodPost, "/wallets/verify", map[string]string{
		"wallet_id": walletID,
		"signature": sig,
		"message":   challenge.Message,
	}, true, nil)
}

func (c *Client) call(ctx context.Context, method, path string, body interface{}, authorized bool, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		session := c.sessions.Get()
		if session == nil {
			return core.ErrNotAuthorized
		}
		req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	}

	// heimdall returns the last response along with an error once retries on 5xx are exhausted
	resp, err := c.http.Do(req)
	if resp == nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope struct {
			Error *APIError `json:"error"`
		}
		envelope.Error = apiErr
		if decodeErr := json.NewDecoder(resp.Body).Decode(&envelope); decodeErr != nil || apiErr.Code == "" {
			apiErr.Code = "http_error"
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
