// Package signer describes the wallet side of the challenge flow: an agent holding a
// private key that reveals its address and signs hex payloads.
package signer

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/walletauth/adapters/signature"
	"github.com/layer-3/walletauth/core"
)

// Adapter is a wallet able to reveal its account and sign payloads
type Adapter interface {
	// RequestAccounts asks the wallet which account is selected
	RequestAccounts(ctx context.Context) (AccountsResult, error)

	// Sign signs a payload produced by core.EncodePayload and returns the hex signature
	Sign(ctx context.Context, hexPayload string) (string, error)
}

// AccountsResult is either Resolved or Unresolvable
type AccountsResult interface {
	accountsResult()
}

// Resolved carries the selected account
type Resolved struct {
	Address string
}

// Unresolvable means the wallet did not give out an account, e.g. it is locked
type Unresolvable struct {
	Reason string
}

func (Resolved) accountsResult()     {}
func (Unresolvable) accountsResult() {}

// ResolveAddress returns the canonical address of result or InvalidAddress
func ResolveAddress(result AccountsResult, network core.Network) (string, error) {
	switch r := result.(type) {
	case Resolved:
		return core.NormalizeAddress(r.Address, network)
	case Unresolvable:
		return "", core.Errorf(core.KindInvalidAddress, "wallet account not resolvable: %s", r.Reason)
	}
	return "", core.Errorf(core.KindInvalidAddress, "wallet account not resolvable")
}

type accountsEnvelope struct {
	Code    *int            `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Address string          `json:"address"`
	Base58  string          `json:"base58"`
}

const codeOK = 200

// ParseAccounts reads a wallet's answer to an account request. Accepted shapes are a list of
// addresses, an envelope {"code": 200, "data": [...]} and an object with an address or base58 field.
// Anything else, including a non-200 code, is Unresolvable.
func ParseAccounts(raw []byte) AccountsResult {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return firstAddress(list)
	}

	var env accountsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Unresolvable{Reason: "response is not json"}
	}

	if env.Code != nil && *env.Code != codeOK {
		reason := env.Message
		if reason == "" {
			reason = fmt.Sprintf("wallet answered with code %d", *env.Code)
		}
		return Unresolvable{Reason: reason}
	}

	switch {
	case len(env.Data) > 0:
		if err := json.Unmarshal(env.Data, &list); err != nil {
			return Unresolvable{Reason: "data is not a list of addresses"}
		}
		return firstAddress(list)
	case strings.TrimSpace(env.Base58) != "":
		return Resolved{Address: strings.TrimSpace(env.Base58)}
	case strings.TrimSpace(env.Address) != "":
		return Resolved{Address: strings.TrimSpace(env.Address)}
	}
	return Unresolvable{Reason: "no account in response"}
}

func firstAddress(list []string) AccountsResult {
	if len(list) == 0 || strings.TrimSpace(list[0]) == "" {
		return Unresolvable{Reason: "wallet returned no accounts"}
	}
	return Resolved{Address: strings.TrimSpace(list[0])}
}

// KeySigner is an Adapter backed by a local secp256k1 key
type KeySigner struct {
	key     *ecdsa.PrivateKey
	network core.Network
}

// NewKeySigner signs for network with key
func NewKeySigner(key *ecdsa.PrivateKey, network core.Network) *KeySigner {
	return &KeySigner{key: key, network: network}
}

// ParseKeySigner builds a KeySigner from a hex private key
func ParseKeySigner(hexKey string, network core.Network) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewKeySigner(key, network), nil
}

// Address is the canonical address of the key on the signer's network
func (s *KeySigner) Address() (string, error) {
	return signature.Address(s.network, &s.key.PublicKey)
}

func (s *KeySigner) RequestAccounts(ctx context.Context) (AccountsResult, error) {
	addr, err := s.Address()
	if err != nil {
		return Unresolvable{Reason: err.Error()}, nil
	}
	return Resolved{Address: addr}, nil
}

func (s *KeySigner) Sign(ctx context.Context, hexPayload string) (string, error) {
	payload, err := hexutil.Decode("0x" + hexPayload)
	if err != nil {
		return "", fmt.Errorf("payload is not hex: %w", err)
	}

	digest, err := signature.Digest(s.network, payload)
	if err != nil {
		return "", err
	}

	sig, err := crypto.Sign(digest, s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign: %w", err)
	}
	return signature.EncodeSignature(sig), nil
}

// SignMessage signs the payload encoding of message through adapter
func SignMessage(ctx context.Context, adapter Adapter, message string) (string, error) {
	return adapter.Sign(ctx, core.EncodePayload(message))
}

// Key returns the private key as hex without prefix
func (s *KeySigner) Key() string {
	return hexutil.Encode(crypto.FromECDSA(s.key))[2:]
}
