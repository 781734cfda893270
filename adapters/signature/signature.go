package signature

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

const (
	tronMessageHeader = "\x19TRON Signed Message:\n"

	// trx.sign always announces a 32 byte message regardless of the payload size
	tronLegacyLength = "32"

	signatureLen = 65
)

// Verifier implements ports.SignatureVerifier for every supported network
type Verifier struct{}

// NewVerifier creates a verifier for tron and ethereum signatures
func NewVerifier() ports.SignatureVerifier {
	return &Verifier{}
}

// VerifySignature recovers the signer of payload and compares it with address
func (v *Verifier) VerifySignature(network core.Network, address string, payload []byte, signature string) error {
	sig, err := DecodeSignature(signature)
	if err != nil {
		return core.Wrap(core.KindSignatureInvalid, err)
	}

	switch network {
	case core.NetworkTron:
		// Accept both trx.sign and signMessageV2 digests
		for _, digest := range [][]byte{TronDigest(payload), TronDigestV2(payload)} {
			pub, err := crypto.SigToPub(digest, sig)
			if err != nil {
				continue
			}
			if TronAddress(pub) == address {
				return nil
			}
		}
		return core.ErrSignatureInvalid

	case core.NetworkEthereum:
		pub, err := crypto.SigToPub(EthereumDigest(payload), sig)
		if err != nil {
			return core.Wrap(core.KindSignatureInvalid, err)
		}
		if !strings.EqualFold(EthereumAddress(pub), address) {
			return core.ErrSignatureInvalid
		}
		return nil
	}

	return core.Errorf(core.KindSignatureInvalid, "unsupported network %q", network)
}

// DecodeSignature parses a hex r||s||v signature with or without 0x prefix
// and normalizes v to 0 or 1
func DecodeSignature(signature string) ([]byte, error) {
	s := strings.TrimSpace(signature)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")

	sig, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode signature: %w", err)
	}
	if len(sig) != signatureLen {
		return nil, fmt.Errorf("signature must be %d bytes, got %d", signatureLen, len(sig))
	}
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return nil, fmt.Errorf("invalid recovery id %d", sig[64])
	}
	return sig, nil
}

// EncodeSignature renders a signature from crypto.Sign the way wallets do: 0x prefixed, v in {27, 28}
func EncodeSignature(sig []byte) string {
	out := make([]byte, len(sig))
	copy(out, sig)
	if len(out) == signatureLen && out[64] < 27 {
		out[64] += 27
	}
	return "0x" + hex.EncodeToString(out)
}

// Digest returns the hash a wallet of network signs for payload
func Digest(network core.Network, payload []byte) ([]byte, error) {
	switch network {
	case core.NetworkTron:
		return TronDigest(payload), nil
	case core.NetworkEthereum:
		return EthereumDigest(payload), nil
	}
	return nil, fmt.Errorf("unsupported network %q", network)
}

// TronDigest is the hash signed by TronWeb trx.sign for a hex message
func TronDigest(payload []byte) []byte {
	return crypto.Keccak256([]byte(tronMessageHeader+tronLegacyLength), payload)
}

// TronDigestV2 is the hash signed by TronWeb signMessageV2
func TronDigestV2(payload []byte) []byte {
	return crypto.Keccak256([]byte(tronMessageHeader+strconv.Itoa(len(payload))), payload)
}

// EthereumDigest is the EIP-191 personal_sign hash
func EthereumDigest(payload []byte) []byte {
	return accounts.TextHash(payload)
}

// Address derives the canonical address of pub on network
func Address(network core.Network, pub *ecdsa.PublicKey) (string, error) {
	switch network {
	case core.NetworkTron:
		return TronAddress(pub), nil
	case core.NetworkEthereum:
		return EthereumAddress(pub), nil
	}
	return "", fmt.Errorf("unsupported network %q", network)
}

// TronAddress derives the base58check Tron address of pub
func TronAddress(pub *ecdsa.PublicKey) string {
	return core.EncodeTronAddress(crypto.PubkeyToAddress(*pub).Bytes())
}

// EthereumAddress derives the lowercase hex address of pub
func EthereumAddress(pub *ecdsa.PublicKey) string {
	return strings.ToLower(crypto.PubkeyToAddress(*pub).Hex())
}
