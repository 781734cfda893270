package core

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"unicode/utf8"
)

const (
	loginMessagePrefix = "Sign this message to authenticate: "
	linkMessagePrefix  = "Sign this message to verify wallet ownership: "

	nonceBytes = 32
)

// EncodePayload is the byte representation wallets sign: the UTF-8 bytes of message
// as lowercase hex digits, without separators or 0x prefix. Signers and verifiers
// must both go through this function.
func EncodePayload(message string) string {
	return hex.EncodeToString([]byte(message))
}

// DecodePayload reverses EncodePayload
func DecodePayload(payload string) (string, error) {
	b, err := hex.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("payload is not hex: %w", err)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("payload is not utf-8")
	}
	return string(b), nil
}

// ChallengeMessage renders the text a wallet signs for a purpose and nonce
func ChallengeMessage(purpose Purpose, nonce string) string {
	if purpose == PurposeLink {
		return linkMessagePrefix + nonce
	}
	return loginMessagePrefix + nonce
}

// NewNonce returns 32 random bytes as hex
func NewNonce() (string, error) {
	b := make([]byte, nonceBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return hex.EncodeToString(b), nil
}
