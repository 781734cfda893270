package core

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/mr-tron/base58"
)

const (
	// TronAddressPrefix is the version byte of mainnet Tron addresses
	TronAddressPrefix byte = 0x41

	tronAddressLen     = 34
	tronPayloadLen     = 21
	ethereumAddressLen = 42
)

// NormalizeAddress validates raw for network and returns its canonical form.
// Tron addresses are case-sensitive and kept as given, Ethereum addresses are lowercased.
func NormalizeAddress(raw string, network Network) (string, error) {
	addr := strings.TrimSpace(raw)
	if addr == "" {
		return "", Errorf(KindInvalidAddress, "wallet address is empty")
	}

	switch network {
	case NetworkTron:
		if _, err := DecodeTronAddress(addr); err != nil {
			return "", err
		}
		return addr, nil
	case NetworkEthereum:
		if len(addr) != ethereumAddressLen || !(strings.HasPrefix(addr, "0x") || strings.HasPrefix(addr, "0X")) {
			return "", Errorf(KindInvalidAddress, "ethereum address must be 0x followed by 40 hex digits")
		}
		if _, err := hex.DecodeString(addr[2:]); err != nil {
			return "", Errorf(KindInvalidAddress, "ethereum address must be 0x followed by 40 hex digits")
		}
		return "0x" + strings.ToLower(addr[2:]), nil
	}
	return "", Errorf(KindInvalidAddress, "unsupported network %q", network)
}

// DecodeTronAddress returns the 21 byte payload (version byte + account id) of a base58check Tron address
func DecodeTronAddress(addr string) ([]byte, error) {
	if len(addr) != tronAddressLen || addr[0] != 'T' {
		return nil, Errorf(KindInvalidAddress, "tron address must be 34 characters starting with T")
	}
	decoded, err := base58.Decode(addr)
	if err != nil {
		return nil, Errorf(KindInvalidAddress, "tron address is not valid base58")
	}
	if len(decoded) != tronPayloadLen+4 {
		return nil, Errorf(KindInvalidAddress, "tron address has wrong length")
	}
	payload, sum := decoded[:tronPayloadLen], decoded[tronPayloadLen:]
	if payload[0] != TronAddressPrefix {
		return nil, Errorf(KindInvalidAddress, "tron address has wrong version byte")
	}
	if !bytes.Equal(sum, checksum(payload)) {
		return nil, Errorf(KindInvalidAddress, "tron address checksum mismatch")
	}
	return payload, nil
}

// EncodeTronAddress turns a 20 byte account id into its base58check Tron address
func EncodeTronAddress(accountID []byte) string {
	payload := make([]byte, 0, tronPayloadLen+4)
	payload = append(payload, TronAddressPrefix)
	payload = append(payload, accountID...)
	payload = append(payload, checksum(payload)...)
	return base58.Encode(payload)
}

func checksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:4]
}
