package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		network Network
		want    string
		wantErr bool
	}{
		{name: "tron", raw: "T9yD14Nj9j7xAB4dbGeiX9h8unkKHxuWwb", network: NetworkTron, want: "T9yD14Nj9j7xAB4dbGeiX9h8unkKHxuWwb"},
		{name: "tron trimmed", raw: "  T9yD14Nj9j7xAB4dbGeiX9h8unkKHxuWwb\n", network: NetworkTron, want: "T9yD14Nj9j7xAB4dbGeiX9h8unkKHxuWwb"},
		{name: "empty", raw: "", network: NetworkTron, wantErr: true},
		{name: "blank", raw: "   ", network: NetworkTron, wantErr: true},
		{name: "tron wrong prefix", raw: "A9yD14Nj9j7xAB4dbGeiX9h8unkKHxuWwb", network: NetworkTron, wantErr: true},
		{name: "tron short", raw: "T9yD14Nj9j7xAB4dbGeiX9h8unkKHxuWw", network: NetworkTron, wantErr: true},
		{name: "tron bad checksum", raw: "T9yD14Nj9j7xAB4dbGeiX9h8unkKHxuWwc", network: NetworkTron, wantErr: true},
		{name: "tron lowercased", raw: "t9yd14nj9j7xab4dbgeix9h8unkkhxuwwb", network: NetworkTron, wantErr: true},
		{name: "ethereum", raw: "0xAbCdEf0123456789abcdef0123456789ABCDEF01", network: NetworkEthereum, want: "0xabcdef0123456789abcdef0123456789abcdef01"},
		{name: "ethereum no prefix", raw: "abcdef0123456789abcdef0123456789abcdef0123", network: NetworkEthereum, wantErr: true},
		{name: "ethereum not hex", raw: "0xzzcdef0123456789abcdef0123456789abcdef01", network: NetworkEthereum, wantErr: true},
		{name: "unknown network", raw: "T9yD14Nj9j7xAB4dbGeiX9h8unkKHxuWwb", network: Network("solana"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeAddress(tt.raw, tt.network)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidAddress))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTronAddressRoundTrip(t *testing.T) {
	payload, err := DecodeTronAddress("T9yD14Nj9j7xAB4dbGeiX9h8unkKHxuWwb")
	require.NoError(t, err)
	require.Len(t, payload, 21)
	assert.Equal(t, TronAddressPrefix, payload[0])
	assert.Equal(t, make([]byte, 20), payload[1:])

	assert.Equal(t, "T9yD14Nj9j7xAB4dbGeiX9h8unkKHxuWwb", EncodeTronAddress(payload[1:]))
}

func TestEncodePayload(t *testing.T) {
	assert.Equal(t, "6869", EncodePayload("hi"))
	assert.Equal(t, "c3a9", EncodePayload("é"))
	assert.Equal(t, "", EncodePayload(""))

	for i := 0; i < 20; i++ {
		nonce, err := NewNonce()
		require.NoError(t, err)
		for _, purpose := range []Purpose{PurposeLogin, PurposeLink} {
			msg := ChallengeMessage(purpose, nonce)
			payload := EncodePayload(msg)
			assert.Equal(t, strings.ToLower(payload), payload)
			assert.NotContains(t, payload, "0x")

			decoded, err := DecodePayload(payload)
			require.NoError(t, err)
			assert.Equal(t, msg, decoded)
		}
	}

	_, err := DecodePayload("zz")
	assert.Error(t, err)
	_, err = DecodePayload("ff")
	assert.Error(t, err)
}

func TestChallengeMessage(t *testing.T) {
	assert.Equal(t, "Sign this message to authenticate: abc", ChallengeMessage(PurposeLogin, "abc"))
	assert.Equal(t, "Sign this message to verify wallet ownership: abc", ChallengeMessage(PurposeLink, "abc"))
}

func TestNewNonceUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		n, err := NewNonce()
		require.NoError(t, err)
		assert.Len(t, n, 64)
		_, dup := seen[n]
		require.False(t, dup)
		seen[n] = struct{}{}
	}
}

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("verify: %w", StorageUnavailable(errors.New("dial tcp: timeout")))

	assert.True(t, errors.Is(err, ErrStorageUnavailable))
	assert.False(t, errors.Is(err, ErrNotAuthorized))
	assert.Equal(t, KindStorageUnavailable, KindOf(err))
	assert.Contains(t, err.Error(), "dial tcp: timeout")

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.True(t, e.Retryable())
	assert.False(t, ErrReplayDetected.Retryable())

	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Same(t, ErrWalletConflict, ErrorForKind(KindWalletConflict))
	assert.True(t, errors.Is(Errorf(KindInvalidAddress, "bad %s", "x"), ErrInvalidAddress))
}

func TestParseNetwork(t *testing.T) {
	n, err := ParseNetwork("tron")
	require.NoError(t, err)
	assert.Equal(t, NetworkTron, n)

	_, err = ParseNetwork("TRON")
	assert.True(t, errors.Is(err, ErrInvalidAddress))

	assert.Equal(t, WalletTypeTronLink, WalletTypeFor(NetworkTron))
	assert.Equal(t, WalletTypeMetaMask, WalletTypeFor(NetworkEthereum))
}
