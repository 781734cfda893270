package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
	"github.com/redis/go-redis/v9"
)

// consumeScript flips the consumed flag of a challenge hash if its nonce still matches.
// Returns 1 on success, -1 if already consumed and 0 if missing or replaced.
var consumeScript = redis.NewScript(`
local nonce = redis.call('HGET', KEYS[1], 'nonce')
if not nonce or nonce ~= ARGV[1] then
	return 0
end
if redis.call('HGET', KEYS[1], 'consumed') == '1' then
	return -1
end
redis.call('HSET', KEYS[1], 'consumed', '1')
return 1
`)

// RedisChallengeStore keeps each challenge in a Redis hash with a TTL
type RedisChallengeStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisChallengeStore creates a challenge store on top of client
func NewRedisChallengeStore(client redis.UniversalClient) ports.ChallengeStore {
	return &RedisChallengeStore{
		client: client,
		prefix: "walletauth:",
	}
}

func (s *RedisChallengeStore) key(purpose core.Purpose, network core.Network, address string) string {
	return s.prefix + challengeKey(purpose, network, address)
}

// Put replaces the hash stored for the challenge key
func (s *RedisChallengeStore) Put(ctx context.Context, challenge *core.Challenge, retain time.Duration) error {
	key := s.key(challenge.Purpose, challenge.Network, challenge.Address)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, map[string]interface{}{
			"id":         challenge.ID,
			"purpose":    string(challenge.Purpose),
			"address":    challenge.Address,
			"network":    string(challenge.Network),
			"nonce":      challenge.Nonce,
			"message":    challenge.Message,
			"issued_at":  challenge.IssuedAt.UnixNano(),
			"expires_at": challenge.ExpiresAt.UnixNano(),
			"wallet_id":  challenge.WalletID,
			"account_id": challenge.AccountID,
			"consumed":   "0",
		})
		pipe.PExpire(ctx, key, retain)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store challenge: %w", err)
	}
	return nil
}

// Get loads the challenge hash
func (s *RedisChallengeStore) Get(ctx context.Context, purpose core.Purpose, network core.Network, address string) (*core.Challenge, error) {
	fields, err := s.client.HGetAll(ctx, s.key(purpose, network, address)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}
	if len(fields) == 0 {
		return nil, ports.ErrNotFound
	}

	issuedAt, err := strconv.ParseInt(fields["issued_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt challenge issued_at: %w", err)
	}
	expiresAt, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt challenge expires_at: %w", err)
	}

	return &core.Challenge{
		ID:        fields["id"],
		Purpose:   core.Purpose(fields["purpose"]),
		Address:   fields["address"],
		Network:   core.Network(fields["network"]),
		Nonce:     fields["nonce"],
		Message:   fields["message"],
		IssuedAt:  time.Unix(0, issuedAt),
		ExpiresAt: time.Unix(0, expiresAt),
		WalletID:  fields["wallet_id"],
		AccountID: fields["account_id"],
		Consumed:  fields["consumed"] == "1",
	}, nil
}

// Consume runs the compare-and-mark script
func (s *RedisChallengeStore) Consume(ctx context.Context, challenge *core.Challenge) error {
	key := s.key(challenge.Purpose, challenge.Network, challenge.Address)

	res, err := consumeScript.Run(ctx, s.client, []string{key}, challenge.Nonce).Int()
	if err != nil {
		return fmt.Errorf("failed to consume challenge: %w", err)
	}

	switch res {
	case 1:
		return nil
	case -1:
		return ports.ErrConsumed
	default:
		return ports.ErrNotFound
	}
}

func challengeKey(purpose core.Purpose, network core.Network, address string) string {
	return fmt.Sprintf("challenge:%s:%s:%s", purpose, network, address)
}
