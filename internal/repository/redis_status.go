// internal/repository/redis_status.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"paylink-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	statusNamespace = "plink"
	maxTxRetries    = 5
)

// RedisStatusRepository keeps sub-statuses under plink:{id}:{kyc|wallet|tx}.
type RedisStatusRepository struct {
	client redis.UniversalClient
	ttl    time.Duration

	// beforeExec runs between the watched read and EXEC. Tests use it to
	// force a conflict.
	beforeExec func(ctx context.Context, key string)
}

// NewRedisStatusRepository stores keys with ttl; zero keeps them forever.
func NewRedisStatusRepository(client redis.UniversalClient, ttl time.Duration) *RedisStatusRepository {
	return &RedisStatusRepository{client: client, ttl: ttl}
}

func statusKey(linkID, slice string) string {
	return statusNamespace + ":" + linkID + ":" + slice
}

func (r *RedisStatusRepository) GetKycStatus(ctx context.Context, linkID string) (domain.KycStatus, error) {
	val, err := r.client.Get(ctx, statusKey(linkID, "kyc")).Result()
	if errors.Is(err, redis.Nil) {
		return domain.KycNone, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get kyc status: %w", err)
	}
	return domain.KycStatus(val), nil
}

func (r *RedisStatusRepository) SetKycStatus(ctx context.Context, linkID string, status domain.KycStatus) error {
	if err := r.client.Set(ctx, statusKey(linkID, "kyc"), string(status), r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set kyc status: %w", err)
	}
	return nil
}

func (r *RedisStatusRepository) GetWalletStatus(ctx context.Context, linkID string) (*domain.WalletWhitelistStatus, error) {
	var status domain.WalletWhitelistStatus
	found, err := r.getJSON(ctx, statusKey(linkID, "wallet"), &status)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet status: %w", err)
	}
	if !found {
		return &domain.WalletWhitelistStatus{}, nil
	}
	return &status, nil
}

func (r *RedisStatusRepository) SetWalletStatus(ctx context.Context, linkID string, status *domain.WalletWhitelistStatus) error {
	b, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to encode wallet status: %w", err)
	}
	if err := r.client.Set(ctx, statusKey(linkID, "wallet"), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set wallet status: %w", err)
	}
	return nil
}

func (r *RedisStatusRepository) GetTransactionStatus(ctx context.Context, linkID string) (*domain.TransactionStatus, error) {
	var status domain.TransactionStatus
	found, err := r.getJSON(ctx, statusKey(linkID, "tx"), &status)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction status: %w", err)
	}
	if !found {
		return initialTransaction(), nil
	}
	return &status, nil
}

// SetTransactionStatus runs in a WATCH transaction so that a concurrent
// SETTLED write is never overwritten. A conflicting write retries the
// transaction up to maxTxRetries times.
func (r *RedisStatusRepository) SetTransactionStatus(ctx context.Context, linkID string, status *domain.TransactionStatus) (bool, error) {
	key := statusKey(linkID, "tx")
	b, err := json.Marshal(status)
	if err != nil {
		return false, fmt.Errorf("failed to encode transaction status: %w", err)
	}

	applied := false
	txf := func(tx *redis.Tx) error {
		applied = false
		var current domain.TransactionStatus
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(raw, &current); err != nil {
				return err
			}
			if current.Status == domain.TxSettled {
				return nil
			}
		}

		if r.beforeExec != nil {
			r.beforeExec(ctx, key)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, r.ttl)
			return nil
		})
		if err == nil {
			applied = true
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err = r.client.Watch(ctx, txf, key)
		if err == nil {
			return applied, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return false, fmt.Errorf("failed to set transaction status: %w", err)
		}
	}
	return false, fmt.Errorf("failed to set transaction status after %d attempts: %w", maxTxRetries, err)
}

func (r *RedisStatusRepository) getJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}
