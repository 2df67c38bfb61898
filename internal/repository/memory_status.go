// internal/repository/memory_status.go
package repository

import (
	"context"
	"sync"

	"paylink-service/internal/domain"
)

type linkStatuses struct {
	kyc    domain.KycStatus
	wallet *domain.WalletWhitelistStatus
	tx     *domain.TransactionStatus
}

type MemoryStatusRepository struct {
	mu    sync.RWMutex
	links map[string]*linkStatuses
}

func NewMemoryStatusRepository() *MemoryStatusRepository {
	return &MemoryStatusRepository{links: make(map[string]*linkStatuses)}
}

// entry must be called with mu held for writing.
func (r *MemoryStatusRepository) entry(linkID string) *linkStatuses {
	s, ok := r.links[linkID]
	if !ok {
		s = &linkStatuses{}
		r.links[linkID] = s
	}
	return s
}

func (r *MemoryStatusRepository) GetKycStatus(_ context.Context, linkID string) (domain.KycStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.links[linkID]; ok && s.kyc != "" {
		return s.kyc, nil
	}
	return domain.KycNone, nil
}

func (r *MemoryStatusRepository) SetKycStatus(_ context.Context, linkID string, status domain.KycStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entry(linkID).kyc = status
	return nil
}

func (r *MemoryStatusRepository) GetWalletStatus(_ context.Context, linkID string) (*domain.WalletWhitelistStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.links[linkID]; ok && s.wallet != nil {
		cp := *s.wallet
		return &cp, nil
	}
	return &domain.WalletWhitelistStatus{}, nil
}

func (r *MemoryStatusRepository) SetWalletStatus(_ context.Context, linkID string, status *domain.WalletWhitelistStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *status
	r.entry(linkID).wallet = &cp
	return nil
}

func (r *MemoryStatusRepository) GetTransactionStatus(_ context.Context, linkID string) (*domain.TransactionStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.links[linkID]; ok && s.tx != nil {
		cp := *s.tx
		return &cp, nil
	}
	return initialTransaction(), nil
}

func (r *MemoryStatusRepository) SetTransactionStatus(_ context.Context, linkID string, status *domain.TransactionStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entry(linkID)
	if e.tx != nil && e.tx.Status == domain.TxSettled {
		return false, nil
	}
	cp := *status
	e.tx = &cp
	return true, nil
}
