// internal/repository/memory_payment_link.go
package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"paylink-service/internal/domain"
	"paylink-service/pkg/xerrors"
)

// MemoryPaymentLinkRepository keeps links for the process lifetime.
type MemoryPaymentLinkRepository struct {
	mu    sync.RWMutex
	links map[string]*domain.PaymentLink
	order []string
}

func NewMemoryPaymentLinkRepository(seed ...*domain.PaymentLink) *MemoryPaymentLinkRepository {
	r := &MemoryPaymentLinkRepository{links: make(map[string]*domain.PaymentLink)}
	for _, l := range seed {
		cp := *l
		r.links[l.ID] = &cp
		r.order = append(r.order, l.ID)
	}
	return r
}

func (r *MemoryPaymentLinkRepository) Create(_ context.Context, link *domain.PaymentLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.links[link.ID]; exists {
		return fmt.Errorf("payment link %s already exists", link.ID)
	}
	cp := *link
	r.links[link.ID] = &cp
	r.order = append(r.order, link.ID)
	return nil
}

func (r *MemoryPaymentLinkRepository) GetByID(_ context.Context, id string) (*domain.PaymentLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	link, ok := r.links[id]
	if !ok {
		return nil, xerrors.NewNotFound("payment link", id)
	}
	cp := *link
	return &cp, nil
}

func (r *MemoryPaymentLinkRepository) List(_ context.Context, filter domain.ListPaymentLinksFilter) (*domain.PaymentLinkPage, error) {
	r.mu.RLock()
	all := make([]*domain.PaymentLink, 0, len(r.order))
	for _, id := range r.order {
		cp := *r.links[id]
		all = append(all, &cp)
	}
	r.mu.RUnlock()

	page := domain.FilterAndPaginate(all, filter)
	return &page, nil
}

func (r *MemoryPaymentLinkRepository) UpdateStatus(_ context.Context, id string, from, to domain.PaymentLinkStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[id]
	if !ok {
		return xerrors.NewNotFound("payment link", id)
	}
	if link.Status != from {
		return fmt.Errorf("%w: %s is %s", xerrors.ErrInvalidTransition, id, link.Status)
	}
	link.Status = to
	link.UpdatedAt = at
	return nil
}
