// internal/stepper/stepper.go
package stepper

import (
	"sync"
	"time"

	"paylink-service/internal/domain"
	"paylink-service/pkg/xerrors"
)

// Stepper holds the buyer's current step for one link and re-derives it on
// every sub-status change. Each setter touches only its own slice of state.
type Stepper struct {
	mu      sync.RWMutex
	link    *domain.PaymentLinkDetails
	kyc     domain.KycStatus
	wallet  domain.WalletWhitelistStatus
	tx      domain.TransactionState
	current domain.StepID
	clock   func() time.Time
}

type Option func(*Stepper)

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Stepper) { s.clock = clock }
}

func New(link *domain.PaymentLinkDetails, kyc domain.KycStatus, wallet domain.WalletWhitelistStatus, tx domain.TransactionState, opts ...Option) *Stepper {
	if kyc == "" {
		kyc = domain.KycNone
	}
	if tx == "" {
		tx = domain.TxPending
	}
	s := &Stepper{
		link:    link,
		kyc:     kyc,
		wallet:  wallet,
		tx:      tx,
		current: domain.StepKyc,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.recompute()
	return s
}

// SetKycStatus is the kyc step callback.
func (s *Stepper) SetKycStatus(kyc domain.KycStatus) domain.StepID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kyc = kyc
	return s.recompute()
}

// SetWalletStatus is the wallet step callback.
func (s *Stepper) SetWalletStatus(wallet domain.WalletWhitelistStatus) domain.StepID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallet = wallet
	return s.recompute()
}

// SetTransactionStatus is the transfer step callback. SETTLED is latched:
// later updates cannot move the stepper off done.
func (s *Stepper) SetTransactionStatus(tx domain.TransactionState) domain.StepID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != domain.TxSettled {
		s.tx = tx
	}
	return s.recompute()
}

func (s *Stepper) recompute() domain.StepID {
	s.current = SelectStep(s.snapshotLocked())
	return s.current
}

func (s *Stepper) snapshotLocked() Snapshot {
	return Snapshot{
		Link:        s.link,
		Kyc:         s.kyc,
		Wallet:      s.wallet,
		Transaction: s.tx,
		Now:         s.clock(),
	}
}

func (s *Stepper) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Current returns the selected step. Expiry is evaluated live, so the result
// can change without a setter being called.
func (s *Stepper) Current() domain.StepID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recompute()
}

func (s *Stepper) Steps() []domain.StepView {
	return Resolve(s.Snapshot())
}

func (s *Stepper) Settled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tx == domain.TxSettled
}

// Authorize rejects actions on a step the resolver marks disabled.
func (s *Stepper) Authorize(step domain.StepID) error {
	return Authorize(step, s.Snapshot())
}

// Authorize is the stateless form of Stepper.Authorize.
func Authorize(step domain.StepID, snap Snapshot) error {
	if st := ResolveStep(step, snap); st == domain.StepDisabled {
		return &xerrors.StateError{Step: string(step), Status: string(st)}
	}
	return nil
}
