// internal/repository/interfaces.go
package repository

import (
	"context"
	"time"

	"paylink-service/internal/domain"
)

type PaymentLinkRepository interface {
	Create(ctx context.Context, link *domain.PaymentLink) error
	// GetByID returns a *xerrors.NotFoundError for unknown ids.
	GetByID(ctx context.Context, id string) (*domain.PaymentLink, error)
	List(ctx context.Context, filter domain.ListPaymentLinksFilter) (*domain.PaymentLinkPage, error)
	// UpdateStatus moves a link from one status to another. It fails with
	// xerrors.ErrInvalidTransition when the stored status is not from.
	UpdateStatus(ctx context.Context, id string, from, to domain.PaymentLinkStatus, at time.Time) error
}

type CatalogRepository interface {
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	ListProjects(ctx context.Context, status domain.ProjectStatus) ([]*domain.Project, error)
	GetSettlementAccount(ctx context.Context, id string) (*domain.SettlementAccount, error)
	ListSettlementAccounts(ctx context.Context, accountType domain.SettlementAccountType) ([]*domain.SettlementAccount, error)
}

// StatusRepository stores the three sub-statuses per payment link. Getters
// return the initial value (KYC_NONE, not whitelisted, PENDING) for links
// with nothing stored.
type StatusRepository interface {
	GetKycStatus(ctx context.Context, linkID string) (domain.KycStatus, error)
	SetKycStatus(ctx context.Context, linkID string, status domain.KycStatus) error

	GetWalletStatus(ctx context.Context, linkID string) (*domain.WalletWhitelistStatus, error)
	SetWalletStatus(ctx context.Context, linkID string, status *domain.WalletWhitelistStatus) error

	GetTransactionStatus(ctx context.Context, linkID string) (*domain.TransactionStatus, error)
	// SetTransactionStatus never overwrites a SETTLED status; applied is
	// false when the write was dropped for that reason.
	SetTransactionStatus(ctx context.Context, linkID string, status *domain.TransactionStatus) (applied bool, err error)
}

func initialTransaction() *domain.TransactionStatus {
	return &domain.TransactionStatus{Status: domain.TxPending}
}
