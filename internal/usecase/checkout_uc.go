// internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"paylink-service/internal/chains"
	"paylink-service/internal/domain"
	"paylink-service/internal/events"
	"paylink-service/internal/repository"
	"paylink-service/internal/stepper"
	"paylink-service/pkg/xerrors"

	"go.uber.org/zap"
)

// CheckoutUsecase drives the buyer side of a payment link: access rules,
// the three sub-status producers and the stepper that reads them.
type CheckoutUsecase struct {
	links          repository.PaymentLinkRepository
	catalog        repository.CatalogRepository
	statuses       repository.StatusRepository
	paymentLinks   *PaymentLinkUsecase
	chains         *chains.Registry
	publisher      events.Publisher
	notifier       ChangeNotifier
	kycRedirectURL string
	now            Clock
	logger         *zap.Logger
}

func NewCheckoutUsecase(
	links repository.PaymentLinkRepository,
	catalog repository.CatalogRepository,
	statuses repository.StatusRepository,
	paymentLinks *PaymentLinkUsecase,
	registry *chains.Registry,
	publisher events.Publisher,
	notifier ChangeNotifier,
	kycRedirectURL string,
	now Clock,
	logger *zap.Logger,
) *CheckoutUsecase {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &CheckoutUsecase{
		links:          links,
		catalog:        catalog,
		statuses:       statuses,
		paymentLinks:   paymentLinks,
		chains:         registry,
		publisher:      publisher,
		notifier:       notifier,
		kycRedirectURL: kycRedirectURL,
		now:            now,
		logger:         logger,
	}
}

// snapshot loads the link and all three sub-statuses.
func (uc *CheckoutUsecase) snapshot(ctx context.Context, linkID string) (*domain.PaymentLink, stepper.Snapshot, *domain.WalletWhitelistStatus, *domain.TransactionStatus, error) {
	now := uc.now()
	link, details, err := loadDetails(ctx, uc.links, uc.catalog, linkID, now)
	if err != nil {
		return nil, stepper.Snapshot{}, nil, nil, err
	}
	kyc, err := uc.statuses.GetKycStatus(ctx, linkID)
	if err != nil {
		return nil, stepper.Snapshot{}, nil, nil, err
	}
	wallet, err := uc.statuses.GetWalletStatus(ctx, linkID)
	if err != nil {
		return nil, stepper.Snapshot{}, nil, nil, err
	}
	tx, err := uc.statuses.GetTransactionStatus(ctx, linkID)
	if err != nil {
		return nil, stepper.Snapshot{}, nil, nil, err
	}
	snap := stepper.Snapshot{
		Link:        details,
		Kyc:         kyc,
		Wallet:      *wallet,
		Transaction: tx.Status,
		Now:         now,
	}
	return link, snap, wallet, tx, nil
}

// Checkout applies the payment page access rules and, for the link's own
// buyer, resolves the stepper. A settled transaction keeps the buyer's view
// at done after the link is marked PAID.
func (uc *CheckoutUsecase) Checkout(ctx context.Context, linkID string, session *domain.Session) (*domain.CheckoutView, error) {
	_, snap, wallet, tx, err := uc.snapshot(ctx, linkID)
	if err != nil {
		return nil, err
	}
	details := snap.Link
	view := &domain.CheckoutView{Link: details}
	settled := snap.Transaction == domain.TxSettled

	switch {
	case !settled && !stepper.IsPaymentLinkActive(details, snap.Now):
		view.Access = domain.AccessUnavailable
		view.Reason = "inactive"
		if stepper.IsPaymentLinkExpired(details, snap.Now) {
			view.Reason = "expired"
		}
		return view, nil
	case requireSession(session) != nil:
		view.Access = domain.AccessPublic
		return view, nil
	case !stepper.SessionMatches(details, session):
		view.Access = domain.AccessMismatch
		return view, nil
	}

	s := stepper.New(details, snap.Kyc, snap.Wallet, snap.Transaction, stepper.WithClock(func() time.Time { return snap.Now }))
	view.Access = domain.AccessGranted
	view.CurrentStep = s.Current()
	view.Steps = s.Steps()
	view.KycStatus = snap.Kyc
	view.WalletStatus = wallet
	view.TransactionStatus = tx
	return view, nil
}

// authorizeBuyer is the access rule for every buyer action.
func (uc *CheckoutUsecase) authorizeBuyer(ctx context.Context, linkID string, session *domain.Session) (*domain.PaymentLink, stepper.Snapshot, error) {
	if err := requireSession(session); err != nil {
		return nil, stepper.Snapshot{}, err
	}
	link, snap, _, _, err := uc.snapshot(ctx, linkID)
	if err != nil {
		return nil, stepper.Snapshot{}, err
	}
	if !stepper.IsPaymentLinkActive(snap.Link, snap.Now) {
		return nil, stepper.Snapshot{}, xerrors.ErrLinkUnavailable
	}
	if !stepper.SessionMatches(snap.Link, session) {
		return nil, stepper.Snapshot{}, xerrors.ErrBuyerMismatch
	}
	return link, snap, nil
}

// requireCurrent rejects disabled steps and steps that are already done.
func requireCurrent(step domain.StepID, snap stepper.Snapshot) error {
	if err := stepper.Authorize(step, snap); err != nil {
		return err
	}
	if st := stepper.ResolveStep(step, snap); st == domain.StepCompleted {
		return &xerrors.StateError{Step: string(step), Status: string(st)}
	}
	return nil
}

func (uc *CheckoutUsecase) GetKycStatus(ctx context.Context, linkID string, session *domain.Session) (domain.KycStatus, error) {
	if _, _, err := uc.authorizeBuyer(ctx, linkID, session); err != nil {
		return "", err
	}
	return uc.statuses.GetKycStatus(ctx, linkID)
}

// StartKyc hands the buyer to the KYC provider and moves them to review.
func (uc *CheckoutUsecase) StartKyc(ctx context.Context, linkID string, session *domain.Session) (string, error) {
	_, snap, err := uc.authorizeBuyer(ctx, linkID, session)
	if err != nil {
		return "", err
	}
	if err := requireCurrent(domain.StepKyc, snap); err != nil {
		return "", err
	}

	if err := uc.setKyc(ctx, linkID, domain.KycReview); err != nil {
		return "", err
	}

	redirect, err := url.Parse(uc.kycRedirectURL)
	if err != nil {
		return "", fmt.Errorf("invalid kyc redirect url: %w", err)
	}
	q := redirect.Query()
	q.Set("reference", linkID)
	redirect.RawQuery = q.Encode()
	return redirect.String(), nil
}

// ReviewKyc records the provider's decision.
func (uc *CheckoutUsecase) ReviewKyc(ctx context.Context, linkID string, decision domain.KycStatus) error {
	if decision != domain.KycPass && decision != domain.KycFail {
		return xerrors.ErrInvalidKYCResult
	}
	if _, err := uc.links.GetByID(ctx, linkID); err != nil {
		return err
	}
	return uc.setKyc(ctx, linkID, decision)
}

func (uc *CheckoutUsecase) setKyc(ctx context.Context, linkID string, status domain.KycStatus) error {
	if err := uc.statuses.SetKycStatus(ctx, linkID, status); err != nil {
		return err
	}
	uc.logger.Info("kyc status updated", zap.String("payment_link_id", linkID), zap.String("status", string(status)))
	publish(ctx, uc.publisher, uc.logger, events.NewEvent(events.EventKycUpdated, linkID, map[string]interface{}{"status": status}))
	uc.notifier.Notify(linkID)
	return nil
}

// GetWalletStatus is scoped to one chain family: a wallet stored for
// another chain reads as not whitelisted.
func (uc *CheckoutUsecase) GetWalletStatus(ctx context.Context, linkID string, session *domain.Session, chain domain.Chain) (*domain.WalletWhitelistStatus, error) {
	if _, _, err := uc.authorizeBuyer(ctx, linkID, session); err != nil {
		return nil, err
	}
	if chain != "" {
		if _, err := uc.chains.Get(chain); err != nil {
			return nil, err
		}
	}
	wallet, err := uc.statuses.GetWalletStatus(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if chain != "" && wallet.Chain != "" && wallet.Chain != chain {
		return &domain.WalletWhitelistStatus{}, nil
	}
	return wallet, nil
}

// SubmitWallet stores an address for verification. The wallet step must be
// current.
func (uc *CheckoutUsecase) SubmitWallet(ctx context.Context, linkID string, session *domain.Session, chain domain.Chain, address string) (*domain.WalletWhitelistStatus, error) {
	_, snap, err := uc.authorizeBuyer(ctx, linkID, session)
	if err != nil {
		return nil, err
	}
	if err := requireCurrent(domain.StepWallet, snap); err != nil {
		return nil, err
	}

	network, err := uc.chains.Get(chain)
	if err != nil {
		return nil, err
	}
	normalized, err := network.ValidateAddress(address)
	if err != nil {
		return nil, err
	}

	wallet := &domain.WalletWhitelistStatus{Whitelisted: false, Address: normalized, Chain: chain}
	if err := uc.setWallet(ctx, linkID, wallet); err != nil {
		return nil, err
	}
	return wallet, nil
}

// VerifyWallet approves or rejects the submitted wallet. A rejected wallet
// is cleared so the buyer can submit another.
func (uc *CheckoutUsecase) VerifyWallet(ctx context.Context, linkID string, approve bool) (*domain.WalletWhitelistStatus, error) {
	if _, err := uc.links.GetByID(ctx, linkID); err != nil {
		return nil, err
	}
	wallet, err := uc.statuses.GetWalletStatus(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if wallet.Address == "" {
		return nil, xerrors.ErrNoWalletToVerify
	}

	if approve {
		wallet.Whitelisted = true
	} else {
		wallet = &domain.WalletWhitelistStatus{}
	}
	if err := uc.setWallet(ctx, linkID, wallet); err != nil {
		return nil, err
	}
	return wallet, nil
}

func (uc *CheckoutUsecase) setWallet(ctx context.Context, linkID string, wallet *domain.WalletWhitelistStatus) error {
	if err := uc.statuses.SetWalletStatus(ctx, linkID, wallet); err != nil {
		return err
	}
	uc.logger.Info("wallet status updated",
		zap.String("payment_link_id", linkID),
		zap.String("chain", string(wallet.Chain)),
		zap.Bool("whitelisted", wallet.Whitelisted))
	publish(ctx, uc.publisher, uc.logger, events.NewEvent(events.EventWalletUpdated, linkID, map[string]interface{}{
		"chain":       wallet.Chain,
		"address":     wallet.Address,
		"whitelisted": wallet.Whitelisted,
	}))
	uc.notifier.Notify(linkID)
	return nil
}

// GetDepositAddress is display data for the transfer step, which must not
// be disabled.
func (uc *CheckoutUsecase) GetDepositAddress(ctx context.Context, linkID string, session *domain.Session, chain domain.Chain) (*domain.DepositAddress, error) {
	link, snap, err := uc.authorizeBuyer(ctx, linkID, session)
	if err != nil {
		return nil, err
	}
	if err := stepper.Authorize(domain.StepTransfer, snap); err != nil {
		return nil, err
	}
	if chain == "" {
		chain = domain.ChainERC20
		if snap.Wallet.Chain != "" {
			chain = snap.Wallet.Chain
		}
	}
	network, err := uc.chains.Get(chain)
	if err != nil {
		return nil, err
	}

	return &domain.DepositAddress{
		Address:               network.DepositAddress(),
		Memo:                  nil,
		Chain:                 chain,
		MinAmount:             link.Amount.StringFixed(2),
		ConfirmationsRequired: network.ConfirmationsRequired(),
	}, nil
}

// TransactionStatus reads the settlement subsystem's view without any
// access check. The stream poller uses it after the stream was authorized.
func (uc *CheckoutUsecase) TransactionStatus(ctx context.Context, linkID string) (*domain.TransactionStatus, error) {
	return uc.statuses.GetTransactionStatus(ctx, linkID)
}

func (uc *CheckoutUsecase) GetTransactionStatus(ctx context.Context, linkID string, session *domain.Session) (*domain.TransactionStatus, error) {
	if _, _, err := uc.authorizeBuyer(ctx, linkID, session); err != nil {
		return nil, err
	}
	return uc.statuses.GetTransactionStatus(ctx, linkID)
}

// UpdateTransaction is the settlement callback. SETTLED is terminal: later
// updates are ignored and the current status is returned. Reaching SETTLED
// marks the link PAID.
func (uc *CheckoutUsecase) UpdateTransaction(ctx context.Context, linkID string, state domain.TransactionState, txHash string) (*domain.TransactionStatus, error) {
	if !state.Valid() {
		return nil, &domain.ValidationError{Issues: []domain.FieldIssue{{
			Field:   "status",
			Message: "Invalid enum value. Expected 'PENDING' | 'ONCHAIN_CONFIRMED' | 'CONVERTING' | 'SETTLED'",
		}}}
	}
	if _, err := uc.links.GetByID(ctx, linkID); err != nil {
		return nil, err
	}

	status := &domain.TransactionStatus{Status: state, UpdatedAt: uc.now()}
	if txHash != "" {
		status.TxHash = &txHash
	} else if current, err := uc.statuses.GetTransactionStatus(ctx, linkID); err == nil {
		status.TxHash = current.TxHash
	}

	applied, err := uc.statuses.SetTransactionStatus(ctx, linkID, status)
	if err != nil {
		return nil, err
	}
	if !applied {
		uc.logger.Info("ignoring transaction update after settlement",
			zap.String("payment_link_id", linkID),
			zap.String("status", string(state)))
		return uc.statuses.GetTransactionStatus(ctx, linkID)
	}

	uc.logger.Info("transaction status updated", zap.String("payment_link_id", linkID), zap.String("status", string(state)))
	publish(ctx, uc.publisher, uc.logger, events.NewEvent(events.EventTransactionUpdated, linkID, map[string]interface{}{
		"status":  state,
		"tx_hash": txHash,
	}))

	if state == domain.TxSettled && uc.paymentLinks != nil {
		if err := uc.paymentLinks.MarkPaid(ctx, linkID); err != nil {
			uc.logger.Error("failed to mark payment link paid", zap.String("payment_link_id", linkID), zap.Error(err))
		}
	}
	uc.notifier.Notify(linkID)
	return status, nil
}
