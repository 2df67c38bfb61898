package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"paylink-service/internal/chains"
	"paylink-service/internal/domain"
	"paylink-service/internal/events"
	"paylink-service/internal/repository"
	"paylink-service/pkg/xerrors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const (
	ethAddress  = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"
	tronAddress = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e *events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingNotifier struct {
	mu    sync.Mutex
	links []string
}

func (n *recordingNotifier) Notify(linkID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.links = append(n.links, linkID)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.links)
}

type fixture struct {
	links     *repository.MemoryPaymentLinkRepository
	statuses  *repository.MemoryStatusRepository
	publisher *recordingPublisher
	notifier  *recordingNotifier
	payments  *PaymentLinkUsecase
	checkout  *CheckoutUsecase
	now       time.Time
}

func newFixture(t *testing.T, seed ...*domain.PaymentLink) *fixture {
	t.Helper()
	f := &fixture{
		links:     repository.NewMemoryPaymentLinkRepository(seed...),
		statuses:  repository.NewMemoryStatusRepository(),
		publisher: &recordingPublisher{},
		notifier:  &recordingNotifier{},
		now:       testNow,
	}
	clock := func() time.Time { return f.now }
	catalog := repository.NewMemoryCatalogRepository(repository.DemoProjects(), repository.DemoSettlementAccounts())
	f.payments = NewPaymentLinkUsecase(f.links, catalog, f.publisher, f.notifier, "https://pay.test", clock, zap.NewNop())
	f.checkout = NewCheckoutUsecase(
		f.links, catalog, f.statuses, f.payments,
		chains.NewDefaultRegistry("0x1111111111111111111111111111111111111111", tronAddress),
		f.publisher, f.notifier, "https://kyc.test/start", clock, zap.NewNop(),
	)
	return f
}

func link(id string, mutate func(*domain.PaymentLink)) *domain.PaymentLink {
	l := &domain.PaymentLink{
		ID:                     id,
		URL:                    "https://pay.test/payment/" + id,
		Status:                 domain.PaymentLinkStatusActive,
		ProjectID:              "proj_1",
		Buyer:                  domain.EmailBuyer("buyer@example.com"),
		Amount:                 decimal.RequireFromString("1500"),
		Currency:               domain.CurrencyAED,
		PaymentMethod:          domain.PaymentMethodUSDTToAED,
		SettlementAccountID:    "settle_1",
		ExpiresAt:              testNow.Add(24 * time.Hour),
		RequireKyc:             true,
		RequireWalletWhitelist: true,
		CreatedAt:              testNow.Add(-time.Hour),
		UpdatedAt:              testNow.Add(-time.Hour),
	}
	if mutate != nil {
		mutate(l)
	}
	return l
}

var buyer = &domain.Session{Email: "buyer@example.com", Role: domain.RoleInvestor}

func createRequest(t *testing.T, body map[string]interface{}) *domain.CreatePaymentLinkRequest {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	var req domain.CreatePaymentLinkRequest
	require.NoError(t, json.Unmarshal(raw, &req))
	return &req
}

func validCreateBody() map[string]interface{} {
	return map[string]interface{}{
		"projectId":           "proj_1",
		"buyer":               map[string]interface{}{"type": "externalId", "externalId": "CUST-1"},
		"amount":              250.5,
		"currency":            "USDT",
		"paymentMethod":       "USDT_TO_AED",
		"settlementAccountId": "settle_1",
		"expiresAt":           testNow.Add(2 * time.Hour).Format(time.RFC3339),
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)

	resp, err := f.payments.Create(context.Background(), createRequest(t, validCreateBody()))
	require.NoError(t, err)
	assert.Regexp(t, `^plink_[0-9a-z]{26}$`, resp.ID)
	assert.Equal(t, "https://pay.test/payment/"+resp.ID, resp.URL)
	assert.Equal(t, domain.PaymentLinkStatusActive, resp.Status)
	assert.Equal(t, testNow, resp.CreatedAt)

	stored, err := f.links.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "250.5", stored.Amount.String())
	assert.Equal(t, []string{events.EventLinkCreated}, f.publisher.types())
}

func TestCreate_ValidationError(t *testing.T) {
	f := newFixture(t)
	body := validCreateBody()
	body["amount"] = -1
	delete(body, "projectId")

	_, err := f.payments.Create(context.Background(), createRequest(t, body))
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.NotEmpty(t, verr.Field("amount"))
	assert.NotEmpty(t, verr.Field("projectId"))
	assert.Empty(t, f.publisher.types())
}

func TestCreate_UnknownReferences(t *testing.T) {
	f := newFixture(t)

	body := validCreateBody()
	body["projectId"] = "proj_missing"
	_, err := f.payments.Create(context.Background(), createRequest(t, body))
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	body = validCreateBody()
	body["settlementAccountId"] = "settle_missing"
	_, err = f.payments.Create(context.Background(), createRequest(t, body))
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestCreate_PublisherFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	_, err := f.payments.Create(context.Background(), createRequest(t, validCreateBody()))
	assert.NoError(t, err)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t, link("plink_a", nil))
	ctx := context.Background()

	_, err := f.payments.UpdateStatus(ctx, "plink_a", "ARCHIVED")
	assert.ErrorIs(t, err, xerrors.ErrValidation)

	updated, err := f.payments.UpdateStatus(ctx, "plink_a", domain.PaymentLinkStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentLinkStatusCancelled, updated.Status)
	assert.Equal(t, 1, f.notifier.count())

	_, err = f.payments.UpdateStatus(ctx, "plink_a", domain.PaymentLinkStatusPaid)
	assert.ErrorIs(t, err, xerrors.ErrInvalidTransition)

	assert.NoError(t, f.payments.MarkPaid(ctx, "plink_a"))
}

func TestDetails_Projection(t *testing.T) {
	f := newFixture(t, link("plink_a", nil))

	details, err := f.payments.Details(context.Background(), "plink_a")
	require.NoError(t, err)
	assert.Equal(t, "Sunset Villas", details.Project.Name)
	assert.Equal(t, "1500.00", details.Amount)

	_, err = f.payments.Details(context.Background(), "plink_missing")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestCheckout_Access(t *testing.T) {
	f := newFixture(t,
		link("plink_a", nil),
		link("plink_expired", func(l *domain.PaymentLink) { l.ExpiresAt = testNow.Add(-time.Minute) }),
		link("plink_paid", func(l *domain.PaymentLink) { l.Status = domain.PaymentLinkStatusPaid }),
	)
	ctx := context.Background()

	view, err := f.checkout.Checkout(ctx, "plink_a", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.AccessPublic, view.Access)
	assert.Empty(t, view.Steps)

	view, err = f.checkout.Checkout(ctx, "plink_a", &domain.Session{Email: "someone@else.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.AccessMismatch, view.Access)

	view, err = f.checkout.Checkout(ctx, "plink_a", buyer)
	require.NoError(t, err)
	assert.Equal(t, domain.AccessGranted, view.Access)
	assert.Equal(t, domain.StepKyc, view.CurrentStep)
	assert.Len(t, view.Steps, 4)
	assert.Equal(t, domain.KycNone, view.KycStatus)
	assert.Equal(t, domain.TxPending, view.TransactionStatus.Status)

	view, err = f.checkout.Checkout(ctx, "plink_expired", buyer)
	require.NoError(t, err)
	assert.Equal(t, domain.AccessUnavailable, view.Access)
	assert.Equal(t, "expired", view.Reason)

	view, err = f.checkout.Checkout(ctx, "plink_paid", buyer)
	require.NoError(t, err)
	assert.Equal(t, domain.AccessUnavailable, view.Access)
	assert.Equal(t, "inactive", view.Reason)
}

func TestCheckout_FullFlow(t *testing.T) {
	f := newFixture(t, link("plink_a", nil))
	ctx := context.Background()
	current := func() domain.StepID {
		view, err := f.checkout.Checkout(ctx, "plink_a", buyer)
		require.NoError(t, err)
		return view.CurrentStep
	}

	_, err := f.checkout.SubmitWallet(ctx, "plink_a", buyer, domain.ChainERC20, ethAddress)
	assert.ErrorIs(t, err, xerrors.ErrStepDisabled, "wallet is disabled before kyc passes")

	redirect, err := f.checkout.StartKyc(ctx, "plink_a", buyer)
	require.NoError(t, err)
	assert.Equal(t, "https://kyc.test/start?reference=plink_a", redirect)
	assert.Equal(t, domain.StepKyc, current())

	require.NoError(t, f.checkout.ReviewKyc(ctx, "plink_a", domain.KycPass))
	assert.Equal(t, domain.StepWallet, current())

	_, err = f.checkout.StartKyc(ctx, "plink_a", buyer)
	assert.ErrorIs(t, err, xerrors.ErrStepCompleted, "kyc is already completed")
	assert.NotErrorIs(t, err, xerrors.ErrStepDisabled)

	_, err = f.checkout.GetDepositAddress(ctx, "plink_a", buyer, domain.ChainERC20)
	assert.ErrorIs(t, err, xerrors.ErrStepDisabled)

	wallet, err := f.checkout.SubmitWallet(ctx, "plink_a", buyer, domain.ChainERC20, ethAddress)
	require.NoError(t, err)
	assert.False(t, wallet.Whitelisted)
	assert.Equal(t, domain.StepWallet, current())

	wallet, err = f.checkout.VerifyWallet(ctx, "plink_a", true)
	require.NoError(t, err)
	assert.True(t, wallet.Whitelisted)
	assert.Equal(t, domain.StepTransfer, current())

	deposit, err := f.checkout.GetDepositAddress(ctx, "plink_a", buyer, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ChainERC20, deposit.Chain)
	assert.Equal(t, "1500.00", deposit.MinAmount)
	assert.Equal(t, 12, deposit.ConfirmationsRequired)
	assert.Nil(t, deposit.Memo)

	_, err = f.checkout.UpdateTransaction(ctx, "plink_a", domain.TxOnchainConfirmed, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, domain.StepTransfer, current())

	_, err = f.checkout.UpdateTransaction(ctx, "plink_a", domain.TxSettled, "")
	require.NoError(t, err)

	stored, err := f.links.GetByID(ctx, "plink_a")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentLinkStatusPaid, stored.Status)

	tx, err := f.checkout.TransactionStatus(ctx, "plink_a")
	require.NoError(t, err)
	assert.Equal(t, domain.TxSettled, tx.Status)
	require.NotNil(t, tx.TxHash)
	assert.Equal(t, "0xabc", *tx.TxHash)

	assert.Contains(t, f.publisher.types(), events.EventKycUpdated)
	assert.Contains(t, f.publisher.types(), events.EventWalletUpdated)
	assert.Contains(t, f.publisher.types(), events.EventTransactionUpdated)
	assert.Contains(t, f.publisher.types(), events.EventLinkStatusChanged)
}

func TestCheckout_KycFailStaysCurrent(t *testing.T) {
	f := newFixture(t, link("plink_a", nil))
	ctx := context.Background()

	require.NoError(t, f.checkout.ReviewKyc(ctx, "plink_a", domain.KycFail))
	view, err := f.checkout.Checkout(ctx, "plink_a", buyer)
	require.NoError(t, err)
	assert.Equal(t, domain.StepKyc, view.CurrentStep)

	assert.ErrorIs(t, f.checkout.ReviewKyc(ctx, "plink_a", domain.KycReview), xerrors.ErrInvalidKYCResult)
}

func TestCheckout_BuyerActionsRequireMatchingSession(t *testing.T) {
	f := newFixture(t,
		link("plink_a", nil),
		link("plink_cancelled", func(l *domain.PaymentLink) { l.Status = domain.PaymentLinkStatusCancelled }),
	)
	ctx := context.Background()

	_, err := f.checkout.StartKyc(ctx, "plink_a", nil)
	assert.ErrorIs(t, err, xerrors.ErrUnauthorized)

	_, err = f.checkout.StartKyc(ctx, "plink_a", &domain.Session{Email: "other@example.com"})
	assert.ErrorIs(t, err, xerrors.ErrBuyerMismatch)

	_, err = f.checkout.GetKycStatus(ctx, "plink_cancelled", buyer)
	assert.ErrorIs(t, err, xerrors.ErrLinkUnavailable)

	_, err = f.checkout.GetTransactionStatus(ctx, "plink_missing", buyer)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestSubmitWallet_Validation(t *testing.T) {
	f := newFixture(t, link("plink_a", func(l *domain.PaymentLink) { l.RequireKyc = false }))
	ctx := context.Background()

	_, err := f.checkout.SubmitWallet(ctx, "plink_a", buyer, domain.ChainERC20, "0x123")
	assert.ErrorIs(t, err, xerrors.ErrInvalidAddress)

	_, err = f.checkout.SubmitWallet(ctx, "plink_a", buyer, "btc", ethAddress)
	assert.ErrorIs(t, err, xerrors.ErrUnsupportedChain)

	wallet, err := f.checkout.SubmitWallet(ctx, "plink_a", buyer, domain.ChainTRC20, tronAddress)
	require.NoError(t, err)
	assert.Equal(t, tronAddress, wallet.Address)

	other, err := f.checkout.GetWalletStatus(ctx, "plink_a", buyer, domain.ChainERC20)
	require.NoError(t, err)
	assert.False(t, other.Whitelisted)
	assert.Empty(t, other.Address)

	same, err := f.checkout.GetWalletStatus(ctx, "plink_a", buyer, domain.ChainTRC20)
	require.NoError(t, err)
	assert.Equal(t, tronAddress, same.Address)
}

func TestVerifyWallet(t *testing.T) {
	f := newFixture(t, link("plink_a", func(l *domain.PaymentLink) { l.RequireKyc = false }))
	ctx := context.Background()

	_, err := f.checkout.VerifyWallet(ctx, "plink_a", true)
	assert.ErrorIs(t, err, xerrors.ErrNoWalletToVerify)

	_, err = f.checkout.SubmitWallet(ctx, "plink_a", buyer, domain.ChainERC20, ethAddress)
	require.NoError(t, err)

	wallet, err := f.checkout.VerifyWallet(ctx, "plink_a", false)
	require.NoError(t, err)
	assert.Empty(t, wallet.Address)

	stored, err := f.statuses.GetWalletStatus(ctx, "plink_a")
	require.NoError(t, err)
	assert.Empty(t, stored.Address)
	assert.False(t, stored.Whitelisted)
}

func TestUpdateTransaction_SettledIsTerminal(t *testing.T) {
	f := newFixture(t, link("plink_a", func(l *domain.PaymentLink) {
		l.RequireKyc = false
		l.RequireWalletWhitelist = false
	}))
	ctx := context.Background()

	_, err := f.checkout.UpdateTransaction(ctx, "plink_a", "LOST", "")
	assert.ErrorIs(t, err, xerrors.ErrValidation)

	view, err := f.checkout.Checkout(ctx, "plink_a", buyer)
	require.NoError(t, err)
	assert.Equal(t, domain.StepTransfer, view.CurrentStep)

	_, err = f.checkout.UpdateTransaction(ctx, "plink_a", domain.TxSettled, "0xfeed")
	require.NoError(t, err)

	status, err := f.checkout.UpdateTransaction(ctx, "plink_a", domain.TxPending, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TxSettled, status.Status)

	stored, err := f.payments.Get(ctx, "plink_a")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentLinkStatusPaid, stored.Status)

	view, err = f.checkout.Checkout(ctx, "plink_a", buyer)
	require.NoError(t, err)
	assert.Equal(t, domain.AccessGranted, view.Access, "the buyer keeps their receipt view")
	assert.Equal(t, domain.StepDone, view.CurrentStep)
	assert.Equal(t, domain.StepCompleted, states(view.Steps)[domain.StepDone])

	f.now = testNow.Add(25 * time.Hour)
	view, err = f.checkout.Checkout(ctx, "plink_a", buyer)
	require.NoError(t, err)
	assert.Equal(t, domain.StepDone, view.CurrentStep, "done survives expiry")

	view, err = f.checkout.Checkout(ctx, "plink_a", &domain.Session{Email: "other@example.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.AccessMismatch, view.Access)
	assert.Empty(t, view.CurrentStep)

	_, err = f.checkout.GetDepositAddress(ctx, "plink_a", buyer, domain.ChainERC20)
	assert.ErrorIs(t, err, xerrors.ErrLinkUnavailable, "a paid link takes no further payment")
}

func states(views []domain.StepView) map[domain.StepID]domain.StepState {
	out := make(map[domain.StepID]domain.StepState, len(views))
	for _, v := range views {
		out[v.ID] = v.Status
	}
	return out
}

func TestBankTransfer_FollowsWhitelistFlag(t *testing.T) {
	f := newFixture(t,
		link("plink_bank", func(l *domain.PaymentLink) {
			l.PaymentMethod = domain.PaymentMethodAEDBankTransfer
			l.RequireKyc = false
		}),
		link("plink_bank_open", func(l *domain.PaymentLink) {
			l.PaymentMethod = domain.PaymentMethodAEDBankTransfer
			l.RequireKyc = false
			l.RequireWalletWhitelist = false
		}),
	)
	ctx := context.Background()

	view, err := f.checkout.Checkout(ctx, "plink_bank", buyer)
	require.NoError(t, err)
	steps := states(view.Steps)
	assert.Equal(t, domain.StepCompleted, steps[domain.StepWallet])
	assert.Equal(t, domain.StepDisabled, steps[domain.StepTransfer], "the whitelist flag still gates transfer")
	assert.Equal(t, domain.StepDone, view.CurrentStep)

	_, err = f.checkout.GetDepositAddress(ctx, "plink_bank", buyer, domain.ChainERC20)
	assert.ErrorIs(t, err, xerrors.ErrStepDisabled)

	view, err = f.checkout.Checkout(ctx, "plink_bank_open", buyer)
	require.NoError(t, err)
	assert.Equal(t, domain.StepTransfer, view.CurrentStep)
}

func TestExpiryIsLive(t *testing.T) {
	f := newFixture(t, link("plink_a", func(l *domain.PaymentLink) { l.RequireKyc = false; l.RequireWalletWhitelist = false }))
	ctx := context.Background()

	_, err := f.checkout.GetDepositAddress(ctx, "plink_a", buyer, domain.ChainTRC20)
	require.NoError(t, err)

	f.now = testNow.Add(25 * time.Hour)
	_, err = f.checkout.GetDepositAddress(ctx, "plink_a", buyer, domain.ChainTRC20)
	assert.ErrorIs(t, err, xerrors.ErrLinkUnavailable)
}

func TestRequestReassign(t *testing.T) {
	f := newFixture(t, link("plink_a", nil))

	err := f.payments.RequestReassign(context.Background(), "plink_a", &domain.Session{Email: "other@example.com"}, "wrong buyer")
	require.NoError(t, err)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.EventReassignRequested, f.publisher.events[0].Type)
	assert.Equal(t, "other@example.com", f.publisher.events[0].Data["requested_by_email"])
}
