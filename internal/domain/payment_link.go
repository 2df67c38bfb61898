// internal/domain/payment_link.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentLinkStatus string
type PaymentMethod string
type Currency string
type BuyerType string

const (
	PaymentLinkStatusActive    PaymentLinkStatus = "ACTIVE"
	PaymentLinkStatusExpired   PaymentLinkStatus = "EXPIRED"
	PaymentLinkStatusPaid      PaymentLinkStatus = "PAID"
	PaymentLinkStatusCancelled PaymentLinkStatus = "CANCELLED"
)

const (
	PaymentMethodUSDTToAED       PaymentMethod = "USDT_TO_AED"
	PaymentMethodAEDBankTransfer PaymentMethod = "AED_BANK_TRANSFER"
)

const (
	CurrencyAED  Currency = "AED"
	CurrencyUSDT Currency = "USDT"
)

const (
	BuyerTypeEmail      BuyerType = "email"
	BuyerTypeExternalID BuyerType = "externalId"
)

func (s PaymentLinkStatus) Valid() bool {
	switch s {
	case PaymentLinkStatusActive, PaymentLinkStatusExpired, PaymentLinkStatusPaid, PaymentLinkStatusCancelled:
		return true
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodUSDTToAED || m == PaymentMethodAEDBankTransfer
}

func (c Currency) Valid() bool {
	return c == CurrencyAED || c == CurrencyUSDT
}

// Buyer identifies who may pay a link. Exactly one of Email or ExternalID is
// set, matching Type.
type Buyer struct {
	Type       BuyerType `json:"type"`
	Email      string    `json:"email,omitempty"`
	ExternalID string    `json:"externalId,omitempty"`
}

func EmailBuyer(email string) *Buyer {
	return &Buyer{Type: BuyerTypeEmail, Email: email}
}

func ExternalIDBuyer(externalID string) *Buyer {
	return &Buyer{Type: BuyerTypeExternalID, ExternalID: externalID}
}

// PaymentLink is the stored record.
type PaymentLink struct {
	ID                     string                 `json:"id" db:"id"`
	URL                    string                 `json:"url" db:"url"`
	Status                 PaymentLinkStatus      `json:"status" db:"status"`
	ProjectID              string                 `json:"projectId" db:"project_id"`
	Buyer                  *Buyer                 `json:"buyer" db:"buyer"`
	Amount                 decimal.Decimal        `json:"amount" db:"amount"`
	Currency               Currency               `json:"currency" db:"currency"`
	PaymentMethod          PaymentMethod          `json:"paymentMethod" db:"payment_method"`
	SettlementAccountID    string                 `json:"settlementAccountId" db:"settlement_account_id"`
	ExpiresAt              time.Time              `json:"expiresAt" db:"expires_at"`
	WebhookURL             string                 `json:"webhookUrl,omitempty" db:"webhook_url"`
	SuccessURL             string                 `json:"successUrl,omitempty" db:"success_url"`
	CancelURL              string                 `json:"cancelUrl,omitempty" db:"cancel_url"`
	Metadata               map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	RequireKyc             bool                   `json:"requireKyc" db:"require_kyc"`
	RequireWalletWhitelist bool                   `json:"requireWalletWhitelist" db:"require_wallet_whitelist"`
	Notes                  string                 `json:"notes,omitempty" db:"notes"`
	CreatedAt              time.Time              `json:"createdAt" db:"created_at"`
	UpdatedAt              time.Time              `json:"updatedAt" db:"updated_at"`
}

// IsExpiredAt reports whether the expiry instant has passed at now.
func (p *PaymentLink) IsExpiredAt(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// EffectiveStatus is the stored status with expiry applied live.
func (p *PaymentLink) EffectiveStatus(now time.Time) PaymentLinkStatus {
	if p.IsExpiredAt(now) {
		return PaymentLinkStatusExpired
	}
	return p.Status
}

// CanTransitionTo enforces ACTIVE -> {PAID, EXPIRED, CANCELLED}.
func (p *PaymentLink) CanTransitionTo(next PaymentLinkStatus) bool {
	if p.Status != PaymentLinkStatusActive {
		return false
	}
	return next == PaymentLinkStatusPaid || next == PaymentLinkStatusExpired || next == PaymentLinkStatusCancelled
}

// MatchesQuery is the free-text filter used by list endpoints.
func (p *PaymentLink) MatchesQuery(q string) bool {
	if q == "" {
		return true
	}
	if containsFold(p.ID, q) {
		return true
	}
	if p.Buyer == nil {
		return false
	}
	switch p.Buyer.Type {
	case BuyerTypeEmail:
		return containsFold(p.Buyer.Email, q)
	case BuyerTypeExternalID:
		return containsFold(p.Buyer.ExternalID, q)
	}
	return false
}

type ProjectStatus string

const (
	ProjectStatusDraft     ProjectStatus = "DRAFT"
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusPaused    ProjectStatus = "PAUSED"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
)

type Project struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Code   string        `json:"code"`
	Status ProjectStatus `json:"status"`
}

type ProjectSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type SettlementAccountType string

const (
	SettlementAccountDeveloper SettlementAccountType = "developer"
	SettlementAccountInvestor  SettlementAccountType = "investor"
)

type SettlementAccount struct {
	ID         string                `json:"id"`
	Alias      string                `json:"alias"`
	MaskedIban string                `json:"maskedIban"`
	Type       SettlementAccountType `json:"type"`
}

// PaymentLinkDetails is the buyer facing projection of a link.
type PaymentLinkDetails struct {
	ID                     string            `json:"id"`
	Project                ProjectSummary    `json:"project"`
	Buyer                  *Buyer            `json:"buyer,omitempty"`
	Amount                 string            `json:"amount"`
	Currency               Currency          `json:"currency"`
	PaymentMethod          PaymentMethod     `json:"paymentMethod"`
	RequireKyc             bool              `json:"requireKyc"`
	RequireWalletWhitelist bool              `json:"requireWalletWhitelist"`
	Status                 PaymentLinkStatus `json:"status"`
	ExpiresAt              time.Time         `json:"expiresAt"`
	CreatedAt              time.Time         `json:"createdAt"`
}

// NewPaymentLinkDetails projects link for reading at now. The status is
// recomputed to EXPIRED once the expiry has passed, whatever is stored.
func NewPaymentLinkDetails(link *PaymentLink, project *Project, now time.Time) *PaymentLinkDetails {
	return &PaymentLinkDetails{
		ID: link.ID,
		Project: ProjectSummary{
			ID:   project.ID,
			Name: project.Name,
			Code: project.Code,
		},
		Buyer:                  link.Buyer,
		Amount:                 link.Amount.StringFixed(2),
		Currency:               link.Currency,
		PaymentMethod:          link.PaymentMethod,
		RequireKyc:             link.RequireKyc,
		RequireWalletWhitelist: link.RequireWalletWhitelist,
		Status:                 link.EffectiveStatus(now),
		ExpiresAt:              link.ExpiresAt,
		CreatedAt:              link.CreatedAt,
	}
}

// ListPaymentLinksFilter mirrors the list query string.
type ListPaymentLinksFilter struct {
	Query     string
	Status    PaymentLinkStatus
	ProjectID string
	Cursor    string
	Limit     int
}

type Pagination struct {
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"hasMore"`
	Total   int    `json:"total"`
}

type PaymentLinkPage struct {
	Data       []*PaymentLink `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

// CreatePaymentLinkResponse is returned by the creation endpoint.
type CreatePaymentLinkResponse struct {
	ID        string            `json:"id"`
	URL       string            `json:"url"`
	Status    PaymentLinkStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
}
