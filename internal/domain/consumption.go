// internal/domain/consumption.go
package domain

import "time"

type KycStatus string

const (
	KycNone   KycStatus = "KYC_NONE"
	KycReview KycStatus = "KYC_REVIEW"
	KycPass   KycStatus = "KYC_PASS"
	KycFail   KycStatus = "KYC_FAIL"
)

func (s KycStatus) Valid() bool {
	switch s {
	case KycNone, KycReview, KycPass, KycFail:
		return true
	}
	return false
}

type Chain string

const (
	ChainERC20 Chain = "erc20"
	ChainTRC20 Chain = "trc20"
)

func (c Chain) Valid() bool {
	return c == ChainERC20 || c == ChainTRC20
}

// WalletWhitelistStatus is owned by the wallet subsystem.
type WalletWhitelistStatus struct {
	Whitelisted bool   `json:"whitelisted"`
	Address     string `json:"address,omitempty"`
	Chain       Chain  `json:"chain,omitempty"`
}

type TransactionState string

const (
	TxPending          TransactionState = "PENDING"
	TxOnchainConfirmed TransactionState = "ONCHAIN_CONFIRMED"
	TxConverting       TransactionState = "CONVERTING"
	TxSettled          TransactionState = "SETTLED"
)

func (s TransactionState) Valid() bool {
	switch s {
	case TxPending, TxOnchainConfirmed, TxConverting, TxSettled:
		return true
	}
	return false
}

// TransactionStatus is owned by the settlement subsystem.
type TransactionStatus struct {
	Status    TransactionState `json:"status"`
	TxHash    *string          `json:"txHash"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// DepositAddress is display-only data for the transfer step.
type DepositAddress struct {
	Address               string  `json:"address"`
	Memo                  *string `json:"memo"`
	Chain                 Chain   `json:"chain"`
	MinAmount             string  `json:"minAmount"`
	ConfirmationsRequired int     `json:"confirmationsRequired"`
}

// Session is the caller identity, passed explicitly into guards.
type Session struct {
	Subject    string `json:"sub,omitempty"`
	Email      string `json:"email,omitempty"`
	ExternalID string `json:"externalId,omitempty"`
	Role       string `json:"role,omitempty"`
}

const (
	RoleInvestor  = "investor"
	RoleDeveloper = "developer"
	RoleAdmin     = "admin"
)

type StepID string

const (
	StepKyc      StepID = "kyc"
	StepWallet   StepID = "wallet"
	StepTransfer StepID = "transfer"
	StepDone     StepID = "done"
)

// Steps is the fixed checkout order.
var Steps = []StepID{StepKyc, StepWallet, StepTransfer, StepDone}

func (s StepID) Valid() bool {
	switch s {
	case StepKyc, StepWallet, StepTransfer, StepDone:
		return true
	}
	return false
}

type StepState string

const (
	StepCompleted StepState = "completed"
	StepCurrent   StepState = "current"
	StepUpcoming  StepState = "upcoming"
	StepDisabled  StepState = "disabled"
)

type StepView struct {
	ID          StepID    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      StepState `json:"status"`
}

type CheckoutAccess string

const (
	AccessUnavailable CheckoutAccess = "unavailable"
	AccessPublic      CheckoutAccess = "public"
	AccessMismatch    CheckoutAccess = "mismatch"
	AccessGranted     CheckoutAccess = "granted"
)

// CheckoutView is what the payment page renders.
type CheckoutView struct {
	Link              *PaymentLinkDetails    `json:"paymentLink"`
	Access            CheckoutAccess         `json:"access"`
	Reason            string                 `json:"reason,omitempty"`
	CurrentStep       StepID                 `json:"currentStep,omitempty"`
	Steps             []StepView             `json:"steps,omitempty"`
	KycStatus         KycStatus              `json:"kycStatus,omitempty"`
	WalletStatus      *WalletWhitelistStatus `json:"walletStatus,omitempty"`
	TransactionStatus *TransactionStatus     `json:"transactionStatus,omitempty"`
}
