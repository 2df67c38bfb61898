// internal/stepper/guards.go
package stepper

import (
	"time"

	"paylink-service/internal/domain"
)

// IsPaymentLinkExpired is true once now is past the expiry instant.
func IsPaymentLinkExpired(link *domain.PaymentLinkDetails, now time.Time) bool {
	return now.After(link.ExpiresAt)
}

// IsPaymentLinkActive checks the stored status and the live expiry. A link
// can still carry ACTIVE after crossing its expiry.
func IsPaymentLinkActive(link *domain.PaymentLinkDetails, now time.Time) bool {
	return link.Status == domain.PaymentLinkStatusActive && !IsPaymentLinkExpired(link, now)
}

func IsKycRequiredAndPassed(link *domain.PaymentLinkDetails, kyc domain.KycStatus) bool {
	if !link.RequireKyc {
		return true
	}
	return kyc == domain.KycPass
}

func IsWalletWhitelistRequiredAndSatisfied(link *domain.PaymentLinkDetails, wallet domain.WalletWhitelistStatus) bool {
	if !link.RequireWalletWhitelist {
		return true
	}
	return wallet.Whitelisted
}

func CanProceedToTransfer(link *domain.PaymentLinkDetails, kyc domain.KycStatus, wallet domain.WalletWhitelistStatus, now time.Time) bool {
	return IsPaymentLinkActive(link, now) &&
		IsKycRequiredAndPassed(link, kyc) &&
		IsWalletWhitelistRequiredAndSatisfied(link, wallet)
}

// DoesBuyerMatch compares only the identity field of the link's buyer
// variant: an email buyer ignores externalID and the other way round.
// A link without a buyer matches everyone.
func DoesBuyerMatch(link *domain.PaymentLinkDetails, email, externalID string) bool {
	if link.Buyer == nil {
		return true
	}
	switch {
	case link.Buyer.Type == domain.BuyerTypeEmail && link.Buyer.Email != "":
		return email == link.Buyer.Email
	case link.Buyer.Type == domain.BuyerTypeExternalID && link.Buyer.ExternalID != "":
		return externalID == link.Buyer.ExternalID
	}
	return false
}

// SessionMatches is DoesBuyerMatch over a session.
func SessionMatches(link *domain.PaymentLinkDetails, s *domain.Session) bool {
	if s == nil {
		return DoesBuyerMatch(link, "", "")
	}
	return DoesBuyerMatch(link, s.Email, s.ExternalID)
}
