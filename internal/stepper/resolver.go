// internal/stepper/resolver.go
package stepper

import (
	"time"

	"paylink-service/internal/domain"
)

// Snapshot is every input the resolver reads. An empty Transaction is
// treated as PENDING.
type Snapshot struct {
	Link        *domain.PaymentLinkDetails
	Kyc         domain.KycStatus
	Wallet      domain.WalletWhitelistStatus
	Transaction domain.TransactionState
	Now         time.Time
}

func (s Snapshot) settled() bool {
	return s.Transaction == domain.TxSettled
}

var stepCopy = map[domain.StepID][2]string{
	domain.StepKyc:      {"KYC Verification", "Complete identity verification"},
	domain.StepWallet:   {"Wallet Setup", "Configure payment wallet"},
	domain.StepTransfer: {"Payment Transfer", "Complete payment"},
	domain.StepDone:     {"Complete", "Payment settled"},
}

// ResolveStep computes the state of one step. It is total: unknown steps
// resolve to upcoming.
func ResolveStep(step domain.StepID, s Snapshot) domain.StepState {
	link := s.Link
	switch step {
	case domain.StepKyc:
		if IsKycRequiredAndPassed(link, s.Kyc) {
			return domain.StepCompleted
		}
		// KYC_FAIL stays current: the buyer resubmits in place.
		return domain.StepCurrent

	case domain.StepWallet:
		if !link.RequireWalletWhitelist || link.PaymentMethod == domain.PaymentMethodAEDBankTransfer {
			return domain.StepCompleted
		}
		if !IsKycRequiredAndPassed(link, s.Kyc) {
			return domain.StepDisabled
		}
		if s.Wallet.Whitelisted {
			return domain.StepCompleted
		}
		return domain.StepCurrent

	case domain.StepTransfer:
		if !CanProceedToTransfer(link, s.Kyc, s.Wallet, s.Now) {
			return domain.StepDisabled
		}
		if s.settled() {
			return domain.StepCompleted
		}
		return domain.StepCurrent

	case domain.StepDone:
		if s.settled() {
			return domain.StepCompleted
		}
		return domain.StepUpcoming
	}
	return domain.StepUpcoming
}

// Resolve returns all four steps in checkout order.
func Resolve(s Snapshot) []domain.StepView {
	views := make([]domain.StepView, 0, len(domain.Steps))
	for _, id := range domain.Steps {
		c := stepCopy[id]
		views = append(views, domain.StepView{
			ID:          id,
			Title:       c[0],
			Description: c[1],
			Status:      ResolveStep(id, s),
		})
	}
	return views
}

// SelectStep picks the step the buyer should be looking at.
func SelectStep(s Snapshot) domain.StepID {
	if s.settled() {
		return domain.StepDone
	}

	kyc := ResolveStep(domain.StepKyc, s)
	wallet := ResolveStep(domain.StepWallet, s)
	transfer := ResolveStep(domain.StepTransfer, s)

	open := func(st domain.StepState) bool {
		return st == domain.StepCurrent || st == domain.StepUpcoming
	}

	switch {
	case kyc == domain.StepCompleted && wallet == domain.StepUpcoming:
		return domain.StepWallet
	case wallet == domain.StepCompleted && transfer == domain.StepUpcoming:
		return domain.StepTransfer
	case open(kyc):
		return domain.StepKyc
	case open(wallet):
		return domain.StepWallet
	case open(transfer):
		return domain.StepTransfer
	}
	return domain.StepDone
}
