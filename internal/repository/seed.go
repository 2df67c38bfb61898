// internal/repository/seed.go
package repository

import (
	"time"

	"paylink-service/internal/domain"

	"github.com/shopspring/decimal"
)

func DemoProjects() []*domain.Project {
	return []*domain.Project{
		{ID: "proj_1", Name: "Sunset Villas", Code: "SV-01", Status: domain.ProjectStatusActive},
		{ID: "proj_2", Name: "TechCorp Token Sale", Code: "TECH-01", Status: domain.ProjectStatusActive},
		{ID: "proj_3", Name: "Marina Heights", Code: "MH-02", Status: domain.ProjectStatusActive},
		{ID: "proj_4", Name: "Downtown Plaza", Code: "DP-03", Status: domain.ProjectStatusPaused},
	}
}

func DemoSettlementAccounts() []*domain.SettlementAccount {
	return []*domain.SettlementAccount{
		{ID: "settle_1", Alias: "Brix AED (Whizmo)", MaskedIban: "PK** **** 1234", Type: domain.SettlementAccountDeveloper},
		{ID: "settle_2", Alias: "TechCorp USD (Wise)", MaskedIban: "US** **** 5678", Type: domain.SettlementAccountDeveloper},
		{ID: "settle_3", Alias: "Main AED Account", MaskedIban: "AE** **** 9012", Type: domain.SettlementAccountDeveloper},
	}
}

// DemoPaymentLinks returns the demo links. plink_705enabs3 expires 30 days
// after now so there is always one link that can be walked end to end; the
// others keep fixed historical dates.
func DemoPaymentLinks(baseURL string, now time.Time) []*domain.PaymentLink {
	at := func(s string) time.Time {
		t, _ := time.Parse(time.RFC3339, s)
		return t
	}
	url := func(id string) string { return baseURL + "/payment/" + id }

	return []*domain.PaymentLink{
		{
			ID:                     "plink_705enabs3",
			URL:                    url("plink_705enabs3"),
			Status:                 domain.PaymentLinkStatusActive,
			ProjectID:              "proj_1",
			Buyer:                  domain.EmailBuyer("investor@example.com"),
			Amount:                 decimal.NewFromInt(1000),
			Currency:               domain.CurrencyAED,
			PaymentMethod:          domain.PaymentMethodUSDTToAED,
			SettlementAccountID:    "settle_1",
			ExpiresAt:              now.Add(30 * 24 * time.Hour),
			WebhookURL:             "https://api.example.com/webhooks/payment",
			SuccessURL:             "https://example.com/success",
			CancelURL:              "https://example.com/cancel",
			Metadata:               map[string]interface{}{"orderId": "ORD-705", "customerType": "VIP"},
			RequireKyc:             true,
			RequireWalletWhitelist: true,
			Notes:                  "Test payment link for development",
			CreatedAt:              at("2024-01-20T10:30:00Z"),
			UpdatedAt:              at("2024-01-20T10:30:00Z"),
		},
		{
			ID:                     "plink_1",
			URL:                    url("plink_1"),
			Status:                 domain.PaymentLinkStatusActive,
			ProjectID:              "proj_1",
			Buyer:                  domain.EmailBuyer("buyer1@example.com"),
			Amount:                 decimal.NewFromInt(1000),
			Currency:               domain.CurrencyAED,
			PaymentMethod:          domain.PaymentMethodUSDTToAED,
			SettlementAccountID:    "settle_1",
			ExpiresAt:              at("2024-01-21T10:30:00Z"),
			WebhookURL:             "https://api.example.com/webhooks/payment",
			SuccessURL:             "https://example.com/success",
			CancelURL:              "https://example.com/cancel",
			Metadata:               map[string]interface{}{"orderId": "ORD-001", "customerType": "VIP"},
			RequireKyc:             true,
			RequireWalletWhitelist: true,
			Notes:                  "VIP customer - priority processing",
			CreatedAt:              at("2024-01-20T10:30:00Z"),
			UpdatedAt:              at("2024-01-20T10:30:00Z"),
		},
		{
			ID:                     "plink_2",
			URL:                    url("plink_2"),
			Status:                 domain.PaymentLinkStatusPaid,
			ProjectID:              "proj_2",
			Buyer:                  domain.ExternalIDBuyer("CUST-12345"),
			Amount:                 decimal.NewFromInt(2500),
			Currency:               domain.CurrencyUSDT,
			PaymentMethod:          domain.PaymentMethodUSDTToAED,
			SettlementAccountID:    "settle_2",
			ExpiresAt:              at("2024-01-20T14:15:00Z"),
			RequireKyc:             true,
			RequireWalletWhitelist: true,
			CreatedAt:              at("2024-01-19T14:15:00Z"),
			UpdatedAt:              at("2024-01-19T16:45:00Z"),
		},
		{
			ID:                     "plink_3",
			URL:                    url("plink_3"),
			Status:                 domain.PaymentLinkStatusExpired,
			ProjectID:              "proj_3",
			Buyer:                  domain.EmailBuyer("buyer3@example.com"),
			Amount:                 decimal.NewFromInt(500),
			Currency:               domain.CurrencyAED,
			PaymentMethod:          domain.PaymentMethodAEDBankTransfer,
			SettlementAccountID:    "settle_3",
			ExpiresAt:              at("2024-01-19T09:00:00Z"),
			RequireKyc:             false,
			RequireWalletWhitelist: false,
			Notes:                  "Test payment link",
			CreatedAt:              at("2024-01-18T09:00:00Z"),
			UpdatedAt:              at("2024-01-18T09:00:00Z"),
		},
		{
			ID:                     "plink_4",
			URL:                    url("plink_4"),
			Status:                 domain.PaymentLinkStatusActive,
			ProjectID:              "proj_1",
			Buyer:                  domain.ExternalIDBuyer("CUST-67890"),
			Amount:                 decimal.NewFromInt(5000),
			Currency:               domain.CurrencyAED,
			PaymentMethod:          domain.PaymentMethodUSDTToAED,
			SettlementAccountID:    "settle_1",
			ExpiresAt:              at("2024-01-22T08:30:00Z"),
			SuccessURL:             "https://example.com/success",
			CancelURL:              "https://example.com/cancel",
			RequireKyc:             true,
			RequireWalletWhitelist: true,
			CreatedAt:              at("2024-01-21T08:30:00Z"),
			UpdatedAt:              at("2024-01-21T08:30:00Z"),
		},
	}
}
