// internal/handler/checkout.handler.go
package handler

import (
	"net/http"
	"strings"

	"paylink-service/internal/domain"
	"paylink-service/internal/middleware"
	"paylink-service/internal/usecase"
	"paylink-service/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

// CheckoutHandler serves the buyer's payment page. Every route runs behind
// the optional auth middleware; the usecase decides what an anonymous or
// mismatched caller may see.
type CheckoutHandler struct {
	uc     *usecase.CheckoutUsecase
	logger *zap.Logger
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{uc: uc, logger: logger}
}

func chainParam(r *http.Request) domain.Chain {
	return domain.Chain(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("chain"))))
}

// Checkout handles GET /payment-links/{id}/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	view, err := h.uc.Checkout(r.Context(), chi.URLParam(r, "id"), middleware.SessionFromContext(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, view)
}

// GetKycStatus handles GET /payment-links/{id}/kyc
func (h *CheckoutHandler) GetKycStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.uc.GetKycStatus(r.Context(), chi.URLParam(r, "id"), middleware.SessionFromContext(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]domain.KycStatus{"status": status})
}

// StartKyc handles POST /payment-links/{id}/kyc/start
func (h *CheckoutHandler) StartKyc(w http.ResponseWriter, r *http.Request) {
	redirect, err := h.uc.StartKyc(r.Context(), chi.URLParam(r, "id"), middleware.SessionFromContext(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"redirectUrl": redirect})
}

// GetWalletStatus handles GET /payment-links/{id}/wallets/whitelist
func (h *CheckoutHandler) GetWalletStatus(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.uc.GetWalletStatus(r.Context(), chi.URLParam(r, "id"), middleware.SessionFromContext(r.Context()), chainParam(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, wallet)
}

type submitWalletRequest struct {
	Chain   string `json:"chain"`
	Address string `json:"address"`
}

// SubmitWallet handles POST /payment-links/{id}/wallets/whitelist
func (h *CheckoutHandler) SubmitWallet(w http.ResponseWriter, r *http.Request) {
	var req submitWalletRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		response.ErrorWithCode(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	var issues []domain.FieldIssue
	if strings.TrimSpace(req.Chain) == "" {
		issues = append(issues, domain.FieldIssue{Field: "chain", Message: "Chain is required"})
	}
	if strings.TrimSpace(req.Address) == "" {
		issues = append(issues, domain.FieldIssue{Field: "address", Message: "Address is required"})
	}
	if len(issues) > 0 {
		response.ValidationError(w, "Validation failed", issues)
		return
	}

	wallet, err := h.uc.SubmitWallet(
		r.Context(),
		chi.URLParam(r, "id"),
		middleware.SessionFromContext(r.Context()),
		domain.Chain(strings.ToLower(strings.TrimSpace(req.Chain))),
		strings.TrimSpace(req.Address),
	)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusAccepted, wallet)
}

// GetDepositAddress handles GET /payment-links/{id}/deposit-address
func (h *CheckoutHandler) GetDepositAddress(w http.ResponseWriter, r *http.Request) {
	deposit, err := h.uc.GetDepositAddress(r.Context(), chi.URLParam(r, "id"), middleware.SessionFromContext(r.Context()), chainParam(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, deposit)
}

// GetTransactionStatus handles GET /payment-links/{id}/transaction
func (h *CheckoutHandler) GetTransactionStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.uc.GetTransactionStatus(r.Context(), chi.URLParam(r, "id"), middleware.SessionFromContext(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, status)
}
