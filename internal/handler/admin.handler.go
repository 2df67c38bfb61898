// internal/handler/admin.handler.go
package handler

import (
	"net/http"

	"paylink-service/internal/domain"
	"paylink-service/internal/usecase"
	"paylink-service/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

// AdminHandler stands in for the KYC provider, the wallet verifier and the
// settlement subsystem.
type AdminHandler struct {
	paymentLinks *usecase.PaymentLinkUsecase
	checkout     *usecase.CheckoutUsecase
	logger       *zap.Logger
}

func NewAdminHandler(paymentLinks *usecase.PaymentLinkUsecase, checkout *usecase.CheckoutUsecase, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{paymentLinks: paymentLinks, checkout: checkout, logger: logger}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		response.ErrorWithCode(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return false
	}
	return true
}

// UpdateStatus handles PATCH /admin/payment-links/{id}/status
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status domain.PaymentLinkStatus `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	link, err := h.paymentLinks.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, link)
}

// ReviewKyc handles POST /admin/payment-links/{id}/kyc/review
func (h *AdminHandler) ReviewKyc(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Decision domain.KycStatus `json:"decision"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	linkID := chi.URLParam(r, "id")
	if err := h.checkout.ReviewKyc(r.Context(), linkID, req.Decision); err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"paymentLinkId": linkID,
		"status":        req.Decision,
	})
}

// VerifyWallet handles POST /admin/payment-links/{id}/wallet/verify
func (h *AdminHandler) VerifyWallet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Approve *bool `json:"approve"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Approve == nil {
		response.ValidationError(w, "Validation failed", []domain.FieldIssue{{Field: "approve", Message: "Required"}})
		return
	}

	wallet, err := h.checkout.VerifyWallet(r.Context(), chi.URLParam(r, "id"), *req.Approve)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, wallet)
}

// UpdateTransaction handles POST /admin/payment-links/{id}/transaction
func (h *AdminHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status domain.TransactionState `json:"status"`
		TxHash string                  `json:"txHash"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	status, err := h.checkout.UpdateTransaction(r.Context(), chi.URLParam(r, "id"), req.Status, req.TxHash)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, status)
}
