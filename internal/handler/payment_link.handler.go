// internal/handler/payment_link.handler.go
package handler

import (
	"net/http"
	"strconv"
	"strings"

	"paylink-service/internal/domain"
	"paylink-service/internal/middleware"
	"paylink-service/internal/usecase"
	"paylink-service/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

type PaymentLinkHandler struct {
	uc     *usecase.PaymentLinkUsecase
	logger *zap.Logger
}

func NewPaymentLinkHandler(uc *usecase.PaymentLinkUsecase, logger *zap.Logger) *PaymentLinkHandler {
	return &PaymentLinkHandler{uc: uc, logger: logger}
}

// Create handles POST /payment-links
func (h *PaymentLinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePaymentLinkRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		response.ErrorWithCode(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	created, err := h.uc.Create(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusCreated, created)
}

// List handles GET /payment-links
func (h *PaymentLinkHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ListPaymentLinksFilter{
		Query:     strings.TrimSpace(q.Get("query")),
		Status:    domain.PaymentLinkStatus(q.Get("status")),
		ProjectID: q.Get("projectId"),
		Cursor:    q.Get("cursor"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			response.ValidationError(w, "Validation failed", []domain.FieldIssue{{
				Field:   "limit",
				Message: "Expected number, received string",
			}})
			return
		}
		filter.Limit = limit
	}

	page, err := h.uc.List(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, page)
}

// Get handles GET /payment-links/{id}
func (h *PaymentLinkHandler) Get(w http.ResponseWriter, r *http.Request) {
	link, err := h.uc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, link)
}

// Details handles GET /payment-links/{id}/details, readable by anyone with
// the link.
func (h *PaymentLinkHandler) Details(w http.ResponseWriter, r *http.Request) {
	details, err := h.uc.Details(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, details)
}

// RequestReassign handles POST /payment-links/{id}/reassign
func (h *PaymentLinkHandler) RequestReassign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength != 0 {
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			response.ErrorWithCode(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
			return
		}
	}

	session := middleware.SessionFromContext(r.Context())
	if err := h.uc.RequestReassign(r.Context(), chi.URLParam(r, "id"), session, req.Reason); err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ListProjects handles GET /projects. Without a status filter only active
// projects are listed.
func (h *PaymentLinkHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	status := domain.ProjectStatus(strings.ToUpper(r.URL.Query().Get("status")))
	if status == "" {
		status = domain.ProjectStatusActive
	}
	projects, err := h.uc.ListProjects(r.Context(), status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, projects)
}

// ListSettlementAccounts handles GET /settlement-accounts
func (h *PaymentLinkHandler) ListSettlementAccounts(w http.ResponseWriter, r *http.Request) {
	accountType := domain.SettlementAccountType(r.URL.Query().Get("type"))
	accounts, err := h.uc.ListSettlementAccounts(r.Context(), accountType)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, accounts)
}
