// internal/usecase/payment_link_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"

	"paylink-service/internal/domain"
	"paylink-service/internal/events"
	"paylink-service/internal/repository"
	"paylink-service/pkg/id"
	"paylink-service/pkg/xerrors"

	"go.uber.org/zap"
)

type PaymentLinkUsecase struct {
	links     repository.PaymentLinkRepository
	catalog   repository.CatalogRepository
	publisher events.Publisher
	notifier  ChangeNotifier
	baseURL   string
	now       Clock
	logger    *zap.Logger
}

func NewPaymentLinkUsecase(
	links repository.PaymentLinkRepository,
	catalog repository.CatalogRepository,
	publisher events.Publisher,
	notifier ChangeNotifier,
	baseURL string,
	now Clock,
	logger *zap.Logger,
) *PaymentLinkUsecase {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &PaymentLinkUsecase{
		links:     links,
		catalog:   catalog,
		publisher: publisher,
		notifier:  notifier,
		baseURL:   baseURL,
		now:       now,
		logger:    logger,
	}
}

// Create validates req, checks the referenced project and settlement
// account exist and stores a new ACTIVE link.
func (uc *PaymentLinkUsecase) Create(ctx context.Context, req *domain.CreatePaymentLinkRequest) (*domain.CreatePaymentLinkResponse, error) {
	now := uc.now()
	draft, err := req.Validate(now)
	if err != nil {
		return nil, err
	}

	if _, err := uc.catalog.GetProject(ctx, draft.ProjectID); err != nil {
		return nil, err
	}
	if _, err := uc.catalog.GetSettlementAccount(ctx, draft.SettlementAccountID); err != nil {
		return nil, err
	}

	linkID := id.NewPaymentLinkID(now)
	link := draft.Build(linkID, uc.baseURL+"/payment/"+linkID, now)
	if err := uc.links.Create(ctx, link); err != nil {
		uc.logger.Error("failed to store payment link", zap.String("payment_link_id", linkID), zap.Error(err))
		return nil, fmt.Errorf("create payment link: %w", err)
	}

	uc.logger.Info("payment link created",
		zap.String("payment_link_id", link.ID),
		zap.String("project_id", link.ProjectID),
		zap.String("amount", link.Amount.String()),
		zap.String("currency", string(link.Currency)))

	publish(ctx, uc.publisher, uc.logger, events.NewEvent(events.EventLinkCreated, link.ID, map[string]interface{}{
		"project_id":     link.ProjectID,
		"amount":         link.Amount.String(),
		"currency":       link.Currency,
		"payment_method": link.PaymentMethod,
		"expires_at":     link.ExpiresAt,
	}))

	return &domain.CreatePaymentLinkResponse{
		ID:        link.ID,
		URL:       link.URL,
		Status:    link.Status,
		CreatedAt: link.CreatedAt,
	}, nil
}

func (uc *PaymentLinkUsecase) List(ctx context.Context, filter domain.ListPaymentLinksFilter) (*domain.PaymentLinkPage, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return uc.links.List(ctx, filter)
}

// Get returns the stored record for the developer portal.
func (uc *PaymentLinkUsecase) Get(ctx context.Context, linkID string) (*domain.PaymentLink, error) {
	return uc.links.GetByID(ctx, linkID)
}

// Details returns the public buyer projection.
func (uc *PaymentLinkUsecase) Details(ctx context.Context, linkID string) (*domain.PaymentLinkDetails, error) {
	_, details, err := loadDetails(ctx, uc.links, uc.catalog, linkID, uc.now())
	return details, err
}

// UpdateStatus applies an ACTIVE -> {PAID, EXPIRED, CANCELLED} transition.
func (uc *PaymentLinkUsecase) UpdateStatus(ctx context.Context, linkID string, to domain.PaymentLinkStatus) (*domain.PaymentLink, error) {
	if !to.Valid() {
		return nil, &domain.ValidationError{Issues: []domain.FieldIssue{{
			Field:   "status",
			Message: "Invalid enum value. Expected 'ACTIVE' | 'EXPIRED' | 'PAID' | 'CANCELLED'",
		}}}
	}

	link, err := uc.links.GetByID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if !link.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s to %s", xerrors.ErrInvalidTransition, link.Status, to)
	}

	now := uc.now()
	if err := uc.links.UpdateStatus(ctx, linkID, link.Status, to, now); err != nil {
		return nil, err
	}
	from := link.Status
	link.Status = to
	link.UpdatedAt = now

	uc.logger.Info("payment link status changed",
		zap.String("payment_link_id", linkID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))

	publish(ctx, uc.publisher, uc.logger, events.NewEvent(events.EventLinkStatusChanged, linkID, map[string]interface{}{
		"from": from,
		"to":   to,
	}))
	uc.notifier.Notify(linkID)
	return link, nil
}

// MarkPaid is UpdateStatus(PAID) that tolerates links that already left
// ACTIVE.
func (uc *PaymentLinkUsecase) MarkPaid(ctx context.Context, linkID string) error {
	_, err := uc.UpdateStatus(ctx, linkID, domain.PaymentLinkStatusPaid)
	if errors.Is(err, xerrors.ErrInvalidTransition) {
		uc.logger.Warn("settled payment link was not active", zap.String("payment_link_id", linkID), zap.Error(err))
		return nil
	}
	return err
}

// RequestReassign records that a signed-in buyer hit a link addressed to
// someone else.
func (uc *PaymentLinkUsecase) RequestReassign(ctx context.Context, linkID string, session *domain.Session, reason string) error {
	if _, err := uc.links.GetByID(ctx, linkID); err != nil {
		return err
	}

	data := map[string]interface{}{}
	if session != nil {
		data["requested_by_email"] = session.Email
		data["requested_by_external_id"] = session.ExternalID
	}
	if reason != "" {
		data["reason"] = reason
	}

	uc.logger.Info("payment link reassignment requested", zap.String("payment_link_id", linkID))
	publish(ctx, uc.publisher, uc.logger, events.NewEvent(events.EventReassignRequested, linkID, data))
	return nil
}

func (uc *PaymentLinkUsecase) ListProjects(ctx context.Context, status domain.ProjectStatus) ([]*domain.Project, error) {
	return uc.catalog.ListProjects(ctx, status)
}

func (uc *PaymentLinkUsecase) ListSettlementAccounts(ctx context.Context, accountType domain.SettlementAccountType) ([]*domain.SettlementAccount, error) {
	return uc.catalog.ListSettlementAccounts(ctx, accountType)
}
