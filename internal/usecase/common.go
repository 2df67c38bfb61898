// internal/usecase/common.go
package usecase

import (
	"context"
	"time"

	"paylink-service/internal/domain"
	"paylink-service/internal/events"
	"paylink-service/internal/repository"
	"paylink-service/pkg/xerrors"

	"go.uber.org/zap"
)

// ChangeNotifier is told whenever something a buyer's checkout depends on
// has changed.
type ChangeNotifier interface {
	Notify(linkID string)
}

type noopNotifier struct{}

func (noopNotifier) Notify(string) {}

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

// loadDetails builds the buyer projection. A project missing from the
// catalog degrades to a bare id rather than failing the read.
func loadDetails(ctx context.Context, links repository.PaymentLinkRepository, catalog repository.CatalogRepository, id string, now time.Time) (*domain.PaymentLink, *domain.PaymentLinkDetails, error) {
	link, err := links.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	project, err := catalog.GetProject(ctx, link.ProjectID)
	if err != nil {
		project = &domain.Project{ID: link.ProjectID}
	}
	return link, domain.NewPaymentLinkDetails(link, project, now), nil
}

// publish is best effort: a broker outage must not fail the write that
// produced the event.
func publish(ctx context.Context, p events.Publisher, logger *zap.Logger, e *events.Event) {
	if err := p.Publish(ctx, e); err != nil {
		logger.Warn("failed to publish event",
			zap.String("event_type", e.Type),
			zap.String("payment_link_id", e.PaymentLinkID),
			zap.Error(err))
	}
}

func requireSession(s *domain.Session) error {
	if s == nil || (s.Email == "" && s.ExternalID == "") {
		return xerrors.ErrUnauthorized
	}
	return nil
}
