// internal/repository/catalog.go
package repository

import (
	"context"
	"strings"

	"paylink-service/internal/domain"
	"paylink-service/pkg/xerrors"
)

// MemoryCatalogRepository serves projects and settlement accounts from a
// fixed list.
type MemoryCatalogRepository struct {
	projects []*domain.Project
	accounts []*domain.SettlementAccount
}

func NewMemoryCatalogRepository(projects []*domain.Project, accounts []*domain.SettlementAccount) *MemoryCatalogRepository {
	return &MemoryCatalogRepository{projects: projects, accounts: accounts}
}

func (r *MemoryCatalogRepository) GetProject(_ context.Context, id string) (*domain.Project, error) {
	for _, p := range r.projects {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, xerrors.NewNotFound("project", id)
}

// ListProjects filters by status case-insensitively; an empty status lists
// everything.
func (r *MemoryCatalogRepository) ListProjects(_ context.Context, status domain.ProjectStatus) ([]*domain.Project, error) {
	out := make([]*domain.Project, 0, len(r.projects))
	for _, p := range r.projects {
		if status != "" && !strings.EqualFold(string(p.Status), string(status)) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryCatalogRepository) GetSettlementAccount(_ context.Context, id string) (*domain.SettlementAccount, error) {
	for _, a := range r.accounts {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, xerrors.NewNotFound("settlement account", id)
}

func (r *MemoryCatalogRepository) ListSettlementAccounts(_ context.Context, accountType domain.SettlementAccountType) ([]*domain.SettlementAccount, error) {
	out := make([]*domain.SettlementAccount, 0, len(r.accounts))
	for _, a := range r.accounts {
		if accountType != "" && a.Type != accountType {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}
