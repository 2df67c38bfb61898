// internal/repository/postgres_payment_link.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"paylink-service/internal/domain"
	"paylink-service/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PostgresPaymentLinkRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresPaymentLinkRepository(pool *pgxpool.Pool) *PostgresPaymentLinkRepository {
	return &PostgresPaymentLinkRepository{pool: pool}
}

const paymentLinkColumns = `
	id, url, status, project_id,
	COALESCE(buyer_type, ''), COALESCE(buyer_email, ''), COALESCE(buyer_external_id, ''),
	amount::text, currency, payment_method, settlement_account_id, expires_at,
	COALESCE(webhook_url, ''), COALESCE(success_url, ''), COALESCE(cancel_url, ''),
	metadata, require_kyc, require_wallet_whitelist, COALESCE(notes, ''),
	created_at, updated_at`

func (r *PostgresPaymentLinkRepository) Create(ctx context.Context, link *domain.PaymentLink) error {
	query := `
		INSERT INTO payment_links (
			id, url, status, project_id,
			buyer_type, buyer_email, buyer_external_id,
			amount, currency, payment_method, settlement_account_id, expires_at,
			webhook_url, success_url, cancel_url,
			metadata, require_kyc, require_wallet_whitelist, notes,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8::numeric, $9, $10, $11, $12,
			$13, $14, $15,
			$16, $17, $18, $19,
			$20, $21
		)
	`

	var buyerType, buyerEmail, buyerExternalID *string
	if link.Buyer != nil {
		t := string(link.Buyer.Type)
		buyerType = &t
		buyerEmail = nullIfEmpty(link.Buyer.Email)
		buyerExternalID = nullIfEmpty(link.Buyer.ExternalID)
	}

	var metadata []byte
	if link.Metadata != nil {
		b, err := json.Marshal(link.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		metadata = b
	}

	_, err := r.pool.Exec(ctx, query,
		link.ID, link.URL, link.Status, link.ProjectID,
		buyerType, buyerEmail, buyerExternalID,
		link.Amount.String(), link.Currency, link.PaymentMethod, link.SettlementAccountID, link.ExpiresAt,
		nullIfEmpty(link.WebhookURL), nullIfEmpty(link.SuccessURL), nullIfEmpty(link.CancelURL),
		metadata, link.RequireKyc, link.RequireWalletWhitelist, nullIfEmpty(link.Notes),
		link.CreatedAt, link.UpdatedAt,
	)
	if err != nil {
		if xerrors.IsUniqueViolation(err) {
			return fmt.Errorf("payment link %s already exists", link.ID)
		}
		return fmt.Errorf("failed to create payment link: %w", err)
	}
	return nil
}

func (r *PostgresPaymentLinkRepository) GetByID(ctx context.Context, id string) (*domain.PaymentLink, error) {
	query := `SELECT ` + paymentLinkColumns + ` FROM payment_links WHERE id = $1`

	link, err := scanPaymentLink(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.NewNotFound("payment link", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment link: %w", err)
	}
	return link, nil
}

// List uses keyset pagination on (created_at, id). The cursor is resolved
// inside the filtered set, so an unknown cursor restarts from the top.
func (r *PostgresPaymentLinkRepository) List(ctx context.Context, filter domain.ListPaymentLinksFilter) (*domain.PaymentLinkPage, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = domain.DefaultListLimit
	}

	where, args := listConditions(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM payment_links`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count payment links: %w", err)
	}

	pageWhere, pageArgs := where, args
	if filter.Cursor != "" {
		var cursorAt time.Time
		cursorArgs := append(append([]interface{}{}, args...), filter.Cursor)
		err := r.pool.QueryRow(ctx,
			`SELECT created_at FROM payment_links`+and(where, fmt.Sprintf("id = $%d", len(cursorArgs))),
			cursorArgs...,
		).Scan(&cursorAt)
		switch {
		case err == nil:
			pageArgs = append(cursorArgs, cursorAt)
			pageWhere = and(where, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(pageArgs), len(pageArgs)-1))
		case errors.Is(err, pgx.ErrNoRows):
		default:
			return nil, fmt.Errorf("failed to resolve cursor: %w", err)
		}
	}

	pageArgs = append(pageArgs, limit+1)
	query := `SELECT ` + paymentLinkColumns + ` FROM payment_links` + pageWhere +
		fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(pageArgs))

	rows, err := r.pool.Query(ctx, query, pageArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment links: %w", err)
	}
	defer rows.Close()

	links := make([]*domain.PaymentLink, 0, limit+1)
	for rows.Next() {
		link, err := scanPaymentLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment link: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list payment links: %w", err)
	}

	page := &domain.PaymentLinkPage{
		Data:       links,
		Pagination: domain.Pagination{Total: total},
	}
	if len(links) > limit {
		page.Data = links[:limit]
		page.Pagination.HasMore = true
		page.Pagination.Cursor = page.Data[limit-1].ID
	}
	return page, nil
}

func (r *PostgresPaymentLinkRepository) UpdateStatus(ctx context.Context, id string, from, to domain.PaymentLinkStatus, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE payment_links SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		to, at, id, from,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment link status: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var current domain.PaymentLinkStatus
	err = r.pool.QueryRow(ctx, `SELECT status FROM payment_links WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.NewNotFound("payment link", id)
	}
	if err != nil {
		return fmt.Errorf("failed to read payment link status: %w", err)
	}
	return fmt.Errorf("%w: %s is %s", xerrors.ErrInvalidTransition, id, current)
}

func listConditions(f domain.ListPaymentLinksFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.ProjectID != "" {
		args = append(args, f.ProjectID)
		conds = append(conds, fmt.Sprintf("project_id = $%d", len(args)))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(id ILIKE $%d OR buyer_email ILIKE $%d OR buyer_external_id ILIKE $%d)", n, n, n))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func and(where, cond string) string {
	if where == "" {
		return " WHERE " + cond
	}
	return where + " AND " + cond
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func scanPaymentLink(row pgx.Row) (*domain.PaymentLink, error) {
	var (
		link                                   domain.PaymentLink
		buyerType, buyerEmail, buyerExternalID string
		amount                                 string
		metadata                               []byte
	)
	err := row.Scan(
		&link.ID, &link.URL, &link.Status, &link.ProjectID,
		&buyerType, &buyerEmail, &buyerExternalID,
		&amount, &link.Currency, &link.PaymentMethod, &link.SettlementAccountID, &link.ExpiresAt,
		&link.WebhookURL, &link.SuccessURL, &link.CancelURL,
		&metadata, &link.RequireKyc, &link.RequireWalletWhitelist, &link.Notes,
		&link.CreatedAt, &link.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if link.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if buyerType != "" {
		link.Buyer = &domain.Buyer{
			Type:       domain.BuyerType(buyerType),
			Email:      buyerEmail,
			ExternalID: buyerExternalID,
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &link.Metadata); err != nil {
			return nil, fmt.Errorf("invalid metadata: %w", err)
		}
	}
	return &link, nil
}
