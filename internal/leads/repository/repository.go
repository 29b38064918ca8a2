package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"estate_crm_backend/internal/shared/query"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation = "23505"
	leadColumns       = "id, name, phone, documents, created_at, updated_at"
)

// Repository stores leads in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a PostgreSQL lead repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (id, name, phone, phone_key, documents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, '{}', $5, $5)
		RETURNING `+leadColumns,
		uuid.New(), params.Name, params.Phone, params.PhoneKey, now,
	)

	lead, err := scanLead(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Lead{}, ErrDuplicatePhone
		}
		return Lead{}, fmt.Errorf("insert lead: %w", err)
	}
	return lead, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (Lead, error) {
	leadID, err := uuid.Parse(id)
	if err != nil {
		return Lead{}, ErrNotFound
	}

	lead, err := scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, leadID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	whereClause, args := buildLeadListWhere(params)

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM leads WHERE %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	argIdx := len(args) + 1
	args = append(args, params.Page.Limit, params.Page.Offset())
	listQuery := fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE %s
		ORDER BY created_at ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, leadColumns, whereClause, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}

	return leads, total, nil
}

func buildLeadListWhere(params ListParams) (string, []interface{}) {
	if params.Search == "" {
		return "TRUE", nil
	}
	return `(name ILIKE $1 ESCAPE '\' OR phone ILIKE $1 ESCAPE '\' OR phone_key ILIKE $1 ESCAPE '\')`, []interface{}{query.LikePattern(params.Search)}
}

func (r *Repository) Update(ctx context.Context, id string, params UpdateLeadParams) (Lead, error) {
	leadID, err := uuid.Parse(id)
	if err != nil {
		return Lead{}, ErrNotFound
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET
			name = COALESCE($2, name),
			phone = COALESCE($3, phone),
			phone_key = COALESCE($4, phone_key),
			updated_at = $5
		WHERE id = $1
		RETURNING `+leadColumns,
		leadID, params.Name, params.Phone, params.PhoneKey, time.Now().UTC(),
	)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return Lead{}, ErrDuplicatePhone
		}
		return Lead{}, fmt.Errorf("update lead: %w", err)
	}
	return lead, nil
}

func (r *Repository) AppendDocument(ctx context.Context, id string, url string) (Lead, error) {
	leadID, err := uuid.Parse(id)
	if err != nil {
		return Lead{}, ErrNotFound
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET documents = array_append(documents, $2), updated_at = $3
		WHERE id = $1
		RETURNING `+leadColumns,
		leadID, url, time.Now().UTC(),
	)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, fmt.Errorf("append lead document: %w", err)
	}
	return lead, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	leadID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	result, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, leadID)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanLead(row pgx.Row) (Lead, error) {
	var (
		lead Lead
		id   uuid.UUID
	)
	if err := row.Scan(&id, &lead.Name, &lead.Phone, &lead.Documents, &lead.CreatedAt, &lead.UpdatedAt); err != nil {
		return Lead{}, err
	}
	lead.ID = id.String()
	lead.Documents = nonNilDocuments(lead.Documents)
	return lead, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

var _ LeadsRepository = (*Repository)(nil)
