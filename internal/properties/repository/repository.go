package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"estate_crm_backend/internal/shared/query"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const propertyColumns = "id, type, size, location, budget, availability, created_at, updated_at"

// Repository stores properties in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a PostgreSQL property repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) Create(ctx context.Context, params CreatePropertyParams) (Property, error) {
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO properties (id, type, size, location, budget, availability, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING `+propertyColumns,
		uuid.New(), params.Type, params.Size, params.Location, params.Budget, params.Availability, now,
	)

	property, err := scanProperty(row)
	if err != nil {
		return Property{}, fmt.Errorf("insert property: %w", err)
	}
	return property, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (Property, error) {
	propertyID, err := uuid.Parse(id)
	if err != nil {
		return Property{}, ErrNotFound
	}

	property, err := scanProperty(r.pool.QueryRow(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, propertyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Property{}, ErrNotFound
	}
	if err != nil {
		return Property{}, fmt.Errorf("get property: %w", err)
	}
	return property, nil
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Property, int, error) {
	whereClause, args := buildPropertyListWhere(params)

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM properties WHERE %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count properties: %w", err)
	}

	argIdx := len(args) + 1
	args = append(args, params.Page.Limit, params.Page.Offset())
	listQuery := fmt.Sprintf(`
		SELECT %s FROM properties
		WHERE %s
		ORDER BY created_at ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, propertyColumns, whereClause, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	properties := make([]Property, 0)
	for rows.Next() {
		property, err := scanProperty(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan property: %w", err)
		}
		properties = append(properties, property)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list properties: %w", err)
	}

	return properties, total, nil
}

func buildPropertyListWhere(params ListParams) (string, []interface{}) {
	if params.Location == "" {
		return "TRUE", nil
	}
	return `location ILIKE $1 ESCAPE '\'`, []interface{}{query.LikePattern(params.Location)}
}

func (r *Repository) Update(ctx context.Context, id string, params UpdatePropertyParams) (Property, error) {
	propertyID, err := uuid.Parse(id)
	if err != nil {
		return Property{}, ErrNotFound
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE properties SET
			type = COALESCE($2, type),
			size = COALESCE($3, size),
			location = COALESCE($4, location),
			budget = COALESCE($5, budget),
			availability = COALESCE($6, availability),
			updated_at = $7
		WHERE id = $1
		RETURNING `+propertyColumns,
		propertyID, params.Type, params.Size, params.Location, params.Budget, params.Availability, time.Now().UTC(),
	)

	property, err := scanProperty(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Property{}, ErrNotFound
	}
	if err != nil {
		return Property{}, fmt.Errorf("update property: %w", err)
	}
	return property, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	propertyID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	result, err := r.pool.Exec(ctx, `DELETE FROM properties WHERE id = $1`, propertyID)
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProperty(row pgx.Row) (Property, error) {
	var (
		property Property
		id       uuid.UUID
	)
	err := row.Scan(
		&id, &property.Type, &property.Size, &property.Location,
		&property.Budget, &property.Availability, &property.CreatedAt, &property.UpdatedAt,
	)
	if err != nil {
		return Property{}, err
	}
	property.ID = id.String()
	return property, nil
}

var _ PropertiesRepository = (*Repository)(nil)
