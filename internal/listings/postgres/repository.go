// Package postgres provides PostgreSQL implementation of the listings repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/rental-portal/internal/domain"
	"github.com/bissquit/rental-portal/internal/listings"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const propertyColumns = `id, title, description, address, monthly_rent, bedrooms, bathrooms, owner_name, image_url`

// querier is satisfied by *pgxpool.Pool and pgxmock pools.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository implements listings.Repository using PostgreSQL.
type Repository struct {
	db querier
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db querier) *Repository {
	return &Repository{db: db}
}

// CreateProperty inserts a property and sets its ID.
func (r *Repository) CreateProperty(ctx context.Context, p *domain.Property) error {
	query := `
		INSERT INTO properties (title, description, address, monthly_rent, bedrooms, bathrooms, owner_name, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		p.Title,
		p.Description,
		p.Address,
		p.MonthlyRent,
		p.Bedrooms,
		p.Bathrooms,
		p.OwnerName,
		p.ImageURL,
	).Scan(&p.ID)

	if err != nil {
		return fmt.Errorf("create property: %w", err)
	}
	return nil
}

// GetProperty retrieves a property by ID.
func (r *Repository) GetProperty(ctx context.Context, id int64) (*domain.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`

	p, err := scanProperty(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, listings.ErrPropertyNotFound
		}
		return nil, fmt.Errorf("get property: %w", err)
	}
	return p, nil
}

// GetProperties retrieves the properties with the given IDs. Missing IDs are skipped.
func (r *Repository) GetProperties(ctx context.Context, ids []int64) ([]domain.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = ANY($1) ORDER BY id`
	return r.list(ctx, query, ids)
}

// ListProperties retrieves properties ordered by ID.
func (r *Repository) ListProperties(ctx context.Context, filter listings.PropertyFilter) ([]domain.Property, error) {
	if filter.OwnerName != nil {
		query := `SELECT ` + propertyColumns + ` FROM properties WHERE owner_name = $1 ORDER BY id`
		return r.list(ctx, query, *filter.OwnerName)
	}

	query := `SELECT ` + propertyColumns + ` FROM properties ORDER BY id`
	return r.list(ctx, query)
}

// UpdateProperty overwrites every writable column of a property.
func (r *Repository) UpdateProperty(ctx context.Context, p *domain.Property) error {
	query := `
		UPDATE properties
		SET title = $2, description = $3, address = $4, monthly_rent = $5,
		    bedrooms = $6, bathrooms = $7, owner_name = $8, image_url = $9
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		p.ID,
		p.Title,
		p.Description,
		p.Address,
		p.MonthlyRent,
		p.Bedrooms,
		p.Bathrooms,
		p.OwnerName,
		p.ImageURL,
	)
	if err != nil {
		return fmt.Errorf("update property: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return listings.ErrPropertyNotFound
	}
	return nil
}

// DeleteProperty deletes a property by ID.
func (r *Repository) DeleteProperty(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return listings.ErrPropertyNotFound
	}
	return nil
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]domain.Property, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	properties := make([]domain.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		properties = append(properties, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate properties: %w", err)
	}
	return properties, nil
}

func scanProperty(row pgx.Row) (*domain.Property, error) {
	var p domain.Property
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Address,
		&p.MonthlyRent,
		&p.Bedrooms,
		&p.Bathrooms,
		&p.OwnerName,
		&p.ImageURL,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
