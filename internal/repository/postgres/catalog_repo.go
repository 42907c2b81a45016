package postgres

import (
	"context"
	"fmt"

	"poshak-admin-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type catalogRepository struct {
	db *pgxpool.Pool
}

// NewCatalogRepository returns the local-mode catalog reference source.
func NewCatalogRepository(db *pgxpool.Pool) domain.CatalogService {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, slug, is_active
		FROM categories
		WHERE is_active = TRUE
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var cats []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.IsActive); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *catalogRepository) ListColors(ctx context.Context) ([]domain.AttributeValue, error) {
	return r.listAttributeValues(ctx, "colors")
}

func (r *catalogRepository) ListSizes(ctx context.Context) ([]domain.AttributeValue, error) {
	return r.listAttributeValues(ctx, "sizes")
}

func (r *catalogRepository) listAttributeValues(ctx context.Context, table string) ([]domain.AttributeValue, error) {
	// table is a compile-time constant ("colors" or "sizes"), never input
	rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT id, name FROM %s ORDER BY position, name`, table))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	var values []domain.AttributeValue
	for rows.Next() {
		var v domain.AttributeValue
		if err := rows.Scan(&v.ID, &v.Name); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
