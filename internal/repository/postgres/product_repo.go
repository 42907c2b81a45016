package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"poshak-admin-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type productRepository struct {
	db *pgxpool.Pool
	tx domain.TransactionManager
}

func NewProductRepository(db *pgxpool.Pool, tx domain.TransactionManager) domain.ProductRepository {
	return &productRepository{db: db, tx: tx}
}

// --- Helpers ---

func numericToFloat64(n pgtype.Numeric) float64 {
	if !n.Valid {
		return 0
	}
	f, _ := n.Float64Value()
	return f.Float64
}

func float64ToNumeric(f float64) pgtype.Numeric {
	var n pgtype.Numeric
	n.Scan(strconv.FormatFloat(f, 'f', -1, 64))
	return n
}

func float64PtrToNumeric(f *float64) pgtype.Numeric {
	var n pgtype.Numeric
	if f != nil {
		n.Scan(strconv.FormatFloat(*f, 'f', -1, 64))
	}
	return n
}

func numericToFloat64Ptr(n pgtype.Numeric) *float64 {
	if !n.Valid {
		return nil
	}
	f, _ := n.Float64Value()
	val := f.Float64
	return &val
}

// --- ProductRepository ---

// CreateProduct inserts the base record and its category links in one
// transaction. Images and variants arrive later through their own stages.
func (r *productRepository) CreateProduct(ctx context.Context, id string, base domain.ProductBase) error {
	return r.tx.Do(ctx, func(ctx context.Context) error {
		q := querierFrom(ctx, r.db)

		now := time.Now()
		_, err := q.Exec(ctx, `
			INSERT INTO products (id, name, slug, description, price, sale_price, sku, barcode, tags, colors, sizes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`,
			id, base.Name, base.Slug, base.Description,
			float64ToNumeric(base.Price), float64PtrToNumeric(base.SalePrice),
			base.SKU, base.Barcode, base.Tags, base.ColorNames, base.SizeNames, now)
		if err != nil {
			return fmt.Errorf("failed to insert product: %w", err)
		}

		return r.linkCategories(ctx, q, id, base.CategorySlugs)
	})
}

func (r *productRepository) UpdateProduct(ctx context.Context, id string, base domain.ProductBase) error {
	return r.tx.Do(ctx, func(ctx context.Context) error {
		q := querierFrom(ctx, r.db)

		tag, err := q.Exec(ctx, `
			UPDATE products
			SET name = $2, slug = $3, description = $4, price = $5, sale_price = $6,
			    sku = $7, barcode = $8, tags = $9, colors = $10, sizes = $11, updated_at = $12
			WHERE id = $1`,
			id, base.Name, base.Slug, base.Description,
			float64ToNumeric(base.Price), float64PtrToNumeric(base.SalePrice),
			base.SKU, base.Barcode, base.Tags, base.ColorNames, base.SizeNames, time.Now())
		if err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("product %s not found", id)
		}

		if _, err := q.Exec(ctx, `DELETE FROM product_categories WHERE product_id = $1`, id); err != nil {
			return fmt.Errorf("failed to clear category links: %w", err)
		}
		return r.linkCategories(ctx, q, id, base.CategorySlugs)
	})
}

func (r *productRepository) linkCategories(ctx context.Context, q querier, id string, slugs []string) error {
	for pos, slug := range slugs {
		// Unknown slugs insert nothing; the catalog is authoritative.
		_, err := q.Exec(ctx, `
			INSERT INTO product_categories (product_id, category_id, position)
			SELECT $1, c.id, $3 FROM categories c WHERE c.slug = $2`,
			id, slug, pos)
		if err != nil {
			return fmt.Errorf("failed to link category %s: %w", slug, err)
		}
	}
	return nil
}

// ReplaceImages overwrites the record's image association wholesale.
func (r *productRepository) ReplaceImages(ctx context.Context, id string, urls []string) error {
	return r.tx.Do(ctx, func(ctx context.Context) error {
		q := querierFrom(ctx, r.db)

		if _, err := q.Exec(ctx, `DELETE FROM product_images WHERE product_id = $1`, id); err != nil {
			return fmt.Errorf("failed to clear images: %w", err)
		}
		for pos, url := range urls {
			_, err := q.Exec(ctx, `
				INSERT INTO product_images (product_id, url, position)
				VALUES ($1, $2, $3)`, id, url, pos)
			if err != nil {
				return fmt.Errorf("failed to insert image: %w", err)
			}
		}
		return nil
	})
}

// ReplaceVariants overwrites the record's variant association wholesale.
func (r *productRepository) ReplaceVariants(ctx context.Context, id string, variants []domain.VariantRecord) error {
	return r.tx.Do(ctx, func(ctx context.Context) error {
		q := querierFrom(ctx, r.db)

		if _, err := q.Exec(ctx, `DELETE FROM product_variants WHERE product_id = $1`, id); err != nil {
			return fmt.Errorf("failed to clear variants: %w", err)
		}
		for pos, v := range variants {
			_, err := q.Exec(ctx, `
				INSERT INTO product_variants (product_id, color_name, size_name, quantity, position)
				VALUES ($1, $2, $3, $4, $5)`,
				id, v.ColorName, v.SizeName, v.Quantity, pos)
			if err != nil {
				return fmt.Errorf("failed to insert variant: %w", err)
			}
		}
		return nil
	})
}

func (r *productRepository) GetProduct(ctx context.Context, id string) (*domain.PersistedProduct, error) {
	q := querierFrom(ctx, r.db)

	var (
		p         domain.PersistedProduct
		price     pgtype.Numeric
		salePrice pgtype.Numeric
	)
	err := q.QueryRow(ctx, `
		SELECT id, name, slug, description, price, sale_price, sku, barcode, tags, colors, sizes
		FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &price, &salePrice,
			&p.SKU, &p.Barcode, &p.Tags, &p.ColorNames, &p.SizeNames)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %s not found", id)
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	p.Price = numericToFloat64(price)
	p.SalePrice = numericToFloat64Ptr(salePrice)

	if p.CategorySlugs, err = r.categorySlugs(ctx, q, id); err != nil {
		return nil, err
	}
	if p.ImageURLs, err = r.imageURLs(ctx, q, id); err != nil {
		return nil, err
	}
	if p.Variants, err = r.variants(ctx, q, id); err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *productRepository) categorySlugs(ctx context.Context, q querier, id string) ([]string, error) {
	rows, err := q.Query(ctx, `
		SELECT c.slug
		FROM product_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.product_id = $1
		ORDER BY pc.position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load category links: %w", err)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, err
		}
		slugs = append(slugs, slug)
	}
	return slugs, rows.Err()
}

func (r *productRepository) imageURLs(ctx context.Context, q querier, id string) ([]string, error) {
	rows, err := q.Query(ctx, `
		SELECT url FROM product_images
		WHERE product_id = $1
		ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}

func (r *productRepository) variants(ctx context.Context, q querier, id string) ([]domain.VariantRecord, error) {
	rows, err := q.Query(ctx, `
		SELECT color_name, size_name, quantity FROM product_variants
		WHERE product_id = $1
		ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load variants: %w", err)
	}
	defer rows.Close()

	var variants []domain.VariantRecord
	for rows.Next() {
		var v domain.VariantRecord
		if err := rows.Scan(&v.ColorName, &v.SizeName, &v.Quantity); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}
