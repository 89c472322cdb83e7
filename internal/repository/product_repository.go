package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockfeed/internal/model"
)

const productsSchema = `
CREATE TABLE IF NOT EXISTS products (
	id          BIGSERIAL PRIMARY KEY,
	id_produit  TEXT NOT NULL,
	name        TEXT NOT NULL,
	category    TEXT NOT NULL,
	price       DOUBLE PRECISION NOT NULL DEFAULT 0,
	stock       INTEGER NOT NULL DEFAULT 0,
	image_url   TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	brand       TEXT NOT NULL DEFAULT '',
	color       TEXT NOT NULL DEFAULT '',
	size        TEXT NOT NULL DEFAULT '',
	reference   TEXT NOT NULL DEFAULT '',
	fingerprint TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS products_fingerprint_key ON products (fingerprint);
CREATE INDEX IF NOT EXISTS products_id_produit_idx ON products (id_produit);
CREATE INDEX IF NOT EXISTS products_category_idx ON products (category);
`

const insertProduct = `
	INSERT INTO products
	(id_produit, name, category, price, stock, image_url, description, brand, color, size, reference, fingerprint)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (fingerprint) DO NOTHING
`

const productColumns = `id, id_produit, name, category, price, stock, image_url, description, brand, color, size, reference`

// insertChunk bounds the number of statements queued in one batch round trip.
const insertChunk = 500

type ProductRepository struct {
	DB *pgxpool.Pool
}

func (r *ProductRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.Exec(ctx, productsSchema); err != nil {
		return fmt.Errorf("failed to create products schema: %w", err)
	}
	return nil
}

// InsertMany stores products in a single transaction. Rows identical to an
// existing row on every field are skipped; the returned count only includes
// rows that were actually written.
func (r *ProductRepository) InsertMany(ctx context.Context, products []model.ProductVariant) (int64, error) {
	if len(products) == 0 {
		return 0, nil
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin insert: %w", err)
	}
	defer tx.Rollback(ctx)

	var inserted int64
	for start := 0; start < len(products); start += insertChunk {
		end := start + insertChunk
		if end > len(products) {
			end = len(products)
		}
		n, err := insertBatch(ctx, tx, products[start:end])
		if err != nil {
			return 0, err
		}
		inserted += n
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit insert: %w", err)
	}
	return inserted, nil
}

func insertBatch(ctx context.Context, tx pgx.Tx, products []model.ProductVariant) (int64, error) {
	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(insertProduct,
			p.ProductID, p.Name, p.Category, p.Price, p.Stock, p.ImageURL,
			p.Description, p.Brand, p.Color, p.Size, p.Reference, p.Fingerprint(),
		)
	}

	br := tx.SendBatch(ctx, batch)
	var inserted int64
	for i := range products {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return 0, fmt.Errorf("failed to insert product %s (%s): %w", products[i].ProductID, products[i].Reference, err)
		}
		inserted += tag.RowsAffected()
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("failed to close insert batch: %w", err)
	}
	return inserted, nil
}

// Find returns the products matching filter in insertion order, windowed by page.
func (r *ProductRepository) Find(ctx context.Context, filter model.ProductFilter, page model.Page) ([]model.ProductVariant, error) {
	where, params := whereClause(filter)
	query := "SELECT " + productColumns + " FROM products" + where + " ORDER BY id ASC"

	if page.Offset > 0 {
		params = append(params, page.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(params))
	}
	if page.Limit > 0 {
		params = append(params, page.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(params))
	}

	rows, err := r.DB.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]model.ProductVariant, 0)
	for rows.Next() {
		var p model.ProductVariant
		if err := rows.Scan(&p.ID, &p.ProductID, &p.Name, &p.Category, &p.Price, &p.Stock, &p.ImageURL, &p.Description, &p.Brand, &p.Color, &p.Size, &p.Reference); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	return products, nil
}

// Count returns the number of product rows matching filter.
func (r *ProductRepository) Count(ctx context.Context, filter model.ProductFilter) (int64, error) {
	where, params := whereClause(filter)
	var n int64
	if err := r.DB.QueryRow(ctx, "SELECT COUNT(*) FROM products"+where, params...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

// Categories lists the distinct categories present in the store.
func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.DB.Query(ctx, "SELECT DISTINCT category FROM products ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}
	return categories, nil
}

func whereClause(filter model.ProductFilter) (string, []any) {
	var (
		clauses []string
		params  []any
	)
	if filter.ProductID != "" {
		params = append(params, filter.ProductID)
		clauses = append(clauses, fmt.Sprintf("id_produit = $%d", len(params)))
	}
	if filter.Category != "" {
		params = append(params, filter.Category)
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(params)))
	}
	if len(clauses) == 0 {
		return "", params
	}
	return " WHERE " + strings.Join(clauses, " AND "), params
}
