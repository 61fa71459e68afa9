package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/babulakterfsd/gizmobuy-backend/pkg/database"
	apperrors "github.com/babulakterfsd/gizmobuy-backend/pkg/errors"
)

// ProductReader implements repository.ProductReader against the catalog
// tables. The catalog is owned by another service; this reader never writes.
type ProductReader struct {
	pool database.DBTX
}

// NewProductReader creates a new PostgreSQL-backed product reader.
func NewProductReader(pool database.DBTX) *ProductReader {
	return &ProductReader{pool: pool}
}

// Exists reports whether a catalog product with the given id exists.
func (r *ProductReader) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM products WHERE id = $1`, id).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, apperrors.Wrap(err, "check product exists")
	}
	return true, nil
}

// Count returns the number of catalog products.
func (r *ProductReader) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "count products")
	}
	return count, nil
}
