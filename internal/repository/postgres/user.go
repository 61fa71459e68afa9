package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/babulakterfsd/gizmobuy-backend/internal/domain"
	"github.com/babulakterfsd/gizmobuy-backend/pkg/database"
	apperrors "github.com/babulakterfsd/gizmobuy-backend/pkg/errors"
)

// UserReader implements repository.UserReader against the accounts table.
// Account CRUD is owned by another service; this reader never writes.
type UserReader struct {
	pool database.DBTX
}

// NewUserReader creates a new PostgreSQL-backed user reader.
func NewUserReader(pool database.DBTX) *UserReader {
	return &UserReader{pool: pool}
}

// GetByEmail retrieves an account by email.
func (r *UserReader) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, name, email, role, is_blocked, is_demo_protected, created_at
		FROM users
		WHERE email = $1`

	var u domain.User
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Role,
		&u.IsBlocked,
		&u.IsDemoProtected,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// CountByRole returns the number of accounts per role.
func (r *UserReader) CountByRole(ctx context.Context) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT role, count(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			role  string
			count int64
		)
		if err := rows.Scan(&role, &count); err != nil {
			return nil, fmt.Errorf("scan role count: %w", err)
		}
		counts[role] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate role counts: %w", err)
	}
	return counts, nil
}
