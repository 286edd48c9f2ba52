package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/musat/helpdesk-backend/internal/core/domain"
	apperrors "github.com/musat/helpdesk-backend/internal/core/errors"
	"github.com/musat/helpdesk-backend/internal/core/ports"
)

// ProductRepository is the secondary adapter for product lookups. Tickets
// reference products by id; product management itself lives elsewhere.
type ProductRepository struct {
	pool *pgxpool.Pool
}

var _ ports.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository creates a new product repository.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetByID retrieves a product by id
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	q := GetDBTX(ctx, r.pool)

	query := `SELECT id, name, brand, category, created_at FROM products WHERE id = $1`

	var p domain.Product
	err := q.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Brand, &p.Category, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("fetching product: %w", err)
	}
	return &p, nil
}
