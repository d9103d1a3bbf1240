package product

import (
	"context"

	"casekart/internal/domain"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Count(ctx context.Context) (int, error)
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}
