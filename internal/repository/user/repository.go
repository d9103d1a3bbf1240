package user

import (
	"context"

	"casekart/internal/domain"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	Count(ctx context.Context) (int, error)
}
