package repo

import (
	"context"
	"time"

	"github.com/aminkhaleghi1994/todo-app/internal/domain/auth/model"
)

type UserRepo interface {
	CreateUser(ctx context.Context, u model.User) (int64, error)

	GetUserByID(ctx context.Context, id int64) (model.User, error)

	GetUserByUsername(ctx context.Context, username string) (model.User, error)

	SetActive(ctx context.Context, id int64, active bool) error
}

// TokenRepo is a denylist of token ids. Entries only need to outlive the
// token they refer to.
type TokenRepo interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error

	IsRevoked(ctx context.Context, jti string) (bool, error)
}
