package jwt

import (
	"time"

	"github.com/aminkhaleghi1994/todo-app/internal/domain/auth/model"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the wire shape of both token kinds: {"type", "id", "iat", "exp", "jti"}.
type Claims struct {
	Kind   model.TokenKind `json:"type"`
	UserID *int64          `json:"id,omitempty"`
	jwt.RegisteredClaims
}

type IssuedToken struct {
	Raw       string
	ID        string
	ExpiresAt time.Time
}

type JWTUtil interface {
	Issue(userID int64, kind model.TokenKind, ttl time.Duration) (IssuedToken, error)
	// Parse checks encoding, signature, expiry, subject and kind, in that order.
	Parse(raw string, expected model.TokenKind) (Claims, error)
	DefaultTTL(kind model.TokenKind) time.Duration
}
