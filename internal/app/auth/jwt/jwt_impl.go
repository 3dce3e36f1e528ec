package jwt

import (
	"errors"
	"fmt"
	"time"

	customErrors "github.com/aminkhaleghi1994/todo-app/internal/domain/auth/errors"
	jwt2 "github.com/aminkhaleghi1994/todo-app/internal/domain/auth/jwt"
	"github.com/aminkhaleghi1994/todo-app/internal/domain/auth/model"
	"github.com/aminkhaleghi1994/todo-app/internal/infra/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultAccessTTL  = 300 * time.Second
	DefaultRefreshTTL = 18000 * time.Second
)

type JwtUtilImpl struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	parser     *jwt.Parser
}

type Option func(*JwtUtilImpl)

// WithClock replaces time.Now for both issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(j *JwtUtilImpl) { j.now = now }
}

func NewJWTUtil(cfg *config.Config, opts ...Option) (*JwtUtilImpl, error) {
	if cfg.JWTSecret == "" {
		return nil, customErrors.WrapInternal(errors.New("empty secret"), "NewJWTUtil")
	}

	j := &JwtUtilImpl{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		now:        time.Now,
	}
	if j.accessTTL <= 0 {
		j.accessTTL = DefaultAccessTTL
	}
	if j.refreshTTL <= 0 {
		j.refreshTTL = DefaultRefreshTTL
	}
	for _, opt := range opts {
		opt(j)
	}

	j.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	return j, nil
}

func (j *JwtUtilImpl) DefaultTTL(kind model.TokenKind) time.Duration {
	if kind == model.TokenRefresh {
		return j.refreshTTL
	}
	return j.accessTTL
}

func (j *JwtUtilImpl) Issue(userID int64, kind model.TokenKind, ttl time.Duration) (jwt2.IssuedToken, error) {
	if userID <= 0 {
		return jwt2.IssuedToken{}, customErrors.NewInvalidArgument("user id must be positive")
	}
	if !kind.Valid() {
		return jwt2.IssuedToken{}, customErrors.NewInvalidArgument(fmt.Sprintf("unknown token kind %q", kind))
	}
	if ttl <= 0 {
		ttl = j.DefaultTTL(kind)
	}
	// Timestamps are encoded with second precision; anything shorter would
	// produce exp == iat.
	if ttl < time.Second {
		return jwt2.IssuedToken{}, customErrors.NewInvalidArgument("ttl must be at least one second")
	}

	jti := uuid.NewString()
	now := j.now()

	claims := jwt2.Claims{
		Kind:   kind,
		UserID: &userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return jwt2.IssuedToken{}, customErrors.WrapInternal(err, "sign "+string(kind)+" token")
	}

	return jwt2.IssuedToken{Raw: signed, ID: jti, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (j *JwtUtilImpl) Parse(raw string, expected model.TokenKind) (jwt2.Claims, error) {
	if _, _, err := j.parser.ParseUnverified(raw, &jwt2.Claims{}); err != nil {
		if errors.Is(err, jwt.ErrTokenUnverifiable) {
			return jwt2.Claims{}, fmt.Errorf("%w: %v", customErrors.ErrInvalidSignature, err)
		}
		return jwt2.Claims{}, fmt.Errorf("%w: %v", customErrors.ErrDecode, err)
	}

	var claims jwt2.Claims
	if _, err := j.parser.ParseWithClaims(raw, &claims, j.key); err != nil {
		return jwt2.Claims{}, classify(err)
	}

	if claims.UserID == nil || *claims.UserID <= 0 {
		return jwt2.Claims{}, customErrors.ErrMissingSubject
	}
	if claims.Kind != expected {
		return jwt2.Claims{}, fmt.Errorf("%w: want %s, got %q", customErrors.ErrWrongTokenType, expected, claims.Kind)
	}
	return claims, nil
}

func (j *JwtUtilImpl) key(t *jwt.Token) (interface{}, error) {
	if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, customErrors.ErrInvalidSignature
	}
	return j.secret, nil
}

// classify maps a failure of the verifying parse. The header and payload
// already decoded, so a malformed token here means a malformed signature.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", customErrors.ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return customErrors.ErrExpired
	default:
		return fmt.Errorf("%w: %v", customErrors.ErrDecode, err)
	}
}
