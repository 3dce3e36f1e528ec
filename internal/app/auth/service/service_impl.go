package service

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/aminkhaleghi1994/todo-app/internal/adapters/transport/http/dto"
	customErrors "github.com/aminkhaleghi1994/todo-app/internal/domain/auth/errors"
	"github.com/aminkhaleghi1994/todo-app/internal/domain/auth/jwt"
	"github.com/aminkhaleghi1994/todo-app/internal/domain/auth/model"
	repo "github.com/aminkhaleghi1994/todo-app/internal/domain/auth/repo"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) (bool, error)
	MaxPasswordBytes() int
}

type Service interface {
	Register(context.Context, dto.RegisterDTO) (model.User, error)
	Login(context.Context, dto.LoginDTO) (model.TokenPair, error)
	// Verify resolves a bearer token of the expected kind to an active user.
	Verify(ctx context.Context, token string, kind model.TokenKind) (model.User, error)
	Refresh(context.Context, dto.RefreshDTO) (model.AccessToken, error)
	Logout(ctx context.Context, caller model.User, in dto.LogoutDTO) error
	// SetActive enables or disables the named user. Tokens already issued to
	// a disabled user stop passing Verify.
	SetActive(ctx context.Context, username string, active bool) (model.User, error)
}

type authService struct {
	userRepo  repo.UserRepo
	tokenRepo repo.TokenRepo
	jwtUtil   jwt.JWTUtil
	hasher    PasswordHasher
	v         *validator.Validate
	log       *zap.Logger

	// compared against when the username is unknown so both login
	// failures cost one hash verification
	dummyHash string
}

// New wires the service. tokenRepo may be nil, in which case tokens are
// never denylisted and validity depends only on signature and expiry.
func New(
	ur repo.UserRepo,
	tr repo.TokenRepo,
	jm jwt.JWTUtil,
	h PasswordHasher,
	v *validator.Validate,
	log *zap.Logger,
) (Service, error) {
	dummy, err := h.Hash("dummy-password-for-timing")
	if err != nil {
		return nil, customErrors.WrapInternal(err, "dummy hash")
	}
	return &authService{
		userRepo: ur, tokenRepo: tr, jwtUtil: jm, hasher: h, v: v, log: log,
		dummyHash: dummy,
	}, nil
}

func (a *authService) Register(ctx context.Context, in dto.RegisterDTO) (model.User, error) {
	in.Username = normalizeUsername(in.Username)
	if err := a.v.Struct(in); err != nil {
		return model.User{}, customErrors.NewInvalidArgument(err.Error())
	}
	if max := a.hasher.MaxPasswordBytes(); len(in.Password) > max {
		return model.User{}, customErrors.NewInvalidArgument(fmt.Sprintf("password must be at most %d bytes", max))
	}

	passwordHash, err := a.hasher.Hash(in.Password)
	if err != nil {
		return model.User{}, err
	}

	user := model.User{
		Username:     in.Username,
		PasswordHash: passwordHash,
		IsActive:     true,
	}
	id, err := a.userRepo.CreateUser(ctx, user)
	if err != nil {
		if customErrors.IsAlreadyExists(err) {
			return model.User{}, customErrors.ErrAlreadyExists
		}
		return model.User{}, customErrors.WrapInternal(err, "Register")
	}
	user.ID = id

	a.log.Info("user registered", zap.Int64("user_id", id))
	return user, nil
}

func (a *authService) Login(ctx context.Context, in dto.LoginDTO) (model.TokenPair, error) {
	username := normalizeUsername(in.Username)
	in.Username = username
	if err := a.v.Struct(in); err != nil {
		return model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByUsername(ctx, username)
	switch {
	case customErrors.IsNotFound(err):
		_, _ = a.hasher.Verify(a.dummyHash, in.Password)
		a.rejectLogin(username, customErrors.ErrUnknownIdentity)
		return model.TokenPair{}, fmt.Errorf("%w: %w", customErrors.ErrCredentialMismatch, customErrors.ErrUnknownIdentity)
	case err != nil:
		return model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}

	ok, err := a.hasher.Verify(user.PasswordHash, in.Password)
	if err != nil {
		return model.TokenPair{}, err
	}
	if !ok {
		a.rejectLogin(username, customErrors.ErrCredentialMismatch)
		return model.TokenPair{}, customErrors.ErrCredentialMismatch
	}
	if !user.IsActive {
		a.rejectLogin(username, customErrors.ErrIdentityDisabled)
		return model.TokenPair{}, customErrors.ErrIdentityDisabled
	}

	return a.issueTokens(user.ID)
}

func (a *authService) Verify(ctx context.Context, token string, kind model.TokenKind) (model.User, error) {
	claims, err := a.jwtUtil.Parse(token, kind)
	if err != nil {
		return model.User{}, err
	}

	if a.tokenRepo != nil {
		revoked, err := a.tokenRepo.IsRevoked(ctx, claims.ID)
		if err != nil {
			return model.User{}, customErrors.WrapInternal(err, "IsRevoked")
		}
		if revoked {
			return model.User{}, customErrors.ErrRevoked
		}
	}

	user, err := a.userRepo.GetUserByID(ctx, *claims.UserID)
	switch {
	case customErrors.IsNotFound(err):
		return model.User{}, customErrors.ErrUnknownIdentity
	case err != nil:
		return model.User{}, customErrors.WrapInternal(err, "Verify")
	}

	if !user.IsActive {
		return model.User{}, customErrors.ErrIdentityDisabled
	}
	return user, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token itself is not rotated and stays valid until it expires.
func (a *authService) Refresh(ctx context.Context, in dto.RefreshDTO) (model.AccessToken, error) {
	if err := a.v.Struct(in); err != nil {
		return model.AccessToken{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.Verify(ctx, in.RefreshToken, model.TokenRefresh)
	if err != nil {
		return model.AccessToken{}, err
	}

	at, err := a.jwtUtil.Issue(user.ID, model.TokenAccess, 0)
	if err != nil {
		return model.AccessToken{}, err
	}
	return model.AccessToken{
		Token:  at.Raw,
		TTL:    a.jwtUtil.DefaultTTL(model.TokenAccess),
		UserID: user.ID,
	}, nil
}

func (a *authService) Logout(ctx context.Context, caller model.User, in dto.LogoutDTO) error {
	if err := a.v.Struct(in); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}

	claims, err := a.jwtUtil.Parse(in.RefreshToken, model.TokenRefresh)
	if err != nil {
		return err
	}
	if *claims.UserID != caller.ID {
		return customErrors.NewInvalidArgument("refresh token belongs to another user")
	}

	if a.tokenRepo == nil {
		return nil
	}

	if err := a.tokenRepo.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return customErrors.WrapInternal(err, "Logout")
	}

	// the access token just passed the gate; it may expire in between
	if acc, err := a.jwtUtil.Parse(in.AccessToken, model.TokenAccess); err == nil {
		if err := a.tokenRepo.Revoke(ctx, acc.ID, acc.ExpiresAt.Time); err != nil {
			a.log.Warn("access token not revoked on logout",
				zap.Int64("user_id", caller.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (a *authService) SetActive(ctx context.Context, username string, active bool) (model.User, error) {
	username = normalizeUsername(username)
	if username == "" {
		return model.User{}, customErrors.NewInvalidArgument("username is required")
	}

	user, err := a.userRepo.GetUserByUsername(ctx, username)
	switch {
	case customErrors.IsNotFound(err):
		return model.User{}, customErrors.ErrNotFound
	case err != nil:
		return model.User{}, customErrors.WrapInternal(err, "SetActive")
	}

	if err := a.userRepo.SetActive(ctx, user.ID, active); err != nil {
		if customErrors.IsNotFound(err) {
			return model.User{}, customErrors.ErrNotFound
		}
		return model.User{}, customErrors.WrapInternal(err, "SetActive")
	}
	user.IsActive = active

	a.log.Info("user activity changed", zap.Int64("user_id", user.ID), zap.Bool("active", active))
	return user, nil
}

func (a *authService) issueTokens(uid int64) (model.TokenPair, error) {
	at, err := a.jwtUtil.Issue(uid, model.TokenAccess, 0)
	if err != nil {
		return model.TokenPair{}, err
	}
	rt, err := a.jwtUtil.Issue(uid, model.TokenRefresh, 0)
	if err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:  at.Raw,
		RefreshToken: rt.Raw,
		AccessTTL:    a.jwtUtil.DefaultTTL(model.TokenAccess),
		RefreshTTL:   a.jwtUtil.DefaultTTL(model.TokenRefresh),
		UserID:       uid,
	}, nil
}

func (a *authService) rejectLogin(username string, reason error) {
	a.log.Info("login rejected",
		zap.String("user", fmt.Sprintf("%x", sha256.Sum256([]byte(username)))),
		zap.String("reason", reason.Error()),
	)
}

func normalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
