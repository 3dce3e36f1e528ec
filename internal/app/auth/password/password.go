// Package password hashes and verifies user credentials. Stored hashes are
// either bcrypt or argon2id; the stored prefix decides which one verifies.
package password

import (
	"errors"
	"fmt"
	"strings"

	customErrors "github.com/aminkhaleghi1994/todo-app/internal/domain/auth/errors"
	"github.com/aminkhaleghi1994/todo-app/internal/infra/config"
	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

const (
	Bcrypt   = "bcrypt"
	Argon2id = "argon2id"

	// bcrypt reads at most this many bytes of password plus pepper
	bcryptMaxBytes = 72
	minPassword    = 8
)

var argonParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

type Hasher struct {
	algorithm string
	cost      int
	pepper    string
}

func New(cfg *config.Config) (*Hasher, error) {
	h := &Hasher{
		algorithm: cfg.PasswordHasher,
		cost:      cfg.BcryptCost,
		pepper:    cfg.PasswordPepper,
	}
	if h.algorithm == "" {
		h.algorithm = Bcrypt
	}
	if h.cost == 0 {
		h.cost = bcrypt.DefaultCost
	}

	switch {
	case h.algorithm != Bcrypt && h.algorithm != Argon2id:
		return nil, customErrors.NewInvalidArgument(fmt.Sprintf("unknown password hasher %q", h.algorithm))
	case h.cost < bcrypt.MinCost || h.cost > bcrypt.MaxCost:
		return nil, customErrors.NewInvalidArgument(fmt.Sprintf("bcrypt cost %d out of range", h.cost))
	case len(h.pepper) > bcryptMaxBytes-minPassword:
		return nil, customErrors.NewInvalidArgument(fmt.Sprintf("password pepper longer than %d bytes", bcryptMaxBytes-minPassword))
	}
	return h, nil
}

// MaxPasswordBytes is the longest password Hash accepts once the pepper is
// appended. Argon2id shares the bcrypt bound.
func (h *Hasher) MaxPasswordBytes() int {
	return bcryptMaxBytes - len(h.pepper)
}

func (h *Hasher) Hash(plain string) (string, error) {
	if h.algorithm == Argon2id {
		hash, err := argon2id.CreateHash(plain+h.pepper, argonParams)
		if err != nil {
			return "", customErrors.WrapInternal(err, "argon2id hash")
		}
		return hash, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain+h.pepper), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", customErrors.NewInvalidArgument("password is too long")
	}
	if err != nil {
		return "", customErrors.WrapInternal(err, "bcrypt hash")
	}
	return string(hash), nil
}

// Verify reports whether plain matches hash. A wrong password is not an
// error; only an unreadable stored hash is.
func (h *Hasher) Verify(hash, plain string) (bool, error) {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		ok, err := argon2id.ComparePasswordAndHash(plain+h.pepper, hash)
		if err != nil {
			return false, customErrors.WrapInternal(err, "argon2id verify")
		}
		return ok, nil

	case strings.HasPrefix(hash, "$2"):
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain+h.pepper))
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, customErrors.WrapInternal(err, "bcrypt verify")
		}

	default:
		return false, customErrors.WrapInternal(errors.New("unrecognised hash format"), "verify")
	}
}
