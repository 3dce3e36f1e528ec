package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
)

func newRepo(t *testing.T) (*RedisTokenRepo, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redisv9.NewClient(&redisv9.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisTokenRepo(client), mr
}

func TestRedisTokenRepo_RevokeAndIsRevoked(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	if err := repo.Revoke(ctx, "jti1", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	revoked, err := repo.IsRevoked(ctx, "jti1")
	if err != nil {
		t.Fatalf("IsRevoked err: %v", err)
	}
	if !revoked {
		t.Fatal("token should be marked revoked")
	}
}

func TestRedisTokenRepo_IsRevoked_KeyAbsent(t *testing.T) {
	repo, _ := newRepo(t)

	revoked, err := repo.IsRevoked(context.Background(), "absent-jti")
	if err != nil {
		t.Fatalf("IsRevoked err: %v", err)
	}
	if revoked {
		t.Fatal("absent key must be considered NOT revoked")
	}
}

func TestRedisTokenRepo_EntryExpiresWithToken(t *testing.T) {
	repo, mr := newRepo(t)
	ctx := context.Background()

	if err := repo.Revoke(ctx, "jti2", time.Now().Add(30*time.Second)); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(31 * time.Second)

	revoked, err := repo.IsRevoked(ctx, "jti2")
	if err != nil || revoked {
		t.Fatalf("entry should be gone after the token expiry: %v %v", revoked, err)
	}
}

func TestRedisTokenRepo_RevokeExpiredIsNoop(t *testing.T) {
	repo, mr := newRepo(t)

	if err := repo.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}
	if mr.Exists(keyPrefix + "old") {
		t.Fatal("expired token must not be stored")
	}
}

func TestRedisTokenRepo_FailsClosed(t *testing.T) {
	repo, mr := newRepo(t)
	mr.Close()

	revoked, err := repo.IsRevoked(context.Background(), "any")
	if err == nil || !revoked {
		t.Fatalf("want revoked with error, got %v %v", revoked, err)
	}
}
