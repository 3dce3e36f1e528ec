package middleware

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func call(intc grpc.UnaryServerInterceptor, ctx context.Context) error {
	_, err := intc(ctx, nil, &grpc.UnaryServerInfo{}, noop)
	return err
}

func TestRateLimitPerIP_BurstAllows(t *testing.T) {
	intc := NewRateLimitPerIP(1, 2, 100, time.Hour)

	ctx := ctxIP("192.0.2.1")
	if err := call(intc, ctx); err != nil {
		t.Fatalf("unexpected 1-st call err: %v", err)
	}
	if err := call(intc, ctx); err != nil {
		t.Fatalf("unexpected 2-nd call err: %v", err)
	}
	if err := call(intc, ctx); status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("expected rate-limit error on 3-rd burst call, got %v", err)
	}
}

func TestRateLimitPerIP_SeparateCounters(t *testing.T) {
	intc := NewRateLimitPerIP(1, 1, 1000, time.Hour)

	if err := call(intc, ctxIP("203.0.113.10")); err != nil {
		t.Fatalf("unexpected err for first host: %v", err)
	}
	if err := call(intc, ctxIP("203.0.113.10")); err == nil {
		t.Fatal("limit must trigger for first host second hit")
	}
	if err := call(intc, ctxIP("198.51.100.5")); err != nil {
		t.Fatalf("second host should not be limited yet, got: %v", err)
	}
}

func TestRateLimitPerIP_TTL_Evicts(t *testing.T) {
	ttl := 15 * time.Millisecond
	intc := NewRateLimitPerIP(1, 1, 10, ttl)

	if err := call(intc, ctxIP("10.10.10.10")); err != nil {
		t.Fatalf("first hit should pass: %v", err)
	}
	if err := call(intc, ctxIP("10.10.10.10")); err == nil {
		t.Fatal("second immediate hit must be limited")
	}
	time.Sleep(ttl + 5*time.Millisecond)
	if err := call(intc, ctxIP("10.10.10.10")); err != nil {
		t.Fatalf("after TTL the limiter must be renewed, got err: %v", err)
	}
}

func TestRateLimitPerIP_NoPeer(t *testing.T) {
	intc := NewRateLimitPerIP(10, 10, 10, time.Hour)
	if err := call(intc, context.Background()); status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("call without peer must be refused, got %v", err)
	}
}
