package crypto

import (
	"context"
	"testing"
	"time"
)

func TestFindHashCashMeetsLevel(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	const level = 8
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	offset, err := FindHashCash(ctx, key.Public(), level)
	if err != nil {
		t.Fatalf("FindHashCash: %v", err)
	}
	if got := HashCashLevel(key.Public(), offset); got < level {
		t.Fatalf("offset %d has level %d, want >= %d", offset, got, level)
	}
}

func TestFindHashCashCancellable(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := FindHashCash(ctx, key.Public(), 32); err == nil {
		t.Fatalf("expected cancellation error")
	}
}
