package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryProviderRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()

	if _, err := p.Get(ctx, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}

	value := []byte("view")
	if err := p.Set(ctx, "k", value, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[0] = 'X'

	got, err := p.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "view" {
		t.Fatalf("stored value must be copied, got %q", got)
	}

	if err := p.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := p.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}

func TestMemoryProviderExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	p := NewMemoryProvider()
	p.now = func() time.Time { return now }

	if err := p.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	now = now.Add(30 * time.Second)
	if _, err := p.Get(ctx, "k"); err != nil {
		t.Fatalf("expected hit before expiry, got %v", err)
	}
	now = now.Add(time.Minute)
	if _, err := p.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after expiry, got %v", err)
	}
}

func TestMemoryProviderUpdate(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()

	err := p.Update(ctx, "k", 0, func(current []byte, found bool) ([]byte, error) {
		if found || current != nil {
			t.Fatalf("expected absent key, got %q", current)
		}
		return []byte("1"), nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	err = p.Update(ctx, "k", 0, func(current []byte, found bool) ([]byte, error) {
		if !found || string(current) != "1" {
			t.Fatalf("expected stored value, got %q found=%v", current, found)
		}
		return append(current, '2'), nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got, _ := p.Get(ctx, "k"); string(got) != "12" {
		t.Fatalf("unexpected value %q", got)
	}

	abort := errors.New("abort")
	err = p.Update(ctx, "k", 0, func([]byte, bool) ([]byte, error) { return []byte("x"), abort })
	if !errors.Is(err, abort) {
		t.Fatalf("expected abort error, got %v", err)
	}
	if got, _ := p.Get(ctx, "k"); string(got) != "12" {
		t.Fatalf("aborted update must not write, got %q", got)
	}
}
