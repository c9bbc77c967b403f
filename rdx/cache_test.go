package rdx

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	if _, ok := c.Get(ctx, "meal:1"); ok {
		t.Fatal("empty cache should miss")
	}

	c.Set(ctx, "meal:1", []byte(`{"price":3}`), time.Minute)
	got, ok := c.Get(ctx, "meal:1")
	if !ok || string(got) != `{"price":3}` {
		t.Fatalf("expected hit, got %q %v", got, ok)
	}

	c.Delete(ctx, "meal:1")
	if _, ok := c.Get(ctx, "meal:1"); ok {
		t.Fatal("deleted entry should miss")
	}
}

func TestMemoryCacheExpires(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	c.Set(ctx, "k", []byte("v"), time.Nanosecond)
	time.Sleep(time.Millisecond)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("expired entry should miss")
	}
}

func TestRedisReportsUnreachableServer(t *testing.T) {
	r := NewRedis("127.0.0.1:1", "", 0)
	defer r.Close()

	var ops []string
	r.OnError = func(op, key string, err error) { ops = append(ops, op) }

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, ok := r.Get(ctx, "meal:x"); ok {
		t.Fatal("unreachable redis cannot hit")
	}
	r.Set(ctx, "meal:x", []byte("v"), time.Minute)
	if len(ops) != 2 || ops[0] != "get" || ops[1] != "set" {
		t.Fatalf("expected get and set failures reported, got %v", ops)
	}
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	c.Set(context.Background(), "k", []byte("v"), 0)
	if _, ok := c.Get(context.Background(), "k"); ok {
		t.Fatal("noop cache never hits")
	}
}
