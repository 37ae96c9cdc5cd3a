package cache

import (
	"context"
	"reflect"
	"testing"

	"github.com/markdave123-py/Penpal/internal/core"
)

func drivers(t *testing.T) map[string]core.KVCache {
	sq, err := NewSQLiteCache(":memory:")
	if err != nil {
		t.Fatalf("open sqlite cache: %v", err)
	}
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]core.KVCache{
		"memory": NewMemoryCache(),
		"sqlite": sq,
	}
}

func TestCache_GetSetRemove(t *testing.T) {
	ctx := context.Background()
	for name, c := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := c.Get(ctx, "missing"); err != nil || ok {
				t.Fatalf("missing key: ok=%v err=%v", ok, err)
			}
			if err := c.Set(ctx, "k", []byte("v1")); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := c.Set(ctx, "k", []byte("v2")); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			v, ok, err := c.Get(ctx, "k")
			if err != nil || !ok || string(v) != "v2" {
				t.Fatalf("get: %q ok=%v err=%v", v, ok, err)
			}
			if err := c.Remove(ctx, "k"); err != nil {
				t.Fatalf("remove: %v", err)
			}
			if _, ok, _ := c.Get(ctx, "k"); ok {
				t.Fatalf("key still present after remove")
			}
			if err := c.Remove(ctx, "k"); err != nil {
				t.Fatalf("removing a missing key should not fail: %v", err)
			}
		})
	}
}

func TestCache_KeysByPrefix(t *testing.T) {
	ctx := context.Background()
	for name, c := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"entry:u1:2024-01-02", "entry:u1:2024-01-01", "entry:u2:2024-01-01", "other"} {
				if err := c.Set(ctx, k, []byte("x")); err != nil {
					t.Fatalf("set %s: %v", k, err)
				}
			}
			got, err := c.Keys(ctx, "entry:u1:")
			if err != nil {
				t.Fatalf("keys: %v", err)
			}
			want := []string{"entry:u1:2024-01-01", "entry:u1:2024-01-02"}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("got %v want %v", got, want)
			}
		})
	}
}

func TestCache_KeysByNonASCIIPrefix(t *testing.T) {
	ctx := context.Background()
	for name, c := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"entry:guest:appareil-é:2024-01-01", "entry:guest:appareil-e:2024-01-01", "entry:guest:日記:2024-01-02"} {
				if err := c.Set(ctx, k, []byte("x")); err != nil {
					t.Fatalf("set %s: %v", k, err)
				}
			}
			cases := []struct {
				prefix string
				want   []string
			}{
				{prefix: "entry:guest:appareil-é:", want: []string{"entry:guest:appareil-é:2024-01-01"}},
				{prefix: "entry:guest:日記:", want: []string{"entry:guest:日記:2024-01-02"}},
			}
			for _, tc := range cases {
				got, err := c.Keys(ctx, tc.prefix)
				if err != nil {
					t.Fatalf("keys %s: %v", tc.prefix, err)
				}
				if !reflect.DeepEqual(got, tc.want) {
					t.Fatalf("prefix %q: got %v want %v", tc.prefix, got, tc.want)
				}
			}
		})
	}
}
