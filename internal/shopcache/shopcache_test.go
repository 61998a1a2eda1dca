package shopcache

import (
	"testing"
	"time"
)

func TestCache_HitWithinTTL(t *testing.T) {
	c := New(time.Minute)

	c.Put("Asha", "D1", 1, []string{"Green Mart", "Sunrise Store"})

	shops, ok := c.Get("Asha", "D1", 1)
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if len(shops) != 2 || shops[0] != "Green Mart" {
		t.Fatalf("unexpected cached shops: %v", shops)
	}
}

func TestCache_TokenChangeMisses(t *testing.T) {
	c := New(time.Minute)

	c.Put("Asha", "D1", 1, []string{"Green Mart"})

	if _, ok := c.Get("Asha", "D1", 2); ok {
		t.Fatalf("token change must force a miss")
	}
}

func TestCache_DistinctKeysDoNotCollide(t *testing.T) {
	c := New(time.Minute)

	c.Put("Asha", "D1", 1, []string{"Green Mart"})
	c.Put("Asha", "D2", 1, []string{"Blue Corner"})

	shops, ok := c.Get("Asha", "D2", 1)
	if !ok || len(shops) != 1 || shops[0] != "Blue Corner" {
		t.Fatalf("unexpected shops for D2: %v", shops)
	}
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	c := New(20 * time.Millisecond)

	c.Put("Asha", "D1", 1, []string{"Green Mart"})

	time.Sleep(60 * time.Millisecond)

	if _, ok := c.Get("Asha", "D1", 1); ok {
		t.Fatalf("entry must not be served past its TTL")
	}
}

func TestCache_PutStoresCopy(t *testing.T) {
	c := New(time.Minute)

	src := []string{"Green Mart"}
	c.Put("Asha", "D1", 1, src)
	src[0] = "mutated"

	shops, ok := c.Get("Asha", "D1", 1)
	if !ok || shops[0] != "Green Mart" {
		t.Fatalf("cached value must not alias the caller's slice: %v", shops)
	}
}
