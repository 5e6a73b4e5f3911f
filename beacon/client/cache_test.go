package client

import "testing"

func TestEpochCache_GetMiss(t *testing.T) {
	c := newEpochCache[int](2)
	if _, ok := c.Get(5); ok {
		t.Fatalf("expected miss on empty cache")
	}
}

func TestEpochCache_SetAndGet(t *testing.T) {
	c := newEpochCache[int](2)
	c.Set(10, 100)
	got, ok := c.Get(10)
	if !ok || got != 100 {
		t.Fatalf("got (%v, %v), want (100, true)", got, ok)
	}
}

func TestEpochCache_EvictsOldestFirst(t *testing.T) {
	c := newEpochCache[int](2)
	c.Set(1, 10)
	c.Set(2, 20)
	c.Set(3, 30)

	if _, ok := c.Get(1); ok {
		t.Fatalf("epoch 1 should have been evicted")
	}
	if v, ok := c.Get(2); !ok || v != 20 {
		t.Fatalf("epoch 2 should still be cached")
	}
	if v, ok := c.Get(3); !ok || v != 30 {
		t.Fatalf("epoch 3 should be cached")
	}
}

func TestEpochCache_ReSetDoesNotEvict(t *testing.T) {
	c := newEpochCache[int](1)
	c.Set(1, 10)
	c.Set(1, 11)
	if v, ok := c.Get(1); !ok || v != 11 {
		t.Fatalf("got (%v, %v), want (11, true)", v, ok)
	}
}

func TestEpochCache_CapacityOne(t *testing.T) {
	c := newEpochCache[int](1)
	c.Set(5, 50)
	c.Set(6, 60)
	if _, ok := c.Get(5); ok {
		t.Fatalf("epoch 5 should have been evicted under capacity 1")
	}
	if v, ok := c.Get(6); !ok || v != 60 {
		t.Fatalf("got (%v, %v), want (60, true)", v, ok)
	}
}
