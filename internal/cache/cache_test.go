package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestBasicGetPut(t *testing.T) {
	c := New[string, string](2)

	c.Put("a", "1")
	c.Put("b", "2")

	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("expected a=1, got %v %v", v, ok)
	}
	if v, ok := c.Get("b"); !ok || v != "2" {
		t.Fatalf("expected b=2, got %v %v", v, ok)
	}
}

func TestEviction(t *testing.T) {
	c := New[string, int](2)

	c.Put("a", 1)
	c.Put("b", 2)

	// Access "a" so "b" becomes least recently used.
	c.Get("a")
	c.Put("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected 'b' to be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1 after eviction, got %v %v", v, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("expected len 2, got %d", c.Len())
	}
}

func TestUpdateExisting(t *testing.T) {
	c := New[string, string](2)

	c.Put("a", "old")
	c.Put("a", "new")

	if v, _ := c.Get("a"); v != "new" {
		t.Fatalf("expected updated value, got %v", v)
	}
	if c.Len() != 1 {
		t.Fatalf("expected len 1, got %d", c.Len())
	}
}

func TestDelete(t *testing.T) {
	c := New[string, string](2)

	c.Put("a", "1")
	if !c.Delete("a") {
		t.Fatal("expected delete to report presence")
	}
	if c.Delete("a") {
		t.Fatal("expected second delete to report absence")
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected 'a' to be gone")
	}
}

func TestNewPanicsOnZeroCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	New[string, string](0)
}

func TestConcurrentAccess(t *testing.T) {
	c := New[string, int](64)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("k%d", j%100)
				c.Put(key, n)
				c.Get(key)
				if j%10 == 0 {
					c.Delete(key)
				}
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > 64 {
		t.Fatalf("cache exceeded capacity: %d", c.Len())
	}
}
