package cache

import (
	"testing"
	"time"
)

func TestGetMissOnUnknownKey(t *testing.T) {
	c := New[string](time.Minute)
	if v, ok := c.Get("nope"); ok || v != "" {
		t.Errorf("Get = (%q, %v), want miss", v, ok)
	}
}

func TestSetThenGet(t *testing.T) {
	c := New[int](time.Minute)
	c.Set("k", 42)
	if v, ok := c.Get("k"); !ok || v != 42 {
		t.Errorf("Get = (%d, %v), want (42, true)", v, ok)
	}
}

func TestStaleEntryIsAMiss(t *testing.T) {
	c := New[int](time.Nanosecond)
	c.Set("k", 1)
	time.Sleep(time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("stale entry returned as a hit")
	}
	if c.Len() != 0 {
		t.Errorf("stale entry kept after read, len = %d", c.Len())
	}
}

func TestSetOverwritesRefreshesEntry(t *testing.T) {
	c := New[int](time.Minute)
	c.Set("k", 1)
	c.Set("k", 2)
	if v, _ := c.Get("k"); v != 2 {
		t.Errorf("Get = %d, want 2", v)
	}
	if c.Len() != 1 {
		t.Errorf("len = %d, want 1", c.Len())
	}
}

func TestPurgeDropsOnlyStaleEntries(t *testing.T) {
	c := New[int](time.Minute)
	c.Set("fresh", 1)
	c.Set("old", 2)

	// Pretend an hour passed: everything set above becomes stale.
	removed := c.Purge(time.Now().Add(time.Hour))
	if removed != 2 {
		t.Errorf("Purge removed %d, want 2", removed)
	}
	if c.Len() != 0 {
		t.Errorf("len after purge = %d, want 0", c.Len())
	}

	c.Set("fresh", 3)
	if removed := c.Purge(time.Now()); removed != 0 {
		t.Errorf("Purge removed %d fresh entries, want 0", removed)
	}
	if v, ok := c.Get("fresh"); !ok || v != 3 {
		t.Errorf("fresh entry lost by purge: (%d, %v)", v, ok)
	}
}
