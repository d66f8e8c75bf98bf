package resolver

import "testing"

func TestMemoCache_Eviction(t *testing.T) {
	c := newMemoCache(2)

	c.put("a", 0, "Title A")
	c.put("b", 0, "Title B")
	c.put("c", 0, "Title C") // evicts "a"

	if _, ok := c.get("a", 0); ok {
		t.Error("oldest entry survived eviction")
	}
	if title, ok := c.get("b", 0); !ok || title != "Title B" {
		t.Errorf("get(b) = %q, %v; want Title B, true", title, ok)
	}
	if title, ok := c.get("c", 0); !ok || title != "Title C" {
		t.Errorf("get(c) = %q, %v; want Title C, true", title, ok)
	}
}

func TestMemoCache_YearIsPartOfKey(t *testing.T) {
	c := newMemoCache(10)

	c.put("show", 2005, "Show (2005) {id-1}")
	c.put("show", 2001, "Show (2001) {id-2}")

	if title, _ := c.get("show", 2005); title != "Show (2005) {id-1}" {
		t.Errorf("get(show, 2005) = %q", title)
	}
	if title, _ := c.get("show", 2001); title != "Show (2001) {id-2}" {
		t.Errorf("get(show, 2001) = %q", title)
	}
	if _, ok := c.get("show", 0); ok {
		t.Error("yearless key unexpectedly present")
	}
}

func TestMemoCache_OverwriteDoesNotGrow(t *testing.T) {
	c := newMemoCache(2)

	c.put("a", 0, "first")
	c.put("a", 0, "second")
	c.put("b", 0, "Title B")

	if title, _ := c.get("a", 0); title != "second" {
		t.Errorf("get(a) = %q, want second", title)
	}
	if len(c.order) != 2 {
		t.Errorf("order length = %d, want 2", len(c.order))
	}
}
