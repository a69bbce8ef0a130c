package vfs

import "testing"

func TestContent_PageGetGrowsByOne(t *testing.T) {
	c := newContent("t.db", ContentDB)
	if err := c.setPageSize(DefaultPageSize); err != nil {
		t.Fatalf("setPageSize: %v", err)
	}

	p1, err := c.pageGet(1)
	if err != nil {
		t.Fatalf("pageGet(1): %v", err)
	}
	if len(p1.buf) != DefaultPageSize {
		t.Fatalf("page buf size = %d, want %d", len(p1.buf), DefaultPageSize)
	}
	if c.pagesLen() != 1 {
		t.Fatalf("pagesLen = %d, want 1", c.pagesLen())
	}

	if _, err := c.pageGet(3); err == nil {
		t.Fatal("expected error requesting page 3 before page 2 exists")
	}

	if _, err := c.pageGet(2); err != nil {
		t.Fatalf("pageGet(2): %v", err)
	}
	if c.pagesLen() != 2 {
		t.Fatalf("pagesLen = %d, want 2", c.pagesLen())
	}
}

func TestContent_PageLookupMissing(t *testing.T) {
	c := newContent("t.db", ContentDB)
	c.setPageSize(DefaultPageSize)
	c.pageGet(1)

	c.mu.Lock()
	p := c.pageLookupLocked(5)
	c.mu.Unlock()
	if p != nil {
		t.Fatal("expected nil for unallocated page")
	}
}

func TestContent_TruncateShrinksOnly(t *testing.T) {
	c := newContent("t.db", ContentDB)
	c.setPageSize(DefaultPageSize)
	c.pageGet(1)
	c.pageGet(2)
	c.pageGet(3)

	if err := c.truncate(1); err != nil {
		t.Fatalf("truncate(1): %v", err)
	}
	if c.pagesLen() != 1 {
		t.Fatalf("pagesLen after truncate = %d, want 1", c.pagesLen())
	}
	if err := c.truncate(5); err == nil {
		t.Fatal("expected error growing via truncate")
	}
}

func TestContent_WALTruncateOnlyToZero(t *testing.T) {
	c := newContent("w-wal", ContentWAL)
	c.setPageSize(DefaultPageSize)
	c.pageGet(1)

	if err := c.truncate(1); err == nil {
		t.Fatal("expected error truncating WAL to nonzero size")
	}
	if err := c.truncate(0); err != nil {
		t.Fatalf("truncate(0): %v", err)
	}
	if c.pagesLen() != 0 {
		t.Fatalf("pagesLen after wal truncate = %d, want 0", c.pagesLen())
	}
	for i, b := range c.walHeader {
		if b != 0 {
			t.Fatalf("wal header byte %d not zeroed after truncate", i)
		}
	}
}

func TestContent_SetPageSizeRejectsChange(t *testing.T) {
	c := newContent("t.db", ContentDB)
	if err := c.setPageSize(4096); err != nil {
		t.Fatalf("setPageSize: %v", err)
	}
	if err := c.setPageSize(4096); err != nil {
		t.Fatalf("re-setting same page size should be fine: %v", err)
	}
	if err := c.setPageSize(8192); err == nil {
		t.Fatal("expected error changing an already-set page size")
	}
}

func TestContent_SetPageSizeRejectsInvalid(t *testing.T) {
	c := newContent("t.db", ContentDB)
	if err := c.setPageSize(100); err == nil {
		t.Fatal("expected error for non-power-of-two page size")
	}
	if err := c.setPageSize(MaxPageSize * 2); err == nil {
		t.Fatal("expected error for page size above MaxPageSize")
	}
}
