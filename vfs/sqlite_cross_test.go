package vfs

import (
	"database/sql"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// TestFile_AgreesWithRealSQLiteHeader writes a real SQLite database file
// with modernc.org/sqlite, then feeds its first page through this VFS's
// DB write path and checks the negotiated page size matches what SQLite
// itself put in the file header at offset 16. This is the cross-
// validation the page-size negotiation logic depends on: it's only
// useful if it agrees byte-for-byte with a real SQLite implementation.
func TestFile_AgreesWithRealSQLiteHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "real.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if _, err := db.Exec("CREATE TABLE t (a INTEGER, b TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec("INSERT INTO t VALUES (1, 'hello')"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read real db file: %v", err)
	}
	if len(raw) < MinPageSize {
		t.Fatalf("real db file too small: %d bytes", len(raw))
	}

	wantPageSize, ok := dbPageSizeFromHeader(raw)
	if !ok {
		t.Fatal("expected a valid page size field in the real SQLite header")
	}

	r := NewRoot(nil)
	f, err := r.OpenFile("mirror.db", OpenCreate|OpenMainDB)
	if err != nil {
		t.Fatalf("open mirror: %v", err)
	}
	defer f.Close()

	page1 := raw[:wantPageSize]
	if err := f.Write(page1, 0); err != nil {
		t.Fatalf("write mirrored page 1: %v", err)
	}

	if got := f.content.getPageSize(); got != wantPageSize {
		t.Fatalf("negotiated page size = %d, want %d (from real SQLite header)", got, wantPageSize)
	}

	got := make([]byte, wantPageSize)
	if err := f.Read(got, 0); err != nil {
		t.Fatalf("read back mirrored page: %v", err)
	}
	for i := range page1 {
		if got[i] != page1[i] {
			t.Fatalf("mirrored page byte %d mismatch: got %x want %x", i, got[i], page1[i])
		}
	}
}

// sanity check that our big-endian u16 decode agrees with binary.BigEndian
// directly, guarding against a silent endianness regression in
// dbPageSizeFromHeader.
func TestDbPageSizeFromHeader_MatchesBigEndianDecode(t *testing.T) {
	header := make([]byte, 18)
	binary.BigEndian.PutUint16(header[16:18], 4096)
	got, ok := dbPageSizeFromHeader(header)
	if !ok || got != 4096 {
		t.Fatalf("got (%d, %v), want (4096, true)", got, ok)
	}
}
