package vfs

import "testing"

func TestOpenFile_CreateAndReopen(t *testing.T) {
	r := NewRoot(nil)

	f, err := r.OpenFile("test.db", OpenCreate|OpenMainDB)
	if err != nil {
		t.Fatalf("open create: %v", err)
	}
	if !r.Access("test.db") {
		t.Fatal("expected test.db to exist after create")
	}

	f2, err := r.OpenFile("test.db", 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if f.content != f2.content {
		t.Fatal("expected both handles to share one Content")
	}

	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := f2.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestOpenFile_NotFoundWithoutCreate(t *testing.T) {
	r := NewRoot(nil)
	if _, err := r.OpenFile("missing.db", 0); err == nil {
		t.Fatal("expected error opening nonexistent file without OpenCreate")
	}
	if errno, _ := r.GetLastError(); errno != ErrnoENOENT {
		t.Fatalf("expected ENOENT, got %v", errno)
	}
}

func TestOpenFile_ExclusiveRefusesExisting(t *testing.T) {
	r := NewRoot(nil)
	f, err := r.OpenFile("a.db", OpenCreate|OpenMainDB)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	if _, err := r.OpenFile("a.db", OpenCreate|OpenExclusive); err == nil {
		t.Fatal("expected exclusive open of existing file to fail")
	}
}

func TestOpenFile_MaxFilesExceeded(t *testing.T) {
	r := NewRoot(nil)
	for i := 0; i < MaxFiles; i++ {
		name := string(rune('a' + i%26))
		if i >= 26 {
			name = name + string(rune('0'+i/26))
		}
		if _, err := r.OpenFile(name, OpenCreate); err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
	}
	if _, err := r.OpenFile("overflow", OpenCreate); err == nil {
		t.Fatal("expected MaxFiles to be enforced")
	}
}

func TestDelete_RefusesWhileOpen(t *testing.T) {
	r := NewRoot(nil)
	f, err := r.OpenFile("busy.db", OpenCreate)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.Delete("busy.db", true); err == nil {
		t.Fatal("expected delete of open file to fail")
	}
	f.Close()
	if err := r.Delete("busy.db", true); err != nil {
		t.Fatalf("delete after close: %v", err)
	}
}

func TestDelete_NoentReporting(t *testing.T) {
	r := NewRoot(nil)
	if err := r.Delete("nope.db", true); err == nil {
		t.Fatal("expected IOErrDeleteNoent")
	} else if err.Code != IOErrDeleteNoent {
		t.Fatalf("got code %v, want IOErrDeleteNoent", err.Code)
	}
	if err := r.Delete("nope.db", false); err != nil {
		t.Fatalf("delete with mustExist=false should be quiet: %v", err)
	}
}

func TestCurrentTime_AgreesWithCurrentTimeInt64(t *testing.T) {
	r := NewRoot(nil)
	days := r.CurrentTime()
	millis := r.CurrentTimeInt64()

	gotMillis := int64(days * 86400000.0)
	delta := gotMillis - millis
	if delta < -2 || delta > 2 {
		t.Fatalf("CurrentTime and CurrentTimeInt64 disagree: %d vs %d", gotMillis, millis)
	}
}

func TestOpenFile_WALWithoutDBReportsCorrupt(t *testing.T) {
	r := NewRoot(nil)
	if _, err := r.OpenFile("orphan.db-wal", OpenCreate|OpenWAL); err == nil {
		t.Fatal("expected opening a WAL without its db to fail")
	} else if err.Code != Corrupt {
		t.Fatalf("got code %v, want Corrupt", err.Code)
	}
	if r.Access("orphan.db-wal") {
		t.Fatal("orphan wal content should have been rolled back")
	}

	db, err := r.OpenFile("orphan.db", OpenCreate|OpenMainDB)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	wal, err := r.OpenFile("orphan.db-wal", OpenCreate|OpenWAL)
	if err != nil {
		t.Fatalf("open wal after db exists: %v", err)
	}
	defer wal.Close()
}

func TestDlOpen_ReportsNotSupported(t *testing.T) {
	r := NewRoot(nil)
	if h := r.DlOpen("nonexistent.so"); h != 0 {
		t.Fatalf("expected DlOpen to return 0, got %d", h)
	}
	if r.DlError() == "" {
		t.Fatal("expected a non-empty DlError message")
	}
}
