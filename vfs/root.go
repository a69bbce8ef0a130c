package vfs

import (
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// OpenFlag mirrors the subset of SQLite's xOpen flags this VFS cares about.
type OpenFlag int

const (
	OpenCreate OpenFlag = 1 << iota
	OpenExclusive
	OpenDelete // delete-on-close: delete the Content when its last handle closes
	OpenMainDB
	OpenMainJournal
	OpenWAL
)

// Root is the process-wide VFS registry: every Content currently
// registered with this VFS lives here, keyed by filename, capped at
// MaxFiles entries the way dqlite's vfs__root fixes an array of MAX_FILES
// slots instead of growing without bound.
type Root struct {
	mu sync.Mutex

	contents map[string]*Content

	// lastErrno and lastMessage mirror what xGetLastError reports: the
	// most recent errno-bearing failure observed by this Root.
	lastErrno   Errno
	lastMessage string

	logger *log.Logger

	rng *rand.Rand
}

// NewRoot builds an empty Root. A nil logger defaults to log.Default().
func NewRoot(logger *log.Logger) *Root {
	if logger == nil {
		logger = log.Default()
	}
	return &Root{
		contents: make(map[string]*Content),
		logger:   logger,
		rng:      rand.New(rand.NewSource(1)),
	}
}

func (r *Root) logf(format string, args ...any) {
	r.logger.Printf(format, args...)
}

// Stats summarizes a Root's registry at a point in time, the numbers a
// maintenance sweep logs to show the VFS isn't quietly accumulating
// unreferenced Content entries.
type Stats struct {
	OpenFiles   int
	TotalPages  int
	RefcountSum int
}

// Stats computes a snapshot of the registry's current size.
func (r *Root) Stats() Stats {
	r.mu.Lock()
	contents := make([]*Content, 0, len(r.contents))
	for _, c := range r.contents {
		contents = append(contents, c)
	}
	r.mu.Unlock()

	var s Stats
	s.OpenFiles = len(contents)
	for _, c := range contents {
		c.mu.Lock()
		s.TotalPages += len(c.pages)
		s.RefcountSum += c.refcount
		c.mu.Unlock()
	}
	return s
}

func (r *Root) recordError(err *Error) *Error {
	if err == nil {
		return nil
	}
	if err.Errno != ErrnoNone {
		r.lastErrno = err.Errno
		r.lastMessage = err.Message
	}
	return err
}

// contentTypeForFlags infers the Content role from the open flags, the way
// dqlite's VfsOpen switches on SQLITE_OPEN_MAIN_DB / SQLITE_OPEN_WAL.
func contentTypeForFlags(flags OpenFlag) ContentType {
	switch {
	case flags&OpenWAL != 0:
		return ContentWAL
	case flags&OpenMainDB != 0:
		return ContentDB
	default:
		return ContentOther
	}
}

// OpenFile returns a new File handle onto filename, creating the backing
// Content if flags&OpenCreate is set and it doesn't exist yet. An empty
// filename requests an anonymous temp file, named with a random identifier
// the way SQLite's xOpen does when given a NULL zName.
func (r *Root) OpenFile(filename string, flags OpenFlag) (*File, *Error) {
	c, err := r.openContent(filename, flags)
	if err != nil {
		return nil, err
	}
	return r.newFile(c, flags&OpenDelete != 0), nil
}

// openContent returns the Content for filename, creating it if
// flags&OpenCreate is set and it doesn't exist yet.
func (r *Root) openContent(filename string, flags OpenFlag) (*Content, *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if filename == "" {
		filename = r.tempName()
	}
	if len(filename) > MaxPathname {
		return nil, r.recordError(newErrno(CantOpen, ErrnoENFILE, "filename %q exceeds MaxPathname", filename))
	}

	c, existed := r.contents[filename]
	created := false
	if !existed {
		if flags&OpenCreate == 0 {
			return nil, r.recordError(newErrno(CantOpen, ErrnoENOENT, "no such file: %s", filename))
		}
		if len(r.contents) >= MaxFiles {
			return nil, r.recordError(newErrno(CantOpen, ErrnoENFILE, "too many open files (max %d)", MaxFiles))
		}
		c = newContent(filename, contentTypeForFlags(flags))
		r.contents[filename] = c
		created = true
	} else if flags&OpenExclusive != 0 && flags&OpenCreate != 0 {
		return nil, r.recordError(newErrno(CantOpen, ErrnoEEXIST, "file exists: %s", filename))
	}

	if c.typ == ContentDB {
		walName := filename + "-wal"
		if wal, ok := r.contents[walName]; ok {
			c.wal = wal
			wal.db = c
		}
	} else if c.typ == ContentWAL {
		// A WAL file's database must already be registered (§4.1):
		// there is nothing to adopt a page size from otherwise.
		dbName := strings.TrimSuffix(filename, "-wal")
		db, ok := r.contents[dbName]
		if !ok {
			if created {
				delete(r.contents, filename)
			}
			return nil, r.recordError(newErr(Corrupt, "wal %q opened without its database %q", filename, dbName))
		}
		c.db = db
		db.wal = c
	}

	c.refcount++
	return c, nil
}

// closeContent drops a handle's reference. When the last reference goes
// away and deleteOnClose is set, the Content is removed from the registry.
func (r *Root) closeContent(c *Content, deleteOnClose bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c.refcount--
	if c.refcount <= 0 && deleteOnClose {
		delete(r.contents, c.filename)
	}
}

// Delete removes filename from the registry. mustExist mirrors SQLite's
// sqlite3_vfs.xDelete dirSync/noent distinction: if the file isn't present
// and mustExist is true, IOErrDeleteNoent is returned.
func (r *Root) Delete(filename string, mustExist bool) *Error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.contents[filename]
	if !ok {
		if mustExist {
			return r.recordError(newErrno(IOErrDeleteNoent, ErrnoENOENT, "no such file: %s", filename))
		}
		return nil
	}
	if c.refcount > 0 {
		return r.recordError(newErr(IOErrDelete, "file still open: %s", filename))
	}
	delete(r.contents, filename)
	return nil
}

// Access reports whether filename exists in the registry. SQLite's
// xAccess also asks about writability and read-only-ness; since every
// entry here is an in-memory, always-writable buffer, both collapse to
// existence.
func (r *Root) Access(filename string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.contents[filename]
	return ok
}

// FullPathname returns filename unchanged: this VFS has no working
// directory or symlink resolution to apply, since nothing here touches a
// real filesystem.
func (r *Root) FullPathname(filename string) (string, *Error) {
	if len(filename) > MaxPathname {
		return "", newErr(CantOpen, "filename %q exceeds MaxPathname", filename)
	}
	return filename, nil
}

// GetLastError reports the most recent errno-bearing failure this Root
// observed, the way xGetLastError writes into the caller's buffer.
func (r *Root) GetLastError() (Errno, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErrno, r.lastMessage
}

func (r *Root) tempName() string {
	buf := make([]byte, 16)
	r.rng.Read(buf)
	const hex = "0123456789abcdef"
	name := make([]byte, 0, len(buf)*2+5)
	name = append(name, "temp-"...)
	for _, b := range buf {
		name = append(name, hex[b>>4], hex[b&0x0f])
	}
	return string(name)
}

// Randomness fills buf with pseudo-random bytes, matching xRandomness.
// This VFS is not a source of cryptographic entropy; it exists so SQLite
// can seed its own PRNGs deterministically under test.
func (r *Root) Randomness(buf []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return must(r.rng.Read(buf))
}

func must(n int, err error) int {
	if err != nil {
		panic(err)
	}
	return n
}

// Sleep blocks for at least d, matching xSleep's contract of rounding up
// to the VFS's own sleep granularity. This VFS has no coarser granularity
// to round to, so it sleeps exactly d.
func (r *Root) Sleep(d time.Duration) time.Duration {
	time.Sleep(d)
	return d
}

// julianDayMillis converts t to SQLite's Julian-day-in-milliseconds epoch,
// the value both xCurrentTime and xCurrentTimeInt64 are derived from.
func julianDayMillis(t time.Time) int64 {
	const unixEpochJulianDayMillis = 210866760000000
	return unixEpochJulianDayMillis + t.UnixMilli()
}

// CurrentTime returns the current time as a Julian day number (days since
// noon UTC on 24 Nov 4714 BC), matching xCurrentTime's float64 contract.
func (r *Root) CurrentTime() float64 {
	return float64(julianDayMillis(time.Now())) / 86400000.0
}

// CurrentTimeInt64 returns the same instant as Julian-day milliseconds,
// matching xCurrentTimeInt64. Both entry points share julianDayMillis so
// they can never disagree on the underlying instant.
func (r *Root) CurrentTimeInt64() int64 {
	return julianDayMillis(time.Now())
}

// DlOpen, DlError, DlSym, and DlClose stand in for loadable-extension
// support, which this VFS does not have: DlOpen and DlSym log a "not
// supported" message and return 0, DlError returns a fixed "not
// supported" message, and DlClose does nothing.
func (r *Root) DlOpen(filename string) uintptr {
	r.logf("vfs: DlOpen(%s): loadable extensions not supported", filename)
	return 0
}

func (r *Root) DlError() string {
	return "loadable extensions are not supported by this VFS"
}

func (r *Root) DlSym(handle uintptr, symbol string) uintptr {
	r.logf("vfs: DlSym(%s): loadable extensions not supported", symbol)
	return 0
}

func (r *Root) DlClose(handle uintptr) {}
