package vfs

import (
	"encoding/binary"
	"strconv"
	"strings"
)

// LockLevel mirrors SQLite's five-level file locking state machine
// (NONE < SHARED < RESERVED < PENDING < EXCLUSIVE). This VFS has no other
// process to contend with, so the levels are tracked but never cause a
// lock acquisition to block or fail.
type LockLevel int

const (
	LockNone LockLevel = iota
	LockShared
	LockReserved
	LockPending
	LockExclusive
)

// File is a single open handle onto a Content. Several Files may reference
// the same Content (e.g. two connections to the same in-memory "database"),
// each with its own lock level and SHM mapping state, matching SQLite's
// sqlite3_file-per-handle model layered over shared file content.
type File struct {
	root          *Root
	content       *Content
	deleteOnClose bool

	lock LockLevel

	// shmMapped records whether this handle has mapped an SHM region;
	// ShmUnmap does nothing for a handle that has not. Close does not
	// touch the SHM.
	shmMapped bool
}

func (r *Root) newFile(c *Content, deleteOnClose bool) *File {
	return &File{root: r, content: c, deleteOnClose: deleteOnClose}
}

// Close releases this handle. If it was opened with delete-on-close and is
// the last reference, the underlying Content is dropped from the Root.
func (f *File) Close() *Error {
	f.root.closeContent(f.content, f.deleteOnClose)
	return nil
}

// Read fills buf from offset, returning IOErrShortRead (matching SQLite's
// convention of zero-filling the tail and reporting short reads distinctly
// from hard errors) when the read runs past the end of stored content.
func (f *File) Read(buf []byte, offset int64) *Error {
	c := f.content
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.typ {
	case ContentDB:
		return f.readDBLocked(buf, offset)
	case ContentWAL:
		return f.readWALLocked(buf, offset)
	default:
		return f.readOtherLocked(buf, offset)
	}
}

func (f *File) readOtherLocked(buf []byte, offset int64) *Error {
	flat := f.content.flattenLocked()
	n := copy(buf, flat[minInt64(offset, int64(len(flat))):])
	if n < len(buf) {
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
		return newErr(IOErrShortRead, "short read at offset %d", offset)
	}
	return nil
}

// flattenLocked concatenates all pages, used only by the ContentOther path
// where callers don't necessarily write page-aligned chunks. Caller must
// hold c.mu.
func (c *Content) flattenLocked() []byte {
	out := make([]byte, 0, len(c.pages)*c.effectivePageSize())
	for _, p := range c.pages {
		out = append(out, p.buf...)
	}
	return out
}

func (c *Content) effectivePageSize() int {
	if c.pageSize != 0 {
		return c.pageSize
	}
	return DefaultPageSize
}

// walPageSizeLocked returns c's page size, adopting it from the paired DB
// Content the first time it's needed, matching root_database_page_size's
// lazy lookup. Caller must hold c.mu and c.typ must be ContentWAL.
func (c *Content) walPageSizeLocked() (int, *Error) {
	if c.pageSize != 0 {
		return c.pageSize, nil
	}
	if c.db == nil {
		return 0, newErr(Corrupt, "wal %q has no paired db content", c.filename)
	}
	c.db.mu.Lock()
	dbPageSize := c.db.pageSize
	c.db.mu.Unlock()
	if dbPageSize == 0 {
		return 0, newErr(IOErrWrite, "wal %q: database page size not yet negotiated", c.filename)
	}
	c.pageSize = dbPageSize
	return dbPageSize, nil
}

func (f *File) readDBLocked(buf []byte, offset int64) *Error {
	c := f.content
	ps := int64(c.effectivePageSize())
	if ps == 0 {
		return newErr(IOErrShortRead, "db read before page size known")
	}
	pgno := int(offset/ps) + 1
	pageOff := int(offset % ps)

	page := c.pageLookupLocked(pgno)
	if page == nil {
		for i := range buf {
			buf[i] = 0
		}
		return newErr(IOErrShortRead, "short read: page %d not allocated", pgno)
	}
	n := copy(buf, page.buf[pageOff:])
	if n < len(buf) {
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
		return newErr(IOErrShortRead, "short read at offset %d", offset)
	}
	return nil
}

func (f *File) readWALLocked(buf []byte, offset int64) *Error {
	c := f.content
	pageSize, perr := c.walPageSizeLocked()
	if perr != nil {
		if len(c.pages) == 0 {
			for i := range buf {
				buf[i] = 0
			}
			return newErr(IOErrShortRead, "short read: wal %q is empty", c.filename)
		}
		return perr
	}

	if offset < WALHeaderSize {
		n := copy(buf, c.walHeader[offset:])
		if n < len(buf) {
			for i := n; i < len(buf); i++ {
				buf[i] = 0
			}
			return newErr(IOErrShortRead, "short read in wal header at %d", offset)
		}
		return nil
	}

	ps := int64(pageSize)
	frameSize := WALFrameHeaderSize + ps
	rel := offset - WALHeaderSize
	frameIdx := int(rel / frameSize)
	localOff := rel % frameSize

	page := c.pageLookupLocked(frameIdx + 1)
	if page == nil {
		for i := range buf {
			buf[i] = 0
		}
		return newErr(IOErrShortRead, "short read: wal frame %d not allocated", frameIdx)
	}

	if localOff < WALFrameHeaderSize {
		n := copy(buf, page.frameHdr[localOff:])
		if n < len(buf) {
			for i := n; i < len(buf); i++ {
				buf[i] = 0
			}
			return newErr(IOErrShortRead, "short read in wal frame header at %d", offset)
		}
		return nil
	}
	bodyOff := int(localOff - WALFrameHeaderSize)
	n := copy(buf, page.buf[bodyOff:])
	if n < len(buf) {
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
		return newErr(IOErrShortRead, "short read in wal frame body at %d", offset)
	}
	return nil
}

// Write stores buf at offset, growing the Content as needed. DB writes
// negotiate the page size from the DB header field at offset 16 the first
// time they see it (§4.3); WAL writes adopt the paired DB's page size and
// reject a WAL header whose field at offset 8 disagrees with it.
func (f *File) Write(buf []byte, offset int64) *Error {
	c := f.content
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.typ {
	case ContentDB:
		return f.writeDBLocked(buf, offset)
	case ContentWAL:
		return f.writeWALLocked(buf, offset)
	default:
		return f.writeOtherLocked(buf, offset)
	}
}

func (f *File) writeOtherLocked(buf []byte, offset int64) *Error {
	c := f.content
	needed := offset + int64(len(buf))
	for int64(len(c.pages))*DefaultPageSize < needed {
		if _, err := c.pageGetLocked(len(c.pages) + 1); err != nil {
			return err
		}
	}
	flat := c.flattenLocked()
	copy(flat[offset:], buf)
	for i, pg := range c.pages {
		copy(pg.buf, flat[i*DefaultPageSize:(i+1)*DefaultPageSize])
	}
	return nil
}

// dbPageSizeFromHeader reads SQLite's big-endian u16 page-size field at
// header offset 16, where the special value 1 means 65536.
func dbPageSizeFromHeader(header []byte) (int, bool) {
	if len(header) < 18 {
		return 0, false
	}
	v := binary.BigEndian.Uint16(header[16:18])
	if v == 0 {
		return 0, false
	}
	if v == 1 {
		return 65536, true
	}
	return int(v), true
}

func (f *File) writeDBLocked(buf []byte, offset int64) *Error {
	c := f.content

	if c.pageSize == 0 && offset == 0 {
		if ps, ok := dbPageSizeFromHeader(buf); ok {
			if err := c.setPageSize(ps); err != nil {
				return err
			}
		}
	}
	if c.pageSize == 0 {
		return newErr(IOErrWrite, "db write before page size known")
	}

	ps := int64(c.pageSize)
	pgno := int(offset/ps) + 1
	pageOff := int(offset % ps)

	page, err := c.pageGetLocked(pgno)
	if err != nil {
		return err
	}
	if pageOff+len(buf) > len(page.buf) {
		return newErr(IOErrWrite, "write at offset %d overruns page %d", offset, pgno)
	}
	copy(page.buf[pageOff:], buf)

	if c.wal != nil {
		c.wal.mu.Lock()
		if c.wal.pageSize == 0 {
			c.wal.pageSize = c.pageSize
		}
		c.wal.mu.Unlock()
	}
	return nil
}

// walPageSizeFromHeader reads dqlite's big-endian u32 page-size field at
// WAL header offset 8.
func walPageSizeFromHeader(header []byte) (int, bool) {
	if len(header) < 12 {
		return 0, false
	}
	v := binary.BigEndian.Uint32(header[8:12])
	if v == 0 {
		return 0, false
	}
	return int(v), true
}

func (f *File) writeWALLocked(buf []byte, offset int64) *Error {
	c := f.content

	pageSize, perr := c.walPageSizeLocked()
	if perr != nil {
		return perr
	}

	if offset < WALHeaderSize {
		end := int(offset) + len(buf)
		if end > len(c.walHeader) {
			return newErr(IOErrWrite, "write at %d overruns wal header", offset)
		}
		if offset == 0 {
			// The page size encoded in the header being written must
			// agree with the database's, matching vfs__write's CORRUPT
			// check: it validates buf itself, before anything is
			// copied into the stored header.
			hdrPageSize, ok := walPageSizeFromHeader(buf)
			if !ok || hdrPageSize != pageSize {
				return newErr(Corrupt, "wal header page size %d does not match database page size %d", hdrPageSize, pageSize)
			}
		}
		copy(c.walHeader[offset:], buf)
		return nil
	}

	ps := int64(pageSize)
	frameSize := WALFrameHeaderSize + ps
	rel := offset - WALHeaderSize
	frameIdx := int(rel / frameSize)
	localOff := rel % frameSize

	page, pageErr := c.pageGetLocked(frameIdx + 1)
	if pageErr != nil {
		return pageErr
	}

	if localOff < WALFrameHeaderSize {
		end := int(localOff) + len(buf)
		if end > len(page.frameHdr) {
			return newErr(IOErrWrite, "write at %d overruns wal frame header", offset)
		}
		copy(page.frameHdr[localOff:], buf)
		return nil
	}
	bodyOff := int(localOff - WALFrameHeaderSize)
	if bodyOff+len(buf) > len(page.buf) {
		return newErr(IOErrWrite, "write at %d overruns wal frame body", offset)
	}
	copy(page.buf[bodyOff:], buf)
	return nil
}

// Truncate shrinks the file to size bytes. Like real SQLite VFSes, this
// never grows a file; callers rely on Write to extend it.
func (f *File) Truncate(size int64) *Error {
	c := f.content
	c.mu.Lock()
	ps := int64(c.effectivePageSize())
	c.mu.Unlock()

	if c.typ == ContentWAL {
		if size != 0 {
			return newErr(Protocol, "wal truncate only supports size 0")
		}
		return c.truncate(0)
	}

	if size%ps != 0 {
		return newErr(IOErrTruncate, "truncate size %d not page-aligned", size)
	}
	return c.truncate(int(size / ps))
}

// Sync is a no-op: there is no stable storage backing this VFS to flush to.
func (f *File) Sync() *Error { return nil }

// FileSize reports the current logical size in bytes.
func (f *File) FileSize() int64 {
	c := f.content
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.typ {
	case ContentWAL:
		if len(c.pages) == 0 {
			return 0
		}
		return int64(WALHeaderSize) + int64(len(c.pages))*int64(WALFrameHeaderSize+c.effectivePageSize())
	default:
		return int64(len(c.pages)) * int64(c.effectivePageSize())
	}
}

// Lock advances this handle's lock level. Since no other process can ever
// contend for this VFS's locks, every transition succeeds.
func (f *File) Lock(level LockLevel) *Error {
	if level > f.lock {
		f.lock = level
	}
	return nil
}

// Unlock drops this handle's lock level to at most level.
func (f *File) Unlock(level LockLevel) *Error {
	if level < f.lock {
		f.lock = level
	}
	return nil
}

// CheckReservedLock reports whether any handle (this one included) holds
// RESERVED or above. A single-process VFS only ever sees its own locks, so
// this degenerates to checking this handle's own level.
func (f *File) CheckReservedLock() bool {
	return f.lock >= LockReserved
}

// SectorSize matches SQLite's default assumption for VFSes with no real
// disk geometry to report.
func (f *File) SectorSize() int { return 4096 }

// DeviceCharacteristics advertises atomic, sequential, safe-append writes:
// true of any in-memory buffer, and it lets SQLite skip some of its
// journal-mode safety work.
func (f *File) DeviceCharacteristics() int {
	const (
		iocapAtomic      = 0x00000001
		iocapSequential  = 0x00000400
		iocapSafeAppend  = 0x00000200
		iocapPowersafeOverwrite = 0x00001000
	)
	return iocapAtomic | iocapSequential | iocapSafeAppend | iocapPowersafeOverwrite
}

// FileControlPragma is the op code for a PRAGMA file-control request,
// matching SQLite's SQLITE_FCNTL_PRAGMA.
const FileControlPragma = 14

// PragmaArgs carries the name/value pair of a PRAGMA file-control request
// in, and an optional human-readable failure message out, mirroring the
// three-element char** SQLite passes to xFileControl for
// SQLITE_FCNTL_PRAGMA (fnctl[1] is the name, fnctl[2] the value, fnctl[0]
// the returned message).
type PragmaArgs struct {
	Name   string
	Value  string
	Result string
}

// FileControl handles SQLite's escape-hatch opcode channel. Only
// SQLITE_FCNTL_PRAGMA is recognized, for the page_size and journal_mode
// PRAGMAs this VFS cares about; every other opcode reports NotFound
// rather than silently pretending to have handled it.
func (f *File) FileControl(op int, arg any) *Error {
	switch op {
	case FileControlPragma:
		p, ok := arg.(*PragmaArgs)
		if !ok {
			return newErr(NotFound, "file control op %d requires *PragmaArgs", op)
		}
		return f.fileControlPragma(p)
	}
	return newErr(NotFound, "file control op %d not supported", op)
}

// fileControlPragma validates or records the page_size and journal_mode
// PRAGMAs, matching vfs__file_control_pragma. It always reports NotFound
// on success so that SQLite continues its own handling of the PRAGMA;
// only a rejected value is reported as a real IOERR, with Result set to
// the human-readable reason.
func (f *File) fileControlPragma(p *PragmaArgs) *Error {
	c := f.content

	switch p.Name {
	case "page_size":
		if p.Value == "" {
			return newErr(NotFound, "pragma page_size: no value given")
		}
		n, convErr := strconv.Atoi(p.Value)
		if convErr != nil || !isValidPageSize(n) {
			// Invalid sizes are simply ignored, matching SQLite's own
			// PRAGMA page_size behavior.
			return newErr(NotFound, "pragma page_size: ignoring invalid value %q", p.Value)
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.pageSize != 0 && c.pageSize != n {
			p.Result = "changing page size is not supported"
			return newErr(IOErrFileControl, p.Result)
		}
		c.pageSize = n
		return newErr(NotFound, "pragma page_size: recorded %d", n)

	case "journal_mode":
		if !strings.EqualFold(p.Value, "wal") {
			p.Result = "only WAL mode is supported"
			return newErr(IOErrFileControl, p.Result)
		}
		return newErr(NotFound, "pragma journal_mode: wal confirmed")
	}

	return newErr(NotFound, "pragma %q not handled", p.Name)
}

// ShmMap returns the SHM region at regionIndex for this handle's Content,
// allocating a fresh SHM and/or region on first use when extend is true.
func (f *File) ShmMap(regionIndex, regionSize int, extend bool) ([]byte, *Error) {
	c := f.content
	c.mu.Lock()
	if c.shm == nil {
		if !extend {
			c.mu.Unlock()
			return nil, nil
		}
		c.shm = newSHM()
	}
	shm := c.shm
	c.mu.Unlock()

	region, _, err := shm.shmMap(regionIndex, regionSize, extend)
	if err != nil {
		return nil, err
	}
	if region != nil {
		f.shmMapped = true
	}
	return region, nil
}

// ShmLock applies a lock/unlock request against this handle's Content's SHM.
func (f *File) ShmLock(offset, n int, flags ShmLockFlag) *Error {
	c := f.content
	c.mu.Lock()
	shm := c.shm
	c.mu.Unlock()
	if shm == nil {
		return newErr(Misuse, "shm lock requested before shm map")
	}
	return shm.shmLock(offset, n, flags)
}

// ShmBarrier issues a memory barrier across this handle's SHM.
func (f *File) ShmBarrier() {
	c := f.content
	c.mu.Lock()
	shm := c.shm
	c.mu.Unlock()
	if shm != nil {
		shm.shmBarrier()
	}
}

// ShmUnmap releases this handle's SHM mapping, discarding the region set
// when delete is true.
func (f *File) ShmUnmap(delete bool) {
	if !f.shmMapped {
		return
	}
	c := f.content
	c.mu.Lock()
	shm := c.shm
	c.mu.Unlock()
	if shm != nil {
		shm.shmUnmap(delete)
	}
	f.shmMapped = false
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
