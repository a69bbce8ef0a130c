package vfs

import "sync"

// ContentType classifies the role a Content plays, following the filename
// SQLite opened it with.
type ContentType int

const (
	ContentOther ContentType = iota
	ContentDB
	ContentWAL
)

func (t ContentType) String() string {
	switch t {
	case ContentDB:
		return "db"
	case ContentWAL:
		return "wal"
	default:
		return "other"
	}
}

// Content is the per-file state the Root tracks: a typed, page-addressable
// byte store plus whatever metadata its type requires. All mutation of a
// Content's pages, size, and SHM happens without the Root mutex — SQLite
// serializes per-handle operations itself (§5 of the design).
type Content struct {
	mu sync.Mutex

	filename string
	typ      ContentType
	pageSize int // 0 until the first page is written/negotiated
	pages    []*Page

	refcount int

	// walHeader is present only when typ == ContentWAL.
	walHeader []byte

	// shm is lazily allocated on first ShmMap, and only ever set on a
	// ContentDB.
	shm *SHM

	// wal is a non-owning back-link from a DB Content to its paired WAL
	// Content. The Root owns both; this avoids a cyclic ownership
	// relationship (§9 design notes).
	wal *Content

	// db is the reverse of wal: a non-owning back-link from a WAL Content
	// to its paired DB Content, set when both are registered. A WAL
	// Content always has this set once open, since Root.openContent
	// refuses to open a WAL file whose DB isn't already registered.
	db *Content
}

func newContent(filename string, typ ContentType) *Content {
	c := &Content{filename: filename, typ: typ}
	switch typ {
	case ContentWAL:
		c.walHeader = make([]byte, WALHeaderSize)
	case ContentOther:
		// Other files (journals, master-journal pointers) never negotiate
		// a page size the way DB/WAL files do; they just need some fixed
		// chunk size to grow by.
		c.pageSize = DefaultPageSize
	}
	return c
}

// pagesLen returns the number of pages currently stored. Caller must hold c.mu.
func (c *Content) pagesLen() int { return len(c.pages) }

// pageGet returns the page at 1-based index pgno, growing the page array by
// exactly one zeroed page if pgno is the next unallocated slot.
func (c *Content) pageGet(pgno int) (*Page, *Error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageGetLocked(pgno)
}

func (c *Content) pageGetLocked(pgno int) (*Page, *Error) {
	if pgno < 1 || pgno > len(c.pages)+1 {
		return nil, newErr(IOErrWrite, "page number %d out of range (have %d pages)", pgno, len(c.pages))
	}
	if pgno == len(c.pages)+1 {
		if c.pageSize == 0 {
			return nil, newErr(IOErrWrite, "page size not yet negotiated")
		}
		c.pages = append(c.pages, newPage(c.pageSize, c.typ == ContentWAL))
	}
	return c.pages[pgno-1], nil
}

// pageLookupLocked returns the existing page at 1-based index pgno, or nil if it
// has not been allocated yet. Caller must hold c.mu.
func (c *Content) pageLookupLocked(pgno int) *Page {
	if pgno < 1 || pgno > len(c.pages) {
		return nil
	}
	return c.pages[pgno-1]
}

// truncate shrinks the page array to newLen pages. Growing via truncate is
// disallowed. For WAL content, the only legal newLen is 0 (full checkpoint),
// which also zeroes the WAL header.
func (c *Content) truncate(newLen int) *Error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.typ == ContentWAL {
		if newLen != 0 {
			return newErr(Protocol, "WAL truncate only supports size 0, got %d pages", newLen)
		}
		for i := range c.walHeader {
			c.walHeader[i] = 0
		}
		c.pages = nil
		return nil
	}

	if newLen > len(c.pages) {
		return newErr(IOErrTruncate, "cannot grow via truncate: have %d pages, want %d", len(c.pages), newLen)
	}
	c.pages = c.pages[:newLen]
	return nil
}

func (c *Content) setPageSize(n int) *Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pageSize != 0 {
		if c.pageSize != n {
			return newErr(Corrupt, "page size already set to %d, cannot change to %d", c.pageSize, n)
		}
		return nil
	}
	if !isValidPageSize(n) {
		return newErr(Corrupt, "invalid page size %d", n)
	}
	c.pageSize = n
	return nil
}

func (c *Content) getPageSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageSize
}
