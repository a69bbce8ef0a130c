package vfs

import "sync"

// ShmLockFlag mirrors the SQLite xShmLock flag bits: callers combine exactly
// one of LOCK/UNLOCK with exactly one of SHARED/EXCLUSIVE.
type ShmLockFlag int

const (
	ShmUnlock ShmLockFlag = 1 << iota
	ShmLock
	ShmShared
	ShmExclusive
)

// ShmRegionSize is the region size SQLite's own WAL-index implementation
// conventionally requests, and the default this module's own callers use.
// shmMap itself does not enforce any particular size — the region size is
// whatever the caller requests on first extend.
const ShmRegionSize = 32 * 1024

// SHM emulates SQLite's shared-memory WAL-index: a set of regions, each
// sized by the call that allocated it, plus NLock shared/exclusive counters. It tolerates "release without
// acquire" the way dqlite's VfsShmLock does, since a crashed connection
// never gets to unwind its own locks.
type SHM struct {
	mu sync.Mutex

	regions [][]byte

	// shared[i] counts outstanding shared holders of lock slot i.
	// exclusive[i] is true if lock slot i is held exclusively.
	shared    [NLock]int
	exclusive [NLock]bool

	refcount int
}

func newSHM() *SHM {
	return &SHM{}
}

// shmMap returns the region at index regionIndex, allocating it at
// regionSize if extend is true and the region doesn't exist yet. Regions
// must be grown one at a time: an extend with regionIndex past the current
// region count is rejected rather than silently backfilled. It reports via
// the second return whether the region existed before this call.
func (s *SHM) shmMap(regionIndex int, regionSize int, extend bool) ([]byte, bool, *Error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if regionIndex < len(s.regions) {
		return s.regions[regionIndex], true, nil
	}
	if !extend {
		return nil, false, nil
	}
	if regionIndex != len(s.regions) {
		return nil, false, newErr(Misuse, "shm region %d requested before region %d was mapped", regionIndex, len(s.regions))
	}
	region := make([]byte, regionSize)
	s.regions = append(s.regions, region)
	return region, false, nil
}

// shmLock applies a lock/unlock request over the half-open slot range
// [offset, offset+n). It follows SQLite's WAL-index locking rules: a shared
// request succeeds unless any slot in range is held exclusively; an
// exclusive request succeeds only if no slot in range has any holder, shared
// or exclusive. Unlock always succeeds.
func (s *SHM) shmLock(offset, n int, flags ShmLockFlag) *Error {
	if offset < 0 || n <= 0 || offset+n > NLock {
		return newErr(Misuse, "shm lock range [%d,%d) out of bounds", offset, offset+n)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case flags&ShmUnlock != 0 && flags&ShmShared != 0:
		for i := offset; i < offset+n; i++ {
			if s.shared[i] > 0 {
				s.shared[i]--
			}
		}
		return nil

	case flags&ShmUnlock != 0 && flags&ShmExclusive != 0:
		for i := offset; i < offset+n; i++ {
			s.exclusive[i] = false
		}
		return nil

	case flags&ShmLock != 0 && flags&ShmShared != 0:
		for i := offset; i < offset+n; i++ {
			if s.exclusive[i] {
				return newErr(Busy, "shm slot %d held exclusively", i)
			}
		}
		for i := offset; i < offset+n; i++ {
			s.shared[i]++
		}
		return nil

	case flags&ShmLock != 0 && flags&ShmExclusive != 0:
		for i := offset; i < offset+n; i++ {
			if s.exclusive[i] || s.shared[i] > 0 {
				return newErr(Busy, "shm slot %d already held", i)
			}
		}
		for i := offset; i < offset+n; i++ {
			s.exclusive[i] = true
		}
		return nil

	default:
		return newErr(Misuse, "invalid shm lock flags %d", flags)
	}
}

// shmBarrier is a no-op here: every SHM access already goes through s.mu,
// so there is no weaker memory ordering to fence against.
func (s *SHM) shmBarrier() {
	s.mu.Lock()
	//lint:ignore SA2001 the lock/unlock pair itself is the barrier
	s.mu.Unlock()
}

// shmUnmap discards the regions and resets every lock counter when delete
// is true (the last connection closing its DB file); otherwise it does
// nothing.
func (s *SHM) shmUnmap(delete bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if delete {
		s.regions = nil
		s.shared = [NLock]int{}
		s.exclusive = [NLock]bool{}
	}
}
