// Package history implements the HistoryCache: the bounded, ordered
// container of CacheChanges shared by readers and writers, grounded on
// original_source/include/eprosimartps/HistoryCache.h and
// src/cpp/HistoryCache.cpp. Changes are allocated from a core/pool.Pool so
// the cache never grows the Go heap once warmed up, matching the
// original's CacheChangePool-backed design.
package history

import (
	"sort"
	"sync"

	"github.com/quartzdds/rtps-core/core/change"
	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/pool"
	"github.com/quartzdds/rtps-core/core/rtpserr"
	"github.com/quartzdds/rtps-core/core/seqnum"
)

// entry pairs a pooled change's handle with a cached copy of the fields
// History needs to order and look it up without re-locking the pool.
type entry struct {
	handle  pool.Handle
	writer  guid.Guid
	seq     seqnum.SequenceNumber
}

// History is the bounded, ordered CacheChange container, one per endpoint.
// It is safe for concurrent use.
type History struct {
	mu       sync.Mutex
	pool     *pool.Pool[change.CacheChange]
	entries  []entry
	maxSize  int

	minSeq     seqnum.SequenceNumber
	minWriter  guid.Guid
	maxSeq     seqnum.SequenceNumber
	maxWriter  guid.Guid
	lastAdded  pool.Handle
	dirty      bool
}

// New creates a History bounded to maxSize changes. Payloads are not
// pre-sized (CacheChange.Reset does not pre-allocate).
func New(maxSize int) *History {
	return &History{
		pool:    pool.New[change.CacheChange](maxSize, func(c *change.CacheChange) { c.Reset() }),
		maxSize: maxSize,
	}
}

// IsFull reports whether the history has reached its configured maximum.
func (h *History) IsFull() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxSize > 0 && len(h.entries) >= h.maxSize
}

// Size returns the number of changes currently stored.
func (h *History) Size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// ReserveChange allocates a fresh CacheChange from the pool for the caller
// to populate before AddChange. It returns ErrHistoryFull if the history
// (not just the pool) is already at capacity.
func (h *History) ReserveChange() (pool.Handle, *change.CacheChange, error) {
	h.mu.Lock()
	full := h.maxSize > 0 && len(h.entries) >= h.maxSize
	h.mu.Unlock()
	if full {
		return pool.Handle{}, nil, rtpserr.ErrHistoryFull
	}
	return h.pool.Reserve()
}

// ReleaseChange returns a change's storage to the pool without recording it
// in the history (used to undo a ReserveChange the caller decides not to
// commit via AddChange).
func (h *History) ReleaseChange(hd pool.Handle) error {
	return h.pool.Release(hd)
}

// AddChange commits a previously-reserved, now-populated change into the
// ordered history. It rejects a sequence number already present for that
// writer (ErrDuplicateChange) per spec.md §4.2.
func (h *History) AddChange(hd pool.Handle, c *change.CacheChange) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, e := range h.entries {
		if e.writer == c.WriterGuid && e.seq == c.SequenceNumber {
			return rtpserr.ErrDuplicateChange
		}
	}
	h.entries = append(h.entries, entry{handle: hd, writer: c.WriterGuid, seq: c.SequenceNumber})
	h.sortLocked()
	h.lastAdded = hd
	h.dirty = true
	return nil
}

// sortLocked keeps entries ordered by (writer, sequence number), mirroring
// sortCacheChangesBySeqNum; callers must hold h.mu.
func (h *History) sortLocked() {
	sort.Slice(h.entries, func(i, j int) bool {
		a, b := h.entries[i], h.entries[j]
		if cmp := a.writer.Compare(b.writer); cmp != 0 {
			return cmp < 0
		}
		return a.seq < b.seq
	})
}

// GetChange looks up a change by writer GUID and sequence number.
func (h *History) GetChange(writer guid.Guid, seq seqnum.SequenceNumber) (*change.CacheChange, bool) {
	h.mu.Lock()
	hd, ok := h.findLocked(writer, seq)
	h.mu.Unlock()
	if !ok {
		return nil, false
	}
	return h.pool.Get(hd)
}

func (h *History) findLocked(writer guid.Guid, seq seqnum.SequenceNumber) (pool.Handle, bool) {
	for _, e := range h.entries {
		if e.writer == writer && e.seq == seq {
			return e.handle, true
		}
	}
	return pool.Handle{}, false
}

// GetLastAdded returns the most recently committed change, if any.
func (h *History) GetLastAdded() (*change.CacheChange, bool) {
	h.mu.Lock()
	hd := h.lastAdded
	hasAny := len(h.entries) > 0
	h.mu.Unlock()
	if !hasAny {
		return nil, false
	}
	return h.pool.Get(hd)
}

// RemoveChange removes and releases the change identified by writer/seq.
func (h *History) RemoveChange(writer guid.Guid, seq seqnum.SequenceNumber) error {
	h.mu.Lock()
	idx := -1
	var hd pool.Handle
	for i, e := range h.entries {
		if e.writer == writer && e.seq == seq {
			idx = i
			hd = e.handle
			break
		}
	}
	if idx < 0 {
		h.mu.Unlock()
		return rtpserr.ErrUnknownEndpoint
	}
	h.entries = append(h.entries[:idx], h.entries[idx+1:]...)
	h.dirty = true
	h.mu.Unlock()
	return h.pool.Release(hd)
}

// RemoveAllChanges empties the history, releasing every change back to the
// pool.
func (h *History) RemoveAllChanges() error {
	h.mu.Lock()
	entries := h.entries
	h.entries = nil
	h.dirty = true
	h.mu.Unlock()

	for _, e := range entries {
		if err := h.pool.Release(e.handle); err != nil {
			return err
		}
	}
	return nil
}

// updateMinMaxLocked recomputes the cached min/max sequence number and
// owning writer GUID, mirroring updateMaxMinSeqNum; callers must hold h.mu.
func (h *History) updateMinMaxLocked() {
	if len(h.entries) == 0 {
		h.minSeq, h.maxSeq = seqnum.Unknown, seqnum.Unknown
		h.minWriter, h.maxWriter = guid.Unknown, guid.Unknown
		h.dirty = false
		return
	}
	min, max := h.entries[0], h.entries[0]
	for _, e := range h.entries[1:] {
		if e.seq < min.seq {
			min = e
		}
		if e.seq > max.seq {
			max = e
		}
	}
	h.minSeq, h.minWriter = min.seq, min.writer
	h.maxSeq, h.maxWriter = max.seq, max.writer
	h.dirty = false
}

// SeqNumMin returns the lowest sequence number currently stored and the
// GUID of the writer that produced it.
func (h *History) SeqNumMin() (seqnum.SequenceNumber, guid.Guid, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		return seqnum.Unknown, guid.Unknown, false
	}
	if h.dirty {
		h.updateMinMaxLocked()
	}
	return h.minSeq, h.minWriter, true
}

// SeqNumMax returns the highest sequence number currently stored and the
// GUID of the writer that produced it.
func (h *History) SeqNumMax() (seqnum.SequenceNumber, guid.Guid, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		return seqnum.Unknown, guid.Unknown, false
	}
	if h.dirty {
		h.updateMinMaxLocked()
	}
	return h.maxSeq, h.maxWriter, true
}

// ForEach invokes fn for every change currently stored, in ascending
// (writer, sequence number) order. fn must not call back into History.
func (h *History) ForEach(fn func(*change.CacheChange)) {
	h.mu.Lock()
	handles := make([]pool.Handle, len(h.entries))
	for i, e := range h.entries {
		handles[i] = e.handle
	}
	h.mu.Unlock()

	for _, hd := range handles {
		if c, ok := h.pool.Get(hd); ok {
			fn(c)
		}
	}
}
