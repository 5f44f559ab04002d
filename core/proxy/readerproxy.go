// Package proxy holds the per-remote-peer state a stateful endpoint keeps:
// a ReaderProxy (held by a stateful writer, one per matched reader) and a
// WriterProxy (held by a stateful reader, one per matched writer), per
// spec.md §3. Grounded on the state machine described in spec.md §4.7/§4.8;
// there is no corresponding original_source/ file since the teacher and
// pack never modeled RTPS reliability state directly, so this package is
// new code written in the wire/history packages' idiom (pointer receivers
// throughout, a sync.Mutex guarding the map).
package proxy

import (
	"sort"
	"sync"

	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/locator"
	"github.com/quartzdds/rtps-core/core/seqnum"
)

// ChangeStatus is a ChangeForReader's delivery status.
type ChangeStatus int

const (
	Unsent ChangeStatus = iota
	Unacknowledged
	Requested
	Acknowledged
	Underway
)

// ChangeForReader is one writer-history change's delivery status with
// respect to a single matched reader.
type ChangeForReader struct {
	Seq        seqnum.SequenceNumber
	IsRelevant bool
	Status     ChangeStatus
}

// ReaderProxy is a stateful writer's view of one matched remote reader.
type ReaderProxy struct {
	mu sync.Mutex

	RemoteGuid        guid.Guid
	ExpectsInlineQos  bool
	UnicastLocators   []locator.Locator
	MulticastLocators []locator.Locator
	Reliable          bool
	PushMode          bool

	changes map[seqnum.SequenceNumber]*ChangeForReader
}

// NewReaderProxy constructs an empty proxy for remoteGuid.
func NewReaderProxy(remoteGuid guid.Guid, reliable, pushMode bool) *ReaderProxy {
	return &ReaderProxy{
		RemoteGuid: remoteGuid,
		Reliable:   reliable,
		PushMode:   pushMode,
		changes:    make(map[seqnum.SequenceNumber]*ChangeForReader),
	}
}

// SeedHistory seeds changes_for_reader from every change currently in the
// writer's history, per matched_reader_add (spec.md §4.7). relevantFn
// decides dds_is_relevant per change; it is a bool, not a content filter
// capability, since this core does not implement content filtering.
func (rp *ReaderProxy) SeedHistory(seqs []seqnum.SequenceNumber, relevantFn func(seqnum.SequenceNumber) bool) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	for _, sn := range seqs {
		status := Unacknowledged
		if rp.PushMode {
			status = Unsent
		}
		rp.changes[sn] = &ChangeForReader{
			Seq:        sn,
			IsRelevant: relevantFn(sn),
			Status:     status,
		}
	}
}

// AddUnsentChange adds a single newly-written change to this proxy, per
// unsent_change_add.
func (rp *ReaderProxy) AddUnsentChange(sn seqnum.SequenceNumber, isRelevant bool) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	status := Unacknowledged
	if rp.PushMode {
		status = Unsent
	}
	rp.changes[sn] = &ChangeForReader{Seq: sn, IsRelevant: isRelevant, Status: status}
}

// PendingSeqNums returns every sequence number currently UNSENT or
// REQUESTED, sorted ascending, and flips them to UNDERWAY — the send
// driver's collect-and-claim step (spec.md §4.7).
func (rp *ReaderProxy) PendingSeqNums() []seqnum.SequenceNumber {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	var pending []seqnum.SequenceNumber
	for sn, cfr := range rp.changes {
		if cfr.Status == Unsent || cfr.Status == Requested {
			pending = append(pending, sn)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i] < pending[j] })
	for _, sn := range pending {
		rp.changes[sn].Status = Underway
	}
	return pending
}

// IsRelevant reports a pending change's relevance (true if unknown — a
// stale handle is presumed relevant so callers don't silently drop data).
func (rp *ReaderProxy) IsRelevant(sn seqnum.SequenceNumber) bool {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	if cfr, ok := rp.changes[sn]; ok {
		return cfr.IsRelevant
	}
	return true
}

// ApplyAckNack processes an ACKNACK's (reader_sn_state.base, bitmap) pair:
// bits set mark REQUESTED, otherwise an already-seen-and-not-acknowledged
// seq in range becomes ACKNOWLEDGED (spec.md §4.7).
func (rp *ReaderProxy) ApplyAckNack(set seqnum.Set) {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	for _, cfr := range rp.changes {
		if set.Contains(cfr.Seq) {
			cfr.Status = Requested
		} else if cfr.Status != Acknowledged {
			cfr.Status = Acknowledged
		}
	}
}

// MarkRequestedHole records sn as REQUESTED-but-irrelevant if this proxy
// has no existing entry for it. It is how the writer's send driver folds a
// NACK for a sequence number it never wrote — a hole in its own history —
// into the same REQUESTED bucket PendingSeqNums drains, so it gets batched
// into a GAP instead of being silently ignored (spec.md §8 scenario 3). A
// sequence number the proxy already tracks is left untouched: ApplyAckNack
// already gave it the correct status.
func (rp *ReaderProxy) MarkRequestedHole(sn seqnum.SequenceNumber) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	if _, ok := rp.changes[sn]; ok {
		return
	}
	rp.changes[sn] = &ChangeForReader{Seq: sn, IsRelevant: false, Status: Requested}
}

// HasPending reports whether this proxy has any change not yet
// ACKNOWLEDGED — used to decide a HEARTBEAT's final flag (spec.md §4.7: set
// when no outstanding unacked changes exist and the reader is not behind).
func (rp *ReaderProxy) HasPending() bool {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	for _, cfr := range rp.changes {
		if cfr.Status != Acknowledged {
			return true
		}
	}
	return false
}

// IsAckedByAll reports whether sn is irrelevant to this proxy or has been
// acknowledged by it.
func (rp *ReaderProxy) IsAckedByAll(sn seqnum.SequenceNumber) bool {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	cfr, ok := rp.changes[sn]
	if !ok {
		return true
	}
	return !cfr.IsRelevant || cfr.Status == Acknowledged
}

// Forget drops a change's bookkeeping once garbage-collectable (terminal
// ACKNOWLEDGED status); the change itself is not touched, it lives in
// history until every proxy has acknowledged it.
func (rp *ReaderProxy) Forget(sn seqnum.SequenceNumber) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	delete(rp.changes, sn)
}

// Count returns the number of change-for-reader entries currently tracked.
func (rp *ReaderProxy) Count() int {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	return len(rp.changes)
}
