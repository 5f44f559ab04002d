package proxy

import (
	"sort"
	"sync"

	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/locator"
	"github.com/quartzdds/rtps-core/core/seqnum"
)

// WriterChangeStatus is a ChangeFromWriter's reception status.
type WriterChangeStatus int

const (
	WCUnknown WriterChangeStatus = iota
	WCMissing
	WCReceived
	WCLost
)

// ChangeFromWriter is one writer-seen sequence number's reception status
// with respect to a single matched writer, as tracked by a stateful
// reader's WriterProxy.
type ChangeFromWriter struct {
	Seq    seqnum.SequenceNumber
	Status WriterChangeStatus
}

// WriterProxy is a stateful reader's view of one matched remote writer.
type WriterProxy struct {
	mu sync.Mutex

	RemoteGuid        guid.Guid
	UnicastLocators   []locator.Locator
	MulticastLocators []locator.Locator

	changes               map[seqnum.SequenceNumber]*ChangeFromWriter
	lastHeartbeatCount    uint32
	lastAckNackCount      uint32
	irrelevantChangesUpTo seqnum.SequenceNumber
}

// NewWriterProxy constructs an empty proxy for remoteGuid.
func NewWriterProxy(remoteGuid guid.Guid) *WriterProxy {
	return &WriterProxy{
		RemoteGuid: remoteGuid,
		changes:    make(map[seqnum.SequenceNumber]*ChangeFromWriter),
	}
}

// ReceivedChange records a DATA arrival: seq transitions (from whatever it
// was) to RECEIVED.
func (wp *WriterProxy) ReceivedChange(sn seqnum.SequenceNumber) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	wp.changes[sn] = &ChangeFromWriter{Seq: sn, Status: WCReceived}
}

// ApplyHeartbeat processes a HEARTBEAT's (count, firstSN, lastSN),
// returning false if count is stale (<= last_heartbeat_count) per spec.md
// §4.8 and §8's "stale heartbeat ignored" invariant. On success, every seq
// in [firstSN, lastSN] not already tracked becomes MISSING, and
// irrelevant_changes_up_to advances to firstSN-1.
func (wp *WriterProxy) ApplyHeartbeat(count uint32, firstSN, lastSN seqnum.SequenceNumber) bool {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if count <= wp.lastHeartbeatCount && wp.lastHeartbeatCount != 0 {
		return false
	}
	wp.lastHeartbeatCount = count

	for sn := firstSN; sn <= lastSN; sn++ {
		if _, ok := wp.changes[sn]; !ok {
			wp.changes[sn] = &ChangeFromWriter{Seq: sn, Status: WCMissing}
		}
	}
	if firstSN-1 > wp.irrelevantChangesUpTo {
		wp.irrelevantChangesUpTo = firstSN - 1
	}
	return true
}

// ApplyGap marks every sequence in [gapStart, gapListBase) and every
// sequence set in gapList as LOST.
func (wp *WriterProxy) ApplyGap(gapStart seqnum.SequenceNumber, gapList seqnum.Set) {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	for sn := gapStart; sn < gapList.Base; sn++ {
		wp.changes[sn] = &ChangeFromWriter{Seq: sn, Status: WCLost}
	}
	gapList.ForEach(func(sn seqnum.SequenceNumber) {
		wp.changes[sn] = &ChangeFromWriter{Seq: sn, Status: WCLost}
	})
}

// AvailableChangesMax returns the highest sequence number below which no
// change is missing: the largest contiguous run of RECEIVED/LOST starting
// right after irrelevant_changes_up_to.
func (wp *WriterProxy) AvailableChangesMax() seqnum.SequenceNumber {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return wp.availableChangesMaxLocked()
}

func (wp *WriterProxy) availableChangesMaxLocked() seqnum.SequenceNumber {
	max := wp.irrelevantChangesUpTo
	for {
		cfw, ok := wp.changes[max+1]
		if !ok || cfw.Status == WCUnknown || cfw.Status == WCMissing {
			return max
		}
		max++
	}
}

// MissingChanges returns every sequence number currently MISSING, ascending.
func (wp *WriterProxy) MissingChanges() []seqnum.SequenceNumber {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	var missing []seqnum.SequenceNumber
	for sn, cfw := range wp.changes {
		if cfw.Status == WCMissing {
			missing = append(missing, sn)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}

// BuildAckNack assembles the next ACKNACK's (reader_sn_state, count) per
// spec.md §4.8: base = available_changes_max + 1, bits set for every
// MISSING seq in [base, base+256).
func (wp *WriterProxy) BuildAckNack() (seqnum.Set, uint32) {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	base := wp.availableChangesMaxLocked() + 1
	set := seqnum.NewSet(base)
	for sn, cfw := range wp.changes {
		if cfw.Status == WCMissing && sn >= base && sn < base+seqnum.MaxSetBits {
			set.Add(sn)
		}
	}
	wp.lastAckNackCount++
	return set, wp.lastAckNackCount
}

// HasMissing reports whether any change is currently MISSING.
func (wp *WriterProxy) HasMissing() bool {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	for _, cfw := range wp.changes {
		if cfw.Status == WCMissing {
			return true
		}
	}
	return false
}
