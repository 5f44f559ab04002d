// Package change defines CacheChange, the unit record stored by a
// HistoryCache: one sample produced by a writer or received by a reader.
package change

import (
	"time"

	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/seqnum"
)

// Kind enumerates the possible CacheChange kinds.
type Kind int

const (
	Alive Kind = iota
	NotAliveDisposed
	NotAliveUnregistered
	NotAliveDisposedUnregistered
)

// InstanceHandleLength is the size in bytes of an InstanceHandle.
const InstanceHandleLength = 16

// InstanceHandle identifies a keyed topic instance.
type InstanceHandle [InstanceHandleLength]byte

// Encapsulation identifies the CDR flavor and endianness of a
// SerializedPayload.
type Encapsulation uint16

const (
	EncapsulationCDRBE   Encapsulation = 0x0000
	EncapsulationCDRLE   Encapsulation = 0x0001
	EncapsulationPLCDRBE Encapsulation = 0x0002
	EncapsulationPLCDRLE Encapsulation = 0x0003
)

// SerializedPayload is an opaque, already-serialized user sample. The core
// never interprets Data; (de)serialization of application types is a
// TopicDataType-style capability that lives above this core.
type SerializedPayload struct {
	Encapsulation Encapsulation
	Options       uint16
	Data          []byte
}

// CacheChange is one sample produced by a writer or received by a reader.
// It is created by a pool.Pool[CacheChange], populated by the writer (or
// by the wire parser for a reader), lives in exactly one HistoryCache at a
// time, and is released back to the pool on removal.
type CacheChange struct {
	Kind              Kind
	WriterGuid        guid.Guid
	InstanceHandle    InstanceHandle
	SequenceNumber    seqnum.SequenceNumber
	SourceTimestamp   time.Time
	SerializedPayload SerializedPayload
	InlineQos         []byte // encoded ParameterList, nil if absent
}

// Reset zeroes ch in place so it is safe to hand back out by a pool. Per
// spec.md §4.2, release zeroes the sequence number; this zeroes the whole
// record to avoid leaking a stale payload slice.
func (ch *CacheChange) Reset() {
	*ch = CacheChange{}
}
