// Package guid defines the RTPS entity identity types: GuidPrefix, EntityId
// and the composite Guid.
package guid

import (
	"bytes"
	"fmt"
)

// PrefixLength is the size in bytes of a GuidPrefix.
const PrefixLength = 12

// EntityIdLength is the size in bytes of an EntityId.
const EntityIdLength = 4

// GuidPrefix identifies a participant; shared by all of its entities.
type GuidPrefix [PrefixLength]byte

// EntityKind occupies the low byte of an EntityId.
type EntityKind byte

// Well-known entity kinds (RTPS 2.x table 9.1).
const (
	EntityKindUnknown             EntityKind = 0x00
	EntityKindWriterWithKey       EntityKind = 0x02
	EntityKindWriterNoKey         EntityKind = 0x03
	EntityKindReaderNoKey         EntityKind = 0x04
	EntityKindReaderWithKey       EntityKind = 0x07
	EntityKindWriterWithKeyBI     EntityKind = 0xC2
	EntityKindWriterNoKeyBI       EntityKind = 0xC3
	EntityKindReaderNoKeyBI       EntityKind = 0xC4
	EntityKindReaderWithKeyBI     EntityKind = 0xC7
	EntityKindParticipantBuiltin  EntityKind = 0xC1
)

// EntityId identifies an entity within a participant. The low byte encodes
// the entity kind.
type EntityId [EntityIdLength]byte

// EntityIdUnknown is the all-zero EntityId. As the reader id of an inbound
// DATA, HEARTBEAT or GAP submessage it addresses every local reader;
// ACKNACK dispatch has no such broadcast.
var EntityIdUnknown = EntityId{}

// Kind returns the entity kind encoded in the low byte of the id.
func (e EntityId) Kind() EntityKind { return EntityKind(e[3]) }

// IsWriter reports whether the id's kind is one of the writer kinds.
func (e EntityId) IsWriter() bool {
	switch e.Kind() {
	case EntityKindWriterWithKey, EntityKindWriterNoKey, EntityKindWriterWithKeyBI, EntityKindWriterNoKeyBI:
		return true
	}
	return false
}

// IsReader reports whether the id's kind is one of the reader kinds.
func (e EntityId) IsReader() bool {
	switch e.Kind() {
	case EntityKindReaderWithKey, EntityKindReaderNoKey, EntityKindReaderWithKeyBI, EntityKindReaderNoKeyBI:
		return true
	}
	return false
}

func (e EntityId) String() string {
	return fmt.Sprintf("%02x.%02x.%02x.%02x", e[0], e[1], e[2], e[3])
}

// Guid is a globally-unique endpoint identifier: a participant's GuidPrefix
// plus the entity's EntityId. Guids are value types and totally ordered
// lexicographically.
type Guid struct {
	Prefix   GuidPrefix
	EntityId EntityId
}

// Unknown is the all-zero Guid.
var Unknown Guid

// IsUnknown reports whether g is the all-zero Guid.
func (g Guid) IsUnknown() bool {
	return g == Unknown
}

// Compare returns -1, 0 or 1 ordering g lexicographically against o: prefix
// bytes first, then entity id bytes.
func (g Guid) Compare(o Guid) int {
	if c := bytes.Compare(g.Prefix[:], o.Prefix[:]); c != 0 {
		return c
	}
	return bytes.Compare(g.EntityId[:], o.EntityId[:])
}

// Less reports whether g sorts before o.
func (g Guid) Less(o Guid) bool { return g.Compare(o) < 0 }

func (g Guid) String() string {
	return fmt.Sprintf("%x:%s", g.Prefix[:], g.EntityId)
}

// New composes a Guid from a prefix and an entity id.
func New(prefix GuidPrefix, entity EntityId) Guid {
	return Guid{Prefix: prefix, EntityId: entity}
}
