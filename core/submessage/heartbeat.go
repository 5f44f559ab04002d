package submessage

import (
	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/seqnum"
	"github.com/quartzdds/rtps-core/core/wire"
)

// Heartbeat submessage flag bits.
const (
	HeartbeatFlagFinal       byte = 1 << 1
	HeartbeatFlagLiveliness  byte = 1 << 2
)

// Heartbeat is the HEARTBEAT submessage body.
type Heartbeat struct {
	ReaderID    guid.EntityId
	WriterID    guid.EntityId
	FirstSN     seqnum.SequenceNumber
	LastSN      seqnum.SequenceNumber
	Count       uint32
	Final       bool
	Liveliness  bool
}

// Flags computes the HEARTBEAT submessage's flags byte.
func (h Heartbeat) Flags(endian wire.Endian) byte {
	flags := endian.FlagBit()
	if h.Final {
		flags |= HeartbeatFlagFinal
	}
	if h.Liveliness {
		flags |= HeartbeatFlagLiveliness
	}
	return flags
}

// Encode writes the HEARTBEAT submessage body.
func (h Heartbeat) Encode(b *wire.Buffer) error {
	if err := b.WriteEntityId(h.ReaderID); err != nil {
		return err
	}
	if err := b.WriteEntityId(h.WriterID); err != nil {
		return err
	}
	if err := b.WriteSequenceNumber(h.FirstSN); err != nil {
		return err
	}
	if err := b.WriteSequenceNumber(h.LastSN); err != nil {
		return err
	}
	return b.WriteInt32(int32(h.Count))
}

// DecodeHeartbeat parses a HEARTBEAT submessage body.
func DecodeHeartbeat(b *wire.Buffer, flags byte) (Heartbeat, error) {
	var h Heartbeat
	var err error
	h.ReaderID, err = b.ReadEntityId()
	if err != nil {
		return h, err
	}
	h.WriterID, err = b.ReadEntityId()
	if err != nil {
		return h, err
	}
	h.FirstSN, err = b.ReadSequenceNumber()
	if err != nil {
		return h, err
	}
	h.LastSN, err = b.ReadSequenceNumber()
	if err != nil {
		return h, err
	}
	count, err := b.ReadInt32()
	if err != nil {
		return h, err
	}
	h.Count = uint32(count)
	h.Final = flags&HeartbeatFlagFinal != 0
	h.Liveliness = flags&HeartbeatFlagLiveliness != 0
	return h, nil
}
