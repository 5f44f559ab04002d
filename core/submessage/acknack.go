package submessage

import (
	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/seqnum"
	"github.com/quartzdds/rtps-core/core/wire"
)

// AckNackFlagFinal marks an ACKNACK as not requiring a response unless the
// reader is missing something.
const AckNackFlagFinal byte = 1 << 1

// AckNack is the ACKNACK submessage body.
type AckNack struct {
	ReaderID     guid.EntityId
	WriterID     guid.EntityId
	ReaderSNState seqnum.Set
	Count        uint32
	Final        bool
}

// Flags computes the ACKNACK submessage's flags byte.
func (a AckNack) Flags(endian wire.Endian) byte {
	flags := endian.FlagBit()
	if a.Final {
		flags |= AckNackFlagFinal
	}
	return flags
}

// Encode writes the ACKNACK submessage body.
func (a AckNack) Encode(b *wire.Buffer) error {
	if err := b.WriteEntityId(a.ReaderID); err != nil {
		return err
	}
	if err := b.WriteEntityId(a.WriterID); err != nil {
		return err
	}
	if err := b.WriteSequenceNumberSet(a.ReaderSNState); err != nil {
		return err
	}
	return b.WriteInt32(int32(a.Count))
}

// DecodeAckNack parses an ACKNACK submessage body.
func DecodeAckNack(b *wire.Buffer, flags byte) (AckNack, error) {
	var a AckNack
	var err error
	a.ReaderID, err = b.ReadEntityId()
	if err != nil {
		return a, err
	}
	a.WriterID, err = b.ReadEntityId()
	if err != nil {
		return a, err
	}
	a.ReaderSNState, err = b.ReadSequenceNumberSet()
	if err != nil {
		return a, err
	}
	count, err := b.ReadInt32()
	if err != nil {
		return a, err
	}
	a.Count = uint32(count)
	a.Final = flags&AckNackFlagFinal != 0
	return a, nil
}
