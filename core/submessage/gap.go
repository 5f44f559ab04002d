package submessage

import (
	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/seqnum"
	"github.com/quartzdds/rtps-core/core/wire"
)

// Gap is the GAP submessage body: all sequences in [GapStart, GapList.Base)
// plus every sequence set in GapList are irrelevant (LOST), per spec.md
// §4.4 and original_source/src/cpp/submessages/GapMsg.hpp.
type Gap struct {
	ReaderID guid.EntityId
	WriterID guid.EntityId
	GapStart seqnum.SequenceNumber
	GapList  seqnum.Set
}

// Flags computes the GAP submessage's flags byte (only the endian bit is
// defined).
func (g Gap) Flags(endian wire.Endian) byte { return endian.FlagBit() }

// Encode writes the GAP submessage body.
func (g Gap) Encode(b *wire.Buffer) error {
	if err := b.WriteEntityId(g.ReaderID); err != nil {
		return err
	}
	if err := b.WriteEntityId(g.WriterID); err != nil {
		return err
	}
	if err := b.WriteSequenceNumber(g.GapStart); err != nil {
		return err
	}
	return b.WriteSequenceNumberSet(g.GapList)
}

// DecodeGap parses a GAP submessage body.
func DecodeGap(b *wire.Buffer) (Gap, error) {
	var g Gap
	var err error
	g.ReaderID, err = b.ReadEntityId()
	if err != nil {
		return g, err
	}
	g.WriterID, err = b.ReadEntityId()
	if err != nil {
		return g, err
	}
	g.GapStart, err = b.ReadSequenceNumber()
	if err != nil {
		return g, err
	}
	g.GapList, err = b.ReadSequenceNumberSet()
	return g, err
}

// Irrelevant invokes fn for every sequence number this GAP marks as
// irrelevant: the contiguous prefix [GapStart, GapList.Base) and every bit
// set in GapList.
func (g Gap) Irrelevant(fn func(seqnum.SequenceNumber)) {
	for sn := g.GapStart; sn < g.GapList.Base; sn++ {
		fn(sn)
	}
	g.GapList.ForEach(fn)
}
