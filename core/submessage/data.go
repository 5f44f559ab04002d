package submessage

import (
	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/qos"
	"github.com/quartzdds/rtps-core/core/seqnum"
	"github.com/quartzdds/rtps-core/core/wire"
)

// OctetsToInlineQoS is the fixed byte count from just after this field to
// where inline QoS (if present) begins: reader_id(4) + writer_id(4) +
// writer_seq(8) = 16.
const OctetsToInlineQoS uint16 = 16

// Data submessage flag bits.
const (
	DataFlagInlineQoS byte = 1 << 1
	DataFlagData      byte = 1 << 2
	DataFlagKey       byte = 1 << 3
)

// Data is the DATA submessage body (spec.md §4.4): extra_flags,
// octets_to_inline_qos, reader_id, writer_id, writer_seq, then optionally
// inline QoS, then optionally a serialized payload or key.
type Data struct {
	ReaderID       guid.EntityId
	WriterID       guid.EntityId
	WriterSeq      seqnum.SequenceNumber
	InlineQoS      []byte // already-encoded ParameterList, nil if absent
	InlineQoSList  qos.ParameterList
	SerializedData []byte // present iff the Data flag is set
	HasKey         bool   // present iff the Key flag is set (SerializedData holds the key-encoded payload)
}

// Flags computes the DATA submessage's flags byte given the buffer's
// endian and which optional sections are present.
func (d Data) Flags(endian wire.Endian) byte {
	flags := endian.FlagBit()
	if d.InlineQoS != nil {
		flags |= DataFlagInlineQoS
	}
	if d.HasKey {
		flags |= DataFlagKey
	} else if d.SerializedData != nil {
		flags |= DataFlagData
	}
	return flags
}

// Encode writes the DATA submessage body (excluding its submessage
// header) to b. Inline QoS, if present, always precedes the payload, per
// spec.md §4.4's invariant.
func (d Data) Encode(b *wire.Buffer) error {
	if err := b.WriteUint16(0); err != nil { // extra_flags
		return err
	}
	if err := b.WriteUint16(OctetsToInlineQoS); err != nil {
		return err
	}
	if err := b.WriteEntityId(d.ReaderID); err != nil {
		return err
	}
	if err := b.WriteEntityId(d.WriterID); err != nil {
		return err
	}
	if err := b.WriteSequenceNumber(d.WriterSeq); err != nil {
		return err
	}
	if d.InlineQoS != nil {
		if err := b.WriteBytes(d.InlineQoS); err != nil {
			return err
		}
	}
	if d.SerializedData != nil {
		return b.WriteBytes(d.SerializedData)
	}
	return nil
}

// DecodeData parses a DATA submessage body. b must already be positioned
// at the start of the body with its endian set from the submessage flags.
func DecodeData(b *wire.Buffer, flags byte) (Data, error) {
	var d Data
	if _, err := b.ReadUint16(); err != nil { // extra_flags
		return d, err
	}
	octetsToQoS, err := b.ReadUint16()
	if err != nil {
		return d, err
	}
	d.ReaderID, err = b.ReadEntityId()
	if err != nil {
		return d, err
	}
	d.WriterID, err = b.ReadEntityId()
	if err != nil {
		return d, err
	}
	d.WriterSeq, err = b.ReadSequenceNumber()
	if err != nil {
		return d, err
	}
	_ = octetsToQoS

	if flags&DataFlagInlineQoS != 0 {
		start := b.Pos()
		parsed, err := qos.Decode(b, b.Remaining())
		if err != nil {
			return d, err
		}
		d.InlineQoSList = parsed
		d.InlineQoS = b.Slice(start, b.Pos())
	}

	if flags&DataFlagData != 0 || flags&DataFlagKey != 0 {
		d.HasKey = flags&DataFlagKey != 0
		rest, err := b.ReadBytes(b.Remaining())
		if err != nil {
			return d, err
		}
		d.SerializedData = rest
	}

	return d, nil
}
