package wire

import (
	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/locator"
	"github.com/quartzdds/rtps-core/core/rtpserr"
	"github.com/quartzdds/rtps-core/core/seqnum"
)

// WriteGuidPrefix appends a 12-byte GuidPrefix verbatim.
func (b *Buffer) WriteGuidPrefix(p guid.GuidPrefix) error { return b.WriteBytes(p[:]) }

// ReadGuidPrefix reads a 12-byte GuidPrefix.
func (b *Buffer) ReadGuidPrefix() (guid.GuidPrefix, error) {
	var p guid.GuidPrefix
	raw, err := b.ReadBytes(guid.PrefixLength)
	if err != nil {
		return p, err
	}
	copy(p[:], raw)
	return p, nil
}

// WriteEntityId appends a 4-byte EntityId verbatim.
func (b *Buffer) WriteEntityId(id guid.EntityId) error { return b.WriteBytes(id[:]) }

// ReadEntityId reads a 4-byte EntityId.
func (b *Buffer) ReadEntityId() (guid.EntityId, error) {
	var id guid.EntityId
	raw, err := b.ReadBytes(guid.EntityIdLength)
	if err != nil {
		return id, err
	}
	copy(id[:], raw)
	return id, nil
}

// WriteSequenceNumber appends (high int32, low uint32) in the buffer's
// endian, per spec.md §6: "reversed from their logical position".
func (b *Buffer) WriteSequenceNumber(sn seqnum.SequenceNumber) error {
	high, low := sn.Parts()
	if err := b.WriteInt32(high); err != nil {
		return err
	}
	return b.WriteUint32(low)
}

// ReadSequenceNumber reads a SequenceNumber.
func (b *Buffer) ReadSequenceNumber() (seqnum.SequenceNumber, error) {
	high, err := b.ReadInt32()
	if err != nil {
		return 0, err
	}
	low, err := b.ReadUint32()
	if err != nil {
		return 0, err
	}
	return seqnum.FromParts(high, low), nil
}

// WriteSequenceNumberSet appends a SequenceNumberSet: base, numBits, then
// ceil(numBits/32) bitmap words.
func (b *Buffer) WriteSequenceNumberSet(s seqnum.Set) error {
	if s.NumBits() > seqnum.MaxSetBits {
		return rtpserr.ErrSetTooLarge
	}
	if err := b.WriteSequenceNumber(s.Base); err != nil {
		return err
	}
	if err := b.WriteUint32(s.NumBits()); err != nil {
		return err
	}
	for _, w := range s.Bitmap() {
		if err := b.WriteUint32(w); err != nil {
			return err
		}
	}
	return nil
}

// ReadSequenceNumberSet reads a SequenceNumberSet. numBits > 256 is
// rejected per spec.md §8's boundary behavior.
func (b *Buffer) ReadSequenceNumberSet() (seqnum.Set, error) {
	base, err := b.ReadSequenceNumber()
	if err != nil {
		return seqnum.Set{}, err
	}
	numBits, err := b.ReadUint32()
	if err != nil {
		return seqnum.Set{}, err
	}
	if numBits > seqnum.MaxSetBits {
		return seqnum.Set{}, rtpserr.ErrSetTooLarge
	}
	nwords := (int(numBits) + 31) / 32
	words := make([]uint32, nwords)
	for i := range words {
		w, err := b.ReadUint32()
		if err != nil {
			return seqnum.Set{}, err
		}
		words[i] = w
	}
	return seqnum.SetFromBitmap(base, numBits, words), nil
}

// WriteLocator appends a Locator: (kind int32, port uint32, 16-byte
// address).
func (b *Buffer) WriteLocator(l locator.Locator) error {
	if err := b.WriteInt32(int32(l.Kind)); err != nil {
		return err
	}
	if err := b.WriteUint32(l.Port); err != nil {
		return err
	}
	return b.WriteBytes(l.Address[:])
}

// ReadLocator reads a Locator.
func (b *Buffer) ReadLocator() (locator.Locator, error) {
	var l locator.Locator
	kind, err := b.ReadInt32()
	if err != nil {
		return l, err
	}
	l.Kind = locator.Kind(kind)
	port, err := b.ReadUint32()
	if err != nil {
		return l, err
	}
	l.Port = port
	addr, err := b.ReadBytes(16)
	if err != nil {
		return l, err
	}
	copy(l.Address[:], addr)
	return l, nil
}

// WriteString appends a bounded CDR string: uint32 length (including the
// terminating NUL), the bytes, the NUL, then padding to a 4-byte boundary.
func (b *Buffer) WriteString(s string) error {
	n := uint32(len(s) + 1)
	if err := b.WriteUint32(n); err != nil {
		return err
	}
	if err := b.WriteBytes([]byte(s)); err != nil {
		return err
	}
	if err := b.WriteOctet(0); err != nil {
		return err
	}
	return b.AlignWrite(4)
}

// ReadString reads a bounded CDR string written by WriteString.
func (b *Buffer) ReadString() (string, error) {
	n, err := b.ReadUint32()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	raw, err := b.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	if err := b.AlignRead(4); err != nil {
		return "", err
	}
	if len(raw) > 0 && raw[len(raw)-1] == 0 {
		raw = raw[:len(raw)-1]
	}
	return string(raw), nil
}
