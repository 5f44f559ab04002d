package submessage

import (
	"time"

	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/wire"
)

// InfoTSFlagInvalidate marks the timestamp as invalid; its body is then
// absent entirely.
const InfoTSFlagInvalidate byte = 1 << 1

// InfoTS is the INFO_TS submessage body: an 8-byte Time (RTPS epoch
// seconds + fraction), or nothing at all when Invalidate is set. spec.md
// §9 notes the source's INFO_TS endian flag was hard-coded little-endian
// regardless of message endian; this implementation derives it from the
// submessage's own flags byte like every other submessage, resolving that
// inconsistency per spec.md §9's stated requirement.
type InfoTS struct {
	Seconds    int32
	Fraction   uint32
	Invalidate bool
}

// Time converts the RTPS Time fields into a time.Time (RTPS epoch is the
// Unix epoch).
func (t InfoTS) Time() time.Time {
	frac := time.Duration(float64(t.Fraction) / (1 << 32) * float64(time.Second))
	return time.Unix(int64(t.Seconds), 0).Add(frac)
}

// InfoTSFromTime converts a time.Time into RTPS Time fields.
func InfoTSFromTime(t time.Time) InfoTS {
	sec := t.Unix()
	frac := t.Sub(time.Unix(sec, 0))
	return InfoTS{
		Seconds:  int32(sec),
		Fraction: uint32(float64(frac) / float64(time.Second) * (1 << 32)),
	}
}

// Flags computes the INFO_TS submessage's flags byte.
func (t InfoTS) Flags(endian wire.Endian) byte {
	flags := endian.FlagBit()
	if t.Invalidate {
		flags |= InfoTSFlagInvalidate
	}
	return flags
}

// Encode writes the INFO_TS submessage body; a no-op when Invalidate is
// set (the submessage then carries a zero-length body).
func (t InfoTS) Encode(b *wire.Buffer) error {
	if t.Invalidate {
		return nil
	}
	if err := b.WriteInt32(t.Seconds); err != nil {
		return err
	}
	return b.WriteUint32(t.Fraction)
}

// DecodeInfoTS parses an INFO_TS submessage body.
func DecodeInfoTS(b *wire.Buffer, flags byte) (InfoTS, error) {
	var t InfoTS
	t.Invalidate = flags&InfoTSFlagInvalidate != 0
	if t.Invalidate {
		return t, nil
	}
	var err error
	t.Seconds, err = b.ReadInt32()
	if err != nil {
		return t, err
	}
	t.Fraction, err = b.ReadUint32()
	return t, err
}

// InfoDST is the INFO_DST submessage body: a 12-byte destination GUID
// prefix.
type InfoDST struct {
	GuidPrefix guid.GuidPrefix
}

// Flags computes the INFO_DST submessage's flags byte.
func (d InfoDST) Flags(endian wire.Endian) byte { return endian.FlagBit() }

// Encode writes the INFO_DST submessage body.
func (d InfoDST) Encode(b *wire.Buffer) error { return b.WriteGuidPrefix(d.GuidPrefix) }

// DecodeInfoDST parses an INFO_DST submessage body.
func DecodeInfoDST(b *wire.Buffer) (InfoDST, error) {
	var d InfoDST
	var err error
	d.GuidPrefix, err = b.ReadGuidPrefix()
	return d, err
}

// InfoSRC is the INFO_SRC submessage body: 4 unused bytes, protocol
// version, vendor id, source GUID prefix.
type InfoSRC struct {
	VersionMajor byte
	VersionMinor byte
	VendorID     [2]byte
	GuidPrefix   guid.GuidPrefix
}

// Flags computes the INFO_SRC submessage's flags byte.
func (s InfoSRC) Flags(endian wire.Endian) byte { return endian.FlagBit() }

// Encode writes the INFO_SRC submessage body.
func (s InfoSRC) Encode(b *wire.Buffer) error {
	if err := b.WriteUint32(0); err != nil { // unused
		return err
	}
	if err := b.WriteOctet(s.VersionMajor); err != nil {
		return err
	}
	if err := b.WriteOctet(s.VersionMinor); err != nil {
		return err
	}
	if err := b.WriteOctet(s.VendorID[0]); err != nil {
		return err
	}
	if err := b.WriteOctet(s.VendorID[1]); err != nil {
		return err
	}
	return b.WriteGuidPrefix(s.GuidPrefix)
}

// DecodeInfoSRC parses an INFO_SRC submessage body.
func DecodeInfoSRC(b *wire.Buffer) (InfoSRC, error) {
	var s InfoSRC
	if _, err := b.ReadUint32(); err != nil {
		return s, err
	}
	var err error
	s.VersionMajor, err = b.ReadOctet()
	if err != nil {
		return s, err
	}
	s.VersionMinor, err = b.ReadOctet()
	if err != nil {
		return s, err
	}
	s.VendorID[0], err = b.ReadOctet()
	if err != nil {
		return s, err
	}
	s.VendorID[1], err = b.ReadOctet()
	if err != nil {
		return s, err
	}
	s.GuidPrefix, err = b.ReadGuidPrefix()
	return s, err
}
