// Package submessage implements the RTPS submessage codec: the 20-byte
// message header, the 4-byte submessage header shared by every
// submessage, and the seven submessage bodies the core core emits and
// parses (DATA, GAP, HEARTBEAT, ACKNACK, INFO_TS, INFO_DST, INFO_SRC).
// Grounded on original_source/src/cpp/RTPSMessageCreator.cpp and the
// submessages/*.hpp files.
package submessage

import (
	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/rtpserr"
	"github.com/quartzdds/rtps-core/core/wire"
)

// ID identifies a submessage's kind.
type ID byte

const (
	IDPad       ID = 0x01
	IDAckNack   ID = 0x06
	IDHeartbeat ID = 0x07
	IDGap       ID = 0x08
	IDInfoTS    ID = 0x09
	IDInfoSrc   ID = 0x0C
	IDInfoDst   ID = 0x0E
	IDData      ID = 0x15
)

// HeaderSize is the size in bytes of the fixed RTPS message header.
const HeaderSize = 20

// SubmessageHeaderSize is the size in bytes of a submessage header.
const SubmessageHeaderSize = 4

// MaxMessageSize is RTPSMESSAGE_MAX_SIZE: datagrams larger than this are
// rejected on send, per spec.md §8.
const MaxMessageSize = 65536

// ProtocolMajor/ProtocolMinor are the default RTPS protocol version this
// core speaks.
const (
	ProtocolMajor byte = 2
	ProtocolMinor byte = 1
)

// Header is the fixed 20-byte RTPS message header: "RTPS", version,
// vendor id, guid prefix.
type Header struct {
	VersionMajor byte
	VersionMinor byte
	VendorID     [2]byte
	GuidPrefix   guid.GuidPrefix
}

// Encode writes the header to b.
func (h Header) Encode(b *wire.Buffer) error {
	for _, c := range []byte("RTPS") {
		if err := b.WriteOctet(c); err != nil {
			return err
		}
	}
	if err := b.WriteOctet(h.VersionMajor); err != nil {
		return err
	}
	if err := b.WriteOctet(h.VersionMinor); err != nil {
		return err
	}
	if err := b.WriteOctet(h.VendorID[0]); err != nil {
		return err
	}
	if err := b.WriteOctet(h.VendorID[1]); err != nil {
		return err
	}
	return b.WriteGuidPrefix(h.GuidPrefix)
}

// DecodeHeader parses the fixed RTPS message header, rejecting a missing
// magic or an unsupported protocol major version.
func DecodeHeader(b *wire.Buffer) (Header, error) {
	var h Header
	magic, err := b.ReadBytes(4)
	if err != nil {
		return h, err
	}
	if string(magic) != "RTPS" {
		return h, rtpserr.ErrInvalidMessage
	}
	h.VersionMajor, err = b.ReadOctet()
	if err != nil {
		return h, err
	}
	h.VersionMinor, err = b.ReadOctet()
	if err != nil {
		return h, err
	}
	if h.VersionMajor != ProtocolMajor {
		return h, rtpserr.ErrInvalidMessage
	}
	h.VendorID[0], err = b.ReadOctet()
	if err != nil {
		return h, err
	}
	h.VendorID[1], err = b.ReadOctet()
	if err != nil {
		return h, err
	}
	h.GuidPrefix, err = b.ReadGuidPrefix()
	return h, err
}

// SubHeader is a submessage's 4-byte header: id, flags, length. Bit 0 of
// flags is the endian flag; length 0 means "to end of datagram" and is
// only legal on the last submessage.
type SubHeader struct {
	ID     ID
	Flags  byte
	Length uint16
}

// Endian extracts the endian this submessage body was/should be
// (en|de)coded in.
func (h SubHeader) Endian() wire.Endian { return wire.EndianFromFlags(h.Flags) }

// Encode writes the submessage header, with the length in the endian named
// by Flags; b's own endian is left unchanged.
func (h SubHeader) Encode(b *wire.Buffer) error {
	if err := b.WriteOctet(byte(h.ID)); err != nil {
		return err
	}
	if err := b.WriteOctet(h.Flags); err != nil {
		return err
	}
	prev := b.Endian()
	b.SetEndian(h.Endian())
	defer b.SetEndian(prev)
	return b.WriteUint16(h.Length)
}

// DecodeSubHeader reads a submessage header. The length is read in the
// endian named by the flags byte, and b is left set to that endian.
func DecodeSubHeader(b *wire.Buffer) (SubHeader, error) {
	var h SubHeader
	id, err := b.ReadOctet()
	if err != nil {
		return h, err
	}
	h.ID = ID(id)
	h.Flags, err = b.ReadOctet()
	if err != nil {
		return h, err
	}
	b.SetEndian(h.Endian())
	h.Length, err = b.ReadUint16()
	return h, err
}

// Raw is one parsed-but-not-yet-interpreted submessage: its header plus a
// view of its body bytes (no copy). Per spec.md §4.9, a payload view must
// be copied out before the receive buffer is released.
type Raw struct {
	Header SubHeader
	Body   []byte
}

// Builder assembles a full RTPS message (header + submessage chain) into a
// caller-supplied wire.Buffer, refusing to exceed MaxMessageSize. Senders
// build each submessage body into a scratch buffer first (a fresh
// wire.Buffer per body; scratch buffers are not pooled), then call AppendSubmessage to prepend the 4-byte submessage header and
// splice it into the message buffer — this mirrors
// RTPSMessageCreator::addSubmessageHeader + CDRMessage::appendMsg.
type Builder struct {
	buf *wire.Buffer
}

// NewBuilder starts a fresh message with the given RTPS header already
// written.
func NewBuilder(buf *wire.Buffer, h Header) (*Builder, error) {
	buf.Reset()
	if err := h.Encode(buf); err != nil {
		return nil, err
	}
	return &Builder{buf: buf}, nil
}

// Len returns the number of bytes committed to the message so far.
func (mb *Builder) Len() int { return mb.buf.Length() }

// WouldOverflow reports whether appending a submessage of bodyLen bytes
// would push the message past MaxMessageSize.
func (mb *Builder) WouldOverflow(bodyLen int) bool {
	return mb.Len()+SubmessageHeaderSize+bodyLen > MaxMessageSize
}

// AppendSubmessage writes a submessage header for id/flags/body, followed
// by body itself, onto the message buffer.
func (mb *Builder) AppendSubmessage(id ID, flags byte, body []byte) error {
	if mb.WouldOverflow(len(body)) {
		return rtpserr.ErrMessageTooLarge
	}
	sh := SubHeader{ID: id, Flags: flags, Length: uint16(len(body))}
	if err := sh.Encode(mb.buf); err != nil {
		return err
	}
	return mb.buf.WriteBytes(body)
}

// Bytes returns the assembled message.
func (mb *Builder) Bytes() []byte { return mb.buf.Bytes() }

// ParseMessage splits an inbound datagram into its RTPS header and the raw
// submessage chain. Submessage parsing never allocates beyond the slice
// headers returned; Body views alias buf. A submessage with Length==0 runs
// to the end of the datagram and must be the last one; anything declaring
// a non-zero length that overruns the datagram truncates the chain at the
// last good submessage (spec.md §7's "parse failure mid-datagram" policy)
// rather than returning an error for the whole datagram.
func ParseMessage(datagram []byte) (Header, []Raw, error) {
	b := wire.NewReader(datagram)
	h, err := DecodeHeader(b)
	if err != nil {
		return h, nil, err
	}

	var subs []Raw
	for b.Remaining() > 0 {
		if b.Remaining() < SubmessageHeaderSize {
			break
		}
		sh, err := DecodeSubHeader(b)
		if err != nil {
			break
		}
		b.SetEndian(sh.Endian())

		length := int(sh.Length)
		if length == 0 {
			length = b.Remaining()
		}
		if length > b.Remaining() {
			break
		}
		body, err := b.ReadBytes(length)
		if err != nil {
			break
		}
		subs = append(subs, Raw{Header: sh, Body: body})
		if sh.Length == 0 {
			break
		}
	}
	return h, subs, nil
}
