// Package wire implements the RTPS CDR wire primitives: an in-memory
// buffer with a read/write cursor, and endianness-aware encode/decode of
// the primitive types used throughout the protocol. It is the Go
// translation of the original eProsima CDRMessage_t / CDRMessage API
// (see original_source/include/eprosimartps/CDRMessage.h), reworked
// around a safe growable []byte instead of a malloc'd C buffer.
//
// There is no third-party CDR library grounded in the example corpus that
// produces RTPS's bit-exact framing (4-byte submessage alignment, a
// per-submessage endian flag, PID sentinel termination); this package is
// necessarily hand-rolled against encoding/binary, which is the
// appropriate stdlib tool for fixed-width primitive encoding and does not
// by itself impose any wire layout.
package wire

import (
	"encoding/binary"

	"github.com/quartzdds/rtps-core/core/rtpserr"
)

// Endian selects the byte order a Buffer encodes/decodes multi-byte
// primitives in. Submessage header flag bit 0 carries this per
// spec.md §4.1: 1 = little endian, 0 = big endian.
type Endian bool

const (
	BigEndian    Endian = false
	LittleEndian Endian = true
)

func (e Endian) byteOrder() binary.ByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// FlagBit returns the endianness bit as it is packed into a submessage
// flags byte (bit 0).
func (e Endian) FlagBit() byte {
	if e == LittleEndian {
		return 1
	}
	return 0
}

// EndianFromFlags extracts the endian tag from a submessage flags byte.
func EndianFromFlags(flags byte) Endian {
	if flags&0x01 != 0 {
		return LittleEndian
	}
	return BigEndian
}

// Buffer is a fixed-capacity byte buffer with independent read and write
// cursors, mirroring CDRMessage_t's (pos, length, max_size, msg_endian).
// Writes fail with ErrBufferOverflow once Pos()+n would exceed MaxSize;
// reads fail with ErrBufferUnderflow once Pos()+n would exceed Length.
// Both are recoverable: the cursor is left unchanged on failure.
type Buffer struct {
	data   []byte
	pos    int
	length int
	endian Endian
}

// NewBuffer allocates a fresh write buffer of the given capacity, BigEndian
// by default (the caller sets Endian before encoding anything
// endian-sensitive).
func NewBuffer(maxSize int) *Buffer {
	return &Buffer{data: make([]byte, maxSize), endian: BigEndian}
}

// NewReader wraps an existing byte slice for reading; length is set to
// len(b) and pos to 0.
func NewReader(b []byte) *Buffer {
	return &Buffer{data: b, length: len(b), endian: BigEndian}
}

// Endian returns the buffer's current endianness.
func (b *Buffer) Endian() Endian { return b.endian }

// SetEndian switches the buffer's endianness; subsequent primitive
// encode/decode calls use it. A receiver MUST call this per submessage,
// based on that submessage's own flag byte (spec.md §4.1).
func (b *Buffer) SetEndian(e Endian) { b.endian = e }

// Pos returns the current cursor position.
func (b *Buffer) Pos() int { return b.pos }

// SetPos repositions the cursor (used when backpatching a length field
// after the fact, e.g. a submessage header written before its body).
func (b *Buffer) SetPos(p int) { b.pos = p }

// Length returns the buffer's declared content length (for a write buffer,
// the high-water mark of what has been written and finalized).
func (b *Buffer) Length() int { return b.length }

// SetLength explicitly sets the declared length, e.g. after appending a
// submessage whose body was assembled separately.
func (b *Buffer) SetLength(n int) { b.length = n }

// MaxSize returns the buffer's total capacity.
func (b *Buffer) MaxSize() int { return len(b.data) }

// Bytes returns the buffer's content up to Length.
func (b *Buffer) Bytes() []byte { return b.data[:b.length] }

// Reset rewinds both cursors to zero without discarding the backing array,
// so a scratch buffer taken from a pool can be reused without reallocating
// (spec.md §9: "reuse preserves capacity").
func (b *Buffer) Reset() {
	b.pos = 0
	b.length = 0
}

func (b *Buffer) canWrite(n int) bool { return b.pos+n <= len(b.data) }
func (b *Buffer) canRead(n int) bool  { return b.pos+n <= b.length }

func (b *Buffer) bumpLength() {
	if b.pos > b.length {
		b.length = b.pos
	}
}

// AlignWrite pads the write cursor up to the next boundary-byte alignment
// (e.g. 4), writing zero bytes, relative to the start of the buffer.
// AlignRead skips the same padding on read.
func (b *Buffer) AlignWrite(boundary int) error {
	pad := (boundary - (b.pos % boundary)) % boundary
	if pad == 0 {
		return nil
	}
	if !b.canWrite(pad) {
		return rtpserr.ErrBufferOverflow
	}
	for i := 0; i < pad; i++ {
		b.data[b.pos] = 0
		b.pos++
	}
	b.bumpLength()
	return nil
}

// AlignRead skips the padding bytes a prior AlignWrite introduced.
func (b *Buffer) AlignRead(boundary int) error {
	pad := (boundary - (b.pos % boundary)) % boundary
	if pad == 0 {
		return nil
	}
	if !b.canRead(pad) {
		return rtpserr.ErrBufferUnderflow
	}
	b.pos += pad
	return nil
}

// WriteOctet appends a single byte.
func (b *Buffer) WriteOctet(o byte) error {
	if !b.canWrite(1) {
		return rtpserr.ErrBufferOverflow
	}
	b.data[b.pos] = o
	b.pos++
	b.bumpLength()
	return nil
}

// ReadOctet reads a single byte.
func (b *Buffer) ReadOctet() (byte, error) {
	if !b.canRead(1) {
		return 0, rtpserr.ErrBufferUnderflow
	}
	o := b.data[b.pos]
	b.pos++
	return o, nil
}

// WriteBytes appends raw bytes verbatim (no alignment, no endian swap).
func (b *Buffer) WriteBytes(p []byte) error {
	if !b.canWrite(len(p)) {
		return rtpserr.ErrBufferOverflow
	}
	copy(b.data[b.pos:], p)
	b.pos += len(p)
	b.bumpLength()
	return nil
}

// ReadBytes reads exactly n raw bytes verbatim.
func (b *Buffer) ReadBytes(n int) ([]byte, error) {
	if !b.canRead(n) {
		return nil, rtpserr.ErrBufferUnderflow
	}
	out := make([]byte, n)
	copy(out, b.data[b.pos:b.pos+n])
	b.pos += n
	return out, nil
}

// WriteBytesReversed appends p in reverse byte order, regardless of the
// buffer's selected endian. spec.md §4.1 retains this helper ("addDataReversed")
// for wire compatibility even though nothing in the bounded-size core
// currently needs it.
func (b *Buffer) WriteBytesReversed(p []byte) error {
	if !b.canWrite(len(p)) {
		return rtpserr.ErrBufferOverflow
	}
	for i := 0; i < len(p); i++ {
		b.data[b.pos+i] = p[len(p)-1-i]
	}
	b.pos += len(p)
	b.bumpLength()
	return nil
}

// ReadBytesReversed is the reader counterpart of WriteBytesReversed.
func (b *Buffer) ReadBytesReversed(n int) ([]byte, error) {
	if !b.canRead(n) {
		return nil, rtpserr.ErrBufferUnderflow
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[n-1-i] = b.data[b.pos+i]
	}
	b.pos += n
	return out, nil
}

// WriteUint16 appends a uint16 in the buffer's selected endian.
func (b *Buffer) WriteUint16(v uint16) error {
	if !b.canWrite(2) {
		return rtpserr.ErrBufferOverflow
	}
	b.endian.byteOrder().PutUint16(b.data[b.pos:], v)
	b.pos += 2
	b.bumpLength()
	return nil
}

// ReadUint16 reads a uint16 in the buffer's selected endian.
func (b *Buffer) ReadUint16() (uint16, error) {
	if !b.canRead(2) {
		return 0, rtpserr.ErrBufferUnderflow
	}
	v := b.endian.byteOrder().Uint16(b.data[b.pos:])
	b.pos += 2
	return v, nil
}

// WriteInt16 appends an int16.
func (b *Buffer) WriteInt16(v int16) error { return b.WriteUint16(uint16(v)) }

// ReadInt16 reads an int16.
func (b *Buffer) ReadInt16() (int16, error) {
	v, err := b.ReadUint16()
	return int16(v), err
}

// WriteUint32 appends a uint32 at the cursor in the buffer's selected
// endian. It inserts no alignment padding (see AlignWrite).
func (b *Buffer) WriteUint32(v uint32) error {
	if !b.canWrite(4) {
		return rtpserr.ErrBufferOverflow
	}
	b.endian.byteOrder().PutUint32(b.data[b.pos:], v)
	b.pos += 4
	b.bumpLength()
	return nil
}

// ReadUint32 reads a uint32.
func (b *Buffer) ReadUint32() (uint32, error) {
	if !b.canRead(4) {
		return 0, rtpserr.ErrBufferUnderflow
	}
	v := b.endian.byteOrder().Uint32(b.data[b.pos:])
	b.pos += 4
	return v, nil
}

// WriteInt32 appends an int32.
func (b *Buffer) WriteInt32(v int32) error { return b.WriteUint32(uint32(v)) }

// ReadInt32 reads an int32.
func (b *Buffer) ReadInt32() (int32, error) {
	v, err := b.ReadUint32()
	return int32(v), err
}

// WriteUint64 appends a uint64.
func (b *Buffer) WriteUint64(v uint64) error {
	if !b.canWrite(8) {
		return rtpserr.ErrBufferOverflow
	}
	b.endian.byteOrder().PutUint64(b.data[b.pos:], v)
	b.pos += 8
	b.bumpLength()
	return nil
}

// ReadUint64 reads a uint64.
func (b *Buffer) ReadUint64() (uint64, error) {
	if !b.canRead(8) {
		return 0, rtpserr.ErrBufferUnderflow
	}
	v := b.endian.byteOrder().Uint64(b.data[b.pos:])
	b.pos += 8
	return v, nil
}

// WriteInt64 appends an int64.
func (b *Buffer) WriteInt64(v int64) error { return b.WriteUint64(uint64(v)) }

// ReadInt64 reads an int64.
func (b *Buffer) ReadInt64() (int64, error) {
	v, err := b.ReadUint64()
	return int64(v), err
}

// Append copies other's content onto b at the current write cursor,
// advancing it (the CDRMessage::appendMsg join operation from
// original_source/include/eprosimartps/CDRMessage.h).
func (b *Buffer) Append(other *Buffer) error {
	return b.WriteBytes(other.Bytes())
}

// Remaining returns how many unread bytes remain.
func (b *Buffer) Remaining() int { return b.length - b.pos }

// Slice returns a copy of the bytes in [start, end) of the underlying
// buffer, independent of the current cursor.
func (b *Buffer) Slice(start, end int) []byte {
	out := make([]byte, end-start)
	copy(out, b.data[start:end])
	return out
}
