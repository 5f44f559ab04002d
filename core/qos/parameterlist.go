// Package qos implements the RTPS ParameterList wire codec: the PID /
// length / value stream carried inline in a DATA submessage's inline QoS
// and used by discovery descriptors, terminated by PID_SENTINEL.
//
// Grounded on original_source/src/cpp/dds/ParameterListCreator.cpp and
// original_source/include/eprosimartps/ParameterList.h.
package qos

import (
	"github.com/quartzdds/rtps-core/core/change"
	"github.com/quartzdds/rtps-core/core/locator"
	"github.com/quartzdds/rtps-core/core/rtpserr"
	"github.com/quartzdds/rtps-core/core/wire"
)

// PID identifies a parameter's semantic meaning.
type PID uint16

const (
	PIDPad                          PID = 0x0000
	PIDSentinel                     PID = 0x0001
	PIDTopicName                    PID = 0x0005
	PIDTypeName                     PID = 0x0007
	PIDUnicastLocator               PID = 0x002F
	PIDMulticastLocator             PID = 0x0030
	PIDDefaultUnicastLocator        PID = 0x0031
	PIDMetatrafficUnicastLocator    PID = 0x0032
	PIDMetatrafficMulticastLocator  PID = 0x0033
	PIDDefaultMulticastLocator      PID = 0x0045
	PIDKeyHash                      PID = 0x0070
	PIDStatusInfo                   PID = 0x0071
)

// StatusInfo bits, carried in the low byte of the 4-octet PID_STATUS_INFO
// value.
const (
	StatusInfoDisposed     byte = 0x01
	StatusInfoUnregistered byte = 0x02
)

// Parameter is one decoded (pid, raw value) entry. Known PIDs also get a
// typed accessor on ParameterList; Value always holds the raw padded-length
// bytes so an unknown PID round-trips byte for byte.
type Parameter struct {
	PID   PID
	Value []byte
}

// ParameterList is an ordered sequence of Parameters, as decoded from or to
// be encoded into a DATA submessage's inline QoS (or a discovery
// descriptor). Order and padding are preserved structurally, matching
// spec.md §8's round-trip law for ParameterLists composed solely of known
// PIDs.
type ParameterList struct {
	Params []Parameter
}

func pad4(n int) int {
	r := n % 4
	if r == 0 {
		return 0
	}
	return 4 - r
}

// AddLocator appends a locator-valued parameter (one of the *_LOCATOR PIDs).
func (pl *ParameterList) AddLocator(pid PID, loc locator.Locator) {
	b := wire.NewBuffer(24)
	_ = b.WriteLocator(loc)
	pl.Params = append(pl.Params, Parameter{PID: pid, Value: b.Bytes()})
}

// AddString appends a string-valued parameter (PID_TOPIC_NAME / PID_TYPE_NAME).
func (pl *ParameterList) AddString(pid PID, s string) {
	b := wire.NewBuffer(4 + len(s) + 1 + 4)
	_ = b.WriteUint32(uint32(len(s) + 1))
	_ = b.WriteBytes([]byte(s))
	_ = b.WriteOctet(0)
	pl.Params = append(pl.Params, Parameter{PID: pid, Value: b.Bytes()})
}

// AddKeyHash appends PID_KEY_HASH with the given 16-byte instance handle.
func (pl *ParameterList) AddKeyHash(h change.InstanceHandle) {
	pl.Params = append(pl.Params, Parameter{PID: PIDKeyHash, Value: append([]byte(nil), h[:]...)})
}

// AddStatusInfo appends PID_STATUS_INFO with the dispose/unregister bits
// set in the low byte of a 4-octet big-endian value, matching
// ParameterListCreator.cpp's addParameterStatus (three zero octets then the
// status byte).
func (pl *ParameterList) AddStatusInfo(status byte) {
	pl.Params = append(pl.Params, Parameter{PID: PIDStatusInfo, Value: []byte{0, 0, 0, status}})
}

// Get returns the first parameter with the given PID, if any.
func (pl *ParameterList) Get(pid PID) (Parameter, bool) {
	for _, p := range pl.Params {
		if p.PID == pid {
			return p, true
		}
	}
	return Parameter{}, false
}

// Locator decodes a locator-valued parameter.
func (pl *ParameterList) Locator(pid PID) (locator.Locator, bool) {
	p, ok := pl.Get(pid)
	if !ok {
		return locator.Locator{}, false
	}
	r := wire.NewReader(p.Value)
	loc, err := r.ReadLocator()
	if err != nil {
		return locator.Locator{}, false
	}
	return loc, true
}

// String decodes a string-valued parameter.
func (pl *ParameterList) String(pid PID) (string, bool) {
	p, ok := pl.Get(pid)
	if !ok {
		return "", false
	}
	r := wire.NewReader(p.Value)
	s, err := r.ReadString()
	if err != nil {
		return "", false
	}
	return s, true
}

// KeyHash decodes PID_KEY_HASH into an InstanceHandle.
func (pl *ParameterList) KeyHash() (change.InstanceHandle, bool) {
	var h change.InstanceHandle
	p, ok := pl.Get(PIDKeyHash)
	if !ok || len(p.Value) < len(h) {
		return h, false
	}
	copy(h[:], p.Value)
	return h, true
}

// StatusInfo decodes PID_STATUS_INFO's low status byte.
func (pl *ParameterList) StatusInfo() (byte, bool) {
	p, ok := pl.Get(PIDStatusInfo)
	if !ok || len(p.Value) < 4 {
		return 0, false
	}
	return p.Value[3], true
}

// Encode writes the full parameter stream to b, PID then 4-byte-padded
// length then value, terminated by (PID_SENTINEL, 0).
func Encode(b *wire.Buffer, pl ParameterList) error {
	for _, p := range pl.Params {
		padding := pad4(len(p.Value))
		if err := b.WriteUint16(uint16(p.PID)); err != nil {
			return err
		}
		if err := b.WriteUint16(uint16(len(p.Value) + padding)); err != nil {
			return err
		}
		if err := b.WriteBytes(p.Value); err != nil {
			return err
		}
		for i := 0; i < padding; i++ {
			if err := b.WriteOctet(0); err != nil {
				return err
			}
		}
	}
	if err := b.WriteUint16(uint16(PIDSentinel)); err != nil {
		return err
	}
	return b.WriteUint16(0)
}

// Decode reads a parameter stream from b until PID_SENTINEL. Unknown PIDs
// are kept as raw Parameters (skip-and-preserve, not skip-and-drop), so an
// unrecognized-but-well-formed stream still round-trips; maxBytes bounds
// total parameter bytes consumed by the containing submessage length, per
// spec.md §4.3.
func Decode(b *wire.Buffer, maxBytes int) (ParameterList, error) {
	var pl ParameterList
	consumed := 0
	for {
		if maxBytes > 0 && consumed >= maxBytes {
			return pl, rtpserr.ErrSubmessageMalformed
		}
		pid, err := b.ReadUint16()
		if err != nil {
			return pl, err
		}
		length, err := b.ReadUint16()
		if err != nil {
			return pl, err
		}
		consumed += 4
		if PID(pid) == PIDSentinel {
			return pl, nil
		}
		value, err := b.ReadBytes(int(length))
		if err != nil {
			return pl, err
		}
		consumed += int(length)
		if PID(pid) == PIDPad {
			continue
		}
		pl.Params = append(pl.Params, Parameter{PID: PID(pid), Value: value})
	}
}
