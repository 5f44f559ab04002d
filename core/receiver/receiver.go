// Package receiver implements the per-participant MessageReceiver (C10):
// it parses an inbound datagram into its submessage chain, threads the
// receiver state (source/dest GUID prefix, timestamp) through INFO_TS/
// INFO_SRC/INFO_DST, and dispatches DATA/HEARTBEAT/GAP/ACKNACK to the
// matching local endpoint by EntityId. Grounded on spec.md §4.9 and the
// submessage codec in core/submessage; there is no original_source/
// counterpart since the teacher and pack never modeled an RTPS receive
// loop, so the dispatch shape follows core/submessage's own decode-then-
// switch pattern.
package receiver

import (
	"time"

	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/locator"
	"github.com/quartzdds/rtps-core/core/log"
	"github.com/quartzdds/rtps-core/core/metrics"
	"github.com/quartzdds/rtps-core/core/submessage"
	"github.com/quartzdds/rtps-core/core/wire"
)

// ReaderSink is the data-receiving half of a local reader endpoint, common
// to both StatelessReader and StatefulReader.
type ReaderSink interface {
	ReceiveData(writerGuid guid.Guid, d submessage.Data) error
}

// StatefulReaderSink is additionally implemented by a StatefulReader: it
// tracks HEARTBEAT/GAP and can be asked to emit an ACKNACK.
type StatefulReaderSink interface {
	ReaderSink
	ReceiveHeartbeat(writerGuid guid.Guid, hb submessage.Heartbeat) bool
	ReceiveGap(writerGuid guid.Guid, g submessage.Gap)
	SendAckNack(writerGuid guid.Guid)
}

// WriterSink is implemented by a StatefulWriter: it applies an inbound
// ACKNACK from a matched reader.
type WriterSink interface {
	ReceiveAckNack(remoteGuid guid.Guid, a submessage.AckNack)
}

// Directory resolves EntityIds to local endpoints. A participant is the
// only intended implementation; tests may supply a minimal fake.
type Directory interface {
	GuidPrefix() guid.GuidPrefix
	ReaderByEntityId(id guid.EntityId) (ReaderSink, bool)
	AllReaders() []ReaderSink
	WriterByEntityId(id guid.EntityId) (WriterSink, bool)
}

// State is the receiver's per-datagram working state (spec.md §4.9),
// reset at the start of every ProcessDatagram call.
type State struct {
	SourceVersionMajor byte
	SourceVersionMinor byte
	SourceVendorID     [2]byte
	SourceGuidPrefix   guid.GuidPrefix
	DestGuidPrefix     guid.GuidPrefix
	UnicastReplyLocator   locator.Locator
	MulticastReplyLocator locator.Locator
	HaveTimestamp      bool
	Timestamp          time.Time
}

// MessageReceiver parses inbound datagrams and dispatches submessages to
// local endpoints via dir.
type MessageReceiver struct {
	dir Directory
	log *log.Logger
}

// New constructs a MessageReceiver resolving endpoints through dir.
func New(dir Directory) *MessageReceiver {
	return &MessageReceiver{dir: dir, log: log.For("receiver")}
}

// ProcessDatagram parses datagram (received from the given locator) and
// dispatches every submessage it carries. A malformed header drops the
// whole datagram. ParseMessage stops the chain at the first submessage
// header it cannot frame; a framed submessage whose body fails to decode
// is skipped, and the submessages after it are still dispatched.
func (mr *MessageReceiver) ProcessDatagram(datagram []byte, from locator.Locator) {
	header, subs, err := submessage.ParseMessage(datagram)
	if err != nil {
		metrics.DatagramsDropped.WithLabelValues("parse_error").Inc()
		mr.log.Warnf("drop datagram from %s: %s", from, err)
		return
	}

	st := &State{
		SourceVersionMajor: header.VersionMajor,
		SourceVersionMinor: header.VersionMinor,
		SourceVendorID:     header.VendorID,
		SourceGuidPrefix:   header.GuidPrefix,
		DestGuidPrefix:     mr.dir.GuidPrefix(),
	}

	for _, raw := range subs {
		mr.dispatch(st, raw)
	}
}

func (mr *MessageReceiver) dispatch(st *State, raw submessage.Raw) {
	body := wire.NewReader(raw.Body)
	body.SetEndian(raw.Header.Endian())

	switch raw.Header.ID {
	case submessage.IDInfoTS:
		ts, err := submessage.DecodeInfoTS(body, raw.Header.Flags)
		if err != nil {
			mr.log.Warnf("malformed INFO_TS: %s", err)
			return
		}
		st.HaveTimestamp = !ts.Invalidate
		if st.HaveTimestamp {
			st.Timestamp = ts.Time()
		}

	case submessage.IDInfoSrc:
		src, err := submessage.DecodeInfoSRC(body)
		if err != nil {
			mr.log.Warnf("malformed INFO_SRC: %s", err)
			return
		}
		st.SourceVersionMajor = src.VersionMajor
		st.SourceVersionMinor = src.VersionMinor
		st.SourceVendorID = src.VendorID
		st.SourceGuidPrefix = src.GuidPrefix

	case submessage.IDInfoDst:
		dst, err := submessage.DecodeInfoDST(body)
		if err != nil {
			mr.log.Warnf("malformed INFO_DST: %s", err)
			return
		}
		st.DestGuidPrefix = dst.GuidPrefix

	case submessage.IDData:
		mr.dispatchData(st, body, raw.Header.Flags)

	case submessage.IDHeartbeat:
		mr.dispatchHeartbeat(st, body, raw.Header.Flags)

	case submessage.IDGap:
		mr.dispatchGap(st, body)

	case submessage.IDAckNack:
		mr.dispatchAckNack(st, body, raw.Header.Flags)

	case submessage.IDPad:
		// no body to interpret

	default:
		if raw.Header.Flags&unknownSubmessageVendorSpecificBit == 0 {
			mr.log.Warnf("unknown submessage id 0x%x", raw.Header.ID)
		}
	}
}

// unknownSubmessageVendorSpecificBit is bit 6 of a submessage's flags: set
// means "safe to skip if unrecognized", per spec.md §4.9 step 2.
const unknownSubmessageVendorSpecificBit byte = 1 << 6

func (mr *MessageReceiver) dispatchData(st *State, body *wire.Buffer, flags byte) {
	if st.DestGuidPrefix != mr.dir.GuidPrefix() {
		return
	}
	d, err := submessage.DecodeData(body, flags)
	if err != nil {
		mr.log.Warnf("malformed DATA: %s", err)
		return
	}
	d = cloneData(d)
	writerGuid := guid.New(st.SourceGuidPrefix, d.WriterID)

	if d.ReaderID == guid.EntityIdUnknown {
		for _, rd := range mr.dir.AllReaders() {
			if err := rd.ReceiveData(writerGuid, d); err != nil {
				mr.log.Errorf("ReceiveData from %s: %s", writerGuid, err)
			}
		}
		return
	}
	rd, ok := mr.dir.ReaderByEntityId(d.ReaderID)
	if !ok {
		return
	}
	if err := rd.ReceiveData(writerGuid, d); err != nil {
		mr.log.Errorf("ReceiveData from %s: %s", writerGuid, err)
	}
}

// cloneData copies a DATA submessage's byte-slice fields out of the
// receive buffer they were decoded from, per spec.md §4.9's "payloads are
// views ... must be copied ... before the receive buffer is released".
func cloneData(d submessage.Data) submessage.Data {
	if d.SerializedData != nil {
		d.SerializedData = append([]byte(nil), d.SerializedData...)
	}
	if d.InlineQoS != nil {
		d.InlineQoS = append([]byte(nil), d.InlineQoS...)
	}
	return d
}

func (mr *MessageReceiver) dispatchHeartbeat(st *State, body *wire.Buffer, flags byte) {
	hb, err := submessage.DecodeHeartbeat(body, flags)
	if err != nil {
		mr.log.Warnf("malformed HEARTBEAT: %s", err)
		return
	}
	writerGuid := guid.New(st.SourceGuidPrefix, hb.WriterID)

	handle := func(rd ReaderSink) {
		sfr, ok := rd.(StatefulReaderSink)
		if !ok {
			return
		}
		if sfr.ReceiveHeartbeat(writerGuid, hb) {
			sfr.SendAckNack(writerGuid)
		}
	}

	if hb.ReaderID == guid.EntityIdUnknown {
		for _, rd := range mr.dir.AllReaders() {
			handle(rd)
		}
		return
	}
	if rd, ok := mr.dir.ReaderByEntityId(hb.ReaderID); ok {
		handle(rd)
	}
}

func (mr *MessageReceiver) dispatchGap(st *State, body *wire.Buffer) {
	g, err := submessage.DecodeGap(body)
	if err != nil {
		mr.log.Warnf("malformed GAP: %s", err)
		return
	}
	writerGuid := guid.New(st.SourceGuidPrefix, g.WriterID)

	handle := func(rd ReaderSink) {
		if sfr, ok := rd.(StatefulReaderSink); ok {
			sfr.ReceiveGap(writerGuid, g)
		}
	}

	if g.ReaderID == guid.EntityIdUnknown {
		for _, rd := range mr.dir.AllReaders() {
			handle(rd)
		}
		return
	}
	if rd, ok := mr.dir.ReaderByEntityId(g.ReaderID); ok {
		handle(rd)
	}
}

func (mr *MessageReceiver) dispatchAckNack(st *State, body *wire.Buffer, flags byte) {
	a, err := submessage.DecodeAckNack(body, flags)
	if err != nil {
		mr.log.Warnf("malformed ACKNACK: %s", err)
		return
	}
	remoteGuid := guid.New(st.SourceGuidPrefix, a.ReaderID)
	wr, ok := mr.dir.WriterByEntityId(a.WriterID)
	if !ok {
		return
	}
	wr.ReceiveAckNack(remoteGuid, a)
}
