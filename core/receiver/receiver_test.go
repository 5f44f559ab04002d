package receiver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/locator"
	"github.com/quartzdds/rtps-core/core/seqnum"
	"github.com/quartzdds/rtps-core/core/submessage"
	"github.com/quartzdds/rtps-core/core/wire"
)

type fakeReader struct {
	id       guid.EntityId
	received []submessage.Data
}

func (r *fakeReader) ReceiveData(writerGuid guid.Guid, d submessage.Data) error {
	r.received = append(r.received, d)
	return nil
}

type fakeStatefulReader struct {
	fakeReader
	heartbeats   []submessage.Heartbeat
	gaps         []submessage.Gap
	acknacksSent int
	wantAckNack  bool
}

func (r *fakeStatefulReader) ReceiveHeartbeat(writerGuid guid.Guid, hb submessage.Heartbeat) bool {
	r.heartbeats = append(r.heartbeats, hb)
	return r.wantAckNack
}

func (r *fakeStatefulReader) ReceiveGap(writerGuid guid.Guid, g submessage.Gap) {
	r.gaps = append(r.gaps, g)
}

func (r *fakeStatefulReader) SendAckNack(writerGuid guid.Guid) {
	r.acknacksSent++
}

type fakeWriter struct {
	acknacks []submessage.AckNack
}

func (w *fakeWriter) ReceiveAckNack(remoteGuid guid.Guid, a submessage.AckNack) {
	w.acknacks = append(w.acknacks, a)
}

type fakeDirectory struct {
	prefix  guid.GuidPrefix
	readers map[guid.EntityId]ReaderSink
	writers map[guid.EntityId]WriterSink
}

func (d *fakeDirectory) GuidPrefix() guid.GuidPrefix { return d.prefix }
func (d *fakeDirectory) ReaderByEntityId(id guid.EntityId) (ReaderSink, bool) {
	rd, ok := d.readers[id]
	return rd, ok
}
func (d *fakeDirectory) AllReaders() []ReaderSink {
	var out []ReaderSink
	for _, rd := range d.readers {
		out = append(out, rd)
	}
	return out
}
func (d *fakeDirectory) WriterByEntityId(id guid.EntityId) (WriterSink, bool) {
	wr, ok := d.writers[id]
	return wr, ok
}

func buildDatagram(t *testing.T, prefix guid.GuidPrefix, subs []struct {
	id   submessage.ID
	body []byte
}) []byte {
	t.Helper()
	header := submessage.Header{VersionMajor: submessage.ProtocolMajor, VersionMinor: submessage.ProtocolMinor, GuidPrefix: prefix}
	buf := wire.NewBuffer(4096)
	mb, err := submessage.NewBuilder(buf, header)
	require.NoError(t, err)
	for _, s := range subs {
		require.NoError(t, mb.AppendSubmessage(s.id, wire.LittleEndian.FlagBit(), s.body))
	}
	return mb.Bytes()
}

func TestProcessDatagramDispatchesDataToNamedReader(t *testing.T) {
	readerID := guid.EntityId{0, 0, 1, 0x07}
	writerID := guid.EntityId{0, 0, 2, 0x02}
	prefix := guid.GuidPrefix{0xAA}

	rd := &fakeReader{id: readerID}
	dir := &fakeDirectory{prefix: prefix, readers: map[guid.EntityId]ReaderSink{readerID: rd}}
	mr := New(dir)

	d := submessage.Data{ReaderID: readerID, WriterID: writerID, WriterSeq: seqnum.SequenceNumber(1), SerializedData: []byte("hi")}
	body := wire.NewBuffer(256)
	body.SetEndian(wire.LittleEndian)
	require.NoError(t, d.Encode(body))

	header := submessage.Header{VersionMajor: submessage.ProtocolMajor, VersionMinor: submessage.ProtocolMinor, GuidPrefix: prefix}
	mb, err := submessage.NewBuilder(wire.NewBuffer(4096), header)
	require.NoError(t, err)
	require.NoError(t, mb.AppendSubmessage(submessage.IDData, d.Flags(wire.LittleEndian), body.Bytes()))
	datagram := mb.Bytes()

	mr.ProcessDatagram(datagram, locator.Locator{})

	require.Len(t, rd.received, 1)
	require.Equal(t, []byte("hi"), rd.received[0].SerializedData)
}

func TestProcessDatagramBroadcastsUnknownReaderID(t *testing.T) {
	readerID := guid.EntityId{0, 0, 1, 0x07}
	writerID := guid.EntityId{0, 0, 2, 0x02}
	prefix := guid.GuidPrefix{0xAA}

	rd := &fakeReader{id: readerID}
	dir := &fakeDirectory{prefix: prefix, readers: map[guid.EntityId]ReaderSink{readerID: rd}}
	mr := New(dir)

	d := submessage.Data{ReaderID: guid.EntityIdUnknown, WriterID: writerID, WriterSeq: seqnum.SequenceNumber(1)}
	body := wire.NewBuffer(256)
	body.SetEndian(wire.LittleEndian)
	require.NoError(t, d.Encode(body))

	datagram := buildDatagram(t, prefix, []struct {
		id   submessage.ID
		body []byte
	}{{submessage.IDData, body.Bytes()}})

	mr.ProcessDatagram(datagram, locator.Locator{})
	require.Len(t, rd.received, 1)
}

func TestProcessDatagramHeartbeatTriggersAckNackWhenRequested(t *testing.T) {
	readerID := guid.EntityId{0, 0, 1, 0x07}
	writerID := guid.EntityId{0, 0, 2, 0x02}
	prefix := guid.GuidPrefix{0xAA}

	rd := &fakeStatefulReader{fakeReader: fakeReader{id: readerID}, wantAckNack: true}
	dir := &fakeDirectory{prefix: prefix, readers: map[guid.EntityId]ReaderSink{readerID: rd}}
	mr := New(dir)

	hb := submessage.Heartbeat{ReaderID: readerID, WriterID: writerID, FirstSN: 1, LastSN: 2, Count: 1}
	body := wire.NewBuffer(64)
	body.SetEndian(wire.LittleEndian)
	require.NoError(t, hb.Encode(body))

	datagram := buildDatagram(t, prefix, []struct {
		id   submessage.ID
		body []byte
	}{{submessage.IDHeartbeat, body.Bytes()}})

	mr.ProcessDatagram(datagram, locator.Locator{})

	require.Len(t, rd.heartbeats, 1)
	require.Equal(t, 1, rd.acknacksSent)
}

func TestProcessDatagramDispatchesAckNackToWriter(t *testing.T) {
	writerID := guid.EntityId{0, 0, 2, 0x02}
	readerID := guid.EntityId{0, 0, 1, 0x07}
	prefix := guid.GuidPrefix{0xAA}

	wr := &fakeWriter{}
	dir := &fakeDirectory{prefix: prefix, writers: map[guid.EntityId]WriterSink{writerID: wr}}
	mr := New(dir)

	set := seqnum.NewSet(1)
	a := submessage.AckNack{ReaderID: readerID, WriterID: writerID, ReaderSNState: set, Count: 1}
	body := wire.NewBuffer(64)
	body.SetEndian(wire.LittleEndian)
	require.NoError(t, a.Encode(body))

	datagram := buildDatagram(t, prefix, []struct {
		id   submessage.ID
		body []byte
	}{{submessage.IDAckNack, body.Bytes()}})

	mr.ProcessDatagram(datagram, locator.Locator{})
	require.Len(t, wr.acknacks, 1)
}
