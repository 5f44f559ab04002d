package endpoint

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quartzdds/rtps-core/config"
	"github.com/quartzdds/rtps-core/core/locator"
	"github.com/quartzdds/rtps-core/core/seqnum"
	"github.com/quartzdds/rtps-core/core/submessage"
	"github.com/quartzdds/rtps-core/core/transport"
	"github.com/quartzdds/rtps-core/core/wire"
)

func newTestStatefulReader(t *testing.T, tr transport.Transport) *StatefulReader {
	t.Helper()
	base := NewBase(testGuid(2), "topic", config.DefaultEndpointConfig(), tr, nil)
	return NewStatefulReader(base)
}

func TestStatefulReaderHeartbeatThenAckNackRequestsMissing(t *testing.T) {
	tr := transport.NewLoopback()
	r := newTestStatefulReader(t, tr)
	writer := testGuid(1)
	loc := locator.NewUDPv4(net.IPv4(127, 0, 0, 1), 13000)
	ch, err := tr.OpenUnicast(loc)
	require.NoError(t, err)
	r.MatchedWriterAdd(writer, []locator.Locator{loc}, nil)

	hb := submessage.Heartbeat{FirstSN: seqnum.SequenceNumber(1), LastSN: seqnum.SequenceNumber(3), Count: 1}
	require.True(t, r.ReceiveHeartbeat(writer, hb))

	r.SendAckNack(writer)

	select {
	case dg := <-ch:
		_, subs, err := submessage.ParseMessage(dg.Data)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		require.Equal(t, submessage.IDAckNack, subs[0].Header.ID)
	default:
		t.Fatal("expected an ACKNACK to be sent")
	}
}

func TestStatefulReaderSendAckNackAddressesTheMatchedWriter(t *testing.T) {
	tr := transport.NewLoopback()
	r := newTestStatefulReader(t, tr)
	writer := testGuid(1)
	loc := locator.NewUDPv4(net.IPv4(127, 0, 0, 1), 13001)
	ch, err := tr.OpenUnicast(loc)
	require.NoError(t, err)
	r.MatchedWriterAdd(writer, []locator.Locator{loc}, nil)

	hb := submessage.Heartbeat{FirstSN: 1, LastSN: 3, Count: 1}
	require.True(t, r.ReceiveHeartbeat(writer, hb))
	r.SendAckNack(writer)

	select {
	case dg := <-ch:
		_, subs, err := submessage.ParseMessage(dg.Data)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		body := wire.NewReader(subs[0].Body)
		body.SetEndian(subs[0].Header.Endian())
		a, err := submessage.DecodeAckNack(body, subs[0].Header.Flags)
		require.NoError(t, err)
		require.Equal(t, writer.EntityId, a.WriterID)
	default:
		t.Fatal("expected an ACKNACK to be sent")
	}
}

func TestStatefulReaderStaleHeartbeatIsIgnored(t *testing.T) {
	tr := transport.NewLoopback()
	r := newTestStatefulReader(t, tr)
	writer := testGuid(1)
	r.MatchedWriterAdd(writer, nil, nil)

	hb := submessage.Heartbeat{FirstSN: 1, LastSN: 3, Count: 5}
	require.True(t, r.ReceiveHeartbeat(writer, hb))
	require.False(t, r.ReceiveHeartbeat(writer, hb), "repeated count must be ignored")
}

func TestStatefulReaderDataArrivalCommitsToHistory(t *testing.T) {
	tr := transport.NewLoopback()
	r := newTestStatefulReader(t, tr)
	writer := testGuid(1)
	r.MatchedWriterAdd(writer, nil, nil)

	d := submessage.Data{WriterSeq: seqnum.SequenceNumber(1), SerializedData: []byte("payload")}
	require.NoError(t, r.ReceiveData(writer, d))

	c, ok := r.History.GetChange(writer, seqnum.SequenceNumber(1))
	require.True(t, ok)
	require.Equal(t, []byte("payload"), c.SerializedPayload.Data)
}

func TestStatefulReaderFinalHeartbeatWithNothingMissingSuppressesAckNack(t *testing.T) {
	tr := transport.NewLoopback()
	r := newTestStatefulReader(t, tr)
	writer := testGuid(1)
	r.MatchedWriterAdd(writer, nil, nil)

	hb := submessage.Heartbeat{FirstSN: 1, LastSN: 0, Count: 1, Final: true}
	require.False(t, r.ReceiveHeartbeat(writer, hb))
}
