package endpoint

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quartzdds/rtps-core/config"
	"github.com/quartzdds/rtps-core/core/change"
	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/locator"
	"github.com/quartzdds/rtps-core/core/submessage"
	"github.com/quartzdds/rtps-core/core/transport"
)

func testGuid(entity byte) guid.Guid {
	prefix := guid.GuidPrefix{}
	prefix[0] = 0xAA
	id := guid.EntityId{0, 0, entity, 0x03}
	return guid.New(prefix, id)
}

func newTestStatelessWriter(t *testing.T, tr transport.Transport) *StatelessWriter {
	t.Helper()
	base := NewBase(testGuid(1), "topic", config.DefaultEndpointConfig(), tr, nil)
	return NewStatelessWriter(base, false)
}

func TestStatelessWriterWriteAssignsIncreasingSeqNums(t *testing.T) {
	tr := transport.NewLoopback()
	w := newTestStatelessWriter(t, tr)

	s1, err := w.Write(change.Alive, change.InstanceHandle{}, []byte("a"))
	require.NoError(t, err)
	s2, err := w.Write(change.Alive, change.InstanceHandle{}, []byte("b"))
	require.NoError(t, err)
	require.Equal(t, s1+1, s2)
}

func TestStatelessWriterDrainUnsentDeliversToEachReaderLocator(t *testing.T) {
	tr := transport.NewLoopback()
	w := newTestStatelessWriter(t, tr)

	locA := locator.NewUDPv4(net.IPv4(127, 0, 0, 1), 11000)
	locB := locator.NewUDPv4(net.IPv4(127, 0, 0, 1), 11001)
	chA, err := tr.OpenUnicast(locA)
	require.NoError(t, err)
	chB, err := tr.OpenUnicast(locB)
	require.NoError(t, err)

	w.ReaderLocatorAdd(locA, false)
	w.ReaderLocatorAdd(locB, false)

	_, err = w.Write(change.Alive, change.InstanceHandle{}, []byte("payload"))
	require.NoError(t, err)

	w.DrainUnsent()

	for _, ch := range []<-chan transport.Datagram{chA, chB} {
		select {
		case dg := <-ch:
			_, subs, err := submessage.ParseMessage(dg.Data)
			require.NoError(t, err)
			require.Len(t, subs, 1)
			require.Equal(t, submessage.IDData, subs[0].Header.ID)
		default:
			t.Fatal("expected a datagram on reader locator channel")
		}
	}
}

func TestStatelessWriterReaderLocatorRemoveStopsDelivery(t *testing.T) {
	tr := transport.NewLoopback()
	w := newTestStatelessWriter(t, tr)

	loc := locator.NewUDPv4(net.IPv4(127, 0, 0, 1), 11002)
	ch, err := tr.OpenUnicast(loc)
	require.NoError(t, err)

	w.ReaderLocatorAdd(loc, false)
	w.ReaderLocatorRemove(loc)

	_, err = w.Write(change.Alive, change.InstanceHandle{}, []byte("x"))
	require.NoError(t, err)
	w.DrainUnsent()

	select {
	case <-ch:
		t.Fatal("expected no datagram after ReaderLocatorRemove")
	default:
	}
}
