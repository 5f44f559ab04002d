package participant

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quartzdds/rtps-core/config"
	"github.com/quartzdds/rtps-core/core/change"
	"github.com/quartzdds/rtps-core/core/discovery"
	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/locator"
	"github.com/quartzdds/rtps-core/core/transport"
)

func pump(t *testing.T, tr *transport.Loopback, loc locator.Locator, into *Participant) {
	t.Helper()
	ch, err := tr.OpenUnicast(loc)
	require.NoError(t, err)
	go func() {
		for dg := range ch {
			into.ProcessDatagram(dg.Data, dg.From)
		}
	}()
}

func TestEndToEndStatelessWriterToReader(t *testing.T) {
	tr := transport.NewLoopback()

	writerPrefix := guid.GuidPrefix{0x01}
	readerPrefix := guid.GuidPrefix{0x02}
	pw := New(writerPrefix, tr)
	pr := New(readerPrefix, tr)
	pw.Start()
	defer pw.Stop()
	pr.Start()
	defer pr.Stop()

	writerLoc := locator.NewUDPv4(net.IPv4(127, 0, 0, 1), 14000)
	readerLoc := locator.NewUDPv4(net.IPv4(127, 0, 0, 1), 14001)
	pump(t, tr, writerLoc, pw)
	pump(t, tr, readerLoc, pr)

	writerID := guid.EntityId{0, 0, 1, 0x02}
	readerID := guid.EntityId{0, 0, 1, 0x07}
	w := pw.NewStatelessWriter(writerID, "topic", config.DefaultEndpointConfig(), false)
	r := pr.NewStatelessReader(readerID, "topic", config.DefaultEndpointConfig())
	w.ReaderLocatorAdd(readerLoc, false)

	_, err := w.Write(change.Alive, change.InstanceHandle{}, []byte("hello"))
	require.NoError(t, err)
	w.DrainUnsent()

	require.Eventually(t, func() bool {
		return r.History.Size() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestMatchReaderSeedsStatefulWriterProxy(t *testing.T) {
	tr := transport.NewLoopback()
	prefix := guid.GuidPrefix{0x05}
	p := New(prefix, tr)
	p.Start()
	defer p.Stop()

	writerID := guid.EntityId{0, 0, 3, 0x02}
	w := p.NewStatefulWriter(writerID, "topic", config.DefaultEndpointConfig(), false)

	remoteGuid := guid.New(guid.GuidPrefix{0x06}, guid.EntityId{0, 0, 3, 0x07})
	readerLoc := locator.NewUDPv4(net.IPv4(127, 0, 0, 1), 14010)
	p.MatchReader(writerID, discovery.MatchedReaderInfo{
		RemoteGuid:      remoteGuid,
		UnicastLocators: []locator.Locator{readerLoc},
		Reliability:     discovery.Reliable,
	})

	require.True(t, w.IsAckedByAll(1))

	p.UnmatchReader(writerID, remoteGuid)
	require.True(t, w.IsAckedByAll(1))
}

func TestMatchWriterSeedsStatefulReaderProxy(t *testing.T) {
	tr := transport.NewLoopback()
	prefix := guid.GuidPrefix{0x07}
	p := New(prefix, tr)
	p.Start()
	defer p.Stop()

	readerID := guid.EntityId{0, 0, 4, 0x07}
	r := p.NewStatefulReader(readerID, "topic", config.DefaultEndpointConfig())

	remoteGuid := guid.New(guid.GuidPrefix{0x08}, guid.EntityId{0, 0, 4, 0x02})
	writerLoc := locator.NewUDPv4(net.IPv4(127, 0, 0, 1), 14011)
	p.MatchWriter(readerID, discovery.MatchedWriterInfo{
		RemoteGuid:      remoteGuid,
		UnicastLocators: []locator.Locator{writerLoc},
		Reliability:     discovery.Reliable,
	})
	require.Equal(t, 0, r.History.Size())

	p.UnmatchWriter(readerID, remoteGuid)
}

func TestEndToEndReliableWriterDeliversToStatefulReader(t *testing.T) {
	tr := transport.NewLoopback()

	writerPrefix := guid.GuidPrefix{0x03}
	readerPrefix := guid.GuidPrefix{0x04}
	pw := New(writerPrefix, tr)
	pr := New(readerPrefix, tr)
	pw.Start()
	defer pw.Stop()
	pr.Start()
	defer pr.Stop()

	writerLoc := locator.NewUDPv4(net.IPv4(127, 0, 0, 1), 14002)
	readerLoc := locator.NewUDPv4(net.IPv4(127, 0, 0, 1), 14003)
	pump(t, tr, writerLoc, pw)
	pump(t, tr, readerLoc, pr)

	writerID := guid.EntityId{0, 0, 2, 0x02}
	readerID := guid.EntityId{0, 0, 2, 0x07}
	w := pw.NewStatefulWriter(writerID, "topic", config.DefaultEndpointConfig(), false)
	r := pr.NewStatefulReader(readerID, "topic", config.DefaultEndpointConfig())

	writerGuid := guid.New(writerPrefix, writerID)
	readerGuid := guid.New(readerPrefix, readerID)
	w.MatchedReaderAdd(readerGuid, true, true, false, []locator.Locator{readerLoc}, nil)
	r.MatchedWriterAdd(writerGuid, []locator.Locator{writerLoc}, nil)

	_, err := w.Write(change.Alive, change.InstanceHandle{}, []byte("reliable"))
	require.NoError(t, err)
	w.SendPending()

	require.Eventually(t, func() bool {
		return r.History.Size() == 1
	}, time.Second, 5*time.Millisecond)
}
