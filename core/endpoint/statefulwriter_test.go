package endpoint

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quartzdds/rtps-core/config"
	"github.com/quartzdds/rtps-core/core/change"
	"github.com/quartzdds/rtps-core/core/locator"
	"github.com/quartzdds/rtps-core/core/seqnum"
	"github.com/quartzdds/rtps-core/core/submessage"
	"github.com/quartzdds/rtps-core/core/transport"
)

func newTestStatefulWriter(t *testing.T, tr transport.Transport) *StatefulWriter {
	t.Helper()
	base := NewBase(testGuid(1), "topic", config.DefaultEndpointConfig(), tr, nil)
	return NewStatefulWriter(base, false)
}

func TestStatefulWriterMatchedReaderAddSeedsExistingHistory(t *testing.T) {
	tr := transport.NewLoopback()
	w := newTestStatefulWriter(t, tr)

	_, err := w.Write(change.Alive, change.InstanceHandle{}, []byte("a"))
	require.NoError(t, err)

	reader := testGuid(2)
	loc := locator.NewUDPv4(net.IPv4(127, 0, 0, 1), 12000)
	ch, err := tr.OpenUnicast(loc)
	require.NoError(t, err)

	w.MatchedReaderAdd(reader, true, true, false, []locator.Locator{loc}, nil)
	w.SendPending()

	select {
	case dg := <-ch:
		_, subs, err := submessage.ParseMessage(dg.Data)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		require.Equal(t, submessage.IDData, subs[0].Header.ID)
	default:
		t.Fatal("expected seeded history to be sent on SendPending")
	}
}

func TestStatefulWriterAckNackTriggersRetransmit(t *testing.T) {
	tr := transport.NewLoopback()
	w := newTestStatefulWriter(t, tr)

	reader := testGuid(2)
	loc := locator.NewUDPv4(net.IPv4(127, 0, 0, 1), 12001)
	ch, err := tr.OpenUnicast(loc)
	require.NoError(t, err)
	w.MatchedReaderAdd(reader, true, true, false, []locator.Locator{loc}, nil)

	seq, err := w.Write(change.Alive, change.InstanceHandle{}, []byte("x"))
	require.NoError(t, err)
	w.SendPending()
	<-ch // drain the initial push

	set := seqnum.NewSet(seq)
	set.Add(seq)
	w.ReceiveAckNack(reader, submessage.AckNack{ReaderSNState: set, Count: 1})

	select {
	case dg := <-ch:
		_, subs, err := submessage.ParseMessage(dg.Data)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		require.Equal(t, submessage.IDData, subs[0].Header.ID)
	default:
		t.Fatal("expected retransmit after ACKNACK requested the change")
	}
}

func TestStatefulWriterAckNackOverHolesSendsDataAndGap(t *testing.T) {
	tr := transport.NewLoopback()
	w := newTestStatefulWriter(t, tr)

	// Write seqs 1..20, then evict everything except {5,8,11,13,14,15,20}
	// before a reader ever matches, leaving a history with gaps in the
	// writer's own sequence space. A late-matched reader's proxy is seeded
	// only from what SeedHistory can see — the present seqs — so the holes
	// have no ChangeForReader entry at all until the reader's NACK over the
	// full range forces the writer to notice them (spec.md §8 scenario 3).
	present := map[seqnum.SequenceNumber]bool{5: true, 8: true, 11: true, 13: true, 14: true, 15: true, 20: true}
	for sn := seqnum.SequenceNumber(1); sn <= 20; sn++ {
		_, err := w.Write(change.Alive, change.InstanceHandle{}, []byte("x"))
		require.NoError(t, err)
		if !present[sn] {
			require.NoError(t, w.History.RemoveChange(w.Guid, sn))
		}
	}

	reader := testGuid(2)
	loc := locator.NewUDPv4(net.IPv4(127, 0, 0, 1), 12002)
	ch, err := tr.OpenUnicast(loc)
	require.NoError(t, err)
	w.MatchedReaderAdd(reader, true, true, false, []locator.Locator{loc}, nil)
	w.SendPending()
	<-ch // drain the initial push of the seeded present changes

	set := seqnum.NewSet(5)
	for sn := seqnum.SequenceNumber(5); sn <= 20; sn++ {
		set.Add(sn)
	}
	w.ReceiveAckNack(reader, submessage.AckNack{ReaderSNState: set, Count: 1})

	select {
	case dg := <-ch:
		_, subs, err := submessage.ParseMessage(dg.Data)
		require.NoError(t, err)
		var dataCount, gapCount int
		for _, s := range subs {
			switch s.Header.ID {
			case submessage.IDData:
				dataCount++
			case submessage.IDGap:
				gapCount++
			}
		}
		require.Equal(t, len(present), dataCount)
		require.Equal(t, 1, gapCount)
	default:
		t.Fatal("expected DATA for present changes plus a GAP for the holes")
	}
}

func TestStatefulWriterIsAckedByAll(t *testing.T) {
	tr := transport.NewLoopback()
	w := newTestStatefulWriter(t, tr)

	reader := testGuid(2)
	w.MatchedReaderAdd(reader, true, true, false, nil, nil)

	seq, err := w.Write(change.Alive, change.InstanceHandle{}, []byte("x"))
	require.NoError(t, err)
	require.False(t, w.IsAckedByAll(seq))

	set := seqnum.NewSet(seq + 1)
	w.ReceiveAckNack(reader, submessage.AckNack{ReaderSNState: set, Count: 1})
	require.True(t, w.IsAckedByAll(seq))
}
