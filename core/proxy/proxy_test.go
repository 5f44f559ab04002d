package proxy_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/proxy"
	"github.com/quartzdds/rtps-core/core/seqnum"
)

func TestReaderProxySeedHistoryPushMode(t *testing.T) {
	rp := proxy.NewReaderProxy(guid.Guid{}, true, true)
	rp.SeedHistory([]seqnum.SequenceNumber{1, 2, 3}, func(seqnum.SequenceNumber) bool { return true })
	require.Equal(t, 3, rp.Count())

	pending := rp.PendingSeqNums()
	require.Equal(t, []seqnum.SequenceNumber{1, 2, 3}, pending)
}

func TestReaderProxyAckNackMarksRequestedAndAcknowledged(t *testing.T) {
	rp := proxy.NewReaderProxy(guid.Guid{}, true, true)
	rp.SeedHistory([]seqnum.SequenceNumber{1, 2, 3}, func(seqnum.SequenceNumber) bool { return true })
	rp.PendingSeqNums() // flip all to UNDERWAY

	set := seqnum.NewSet(1)
	set.Add(2) // 2 missing
	rp.ApplyAckNack(set)

	require.True(t, rp.IsAckedByAll(1))
	require.True(t, rp.IsAckedByAll(3))
	require.False(t, rp.IsAckedByAll(2))
}

func TestReaderProxyIrrelevantChangeIsAlwaysAcked(t *testing.T) {
	rp := proxy.NewReaderProxy(guid.Guid{}, true, true)
	rp.SeedHistory([]seqnum.SequenceNumber{1}, func(seqnum.SequenceNumber) bool { return false })
	require.True(t, rp.IsAckedByAll(1))
}

func TestWriterProxyHeartbeatMarksMissingAndStaleIgnored(t *testing.T) {
	wp := proxy.NewWriterProxy(guid.Guid{})
	require.True(t, wp.ApplyHeartbeat(1, 1, 3))
	require.ElementsMatch(t, []seqnum.SequenceNumber{1, 2, 3}, wp.MissingChanges())

	require.False(t, wp.ApplyHeartbeat(1, 1, 3), "stale heartbeat count must be ignored")
}

func TestWriterProxyDataArrivalClearsMissing(t *testing.T) {
	wp := proxy.NewWriterProxy(guid.Guid{})
	wp.ApplyHeartbeat(1, 1, 3)
	wp.ReceivedChange(2)

	missing := wp.MissingChanges()
	require.ElementsMatch(t, []seqnum.SequenceNumber{1, 3}, missing)
}

func TestWriterProxyGapMarksLost(t *testing.T) {
	wp := proxy.NewWriterProxy(guid.Guid{})
	wp.ApplyHeartbeat(1, 1, 5)

	gapList := seqnum.NewSet(3)
	gapList.Add(4)
	wp.ApplyGap(1, gapList) // [1,3) lost, plus bit 4 set in gapList

	missing := wp.MissingChanges()
	require.ElementsMatch(t, []seqnum.SequenceNumber{3, 5}, missing)
}

func TestWriterProxyBuildAckNackCountsIncreaseMonotonically(t *testing.T) {
	wp := proxy.NewWriterProxy(guid.Guid{})
	wp.ApplyHeartbeat(1, 1, 3)
	wp.ReceivedChange(1)

	_, c1 := wp.BuildAckNack()
	_, c2 := wp.BuildAckNack()
	require.Less(t, c1, c2)
}
