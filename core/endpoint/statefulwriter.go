package endpoint

import (
	"sync"

	"github.com/quartzdds/rtps-core/core/change"
	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/locator"
	"github.com/quartzdds/rtps-core/core/log"
	"github.com/quartzdds/rtps-core/core/metrics"
	"github.com/quartzdds/rtps-core/core/proxy"
	"github.com/quartzdds/rtps-core/core/seqnum"
	"github.com/quartzdds/rtps-core/core/submessage"
	"github.com/quartzdds/rtps-core/core/wire"
)

// StatefulWriter is the reliable writer (C8): it keeps a ReaderProxy per
// matched remote reader, retransmits on request, and drives HEARTBEAT/
// ACKNACK exchange through the endpoint's scheduler.
type StatefulWriter struct {
	Base

	topicKindWithKey bool
	log              *log.Logger

	mu            sync.Mutex
	lastChangeSeq seqnum.SequenceNumber
	heartbeatCnt  uint32
	readers       map[guid.Guid]*proxy.ReaderProxy
	heartbeatEvt  *heartbeatHandle
}

type heartbeatHandle struct {
	mu     sync.Mutex
	active bool
}

// NewStatefulWriter constructs a StatefulWriter over base.
func NewStatefulWriter(base Base, topicKindWithKey bool) *StatefulWriter {
	return &StatefulWriter{
		Base:             base,
		topicKindWithKey: topicKindWithKey,
		log:              log.For("statefulwriter"),
		readers:          make(map[guid.Guid]*proxy.ReaderProxy),
	}
}

// MatchedReaderAdd registers a newly-discovered remote reader, seeding its
// proxy with every change currently in history (matched_reader_add, spec.md
// §4.7). Re-adding an already-matched reader replaces its proxy.
func (w *StatefulWriter) MatchedReaderAdd(remoteGuid guid.Guid, reliable, pushMode, expectsInlineQos bool, unicast, multicast []locator.Locator) {
	rp := proxy.NewReaderProxy(remoteGuid, reliable, pushMode)
	rp.ExpectsInlineQos = expectsInlineQos
	rp.UnicastLocators = unicast
	rp.MulticastLocators = multicast

	var seqs []seqnum.SequenceNumber
	w.History.ForEach(func(c *change.CacheChange) {
		if c.WriterGuid == w.Guid {
			seqs = append(seqs, c.SequenceNumber)
		}
	})
	rp.SeedHistory(seqs, func(seqnum.SequenceNumber) bool { return true })

	w.mu.Lock()
	w.readers[remoteGuid] = rp
	w.mu.Unlock()
}

// MatchedReaderRemove forgets a previously-matched reader.
func (w *StatefulWriter) MatchedReaderRemove(remoteGuid guid.Guid) {
	w.mu.Lock()
	delete(w.readers, remoteGuid)
	w.mu.Unlock()
}

// Write commits a new change to history and fans it out as UNSENT/
// UNACKNOWLEDGED to every matched reader proxy, per unsent_change_add.
func (w *StatefulWriter) Write(kind change.Kind, instance change.InstanceHandle, payload []byte) (seqnum.SequenceNumber, error) {
	w.mu.Lock()
	nextSeq := w.lastChangeSeq + 1
	w.mu.Unlock()

	hd, c, err := w.History.ReserveChange()
	if err != nil {
		return seqnum.Unknown, err
	}
	c.Kind = kind
	c.WriterGuid = w.Guid
	c.InstanceHandle = instance
	c.SequenceNumber = nextSeq
	c.SerializedPayload.Data = payload

	if err := w.History.AddChange(hd, c); err != nil {
		_ = w.History.ReleaseChange(hd)
		return seqnum.Unknown, err
	}
	metrics.HistorySize.WithLabelValues(w.Guid.String()).Set(float64(w.History.Size()))

	w.mu.Lock()
	w.lastChangeSeq = nextSeq
	readers := w.readerList()
	w.mu.Unlock()

	relevant := kind == change.Alive || w.topicKindWithKey
	for _, rp := range readers {
		rp.AddUnsentChange(nextSeq, relevant)
	}
	return nextSeq, nil
}

func (w *StatefulWriter) readerList() []*proxy.ReaderProxy {
	list := make([]*proxy.ReaderProxy, 0, len(w.readers))
	for _, rp := range w.readers {
		list = append(list, rp)
	}
	return list
}

// SendPending drains every matched reader proxy's UNSENT/REQUESTED changes
// and ships them as DATA (relevant) or batched GAP (irrelevant) submessages,
// per spec.md §4.7's send-driver loop.
func (w *StatefulWriter) SendPending() {
	w.mu.Lock()
	readers := w.readerList()
	w.mu.Unlock()

	for _, rp := range readers {
		w.sendPendingToReader(rp)
	}
}

func (w *StatefulWriter) sendPendingToReader(rp *proxy.ReaderProxy) {
	pending := rp.PendingSeqNums()
	if len(pending) == 0 {
		return
	}

	var relevant, irrelevant []seqnum.SequenceNumber
	for _, sn := range pending {
		if rp.IsRelevant(sn) {
			relevant = append(relevant, sn)
		} else {
			irrelevant = append(irrelevant, sn)
		}
	}

	var subs []outboundSubmessage

	// Batch every irrelevant (never-to-be-delivered) seq into as few GAP
	// submessages as the bitmap width allows, independent of how they
	// interleave with relevant seqs in sequence-number order — a run of
	// holes split by intervening DATA still collapses into one GAP as
	// long as it fits in seqnum.MaxSetBits (spec.md §8 scenario 3).
	var gapStart seqnum.SequenceNumber
	var gapList seqnum.Set
	haveGap := false
	flushGap := func() {
		if !haveGap {
			return
		}
		g := submessage.Gap{ReaderID: guid.EntityIdUnknown, WriterID: w.Guid.EntityId, GapStart: gapStart, GapList: gapList}
		body := wire.NewBuffer(256)
		body.SetEndian(wire.LittleEndian)
		if err := g.Encode(body); err == nil {
			subs = append(subs, outboundSubmessage{id: submessage.IDGap, flags: g.Flags(wire.LittleEndian), body: body.Bytes()})
		}
		haveGap = false
	}
	for _, sn := range irrelevant {
		if !haveGap || sn-gapList.Base >= seqnum.MaxSetBits {
			flushGap()
			gapStart = sn
			gapList = seqnum.NewSet(sn)
			haveGap = true
		}
		gapList.Add(sn)
	}
	flushGap()

	for _, sn := range relevant {
		c, ok := w.History.GetChange(w.Guid, sn)
		if !ok {
			continue
		}
		d, err := changeToData(c, w.Guid.EntityId, guid.EntityIdUnknown, w.topicKindWithKey)
		if err != nil {
			w.log.Errorf("encode change seq=%d: %s", sn, err)
			continue
		}
		body := wire.NewBuffer(w.Config.MaxPayload + 128)
		body.SetEndian(wire.LittleEndian)
		if err := d.Encode(body); err != nil {
			w.log.Errorf("encode DATA seq=%d: %s", sn, err)
			continue
		}
		subs = append(subs, outboundSubmessage{id: submessage.IDData, flags: d.Flags(wire.LittleEndian), body: body.Bytes()})
	}

	if len(subs) == 0 {
		return
	}
	if err := sendBatch(w.Transport, unicastOf(rp), w.Guid.Prefix, subs); err != nil {
		w.log.Errorf("send batch to %s: %s", rp.RemoteGuid, err)
	}
}

func unicastOf(rp *proxy.ReaderProxy) locator.Locator {
	if len(rp.UnicastLocators) > 0 {
		return rp.UnicastLocators[0]
	}
	if len(rp.MulticastLocators) > 0 {
		return rp.MulticastLocators[0]
	}
	return locator.Locator{}
}

// SendHeartbeat emits a HEARTBEAT to every matched reliable reader
// announcing the current [min, max] sequence number range in history, with
// a strictly increasing count (spec.md §4.7). Each reader gets its own
// final flag: set when that reader's proxy has no outstanding unacked
// change, i.e. it is not behind — readers at different points in the
// retransmit cycle do not all get the same flag on the same HEARTBEAT.
func (w *StatefulWriter) SendHeartbeat() {
	w.mu.Lock()
	lastChangeSeq := w.lastChangeSeq
	w.mu.Unlock()

	first, _, ok := w.History.SeqNumMin()
	if !ok {
		first = lastChangeSeq + 1
	}
	last, _, ok := w.History.SeqNumMax()
	if !ok {
		// No changes in history: an empty [first,last] range, per
		// eProsima's convention of last = lastChangeSeq, first = last+1.
		last = lastChangeSeq
	}

	w.mu.Lock()
	w.heartbeatCnt++
	count := w.heartbeatCnt
	readers := w.readerList()
	w.mu.Unlock()

	for _, rp := range readers {
		if !rp.Reliable {
			continue
		}
		hb := submessage.Heartbeat{
			ReaderID: guid.EntityIdUnknown,
			WriterID: w.Guid.EntityId,
			FirstSN:  first,
			LastSN:   last,
			Count:    count,
			Final:    !rp.HasPending(),
		}
		body := wire.NewBuffer(64)
		body.SetEndian(wire.LittleEndian)
		if err := hb.Encode(body); err != nil {
			w.log.Errorf("encode HEARTBEAT: %s", err)
			continue
		}
		sub := outboundSubmessage{id: submessage.IDHeartbeat, flags: hb.Flags(wire.LittleEndian), body: body.Bytes()}
		metrics.HeartbeatsSent.WithLabelValues(w.Guid.String()).Inc()
		if err := sendBatch(w.Transport, unicastOf(rp), w.Guid.Prefix, []outboundSubmessage{sub}); err != nil {
			w.log.Errorf("send HEARTBEAT to %s: %s", rp.RemoteGuid, err)
		}
	}
}

// ReceiveAckNack applies an inbound ACKNACK to the matching reader proxy,
// then re-drives the send pipeline for it (spec.md §4.7: a REQUESTED range
// triggers retransmission).
//
// A requested sequence number the writer never assigned a change to — a
// hole in its own history, e.g. {5,8,11} with a NACK covering {5..11} — has
// no ChangeForReader entry at all, so ApplyAckNack's tracked-changes walk
// never sees it. Such holes are folded into the proxy as REQUESTED-but-
// irrelevant so the send driver's GAP batching picks them up too (spec.md
// §8 scenario 3), bounded to sequence numbers this writer has actually
// reached so a NACK for not-yet-written numbers doesn't synthesize bogus
// GAP entries.
func (w *StatefulWriter) ReceiveAckNack(remoteGuid guid.Guid, a submessage.AckNack) {
	w.mu.Lock()
	rp, ok := w.readers[remoteGuid]
	lastSeq := w.lastChangeSeq
	w.mu.Unlock()
	if !ok {
		return
	}
	rp.ApplyAckNack(a.ReaderSNState)
	a.ReaderSNState.ForEach(func(sn seqnum.SequenceNumber) {
		if sn > lastSeq {
			return
		}
		if _, exists := w.History.GetChange(w.Guid, sn); exists {
			return
		}
		rp.MarkRequestedHole(sn)
	})
	w.sendPendingToReader(rp)
}

// ScheduleHeartbeats starts a recurring HEARTBEAT emission at the
// configured period, using the endpoint's scheduler. Calling it twice on an
// already-scheduled writer is a no-op.
func (w *StatefulWriter) ScheduleHeartbeats() {
	w.mu.Lock()
	if w.heartbeatEvt != nil {
		w.mu.Unlock()
		return
	}
	h := &heartbeatHandle{active: true}
	w.heartbeatEvt = h
	w.mu.Unlock()

	period := w.Config.ReliabilityTiming.HeartbeatPeriod.Duration()
	var tick func()
	tick = func() {
		h.mu.Lock()
		active := h.active
		h.mu.Unlock()
		if !active {
			return
		}
		w.SendHeartbeat()
		w.Scheduler.After(period, tick)
	}
	w.Scheduler.After(period, tick)
}

// StopHeartbeats halts recurring HEARTBEAT emission.
func (w *StatefulWriter) StopHeartbeats() {
	w.mu.Lock()
	h := w.heartbeatEvt
	w.heartbeatEvt = nil
	w.mu.Unlock()
	if h == nil {
		return
	}
	h.mu.Lock()
	h.active = false
	h.mu.Unlock()
}

// IsAckedByAll reports whether every matched reader has acknowledged sn.
func (w *StatefulWriter) IsAckedByAll(sn seqnum.SequenceNumber) bool {
	w.mu.Lock()
	readers := w.readerList()
	w.mu.Unlock()
	for _, rp := range readers {
		if !rp.IsAckedByAll(sn) {
			return false
		}
	}
	return true
}
