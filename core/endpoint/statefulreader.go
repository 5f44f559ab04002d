package endpoint

import (
	"sync"

	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/locator"
	"github.com/quartzdds/rtps-core/core/log"
	"github.com/quartzdds/rtps-core/core/metrics"
	"github.com/quartzdds/rtps-core/core/proxy"
	"github.com/quartzdds/rtps-core/core/seqnum"
	"github.com/quartzdds/rtps-core/core/submessage"
	"github.com/quartzdds/rtps-core/core/wire"
)

// StatefulReader is the reliable reader (C9): it keeps a WriterProxy per
// matched remote writer, tracks missing changes from HEARTBEATs, and
// answers them with ACKNACKs. An ACKNACK is sent at once, when the
// MessageReceiver calls SendAckNack; no response delay is applied and the
// endpoint's scheduler is not used for it.
type StatefulReader struct {
	Base

	log *log.Logger

	mu      sync.Mutex
	writers map[guid.Guid]*proxy.WriterProxy
}

// NewStatefulReader constructs a StatefulReader over base.
func NewStatefulReader(base Base) *StatefulReader {
	return &StatefulReader{
		Base:    base,
		log:     log.For("statefulreader"),
		writers: make(map[guid.Guid]*proxy.WriterProxy),
	}
}

// MatchedWriterAdd registers a newly-discovered remote writer.
func (r *StatefulReader) MatchedWriterAdd(remoteGuid guid.Guid, unicast, multicast []locator.Locator) {
	wp := proxy.NewWriterProxy(remoteGuid)
	wp.UnicastLocators = unicast
	wp.MulticastLocators = multicast

	r.mu.Lock()
	r.writers[remoteGuid] = wp
	r.mu.Unlock()
}

// MatchedWriterRemove forgets a previously-matched writer.
func (r *StatefulReader) MatchedWriterRemove(remoteGuid guid.Guid) {
	r.mu.Lock()
	delete(r.writers, remoteGuid)
	r.mu.Unlock()
}

func (r *StatefulReader) proxyFor(writerGuid guid.Guid) (*proxy.WriterProxy, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wp, ok := r.writers[writerGuid]
	return wp, ok
}

// ReceiveData commits an inbound DATA submessage from writerGuid into
// history (deduplicating by sequence number) and records the arrival on
// that writer's proxy, clearing any MISSING status for it.
func (r *StatefulReader) ReceiveData(writerGuid guid.Guid, d submessage.Data) error {
	wp, ok := r.proxyFor(writerGuid)
	if !ok {
		return nil
	}

	if _, exists := r.History.GetChange(writerGuid, d.WriterSeq); !exists {
		c, err := dataToChange(d, writerGuid)
		if err != nil {
			r.log.Errorf("decode DATA from %s: %s", writerGuid, err)
			return err
		}
		hd, slot, err := r.History.ReserveChange()
		if err != nil {
			r.log.Warnf("history full, dropping change seq=%d from %s", d.WriterSeq, writerGuid)
		} else {
			*slot = *c
			if err := r.History.AddChange(hd, slot); err != nil {
				_ = r.History.ReleaseChange(hd)
			}
		}
	}

	wp.ReceivedChange(d.WriterSeq)
	return nil
}

// ReceiveHeartbeat applies an inbound HEARTBEAT to writerGuid's proxy and
// reports whether an ACKNACK should be sent in response: always unless
// the heartbeat is marked Final and nothing is missing (spec.md §4.8).
func (r *StatefulReader) ReceiveHeartbeat(writerGuid guid.Guid, hb submessage.Heartbeat) bool {
	wp, ok := r.proxyFor(writerGuid)
	if !ok {
		return false
	}
	if !wp.ApplyHeartbeat(hb.Count, hb.FirstSN, hb.LastSN) {
		return false
	}
	if hb.Final && !wp.HasMissing() {
		return false
	}
	return true
}

// ReceiveGap applies an inbound GAP to writerGuid's proxy.
func (r *StatefulReader) ReceiveGap(writerGuid guid.Guid, g submessage.Gap) {
	wp, ok := r.proxyFor(writerGuid)
	if !ok {
		return
	}
	wp.ApplyGap(g.GapStart, g.GapList)
}

// SendAckNack builds and sends the next ACKNACK to writerGuid's proxy.
func (r *StatefulReader) SendAckNack(writerGuid guid.Guid) {
	wp, ok := r.proxyFor(writerGuid)
	if !ok {
		return
	}
	set, count := wp.BuildAckNack()
	a := submessage.AckNack{
		ReaderID:      r.Guid.EntityId,
		WriterID:      wp.RemoteGuid.EntityId,
		ReaderSNState: set,
		Count:         count,
		Final:         set.Empty(),
	}
	body := wire.NewBuffer(256)
	body.SetEndian(wire.LittleEndian)
	if err := a.Encode(body); err != nil {
		r.log.Errorf("encode ACKNACK: %s", err)
		return
	}
	sub := outboundSubmessage{id: submessage.IDAckNack, flags: a.Flags(wire.LittleEndian), body: body.Bytes()}
	metrics.AckNacksSent.WithLabelValues(r.Guid.String()).Inc()

	to := unicastOfWriter(wp)
	if err := sendBatch(r.Transport, to, r.Guid.Prefix, []outboundSubmessage{sub}); err != nil {
		r.log.Errorf("send ACKNACK to %s: %s", writerGuid, err)
	}
}

func unicastOfWriter(wp *proxy.WriterProxy) locator.Locator {
	if len(wp.UnicastLocators) > 0 {
		return wp.UnicastLocators[0]
	}
	if len(wp.MulticastLocators) > 0 {
		return wp.MulticastLocators[0]
	}
	return locator.Locator{}
}
