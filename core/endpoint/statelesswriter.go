package endpoint

import (
	"sync"

	"github.com/quartzdds/rtps-core/core/change"
	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/locator"
	"github.com/quartzdds/rtps-core/core/log"
	"github.com/quartzdds/rtps-core/core/seqnum"
	"github.com/quartzdds/rtps-core/core/submessage"
	"github.com/quartzdds/rtps-core/core/wire"
)

// ReaderLocator is a StatelessWriter's per-destination FIFO of pending
// changes, per spec.md §4.6.
type ReaderLocator struct {
	Locator          locator.Locator
	ExpectsInlineQos bool

	mu      sync.Mutex
	pending []seqnum.SequenceNumber
}

// StatelessWriter is the best-effort writer (C7): no retransmission, no
// acknowledgement state, fire-and-forget to a static locator list.
type StatelessWriter struct {
	Base

	topicKindWithKey bool
	log              *log.Logger

	mu              sync.Mutex
	lastChangeSeq   seqnum.SequenceNumber
	readerLocators  []*ReaderLocator
}

// NewStatelessWriter constructs a StatelessWriter over base.
func NewStatelessWriter(base Base, topicKindWithKey bool) *StatelessWriter {
	return &StatelessWriter{Base: base, topicKindWithKey: topicKindWithKey, log: log.For("statelesswriter")}
}

// ReaderLocatorAdd registers loc, idempotently (spec.md §4.6).
func (w *StatelessWriter) ReaderLocatorAdd(loc locator.Locator, expectsInlineQos bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, rl := range w.readerLocators {
		if rl.Locator.Equal(loc) {
			return
		}
	}
	w.readerLocators = append(w.readerLocators, &ReaderLocator{Locator: loc, ExpectsInlineQos: expectsInlineQos})
}

// ReaderLocatorRemove drops loc and discards its pending changes.
func (w *StatelessWriter) ReaderLocatorRemove(loc locator.Locator) {
	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.readerLocators[:0]
	for _, rl := range w.readerLocators {
		if !rl.Locator.Equal(loc) {
			kept = append(kept, rl)
		}
	}
	w.readerLocators = kept
}

// Write reserves, populates, and commits a new change into the writer's
// history, then fans it out to every registered ReaderLocator's unsent
// queue. Returns rtpserr.ErrHistoryFull if the history has no room.
func (w *StatelessWriter) Write(kind change.Kind, instance change.InstanceHandle, payload []byte) (seqnum.SequenceNumber, error) {
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

	w.mu.Lock()
	w.lastChangeSeq = nextSeq
	locators := append([]*ReaderLocator(nil), w.readerLocators...)
	w.mu.Unlock()

	for _, rl := range locators {
		rl.mu.Lock()
		rl.pending = append(rl.pending, nextSeq)
		rl.mu.Unlock()
	}
	return nextSeq, nil
}

// DrainUnsent sends a DATA message for every pending change on every
// registered ReaderLocator, discarding each entry once sent.
func (w *StatelessWriter) DrainUnsent() {
	w.mu.Lock()
	locators := append([]*ReaderLocator(nil), w.readerLocators...)
	w.mu.Unlock()

	for _, rl := range locators {
		rl.mu.Lock()
		pending := rl.pending
		rl.pending = nil
		rl.mu.Unlock()

		for _, sn := range pending {
			c, ok := w.History.GetChange(w.Guid, sn)
			if !ok {
				continue
			}
			d, err := changeToData(c, w.Guid.EntityId, guid.EntityIdUnknown, w.topicKindWithKey)
			if err != nil {
				w.log.Errorf("encode change seq=%d: %s", sn, err)
				continue
			}
			w.sendData(rl.Locator, d)
		}
	}
}

func (w *StatelessWriter) sendData(to locator.Locator, d submessage.Data) {
	body := wire.NewBuffer(w.Config.MaxPayload + 128)
	body.SetEndian(wire.LittleEndian)
	if err := d.Encode(body); err != nil {
		w.log.Errorf("encode DATA: %s", err)
		return
	}
	sub := outboundSubmessage{id: submessage.IDData, flags: d.Flags(wire.LittleEndian), body: body.Bytes()}
	if err := sendBatch(w.Transport, to, w.Guid.Prefix, []outboundSubmessage{sub}); err != nil {
		w.log.Errorf("send DATA to %s: %s", to, err)
	}
}
