// Package participant implements the sole owner of a set of endpoints
// (spec.md §9 design note on cyclic endpoint/participant references): it
// holds strong ownership of every writer/reader, owns the MessageReceiver
// and event scheduler, and resolves EntityId-based dispatch lookups for
// both. Endpoints never hold a pointer back to their participant; they
// are addressed by the participant's own maps, avoiding the ownership
// cycle the original's raw-pointer design required.
package participant

import (
	"sync"

	"github.com/quartzdds/rtps-core/config"
	"github.com/quartzdds/rtps-core/core/discovery"
	"github.com/quartzdds/rtps-core/core/endpoint"
	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/locator"
	"github.com/quartzdds/rtps-core/core/log"
	"github.com/quartzdds/rtps-core/core/receiver"
	"github.com/quartzdds/rtps-core/core/scheduler"
	"github.com/quartzdds/rtps-core/core/transport"
)

// Participant owns every local endpoint sharing a single GUID prefix, the
// transport they send/receive through, the event scheduler driving their
// periodic behavior, and the MessageReceiver that demultiplexes inbound
// datagrams to them.
type Participant struct {
	Prefix    guid.GuidPrefix
	Transport transport.Transport
	Scheduler *scheduler.Scheduler
	Receiver  *receiver.MessageReceiver

	log *log.Logger

	mu               sync.RWMutex
	statelessWriters map[guid.EntityId]*endpoint.StatelessWriter
	statefulWriters  map[guid.EntityId]*endpoint.StatefulWriter
	statelessReaders map[guid.EntityId]*endpoint.StatelessReader
	statefulReaders  map[guid.EntityId]*endpoint.StatefulReader
}

// New constructs a Participant identified by prefix, communicating over
// tr. Its scheduler is not running until Start is called; Stop halts it.
func New(prefix guid.GuidPrefix, tr transport.Transport) *Participant {
	p := &Participant{
		Prefix:           prefix,
		Transport:        tr,
		log:              log.For("participant"),
		statelessWriters: make(map[guid.EntityId]*endpoint.StatelessWriter),
		statefulWriters:  make(map[guid.EntityId]*endpoint.StatefulWriter),
		statelessReaders: make(map[guid.EntityId]*endpoint.StatelessReader),
		statefulReaders:  make(map[guid.EntityId]*endpoint.StatefulReader),
	}
	p.Scheduler = scheduler.New(func(v any) {
		if fn, ok := v.(func()); ok {
			fn()
		}
	})
	p.Receiver = receiver.New(p)
	return p
}

// Start launches the participant's event scheduler.
func (p *Participant) Start() { p.Scheduler.Start() }

// Stop halts the event scheduler and every stateful writer's heartbeat
// loop.
func (p *Participant) Stop() {
	p.mu.RLock()
	writers := make([]*endpoint.StatefulWriter, 0, len(p.statefulWriters))
	for _, w := range p.statefulWriters {
		writers = append(writers, w)
	}
	p.mu.RUnlock()
	for _, w := range writers {
		w.StopHeartbeats()
	}
	p.Scheduler.Stop()
}

// NewStatelessWriter creates and registers a StatelessWriter at id.
func (p *Participant) NewStatelessWriter(id guid.EntityId, topic string, cfg config.EndpointConfig, topicKindWithKey bool) *endpoint.StatelessWriter {
	base := endpoint.NewBase(guid.New(p.Prefix, id), topic, cfg, p.Transport, p.Scheduler)
	w := endpoint.NewStatelessWriter(base, topicKindWithKey)
	p.mu.Lock()
	p.statelessWriters[id] = w
	p.mu.Unlock()
	return w
}

// NewStatefulWriter creates and registers a StatefulWriter at id, and
// starts its periodic HEARTBEAT emission.
func (p *Participant) NewStatefulWriter(id guid.EntityId, topic string, cfg config.EndpointConfig, topicKindWithKey bool) *endpoint.StatefulWriter {
	base := endpoint.NewBase(guid.New(p.Prefix, id), topic, cfg, p.Transport, p.Scheduler)
	w := endpoint.NewStatefulWriter(base, topicKindWithKey)
	p.mu.Lock()
	p.statefulWriters[id] = w
	p.mu.Unlock()
	w.ScheduleHeartbeats()
	return w
}

// NewStatelessReader creates and registers a StatelessReader at id.
func (p *Participant) NewStatelessReader(id guid.EntityId, topic string, cfg config.EndpointConfig) *endpoint.StatelessReader {
	base := endpoint.NewBase(guid.New(p.Prefix, id), topic, cfg, p.Transport, p.Scheduler)
	r := endpoint.NewStatelessReader(base)
	p.mu.Lock()
	p.statelessReaders[id] = r
	p.mu.Unlock()
	return r
}

// NewStatefulReader creates and registers a StatefulReader at id.
func (p *Participant) NewStatefulReader(id guid.EntityId, topic string, cfg config.EndpointConfig) *endpoint.StatefulReader {
	base := endpoint.NewBase(guid.New(p.Prefix, id), topic, cfg, p.Transport, p.Scheduler)
	r := endpoint.NewStatefulReader(base)
	p.mu.Lock()
	p.statefulReaders[id] = r
	p.mu.Unlock()
	return r
}

// RemoveWriter unregisters a writer at id, whichever kind it is.
func (p *Participant) RemoveWriter(id guid.EntityId) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.statefulWriters[id]; ok {
		w.StopHeartbeats()
		delete(p.statefulWriters, id)
	}
	delete(p.statelessWriters, id)
}

// RemoveReader unregisters a reader at id, whichever kind it is.
func (p *Participant) RemoveReader(id guid.EntityId) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.statelessReaders, id)
	delete(p.statefulReaders, id)
}

// ProcessDatagram forwards an inbound datagram to the participant's
// MessageReceiver.
func (p *Participant) ProcessDatagram(data []byte, from locator.Locator) {
	p.Receiver.ProcessDatagram(data, from)
}

// DrainWriters sends every pending change queued on every local writer:
// best-effort writers drain their unsent queue directly, stateful writers
// run their reader-proxy send driver.
func (p *Participant) DrainWriters() {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, w := range p.statelessWriters {
		w.DrainUnsent()
	}
	for _, w := range p.statefulWriters {
		w.SendPending()
	}
}

// GuidPrefix implements receiver.Directory.
func (p *Participant) GuidPrefix() guid.GuidPrefix { return p.Prefix }

// ReaderByEntityId implements receiver.Directory.
func (p *Participant) ReaderByEntityId(id guid.EntityId) (receiver.ReaderSink, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if r, ok := p.statefulReaders[id]; ok {
		return r, true
	}
	if r, ok := p.statelessReaders[id]; ok {
		return r, true
	}
	return nil, false
}

// AllReaders implements receiver.Directory.
func (p *Participant) AllReaders() []receiver.ReaderSink {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]receiver.ReaderSink, 0, len(p.statefulReaders)+len(p.statelessReaders))
	for _, r := range p.statefulReaders {
		out = append(out, r)
	}
	for _, r := range p.statelessReaders {
		out = append(out, r)
	}
	return out
}

// WriterByEntityId implements receiver.Directory.
func (p *Participant) WriterByEntityId(id guid.EntityId) (receiver.WriterSink, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	w, ok := p.statefulWriters[id]
	return w, ok
}

// MatchReader implements discovery.Sink: it is called by the discovery
// layer to report a newly discovered remote reader for localWriter,
// seeding a ReaderProxy on whichever writer kind owns that EntityId
// (spec.md §5's match_reader). A stateless writer only tracks the reader's
// locator for its next drain; a stateful writer seeds a full ReaderProxy.
func (p *Participant) MatchReader(localWriter guid.EntityId, info discovery.MatchedReaderInfo) {
	p.mu.RLock()
	sw, swOk := p.statelessWriters[localWriter]
	fw, fwOk := p.statefulWriters[localWriter]
	p.mu.RUnlock()

	switch {
	case fwOk:
		fw.MatchedReaderAdd(info.RemoteGuid, info.Reliability == discovery.Reliable, true, info.ExpectsInlineQos, info.UnicastLocators, info.MulticastLocators)
	case swOk:
		for _, loc := range info.UnicastLocators {
			sw.ReaderLocatorAdd(loc, info.ExpectsInlineQos)
		}
		for _, loc := range info.MulticastLocators {
			sw.ReaderLocatorAdd(loc, info.ExpectsInlineQos)
		}
	default:
		p.log.Warnf("MatchReader: no local writer %s", localWriter)
	}
}

// UnmatchReader implements discovery.Sink: it drops the remote reader's
// proxy from localWriter when that is a stateful writer. A stateless
// writer's reader locators are left in place.
func (p *Participant) UnmatchReader(localWriter guid.EntityId, remoteReader guid.Guid) {
	p.mu.RLock()
	fw, fwOk := p.statefulWriters[localWriter]
	p.mu.RUnlock()
	if fwOk {
		fw.MatchedReaderRemove(remoteReader)
	}
}

// MatchWriter implements discovery.Sink: it is called by the discovery
// layer to report a newly discovered remote writer for localReader,
// seeding a WriterProxy on whichever reader kind owns that EntityId
// (spec.md §5's match_writer). A stateless reader needs no proxy — it
// accepts DATA from any writer — so only stateful readers act on this.
func (p *Participant) MatchWriter(localReader guid.EntityId, info discovery.MatchedWriterInfo) {
	p.mu.RLock()
	fr, frOk := p.statefulReaders[localReader]
	p.mu.RUnlock()
	if frOk {
		fr.MatchedWriterAdd(info.RemoteGuid, info.UnicastLocators, info.MulticastLocators)
		return
	}
	if _, ok := p.statelessReaders[localReader]; !ok {
		p.log.Warnf("MatchWriter: no local reader %s", localReader)
	}
}

// UnmatchWriter implements discovery.Sink: it drops the remote writer's
// proxy from localReader.
func (p *Participant) UnmatchWriter(localReader guid.EntityId, remoteWriter guid.Guid) {
	p.mu.RLock()
	fr, frOk := p.statefulReaders[localReader]
	p.mu.RUnlock()
	if frOk {
		fr.MatchedWriterRemove(remoteWriter)
	}
}

var _ discovery.Sink = (*Participant)(nil)
