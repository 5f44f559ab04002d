// Package transport defines the Transport capability the core consumes
// (spec.md §6): socket I/O, multicast joining, and datagram delivery are
// external collaborators, never implemented here. Also provides an
// in-memory loopback Transport for tests, grounded on the default locator
// from original_source/include/eprosimartps/common/rtps_common.h's
// ParticipantParams_t (127.0.0.1, port 10043, UDPv4).
package transport

import (
	"net"
	"sync"

	"github.com/quartzdds/rtps-core/core/locator"
	"github.com/quartzdds/rtps-core/core/rtpserr"
)

// DefaultLocator is the loopback default locator (127.0.0.1:10043, UDPv4).
// Nothing in this module selects it automatically.
var DefaultLocator = locator.NewUDPv4(net.IPv4(127, 0, 0, 1), 10043)

// Datagram is one inbound unit of data plus the locator it arrived from.
type Datagram struct {
	Data []byte
	From locator.Locator
}

// Transport is the capability the core requires to move bytes. A real
// implementation binds a UDP socket per locator; it lives above this core
// and is out of scope here.
type Transport interface {
	// Send delivers buf to the given locator. Errors are logged and
	// dropped by the caller per spec.md §7 — TransportError never
	// propagates further up than the send call site.
	Send(buf []byte, to locator.Locator) error

	// OpenUnicast binds a receive locator and begins feeding inbound
	// datagrams for it to the returned channel.
	OpenUnicast(loc locator.Locator) (<-chan Datagram, error)

	// OpenMulticast joins a multicast group at loc.
	OpenMulticast(loc locator.Locator) (<-chan Datagram, error)

	// Close releases any resources associated with loc.
	Close(loc locator.Locator) error
}

// Loopback is an in-memory Transport: Send to a locator this process has
// OpenUnicast'd delivers directly to that locator's channel, synchronously.
// It never actually touches a socket, which is the point: it lets
// core/endpoint and participant tests exercise full send/receive loops
// without OS-level I/O.
type Loopback struct {
	mu    sync.Mutex
	ports map[locator.Locator]chan Datagram
}

// NewLoopback creates an empty in-memory transport.
func NewLoopback() *Loopback {
	return &Loopback{ports: make(map[locator.Locator]chan Datagram)}
}

// Send copies buf (so the caller's scratch buffer can be reused
// immediately) and delivers it to to's channel. It returns
// rtpserr.ErrTransport if to is not open; if to's channel is full, the
// datagram is dropped silently and Send returns nil.
func (l *Loopback) Send(buf []byte, to locator.Locator) error {
	cp := make([]byte, len(buf))
	copy(cp, buf)

	l.mu.Lock()
	ch, ok := l.ports[to]
	l.mu.Unlock()
	if !ok {
		return rtpserr.ErrTransport
	}
	select {
	case ch <- Datagram{Data: cp, From: to}:
	default:
	}
	return nil
}

// OpenUnicast registers loc, returning its inbound channel.
func (l *Loopback) OpenUnicast(loc locator.Locator) (<-chan Datagram, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.ports[loc]
	if !ok {
		ch = make(chan Datagram, 64)
		l.ports[loc] = ch
	}
	return ch, nil
}

// OpenMulticast behaves identically to OpenUnicast for the loopback
// transport: there is no real group membership to join.
func (l *Loopback) OpenMulticast(loc locator.Locator) (<-chan Datagram, error) {
	return l.OpenUnicast(loc)
}

// Close unregisters loc and closes its channel.
func (l *Loopback) Close(loc locator.Locator) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ch, ok := l.ports[loc]; ok {
		close(ch)
		delete(l.ports, loc)
	}
	return nil
}
