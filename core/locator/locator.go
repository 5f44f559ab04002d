// Package locator implements the RTPS Locator type: a transport kind,
// port and 16-byte address, used by every endpoint to describe where it
// can be reached.
package locator

import (
	"fmt"
	"net"
)

// Kind identifies the transport a Locator addresses.
type Kind int32

const (
	KindInvalid Kind = -1
	KindUDPv4   Kind = 1
	KindUDPv6   Kind = 2
)

// Invalid is the zero-value invalid locator.
var Invalid = Locator{Kind: KindInvalid}

// Locator is (kind, port, 16-byte address). IPv4 addresses occupy the last
// four bytes of Address; IPv6 uses all sixteen. Two locators compare equal
// by the full tuple.
type Locator struct {
	Kind    Kind
	Port    uint32
	Address [16]byte
}

// NewUDPv4 builds a UDPv4 locator from a dotted-quad-capable net.IP and a
// port.
func NewUDPv4(ip net.IP, port uint32) Locator {
	var l Locator
	l.Kind = KindUDPv4
	l.Port = port
	v4 := ip.To4()
	if v4 != nil {
		copy(l.Address[12:], v4)
	}
	return l
}

// IP renders the locator's address as a net.IP (4-byte for UDPv4, 16-byte
// otherwise).
func (l Locator) IP() net.IP {
	if l.Kind == KindUDPv4 {
		return net.IP(l.Address[12:16])
	}
	return net.IP(l.Address[:])
}

func (l Locator) String() string {
	return fmt.Sprintf("%s:%d", l.IP(), l.Port)
}

// Equal reports whether l and o address the same endpoint.
func (l Locator) Equal(o Locator) bool {
	return l == o
}
