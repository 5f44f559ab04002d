// Package discovery defines the shapes the Discovery capability (spec.md
// §6) uses to report matched remote endpoints to the core: SPDP/SEDP
// participant and endpoint announcement protocols are external
// collaborators that call match_reader/unmatch_reader/match_writer/
// unmatch_writer on a participant — this package only carries the
// parameter types those calls pass, the core does not call out to
// discovery itself.
package discovery

import (
	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/locator"
)

// ReliabilityKind mirrors the endpoint reliability configuration a remote
// peer announces.
type ReliabilityKind int

const (
	BestEffort ReliabilityKind = iota
	Reliable
)

// MatchedReaderInfo describes a remote reader as reported by discovery,
// sufficient to construct a ReaderProxy.
type MatchedReaderInfo struct {
	RemoteGuid        guid.Guid
	UnicastLocators   []locator.Locator
	MulticastLocators []locator.Locator
	Reliability       ReliabilityKind
	Topic             string
	ExpectsInlineQos  bool
}

// MatchedWriterInfo describes a remote writer as reported by discovery,
// sufficient to construct a WriterProxy.
type MatchedWriterInfo struct {
	RemoteGuid        guid.Guid
	UnicastLocators   []locator.Locator
	MulticastLocators []locator.Locator
	Reliability       ReliabilityKind
	Topic             string
}

// Sink is implemented by a participant: it is the entry point an external
// discovery layer calls to report a newly matched or dropped remote
// endpoint for one of the participant's local writers/readers.
type Sink interface {
	MatchReader(localWriter guid.EntityId, info MatchedReaderInfo)
	UnmatchReader(localWriter guid.EntityId, remoteReader guid.Guid)
	MatchWriter(localReader guid.EntityId, info MatchedWriterInfo)
	UnmatchWriter(localReader guid.EntityId, remoteWriter guid.Guid)
}
