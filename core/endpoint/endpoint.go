// Package endpoint implements the four endpoint kinds spec.md §4.6–§4.8
// describes: a common Endpoint base (C6) carrying identity, locators, and
// a reference to the transport/scheduler, plus StatelessWriter/
// StatelessReader (C7, best-effort) and StatefulWriter/StatefulReader (C8,
// C9, reliable with per-remote-peer proxies). Per spec.md §9's design
// note, the inheritance hierarchy the original used for Writer/Reader is
// replaced here with distinct concrete types sharing an embedded Base —
// a capability held behind a small interface, not a class hierarchy.
package endpoint

import (
	"sync"

	"github.com/quartzdds/rtps-core/config"
	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/history"
	"github.com/quartzdds/rtps-core/core/locator"
	"github.com/quartzdds/rtps-core/core/scheduler"
	"github.com/quartzdds/rtps-core/core/transport"
)

// Base carries the identity and resources every endpoint kind shares:
// GUID, locators, its own HistoryCache, and references to the
// participant-owned transport and event scheduler. It does not embed any
// behavior; StatelessWriter etc. compose it.
type Base struct {
	mu sync.Mutex

	Guid              guid.Guid
	Topic             string
	UnicastLocators   []locator.Locator
	MulticastLocators []locator.Locator
	Config            config.EndpointConfig

	History    *history.History
	Transport  transport.Transport
	Scheduler  *scheduler.Scheduler
}

// NewBase constructs a Base with a freshly sized history.
func NewBase(id guid.Guid, topic string, cfg config.EndpointConfig, tr transport.Transport, sched *scheduler.Scheduler) Base {
	return Base{
		Guid:      id,
		Topic:     topic,
		Config:    cfg,
		History:   history.New(cfg.HistoryMaxSize),
		Transport: tr,
		Scheduler: sched,
	}
}

// Lock/Unlock expose the endpoint's own mutex, matching spec.md §4.2's
// "per-endpoint recursive mutex" guard for history/pool mutation invoked
// from both the endpoint's own worker and the transport receive path.
// (Go has no recursive mutex; callers structure their call graphs to
// avoid re-entrant locking instead, matching the non-reentrant guidance
// the teacher's own code follows with plain sync.Mutex throughout.)
func (b *Base) Lock()   { b.mu.Lock() }
func (b *Base) Unlock() { b.mu.Unlock() }
