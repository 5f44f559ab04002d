// Package config loads the TOML-configurable options spec.md §6 lists for
// an endpoint: history sizing, reliability/durability policy, and the
// reliability timing parameters. Defaults mirror the C++
// DDS_Reliability_t defaults in
// original_source/include/eprosimartps/common/rtps_common.h. Loaded with
// github.com/BurntSushi/toml, grounded on the teacher's go.mod dependency.
package config

import (
	"time"

	"github.com/BurntSushi/toml"
)

// Duration wraps time.Duration so TOML text values like "200ms" decode via
// encoding.TextUnmarshaler (BurntSushi/toml has no native duration type).
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// Reliability selects best-effort vs reliable delivery for an endpoint.
type Reliability string

const (
	BestEffort Reliability = "BEST_EFFORT"
	Reliable   Reliability = "RELIABLE"
)

// Durability controls whether a newly matched reader receives historical
// changes. TRANSIENT/PERSISTENT imply a PayloadStorage-backed history,
// which lives outside this core per spec.md §1; this core only records
// the policy value.
type Durability string

const (
	Volatile        Durability = "VOLATILE"
	TransientLocal  Durability = "TRANSIENT_LOCAL"
	Transient       Durability = "TRANSIENT"
	Persistent      Durability = "PERSISTENT"
)

// ReliabilityConfig carries the stateful-writer/reader timing parameters
// from spec.md §6's configuration table. Defaults: heartbeat_period=3s,
// nack_response_delay=200ms, heartbeat_response_delay=500ms,
// hb_per_max_samples=5, nack_suppression_duration=0.
type ReliabilityConfig struct {
	HeartbeatPeriod         Duration `toml:"heartbeat_period"`
	NackResponseDelay       Duration `toml:"nack_response_delay"`
	NackSuppressionDuration Duration `toml:"nack_suppression_duration"`
	HeartbeatResponseDelay  Duration `toml:"heartbeat_response_delay"`
	HeartbeatsPerMaxSamples int      `toml:"hb_per_max_samples"`
}

// DefaultReliabilityConfig returns the eProsima DDS_Reliability_t defaults.
func DefaultReliabilityConfig() ReliabilityConfig {
	return ReliabilityConfig{
		HeartbeatPeriod:         Duration(3 * time.Second),
		NackResponseDelay:       Duration(200 * time.Millisecond),
		NackSuppressionDuration: 0,
		HeartbeatResponseDelay:  Duration(500 * time.Millisecond),
		HeartbeatsPerMaxSamples: 5,
	}
}

// EndpointConfig is the full set of recognized per-endpoint options from
// spec.md §6.
type EndpointConfig struct {
	HistoryMaxSize   int         `toml:"history_max_size"`
	MaxPayload       int         `toml:"max_payload"`
	Reliability      Reliability `toml:"reliability"`
	Durability       Durability  `toml:"durability"`
	PushMode         bool        `toml:"push_mode"`
	ExpectsInlineQos bool        `toml:"expects_inline_qos"`
	TopicKindWithKey bool        `toml:"topic_kind_with_key"`

	ReliabilityTiming ReliabilityConfig `toml:"reliability_timing"`
}

// DefaultEndpointConfig returns a best-effort, volatile, push-mode
// endpoint with the eProsima reliability timing defaults and a modest
// history/payload sizing.
func DefaultEndpointConfig() EndpointConfig {
	return EndpointConfig{
		HistoryMaxSize:    50,
		MaxPayload:        500,
		Reliability:       BestEffort,
		Durability:        Volatile,
		PushMode:          true,
		ReliabilityTiming: DefaultReliabilityConfig(),
	}
}

// Load reads an EndpointConfig from a TOML file at path, starting from
// DefaultEndpointConfig so unspecified fields keep their defaults.
func Load(path string) (EndpointConfig, error) {
	cfg := DefaultEndpointConfig()
	_, err := toml.DecodeFile(path, &cfg)
	return cfg, err
}

// Parse reads an EndpointConfig from TOML text, same defaulting rule as
// Load.
func Parse(text string) (EndpointConfig, error) {
	cfg := DefaultEndpointConfig()
	_, err := toml.Decode(text, &cfg)
	return cfg, err
}
