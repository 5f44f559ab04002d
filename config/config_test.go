package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quartzdds/rtps-core/config"
)

func TestDefaultEndpointConfig(t *testing.T) {
	cfg := config.DefaultEndpointConfig()
	require.Equal(t, 50, cfg.HistoryMaxSize)
	require.Equal(t, config.BestEffort, cfg.Reliability)
	require.Equal(t, 3*time.Second, cfg.ReliabilityTiming.HeartbeatPeriod.Duration())
	require.Equal(t, 200*time.Millisecond, cfg.ReliabilityTiming.NackResponseDelay.Duration())
}

func TestParseOverridesDefaults(t *testing.T) {
	text := `
history_max_size = 10
reliability = "RELIABLE"
push_mode = false

[reliability_timing]
heartbeat_period = "1s"
nack_response_delay = "50ms"
`
	cfg, err := config.Parse(text)
	require.NoError(t, err)
	require.Equal(t, 10, cfg.HistoryMaxSize)
	require.Equal(t, config.Reliable, cfg.Reliability)
	require.False(t, cfg.PushMode)
	require.Equal(t, time.Second, cfg.ReliabilityTiming.HeartbeatPeriod.Duration())
	require.Equal(t, 50*time.Millisecond, cfg.ReliabilityTiming.NackResponseDelay.Duration())

	// Fields not present in the TOML text keep their defaults.
	require.Equal(t, 500, cfg.MaxPayload)
	require.Equal(t, 500*time.Millisecond, cfg.ReliabilityTiming.HeartbeatResponseDelay.Duration())
}
