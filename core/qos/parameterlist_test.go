package qos_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quartzdds/rtps-core/core/change"
	"github.com/quartzdds/rtps-core/core/locator"
	"github.com/quartzdds/rtps-core/core/qos"
	"github.com/quartzdds/rtps-core/core/wire"
)

func TestParameterListRoundTrip(t *testing.T) {
	var pl qos.ParameterList
	pl.AddString(qos.PIDTopicName, "example_topic")
	pl.AddLocator(qos.PIDUnicastLocator, locator.NewUDPv4([]byte{10, 0, 0, 1}, 7410))
	var h change.InstanceHandle
	h[0] = 0xAB
	pl.AddKeyHash(h)
	pl.AddStatusInfo(qos.StatusInfoDisposed)

	b := wire.NewBuffer(256)
	require.NoError(t, qos.Encode(b, pl))

	r := wire.NewReader(b.Bytes())
	got, err := qos.Decode(r, 0)
	require.NoError(t, err)
	require.Len(t, got.Params, 4)

	topic, ok := got.String(qos.PIDTopicName)
	require.True(t, ok)
	require.Equal(t, "example_topic", topic)

	loc, ok := got.Locator(qos.PIDUnicastLocator)
	require.True(t, ok)
	require.Equal(t, uint32(7410), loc.Port)

	gotHash, ok := got.KeyHash()
	require.True(t, ok)
	require.Equal(t, h, gotHash)

	status, ok := got.StatusInfo()
	require.True(t, ok)
	require.Equal(t, qos.StatusInfoDisposed, status)
}

func TestParameterListSkipsUnknownPID(t *testing.T) {
	b := wire.NewBuffer(64)
	require.NoError(t, b.WriteUint16(0x9999)) // unknown PID
	require.NoError(t, b.WriteUint16(4))
	require.NoError(t, b.WriteUint32(0))
	require.NoError(t, b.WriteUint16(uint16(qos.PIDSentinel)))
	require.NoError(t, b.WriteUint16(0))

	r := wire.NewReader(b.Bytes())
	pl, err := qos.Decode(r, 0)
	require.NoError(t, err)
	require.Len(t, pl.Params, 1)
	require.Equal(t, qos.PID(0x9999), pl.Params[0].PID)
}
