package pool_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quartzdds/rtps-core/core/pool"
	"github.com/quartzdds/rtps-core/core/rtpserr"
)

type record struct {
	N int
}

func TestReserveGrowsUpToMax(t *testing.T) {
	p := pool.New[record](2, func(r *record) { *r = record{} })

	h1, r1, err := p.Reserve()
	require.NoError(t, err)
	r1.N = 1
	require.Equal(t, 1, p.Len())

	h2, r2, err := p.Reserve()
	require.NoError(t, err)
	r2.N = 2
	require.Equal(t, 2, p.Len())
	require.NotEqual(t, h1, h2)

	_, _, err = p.Reserve()
	require.ErrorIs(t, err, rtpserr.ErrPoolExhausted)
}

func TestReleaseResetsAndFreesSlot(t *testing.T) {
	p := pool.New[record](1, func(r *record) { *r = record{} })

	h, r, err := p.Reserve()
	require.NoError(t, err)
	r.N = 42

	require.NoError(t, p.Release(h))
	require.Equal(t, 0, p.Len())

	_, ok := p.Get(h)
	require.False(t, ok, "a released handle must not dereference")

	h2, r2, err := p.Reserve()
	require.NoError(t, err)
	require.Equal(t, 0, r2.N, "reset function must run before reuse")
	require.NotEqual(t, h, h2, "generation must bump across reuse so stale handles can't alias")
}

func TestReleaseRejectsUnknownOrStaleHandle(t *testing.T) {
	p := pool.New[record](1, nil)

	h, _, err := p.Reserve()
	require.NoError(t, err)
	require.NoError(t, p.Release(h))

	require.ErrorIs(t, p.Release(h), rtpserr.ErrNotOwned, "double release must fail")

	var unknown pool.Handle
	require.ErrorIs(t, p.Release(unknown), rtpserr.ErrNotOwned)
}

func TestGetReturnsFalseForStaleGeneration(t *testing.T) {
	p := pool.New[record](1, nil)

	h, _, err := p.Reserve()
	require.NoError(t, err)
	require.NoError(t, p.Release(h))

	h2, _, err := p.Reserve()
	require.NoError(t, err)

	_, ok := p.Get(h)
	require.False(t, ok)
	_, ok = p.Get(h2)
	require.True(t, ok)
}
