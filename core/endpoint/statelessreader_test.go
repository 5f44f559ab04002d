package endpoint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quartzdds/rtps-core/config"
	"github.com/quartzdds/rtps-core/core/change"
	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/seqnum"
	"github.com/quartzdds/rtps-core/core/submessage"
	"github.com/quartzdds/rtps-core/core/transport"
)

func newTestStatelessReader(t *testing.T) *StatelessReader {
	t.Helper()
	base := NewBase(testGuid(2), "topic", config.DefaultEndpointConfig(), transport.NewLoopback(), nil)
	return NewStatelessReader(base)
}

func TestStatelessReaderCommitsNewChange(t *testing.T) {
	r := newTestStatelessReader(t)
	writer := testGuid(1)

	d := submessage.Data{
		ReaderID:       guid.EntityIdUnknown,
		WriterID:       writer.EntityId,
		WriterSeq:      seqnum.SequenceNumber(1),
		SerializedData: []byte("hello"),
	}
	require.NoError(t, r.ReceiveData(writer, d))

	c, ok := r.History.GetChange(writer, seqnum.SequenceNumber(1))
	require.True(t, ok)
	require.Equal(t, []byte("hello"), c.SerializedPayload.Data)
	require.Equal(t, change.Alive, c.Kind)
}

func TestStatelessReaderDropsDuplicateSeqNum(t *testing.T) {
	r := newTestStatelessReader(t)
	writer := testGuid(1)

	d := submessage.Data{
		WriterID:       writer.EntityId,
		WriterSeq:      seqnum.SequenceNumber(5),
		SerializedData: []byte("first"),
	}
	require.NoError(t, r.ReceiveData(writer, d))
	require.NoError(t, r.ReceiveData(writer, d))

	require.Equal(t, 1, r.History.Size())
}
