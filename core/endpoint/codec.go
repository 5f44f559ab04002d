package endpoint

import (
	"github.com/quartzdds/rtps-core/core/change"
	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/qos"
	"github.com/quartzdds/rtps-core/core/rtpserr"
	"github.com/quartzdds/rtps-core/core/submessage"
	"github.com/quartzdds/rtps-core/core/wire"
)

// changeToData builds a DATA submessage body for c, addressed to
// readerID. Inline QoS carries the key hash and status info for a
// non-ALIVE change whose topic is keyed, matching the end-to-end scenario
// in spec.md §8 item 4.
func changeToData(c *change.CacheChange, writerID, readerID guid.EntityId, topicKindWithKey bool) (submessage.Data, error) {
	d := submessage.Data{
		ReaderID: readerID,
		WriterID: writerID,
		WriterSeq: c.SequenceNumber,
	}

	if c.Kind != change.Alive && topicKindWithKey {
		var pl qos.ParameterList
		pl.AddKeyHash(c.InstanceHandle)
		var status byte
		switch c.Kind {
		case change.NotAliveDisposed:
			status = qos.StatusInfoDisposed
		case change.NotAliveUnregistered:
			status = qos.StatusInfoUnregistered
		case change.NotAliveDisposedUnregistered:
			status = qos.StatusInfoDisposed | qos.StatusInfoUnregistered
		}
		pl.AddStatusInfo(status)

		buf := wire.NewBuffer(256)
		if err := qos.Encode(buf, pl); err != nil {
			return d, err
		}
		d.InlineQoS = buf.Bytes()
		d.InlineQoSList = pl
		d.HasKey = true
		d.SerializedData = c.InstanceHandle[:]
		return d, nil
	}

	d.SerializedData = c.SerializedPayload.Data
	return d, nil
}

// dataToChange reconstructs a CacheChange from a parsed DATA submessage.
func dataToChange(d submessage.Data, writerGuid guid.Guid) (*change.CacheChange, error) {
	if d.WriterSeq.IsUnknown() || !d.WriterSeq.Valid() {
		return nil, rtpserr.ErrSubmessageMalformed
	}
	c := &change.CacheChange{
		WriterGuid:     writerGuid,
		SequenceNumber: d.WriterSeq,
		Kind:           change.Alive,
	}
	if status, ok := d.InlineQoSList.StatusInfo(); ok {
		switch {
		case status&qos.StatusInfoDisposed != 0 && status&qos.StatusInfoUnregistered != 0:
			c.Kind = change.NotAliveDisposedUnregistered
		case status&qos.StatusInfoDisposed != 0:
			c.Kind = change.NotAliveDisposed
		case status&qos.StatusInfoUnregistered != 0:
			c.Kind = change.NotAliveUnregistered
		}
	}
	if kh, ok := d.InlineQoSList.KeyHash(); ok {
		c.InstanceHandle = kh
	}
	c.SerializedPayload.Data = d.SerializedData
	return c, nil
}
