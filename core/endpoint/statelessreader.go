package endpoint

import (
	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/log"
	"github.com/quartzdds/rtps-core/core/submessage"
)

// StatelessReader is the best-effort reader (C7): it commits every DATA it
// receives from any writer straight into its history, deduplicating by
// (writer, sequence number), and never tracks proxies or sends ACKNACK.
type StatelessReader struct {
	Base

	log *log.Logger
}

// NewStatelessReader constructs a StatelessReader over base.
func NewStatelessReader(base Base) *StatelessReader {
	return &StatelessReader{Base: base, log: log.For("statelessreader")}
}

// ReceiveData handles an inbound DATA submessage addressed to this reader
// (or broadcast via guid.EntityIdUnknown), from writerGuid. Duplicates of
// a sequence number already present in history are silently dropped, per
// spec.md §4.8's best-effort duplicate-suppression rule.
func (r *StatelessReader) ReceiveData(writerGuid guid.Guid, d submessage.Data) error {
	if _, ok := r.History.GetChange(writerGuid, d.WriterSeq); ok {
		return nil
	}

	c, err := dataToChange(d, writerGuid)
	if err != nil {
		r.log.Errorf("decode DATA from %s: %s", writerGuid, err)
		return err
	}

	hd, slot, err := r.History.ReserveChange()
	if err != nil {
		r.log.Warnf("history full, dropping change seq=%d from %s", d.WriterSeq, writerGuid)
		return nil
	}
	*slot = *c

	if err := r.History.AddChange(hd, slot); err != nil {
		_ = r.History.ReleaseChange(hd)
		return nil
	}
	return nil
}
