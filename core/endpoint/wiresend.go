package endpoint

import (
	"github.com/quartzdds/rtps-core/core/guid"
	"github.com/quartzdds/rtps-core/core/locator"
	"github.com/quartzdds/rtps-core/core/submessage"
	"github.com/quartzdds/rtps-core/core/transport"
	"github.com/quartzdds/rtps-core/core/wire"
)

// outboundSubmessage is one submessage queued for assembly into a
// datagram.
type outboundSubmessage struct {
	id    submessage.ID
	flags byte
	body  []byte
}

// sendBatch packs subs into as few RTPSMESSAGE_MAX_SIZE datagrams as
// possible and sends each to `to`, per spec.md §4.7's "close the datagram,
// ship it, start a new one" packing rule.
func sendBatch(tr transport.Transport, to locator.Locator, prefix guid.GuidPrefix, subs []outboundSubmessage) error {
	if len(subs) == 0 {
		return nil
	}
	header := submessage.Header{
		VersionMajor: submessage.ProtocolMajor,
		VersionMinor: submessage.ProtocolMinor,
		VendorID:     [2]byte{0x01, 0x0F},
		GuidPrefix:   prefix,
	}

	buf := wire.NewBuffer(submessage.MaxMessageSize)
	mb, err := submessage.NewBuilder(buf, header)
	if err != nil {
		return err
	}

	flush := func() error {
		if mb.Len() <= submessage.HeaderSize {
			return nil
		}
		if err := tr.Send(mb.Bytes(), to); err != nil {
			return err
		}
		buf.Reset()
		mb, err = submessage.NewBuilder(buf, header)
		return err
	}

	for _, s := range subs {
		if mb.WouldOverflow(len(s.body)) {
			if err := flush(); err != nil {
				return err
			}
		}
		if err := mb.AppendSubmessage(s.id, s.flags, s.body); err != nil {
			return err
		}
	}
	return flush()
}
