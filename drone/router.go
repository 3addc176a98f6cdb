package drone

import (
	"math/rand"

	log "github.com/sirupsen/logrus"

	"github.com/GetDroned/Drone/protocol"
)

// processPacket classifies a packet and routes it. Flood requests bypass
// route validation entirely since they carry no usable source route. The
// passthrough types (Ack, Nack, FloodResponse) are never NACKed; when they
// cannot advance, the controller is asked to deliver them out of band.
func (d *Drone) processPacket(p protocol.Packet) {
	switch payload := p.Payload.(type) {
	case protocol.MsgFragment:
		if nack, ok := d.validateRoute(p); !ok {
			d.sendNack(p, nack)
			return
		}
		d.processFragment(p)
	case protocol.FloodRequest:
		d.processFloodRequest(p, payload)
	default:
		if _, ok := d.validateRoute(p); !ok {
			d.emit(protocol.DroneEvent{Kind: protocol.ControllerShortcut, Packet: p})
			return
		}
		d.forward(p)
	}
}

// validateRoute checks that the packet may advance through this drone.
// It inspects a copy of the header and never mutates the packet.
func (d *Drone) validateRoute(p protocol.Packet) (protocol.NackType, bool) {
	current, ok := p.Header.CurrentHop()
	if !ok || current != d.id {
		return protocol.UnexpectedRecipient(d.id), false
	}
	p.Header.HopIndex++
	if p.Header.HopIndex == len(p.Header.Hops) {
		return protocol.DestinationIsDrone(), false
	}
	next := p.Header.Hops[p.Header.HopIndex]
	if _, known := d.neighbors[next]; !known {
		return protocol.ErrorInRouting(next), false
	}
	return protocol.NackType{}, true
}

// processFragment applies the failure simulation to a validated fragment.
// A crashed drone refuses everything; otherwise the fragment survives a
// uniform draw against the drop rate or is NACKed as dropped. The dropped
// event and the dropped NACK both happen: one is observability, the other
// is protocol.
func (d *Drone) processFragment(p protocol.Packet) {
	if d.crashed {
		d.sendNack(p, protocol.ErrorInRouting(d.id))
		return
	}
	if d.dropRate > 0 && rand.Float32() < d.dropRate {
		d.sendNack(p, protocol.Dropped())
		d.emit(protocol.DroneEvent{Kind: protocol.PacketDropped, Packet: p})
		return
	}
	d.forward(p)
}

// forward advances the packet's cursor and hands it to the next neighbor.
// On a send failure, fragments and flood requests are NACKed back along the
// pre-advance route; the passthrough types become controller shortcuts. A
// packet already at the end of its route is also a controller shortcut.
func (d *Drone) forward(p protocol.Packet) {
	original := p

	next, ok := p.Header.NextHop()
	if !ok {
		d.emit(protocol.DroneEvent{Kind: protocol.ControllerShortcut, Packet: p})
		return
	}
	p.Header.HopIndex++

	sender, known := d.neighbors[next]
	if !known {
		d.log.WithFields(log.Fields{"event": "no_sender", "next_hop": next}).Debug()
		return
	}
	if err := sender.Send(p); err != nil {
		switch p.Payload.(type) {
		case protocol.MsgFragment, protocol.FloodRequest:
			d.sendNack(original, protocol.ErrorInRouting(d.id))
		default:
			d.emit(protocol.DroneEvent{Kind: protocol.ControllerShortcut, Packet: p})
		}
		return
	}
	d.emit(protocol.DroneEvent{Kind: protocol.PacketSent, Packet: p})
}

// sendNack builds a NACK routed along the reverse of the packet's path,
// truncated at this drone's position. An UnexpectedRecipient NACK cannot
// trust that position, so the path is rescanned from the start and truncated
// at the first hop that is a known neighbor, which recovers a usable return
// route. The NACK then travels under the ordinary forward semantics.
func (d *Drone) sendNack(p protocol.Packet, nackType protocol.NackType) {
	nack := protocol.Nack{FragmentIndex: p.FragmentIndex(), Type: nackType}

	if nackType.Kind == protocol.NackUnexpectedRecipient {
		for i, hop := range p.Header.Hops {
			if _, known := d.neighbors[hop]; known {
				p.Header.HopIndex = i + 1
				break
			}
		}
	}

	header, ok := p.Header.SubRoute(p.Header.HopIndex + 1)
	if !ok {
		d.log.WithFields(log.Fields{
			"event":   "nack_unroutable",
			"session": p.Session,
			"reason":  nackType.Kind.String(),
		}).Warn()
		return
	}
	d.forward(protocol.NewNack(header.Reversed(), p.Session, nack))
}
