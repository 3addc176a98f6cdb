// Package drone implements a single relay node of the simulated packet
// network. A drone validates and forwards source-routed packets, simulates
// unreliable links through a configurable drop rate, propagates discovery
// floods, and reports outcomes to the simulation controller.
package drone

import (
	log "github.com/sirupsen/logrus"

	"github.com/GetDroned/Drone/protocol"
)

type floodKey struct {
	initiator protocol.NodeID
	floodID   uint64
}

// Drone owns all of its state and is driven by exactly one goroutine (Run),
// so none of it needs locking. Neighbor endpoints may be written to by other
// drones concurrently; protocol.Chan takes care of that boundary.
type Drone struct {
	id       protocol.NodeID
	dropRate float32

	packetIn  *protocol.Chan[protocol.Packet]
	commands  *protocol.Chan[protocol.DroneCommand]
	events    *protocol.Chan[protocol.DroneEvent]
	neighbors map[protocol.NodeID]*protocol.Chan[protocol.Packet]

	crashed bool

	// Grows for the drone's lifetime, one entry per distinct flood seen.
	// Fine for simulation runs; a long-lived deployment would need eviction.
	seenFloods map[floodKey]struct{}

	log *log.Entry
}

// New builds a drone. The controller supplies both inbound endpoints, the
// outbound event endpoint, the initial neighbor table and the drop rate.
func New(
	id protocol.NodeID,
	events *protocol.Chan[protocol.DroneEvent],
	commands *protocol.Chan[protocol.DroneCommand],
	packetIn *protocol.Chan[protocol.Packet],
	neighbors map[protocol.NodeID]*protocol.Chan[protocol.Packet],
	dropRate float32,
) *Drone {
	senders := make(map[protocol.NodeID]*protocol.Chan[protocol.Packet], len(neighbors))
	for nid, sender := range neighbors {
		senders[nid] = sender
	}
	d := &Drone{
		id:         id,
		dropRate:   dropRate,
		packetIn:   packetIn,
		commands:   commands,
		events:     events,
		neighbors:  senders,
		seenFloods: make(map[floodKey]struct{}),
		log:        log.WithField("drone", id),
	}
	d.log.WithFields(log.Fields{
		"event":     "drone_created",
		"pdr":       dropRate,
		"neighbors": len(senders),
	}).Info()
	return d
}

// ID returns the drone's network identifier.
func (d *Drone) ID() protocol.NodeID {
	return d.id
}

// Run services commands and packets until shutdown. Commands win ties with
// packets so that a Crash or RemoveSender is never overtaken by in-flight
// traffic. The loop ends when the packet channel closes after a crash; a
// closed channel without a prior crash is logged and masked rather than
// spun on.
func (d *Drone) Run() {
	d.log.WithFields(log.Fields{"event": "drone_started"}).Info()

	cmdC := d.commands.C()
	pktC := d.packetIn.C()
	for {
		if cmdC == nil && pktC == nil {
			d.log.WithFields(log.Fields{"event": "drone_stopped", "reason": "all channels closed"}).Warn()
			return
		}

		select {
		case cmd, ok := <-cmdC:
			if !ok {
				d.log.WithFields(log.Fields{"event": "command_channel_closed"}).Warn()
				cmdC = nil
				continue
			}
			d.processCommand(cmd)
			continue
		default:
		}

		select {
		case cmd, ok := <-cmdC:
			if !ok {
				d.log.WithFields(log.Fields{"event": "command_channel_closed"}).Warn()
				cmdC = nil
				continue
			}
			d.processCommand(cmd)
		case p, ok := <-pktC:
			if !ok {
				if d.crashed {
					d.log.WithFields(log.Fields{"event": "drone_stopped", "reason": "crashed"}).Info()
					return
				}
				d.log.WithFields(log.Fields{"event": "packet_channel_closed"}).Warn()
				pktC = nil
				continue
			}
			d.processPacket(p)
		}
	}
}

// processCommand applies one controller directive. Each command touches
// exactly one piece of state and cannot fail.
func (d *Drone) processCommand(cmd protocol.DroneCommand) {
	switch c := cmd.(type) {
	case protocol.AddSender:
		d.neighbors[c.ID] = c.Sender
		d.log.WithFields(log.Fields{"event": "sender_added", "neighbor": c.ID}).Info()
	case protocol.RemoveSender:
		delete(d.neighbors, c.ID)
		d.log.WithFields(log.Fields{"event": "sender_removed", "neighbor": c.ID}).Info()
	case protocol.SetPacketDropRate:
		d.dropRate = c.Rate
		d.log.WithFields(log.Fields{"event": "pdr_set", "pdr": c.Rate}).Info()
	case protocol.Crash:
		d.crashed = true
		d.log.WithFields(log.Fields{"event": "crashed"}).Info()
	}
}

// emit notifies the controller of an outcome. A controller that stopped
// listening must never stall the drone, so failures are only logged.
func (d *Drone) emit(ev protocol.DroneEvent) {
	d.log.WithFields(log.Fields{
		"event":   ev.Kind.String(),
		"session": ev.Packet.Session,
	}).Info()
	if err := d.events.Send(ev); err != nil {
		d.log.WithFields(log.Fields{"event": "event_send_failed", "kind": ev.Kind.String()}).Warn(err)
	}
}
