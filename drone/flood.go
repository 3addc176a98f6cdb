package drone

import (
	"github.com/GetDroned/Drone/protocol"
)

// processFloodRequest runs the discovery state machine. The drone appends
// itself to the path trace, then either terminates the flood into a response
// (already seen, or nowhere to forward but back) or marks it seen and fans
// it out to every neighbor except the one it came from. The dedup set is
// what keeps cyclic topologies from re-broadcasting forever.
func (d *Drone) processFloodRequest(p protocol.Packet, req protocol.FloodRequest) {
	senderID := req.Initiator
	if n := len(req.PathTrace); n > 0 {
		senderID = req.PathTrace[n-1].ID
	}

	req = req.Append(d.id, protocol.NodeTypeDrone)

	key := floodKey{initiator: req.Initiator, floodID: req.FloodID}
	if _, seen := d.seenFloods[key]; seen || len(d.neighbors) == 1 {
		d.forward(req.GenerateResponse(p.Session))
		return
	}

	d.seenFloods[key] = struct{}{}
	p.Payload = req
	d.broadcast(p, senderID)
}

// broadcast fans a flood request out to every neighbor except receivedFrom.
// Fan-out is best effort: a dead neighbor is skipped without a NACK or an
// event, each delivered copy is reported as sent.
func (d *Drone) broadcast(p protocol.Packet, receivedFrom protocol.NodeID) {
	for id, sender := range d.neighbors {
		if id == receivedFrom {
			continue
		}
		if err := sender.Send(p); err != nil {
			continue
		}
		d.emit(protocol.DroneEvent{Kind: protocol.PacketSent, Packet: p})
	}
}
