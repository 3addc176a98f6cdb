package drone

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GetDroned/Drone/protocol"
)

func TestForwardFragment(t *testing.T) {
	f := newFixture(1, 0, 2, 3)

	f.drone.processPacket(fragment(1, []protocol.NodeID{1, 2}, 0))

	p := f.receive(t, 2)
	require.Equal(t, []protocol.NodeID{1, 2}, p.Header.Hops)
	require.Equal(t, 1, p.Header.HopIndex)

	ev := f.nextEvent(t)
	require.Equal(t, protocol.PacketSent, ev.Kind)
	require.Equal(t, 1, ev.Packet.Header.HopIndex)
}

func TestDestinationIsDroneNack(t *testing.T) {
	f := newFixture(1, 0, 2, 5)

	f.drone.processPacket(fragment(9, []protocol.NodeID{5, 1}, 1))

	p := f.receive(t, 5)
	require.Equal(t, []protocol.NodeID{1, 5}, p.Header.Hops)
	require.Equal(t, 1, p.Header.HopIndex)
	nack, ok := p.Payload.(protocol.Nack)
	require.True(t, ok)
	require.Equal(t, protocol.NackDestinationIsDrone, nack.Type.Kind)
}

func TestUnexpectedRecipientNack(t *testing.T) {
	f := newFixture(1, 0, 2)

	// The route says hop 1 should be node 2; this drone is node 1. The
	// return path is recovered by truncating at the first hop that is a
	// known neighbor.
	f.drone.processPacket(fragment(9, []protocol.NodeID{4, 2, 9}, 1))

	p := f.receive(t, 2)
	require.Equal(t, []protocol.NodeID{9, 2, 4}, p.Header.Hops)
	require.Equal(t, 1, p.Header.HopIndex)
	nack, ok := p.Payload.(protocol.Nack)
	require.True(t, ok)
	require.Equal(t, protocol.NackUnexpectedRecipient, nack.Type.Kind)
	require.Equal(t, protocol.NodeID(1), nack.Type.Node)
}

func TestUnexpectedRecipientWithoutKnownNeighbor(t *testing.T) {
	f := newFixture(1, 0, 2)

	// No hop of the route is a neighbor, so the truncated return route
	// starts and ends at the origin and the NACK cannot advance. The
	// controller has to take over.
	f.drone.processPacket(fragment(9, []protocol.NodeID{4, 9}, 0))

	ev := f.nextEvent(t)
	require.Equal(t, protocol.ControllerShortcut, ev.Kind)
	nack, ok := ev.Packet.Payload.(protocol.Nack)
	require.True(t, ok)
	require.Equal(t, protocol.NackUnexpectedRecipient, nack.Type.Kind)
}

func TestErrorInRoutingNack(t *testing.T) {
	f := newFixture(1, 0, 5)

	// Next hop 3 is not a neighbor.
	f.drone.processPacket(fragment(9, []protocol.NodeID{5, 1, 3}, 1))

	p := f.receive(t, 5)
	require.Equal(t, []protocol.NodeID{1, 5}, p.Header.Hops)
	nack, ok := p.Payload.(protocol.Nack)
	require.True(t, ok)
	require.Equal(t, protocol.NackErrorInRouting, nack.Type.Kind)
	require.Equal(t, protocol.NodeID(3), nack.Type.Node)
}

func TestDeadNextHopNack(t *testing.T) {
	f := newFixture(1, 0, 2, 5)
	f.links[2].Close()

	f.drone.processPacket(fragment(9, []protocol.NodeID{5, 1, 2}, 1))

	p := f.receive(t, 5)
	require.Equal(t, []protocol.NodeID{1, 5}, p.Header.Hops)
	nack, ok := p.Payload.(protocol.Nack)
	require.True(t, ok)
	require.Equal(t, protocol.NackErrorInRouting, nack.Type.Kind)
	require.Equal(t, protocol.NodeID(1), nack.Type.Node)
}

func TestPassthroughForwarded(t *testing.T) {
	f := newFixture(1, 0, 2, 5)

	ack := protocol.Packet{
		Session: 9,
		Header:  protocol.SourceRoutingHeader{Hops: []protocol.NodeID{5, 1, 2}, HopIndex: 1},
		Payload: protocol.Ack{FragmentIndex: 3},
	}
	f.drone.processPacket(ack)

	p := f.receive(t, 2)
	require.Equal(t, 2, p.Header.HopIndex)
	require.IsType(t, protocol.Ack{}, p.Payload)
}

func TestPassthroughShortcutOnBadRoute(t *testing.T) {
	f := newFixture(1, 0, 5)

	// Next hop 9 is unknown; an ACK is never NACKed, the controller must
	// deliver it instead.
	ack := protocol.Packet{
		Session: 9,
		Header:  protocol.SourceRoutingHeader{Hops: []protocol.NodeID{5, 1, 9}, HopIndex: 1},
		Payload: protocol.Ack{FragmentIndex: 3},
	}
	f.drone.processPacket(ack)

	ev := f.nextEvent(t)
	require.Equal(t, protocol.ControllerShortcut, ev.Kind)
	require.IsType(t, protocol.Ack{}, ev.Packet.Payload)
	require.Len(t, f.links[5].C(), 0)
}

func TestForwardAtRouteEndShortcuts(t *testing.T) {
	f := newFixture(1, 0, 2)

	resp := protocol.Packet{
		Session: 9,
		Header:  protocol.SourceRoutingHeader{Hops: []protocol.NodeID{2, 1}, HopIndex: 1},
		Payload: protocol.FloodResponse{FloodID: 7},
	}
	f.drone.forward(resp)

	ev := f.nextEvent(t)
	require.Equal(t, protocol.ControllerShortcut, ev.Kind)
}

func TestZeroDropRateNeverDrops(t *testing.T) {
	f := newFixture(1, 0.0, 2, 5)

	for i := 0; i < 50; i++ {
		f.drone.processPacket(fragment(protocol.SessionID(i), []protocol.NodeID{5, 1, 2}, 1))
		p := f.receive(t, 2)
		require.IsType(t, protocol.MsgFragment{}, p.Payload)
		ev := f.nextEvent(t)
		require.Equal(t, protocol.PacketSent, ev.Kind)
	}
}

func TestFullDropRateAlwaysDrops(t *testing.T) {
	f := newFixture(1, 1.0, 2, 5)

	for i := 0; i < 50; i++ {
		f.drone.processPacket(fragment(protocol.SessionID(i), []protocol.NodeID{5, 1, 2}, 1))

		// The NACK goes back toward the origin, never to the next hop.
		p := f.receive(t, 5)
		nack, ok := p.Payload.(protocol.Nack)
		require.True(t, ok)
		require.Equal(t, protocol.NackDropped, nack.Type.Kind)
		require.Len(t, f.links[2].C(), 0)

		// Sending the NACK is itself a send event; the drop event follows.
		ev := f.nextEvent(t)
		require.Equal(t, protocol.PacketSent, ev.Kind)
		ev = f.nextEvent(t)
		require.Equal(t, protocol.PacketDropped, ev.Kind)
	}
}

func TestCrashedDroneNacksFragments(t *testing.T) {
	f := newFixture(1, 0, 2, 5)
	f.drone.processCommand(protocol.Crash{})

	f.drone.processPacket(fragment(9, []protocol.NodeID{5, 1, 2}, 1))

	p := f.receive(t, 5)
	nack, ok := p.Payload.(protocol.Nack)
	require.True(t, ok)
	require.Equal(t, protocol.NackErrorInRouting, nack.Type.Kind)
	require.Equal(t, protocol.NodeID(1), nack.Type.Node)
	require.Len(t, f.links[2].C(), 0)
}

func TestCrashedDroneStillForwardsPassthrough(t *testing.T) {
	f := newFixture(1, 0, 2, 5)
	f.drone.processCommand(protocol.Crash{})

	ack := protocol.Packet{
		Session: 9,
		Header:  protocol.SourceRoutingHeader{Hops: []protocol.NodeID{5, 1, 2}, HopIndex: 1},
		Payload: protocol.Ack{FragmentIndex: 3},
	}
	f.drone.processPacket(ack)

	p := f.receive(t, 2)
	require.IsType(t, protocol.Ack{}, p.Payload)
}
