// Package simulation is the controller side of a drone network: it wires
// drones together from a topology config, runs them, and speaks the command
// and event contract on behalf of the operator.
package simulation

import (
	"fmt"
	"sync"

	"github.com/rs/xid"
	log "github.com/sirupsen/logrus"

	config "github.com/GetDroned/Drone/config/simulator"
	"github.com/GetDroned/Drone/drone"
	"github.com/GetDroned/Drone/protocol"
)

const defaultQueueLength = 1000

// Network owns every channel endpoint of a simulated drone network and
// exposes the controller operations on it. All mutating methods must be
// called from one goroutine; the drones themselves run concurrently.
type Network struct {
	runID    string
	queueLen int

	drones    map[protocol.NodeID]*drone.Drone
	packetIns map[protocol.NodeID]*protocol.Chan[protocol.Packet]
	commands  map[protocol.NodeID]*protocol.Chan[protocol.DroneCommand]
	neighbors map[protocol.NodeID]map[protocol.NodeID]bool
	events    *protocol.Chan[protocol.DroneEvent]

	wg  sync.WaitGroup
	log *log.Entry
}

// New builds an unstarted network from a topology config. Every id named in
// a Connected list must itself be a configured drone.
func New(cfg config.Config) (*Network, error) {
	queueLen := cfg.General.MaxQueueLength
	if queueLen <= 0 {
		queueLen = defaultQueueLength
	}

	n := &Network{
		runID:     xid.New().String(),
		queueLen:  queueLen,
		drones:    make(map[protocol.NodeID]*drone.Drone),
		packetIns: make(map[protocol.NodeID]*protocol.Chan[protocol.Packet]),
		commands:  make(map[protocol.NodeID]*protocol.Chan[protocol.DroneCommand]),
		neighbors: make(map[protocol.NodeID]map[protocol.NodeID]bool),
		events:    protocol.NewChan[protocol.DroneEvent](queueLen),
	}
	n.log = log.WithField("run", n.runID)

	for _, dc := range cfg.Drones {
		if _, dup := n.packetIns[dc.ID]; dup {
			return nil, fmt.Errorf("drone %d configured twice", dc.ID)
		}
		n.packetIns[dc.ID] = protocol.NewChan[protocol.Packet](queueLen)
		n.commands[dc.ID] = protocol.NewChan[protocol.DroneCommand](queueLen)
		n.neighbors[dc.ID] = make(map[protocol.NodeID]bool)
	}

	for _, dc := range cfg.Drones {
		senders := make(map[protocol.NodeID]*protocol.Chan[protocol.Packet], len(dc.Connected))
		for _, nid := range dc.Connected {
			in, ok := n.packetIns[nid]
			if !ok {
				return nil, fmt.Errorf("drone %d connected to unknown drone %d", dc.ID, nid)
			}
			senders[nid] = in
			n.neighbors[dc.ID][nid] = true
		}
		n.drones[dc.ID] = drone.New(dc.ID, n.events, n.commands[dc.ID], n.packetIns[dc.ID], senders, dc.PDR)
	}

	n.log.WithFields(log.Fields{"event": "network_created", "drones": len(n.drones)}).Info()
	return n, nil
}

// RunID identifies this network instance in logs.
func (n *Network) RunID() string {
	return n.runID
}

// Start launches one goroutine per drone.
func (n *Network) Start() {
	n.log.WithFields(log.Fields{"event": "network_started"}).Info()
	for _, d := range n.drones {
		n.wg.Add(1)
		go func(d *drone.Drone) {
			defer n.wg.Done()
			d.Run()
		}(d)
	}
}

// Events exposes the shared event stream from all drones.
func (n *Network) Events() <-chan protocol.DroneEvent {
	return n.events.C()
}

func (n *Network) command(id protocol.NodeID, cmd protocol.DroneCommand) error {
	c, ok := n.commands[id]
	if !ok {
		return fmt.Errorf("unknown drone %d", id)
	}
	return c.Send(cmd)
}

// SetDropRate changes a drone's drop probability.
func (n *Network) SetDropRate(id protocol.NodeID, pdr float32) error {
	return n.command(id, protocol.SetPacketDropRate{Rate: pdr})
}

// AddLink connects two drones in both directions.
func (n *Network) AddLink(a, b protocol.NodeID) error {
	inA, okA := n.packetIns[a]
	inB, okB := n.packetIns[b]
	if !okA || !okB {
		return fmt.Errorf("unknown drone in link %d-%d", a, b)
	}
	if err := n.command(a, protocol.AddSender{ID: b, Sender: inB}); err != nil {
		return err
	}
	if err := n.command(b, protocol.AddSender{ID: a, Sender: inA}); err != nil {
		return err
	}
	n.neighbors[a][b] = true
	n.neighbors[b][a] = true
	return nil
}

// RemoveLink disconnects two drones in both directions.
func (n *Network) RemoveLink(a, b protocol.NodeID) error {
	if err := n.command(a, protocol.RemoveSender{ID: b}); err != nil {
		return err
	}
	if err := n.command(b, protocol.RemoveSender{ID: a}); err != nil {
		return err
	}
	delete(n.neighbors[a], b)
	delete(n.neighbors[b], a)
	return nil
}

// Attach registers an external endpoint (a client or server in the larger
// simulation) as a neighbor of the given drone and returns the channel the
// endpoint receives on. Packets are injected toward the drone with Inject.
func (n *Network) Attach(id protocol.NodeID, to protocol.NodeID) (*protocol.Chan[protocol.Packet], error) {
	if _, ok := n.packetIns[id]; ok {
		return nil, fmt.Errorf("id %d already taken by a drone", id)
	}
	endpoint := protocol.NewChan[protocol.Packet](n.queueLen)
	if err := n.command(to, protocol.AddSender{ID: id, Sender: endpoint}); err != nil {
		return nil, err
	}
	return endpoint, nil
}

// Inject delivers a packet to a drone's inbound channel, standing in for a
// neighboring client or server.
func (n *Network) Inject(id protocol.NodeID, p protocol.Packet) error {
	in, ok := n.packetIns[id]
	if !ok {
		return fmt.Errorf("unknown drone %d", id)
	}
	return in.Send(p)
}

// Crash takes a drone out of the network: its neighbors forget it, it is
// told to crash, and both its inbound channels are closed so its run loop
// can drain and exit. The order matters; the crash command must be in the
// command queue before the closures are observable.
func (n *Network) Crash(id protocol.NodeID) error {
	in, ok := n.packetIns[id]
	if !ok {
		return fmt.Errorf("unknown drone %d", id)
	}
	for nid := range n.neighbors[id] {
		if err := n.command(nid, protocol.RemoveSender{ID: id}); err != nil {
			n.log.WithFields(log.Fields{"event": "remove_sender_failed", "drone": nid}).Warn(err)
		}
		delete(n.neighbors[nid], id)
	}
	if err := n.command(id, protocol.Crash{}); err != nil {
		return err
	}
	n.commands[id].Close()
	in.Close()

	delete(n.packetIns, id)
	delete(n.commands, id)
	delete(n.drones, id)
	delete(n.neighbors, id)
	n.log.WithFields(log.Fields{"event": "drone_removed", "drone": id}).Info()
	return nil
}

// Shutdown crashes every remaining drone, waits for their run loops to
// drain, and closes the event stream.
func (n *Network) Shutdown() {
	ids := make([]protocol.NodeID, 0, len(n.drones))
	for id := range n.drones {
		ids = append(ids, id)
	}
	for _, id := range ids {
		if err := n.Crash(id); err != nil {
			n.log.WithFields(log.Fields{"event": "crash_failed", "drone": id}).Warn(err)
		}
	}
	n.wg.Wait()
	n.events.Close()
	n.log.WithFields(log.Fields{"event": "network_stopped"}).Info()
}
