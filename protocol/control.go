package protocol

// DroneCommand is a directive from the simulation controller to a drone.
type DroneCommand interface {
	isDroneCommand()
}

// AddSender hands the drone an outbound endpoint for a new neighbor.
type AddSender struct {
	ID     NodeID
	Sender *Chan[Packet]
}

// RemoveSender disconnects a neighbor.
type RemoveSender struct {
	ID NodeID
}

// SetPacketDropRate overwrites the drone's drop probability. The controller
// is responsible for keeping Rate in [0, 1].
type SetPacketDropRate struct {
	Rate float32
}

// Crash puts the drone in its terminal crashed state.
type Crash struct{}

func (AddSender) isDroneCommand()         {}
func (RemoveSender) isDroneCommand()      {}
func (SetPacketDropRate) isDroneCommand() {}
func (Crash) isDroneCommand()             {}

// EventKind classifies a DroneEvent.
type EventKind int

const (
	// PacketSent reports a packet handed to a neighbor.
	PacketSent EventKind = iota
	// PacketDropped reports a simulated loss.
	PacketDropped
	// ControllerShortcut asks the controller to deliver the packet
	// out of band because the drone cannot route it.
	ControllerShortcut
)

func (k EventKind) String() string {
	switch k {
	case PacketSent:
		return "packet_sent"
	case PacketDropped:
		return "packet_dropped"
	case ControllerShortcut:
		return "controller_shortcut"
	}
	return "unknown"
}

// DroneEvent is an outcome notification sent to the controller.
type DroneEvent struct {
	Kind   EventKind
	Packet Packet
}
