package protocol

// NodeID identifies a node in the simulated network. IDs are assigned by the
// network initializer and never change for the lifetime of a node.
type NodeID = uint8

// SessionID ties the fragments of one message exchange together.
type SessionID = uint64

// NodeType tells a flood initiator what kind of node a hop in the discovered
// path is.
type NodeType int

const (
	NodeTypeClient NodeType = iota
	NodeTypeDrone
	NodeTypeServer
)

func (t NodeType) String() string {
	switch t {
	case NodeTypeClient:
		return "client"
	case NodeTypeDrone:
		return "drone"
	case NodeTypeServer:
		return "server"
	}
	return "unknown"
}

// PacketType is implemented by every payload variant a Packet can carry.
type PacketType interface {
	isPacketType()
}

// MsgFragment is one piece of an application message, routed along a
// pre-computed source route.
type MsgFragment struct {
	FragmentIndex  uint64
	TotalFragments uint64
	Data           []byte
}

// Ack confirms delivery of a single fragment.
type Ack struct {
	FragmentIndex uint64
}

// Nack reports that a fragment could not be delivered as routed.
type Nack struct {
	FragmentIndex uint64
	Type          NackType
}

// PathEntry records one visited node in a flood's path trace.
type PathEntry struct {
	ID   NodeID
	Type NodeType
}

// FloodRequest is a network-discovery broadcast. It carries no meaningful
// source route; every node it reaches appends itself to the path trace.
type FloodRequest struct {
	FloodID   uint64
	Initiator NodeID
	PathTrace []PathEntry
}

// FloodResponse carries a completed path trace back to the flood initiator.
type FloodResponse struct {
	FloodID   uint64
	PathTrace []PathEntry
}

func (MsgFragment) isPacketType()   {}
func (Ack) isPacketType()           {}
func (Nack) isPacketType()          {}
func (FloodRequest) isPacketType()  {}
func (FloodResponse) isPacketType() {}

// Append returns a copy of the request with (id, t) added to the path trace.
// The copy never aliases the original trace, so forwarded copies of the same
// flood cannot clobber each other.
func (f FloodRequest) Append(id NodeID, t NodeType) FloodRequest {
	trace := make([]PathEntry, len(f.PathTrace), len(f.PathTrace)+1)
	copy(trace, f.PathTrace)
	f.PathTrace = append(trace, PathEntry{ID: id, Type: t})
	return f
}

// GenerateResponse turns the request into a FloodResponse packet routed back
// along the reverse of the recorded path trace.
func (f FloodRequest) GenerateResponse(session SessionID) Packet {
	hops := make([]NodeID, len(f.PathTrace))
	for i, entry := range f.PathTrace {
		hops[len(f.PathTrace)-1-i] = entry.ID
	}
	return Packet{
		Session: session,
		Header:  SourceRoutingHeader{Hops: hops, HopIndex: 0},
		Payload: FloodResponse{FloodID: f.FloodID, PathTrace: f.PathTrace},
	}
}

// Packet is the envelope moved between nodes.
type Packet struct {
	Session SessionID
	Header  SourceRoutingHeader
	Payload PacketType
}

// NewNack builds a NACK packet for the given return route.
func NewNack(header SourceRoutingHeader, session SessionID, nack Nack) Packet {
	return Packet{Session: session, Header: header, Payload: nack}
}

// FragmentIndex returns the fragment index of fragment-bearing payloads and 0
// for everything else.
func (p Packet) FragmentIndex() uint64 {
	switch payload := p.Payload.(type) {
	case MsgFragment:
		return payload.FragmentIndex
	case Ack:
		return payload.FragmentIndex
	case Nack:
		return payload.FragmentIndex
	}
	return 0
}
