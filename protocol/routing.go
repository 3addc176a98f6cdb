package protocol

// SourceRoutingHeader is the full planned path of a packet plus a cursor
// marking how far along it the packet has travelled. Hops[HopIndex] is the
// node currently holding the packet.
type SourceRoutingHeader struct {
	Hops     []NodeID
	HopIndex int
}

// CurrentHop returns the node the cursor points at.
func (h SourceRoutingHeader) CurrentHop() (NodeID, bool) {
	if h.HopIndex < 0 || h.HopIndex >= len(h.Hops) {
		return 0, false
	}
	return h.Hops[h.HopIndex], true
}

// NextHop returns the node after the cursor.
func (h SourceRoutingHeader) NextHop() (NodeID, bool) {
	if h.HopIndex+1 >= len(h.Hops) {
		return 0, false
	}
	return h.Hops[h.HopIndex+1], true
}

// SubRoute returns a copy of the header truncated to the first end hops.
// It reports false when end is out of range.
func (h SourceRoutingHeader) SubRoute(end int) (SourceRoutingHeader, bool) {
	if end < 0 || end > len(h.Hops) {
		return SourceRoutingHeader{}, false
	}
	hops := make([]NodeID, end)
	copy(hops, h.Hops[:end])
	return SourceRoutingHeader{Hops: hops, HopIndex: h.HopIndex}, true
}

// Reversed returns the header with its hops in reverse order and the cursor
// reset to the start, turning a travelled route into a return route.
func (h SourceRoutingHeader) Reversed() SourceRoutingHeader {
	hops := make([]NodeID, len(h.Hops))
	for i, hop := range h.Hops {
		hops[len(h.Hops)-1-i] = hop
	}
	return SourceRoutingHeader{Hops: hops, HopIndex: 0}
}
