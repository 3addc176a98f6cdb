package protocol

// NackKind enumerates the reasons a packet can be refused.
type NackKind int

const (
	// NackErrorInRouting reports that Node could not be reached.
	NackErrorInRouting NackKind = iota
	// NackDestinationIsDrone reports a route that terminates at a relay.
	NackDestinationIsDrone
	// NackDropped reports a simulated transmission loss.
	NackDropped
	// NackUnexpectedRecipient reports that the packet arrived at Node while
	// its route says it should be elsewhere.
	NackUnexpectedRecipient
)

func (k NackKind) String() string {
	switch k {
	case NackErrorInRouting:
		return "error_in_routing"
	case NackDestinationIsDrone:
		return "destination_is_drone"
	case NackDropped:
		return "dropped"
	case NackUnexpectedRecipient:
		return "unexpected_recipient"
	}
	return "unknown"
}

// NackType is the reason carried by a Nack. Node is meaningful only for the
// kinds that name one.
type NackType struct {
	Kind NackKind
	Node NodeID
}

func ErrorInRouting(id NodeID) NackType {
	return NackType{Kind: NackErrorInRouting, Node: id}
}

func DestinationIsDrone() NackType {
	return NackType{Kind: NackDestinationIsDrone}
}

func Dropped() NackType {
	return NackType{Kind: NackDropped}
}

func UnexpectedRecipient(id NodeID) NackType {
	return NackType{Kind: NackUnexpectedRecipient, Node: id}
}
