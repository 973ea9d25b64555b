package sphinx

// Address is a relay's routable identifier, carried inside the header's
// per-hop routing entry.
type Address [AddressSize]byte

// DestinationAddress identifies the final recipient of a packet.
type DestinationAddress [DestinationAddressSize]byte

// SurbID identifies a single-use reply block. Only the identifier flows
// through this header; assembling the SURB itself is out of scope.
type SurbID [SurbIDSize]byte

// Node is a relay on a route: its routable address and its long-term
// X25519 public key.
type Node struct {
	Address   Address
	PublicKey GroupElement
}

// Destination is the final recipient of a packet: its address and the
// SURB identifier the sender wants echoed back, if any.
type Destination struct {
	Address DestinationAddress
	SurbID  SurbID
}
