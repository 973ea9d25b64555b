// Package sphinx implements the header subsystem of a Sphinx-style onion
// packet: layered routing-information encryption, per-hop integrity MACs,
// and Diffie-Hellman blinding so that every relay on a path can unwrap
// exactly one routing layer and forward a header indistinguishable from
// a freshly built one.
package sphinx

const (
	// GroupElementSize is the length in bytes of an X25519 public element.
	GroupElementSize = 32

	// SaltSize is the length in bytes of a per-hop HKDF salt.
	SaltSize = 32

	// MacSize is the truncated length of a per-hop integrity MAC.
	MacSize = 16

	// AddressSize is the length in bytes of a relay's routable address.
	AddressSize = 32

	// DestinationAddressSize is the length in bytes of a final
	// destination's address.
	DestinationAddressSize = 32

	// SurbIDSize is the length in bytes of a single-use reply block
	// identifier.
	SurbIDSize = 16

	// DelaySize is the wire length of a Delay value.
	DelaySize = 8

	// FlagSize is the wire length of the routing-block flag byte.
	FlagSize = 1

	// MaxRouteLength is R_MAX, the compile-time maximum number of hops
	// a header can encode.
	MaxRouteLength = 5

	// NodeMetaSize is the width of one forward-hop routing entry as it is
	// shifted into (and later out of) the onion: FLAG + ADDRESS + DELAY +
	// SALT + MAC, the trailing downstream MAC included. §4.4 describes
	// this entry as "NODE_META + MAC"; this module folds the MAC into
	// the named constant itself, since the two fields always co-occur as
	// a single atomic unit during both construction (the amount
	// prepended per layer) and unwrap (the amount the stream-cipher pad
	// extends by), and the filler (§4.3) is built in the same unit so
	// that its length stays consistent with what unwrap actually reveals
	// at each hop.
	NodeMetaSize = FlagSize + AddressSize + DelaySize + SaltSize + MacSize

	// EncRoutingSize is R_MAX * NODE_META, the fixed size of the
	// encrypted routing-information block regardless of the actual
	// route length used.
	EncRoutingSize = MaxRouteLength * NodeMetaSize

	// HeaderSize is the total wire size of a serialized header.
	HeaderSize = GroupElementSize + SaltSize + MacSize + EncRoutingSize
)

// Routing-block flags. Any other value is rejected during unwrap.
const (
	flagForwardHop byte = 0x01
	flagFinalHop   byte = 0x02
)

// streamIV is the fixed 96-bit nonce used for every stream-cipher
// invocation. Confidentiality relies on key uniqueness per hop, not
// nonce uniqueness.
var streamIV = [12]byte{0x73, 0x70, 0x68, 0x2d, 0x68, 0x64,
	0x72, 0x2d, 0x69, 0x76, 0x30, 0x31}

// hkdfInfo is the fixed domain-separation string for every routing-key
// HKDF expansion, resolving the "info parameter appears unused" open
// question by pinning one constant and never changing it.
var hkdfInfo = []byte("sphinx-header-routing-keys-v1")
