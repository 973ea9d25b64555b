package sphinx

import "fmt"

// SphinxHeader is the fixed-size, source-routed header a sender builds
// once and every relay on the path reshapes exactly once: the current
// group element, the HKDF salt to use at this hop, and the onion-
// encrypted routing information with its integrity MAC.
type SphinxHeader struct {
	SharedSecret GroupElement
	HKDFSalt     [SaltSize]byte
	RoutingInfo  EncapsulatedRoutingInfo
}

// ProcessedKind distinguishes the two possible outcomes of processing a
// header at a relay. It is a closed, two-variant set — deliberately not
// modeled with an interface, since nothing else will ever implement it.
type ProcessedKind int

const (
	// ForwardHop means the packet must be forwarded to another relay.
	ForwardHop ProcessedKind = iota
	// FinalHop means this relay is the packet's final destination.
	FinalHop
)

// ProcessedHeader is the result of processing a SphinxHeader at one hop.
// Exactly one of the ForwardHop* or FinalHop* field groups is meaningful,
// selected by Kind.
type ProcessedHeader struct {
	Kind ProcessedKind

	// Valid when Kind == ForwardHop.
	NextHeader  SphinxHeader
	NextAddress Address
	Delay       Delay

	// Valid when Kind == FinalHop.
	Destination Destination

	// Valid regardless of Kind: the payload key for this hop, which the
	// payload onion (an external collaborator) consumes.
	PayloadKey []byte
}

// New builds a SphinxHeader and returns the per-hop payload keys in
// order 1..N, per §4.5. route, delays, and salts must all have the same
// length, which must be in [1, MaxRouteLength]; violating that is a
// programmer error and panics, matching §7's treatment of precondition
// violations.
func New(initialSecret Scalar, route []Node, delays []Delay, salts [][SaltSize]byte, dest Destination) (SphinxHeader, [][]byte, error) {
	checkRoutePreconditions(route, delays, salts)

	schedule, err := buildKeySchedule(initialSecret, route)
	if err != nil {
		return SphinxHeader{}, nil, err
	}

	return buildHeaderFromSchedule(schedule.alpha, schedule.sharedSecrets, route, delays, salts, dest)
}

// NewWithPrecomputedKeys builds a SphinxHeader from a caller-supplied
// chain of shared secrets and initial group element, for senders that
// cache the schedule for a recurring path instead of resampling an
// ephemeral scalar on every packet.
func NewWithPrecomputedKeys(route []Node, delays []Delay, salts [][SaltSize]byte, dest Destination, sharedKeys []GroupElement, initialSharedElement GroupElement) (SphinxHeader, [][]byte, error) {
	checkRoutePreconditions(route, delays, salts)
	if len(sharedKeys) != len(route) {
		panic("sphinx: shared key chain length must match route length")
	}

	return buildHeaderFromSchedule(initialSharedElement, sharedKeys, route, delays, salts, dest)
}

func checkRoutePreconditions(route []Node, delays []Delay, salts [][SaltSize]byte) {
	if len(route) == 0 {
		panic("sphinx: route must be non-empty")
	}
	if len(route) > MaxRouteLength {
		panic(fmt.Sprintf("sphinx: route length %d exceeds MaxRouteLength %d", len(route), MaxRouteLength))
	}
	if len(route) != len(delays) || len(route) != len(salts) {
		panic("sphinx: route, delays, and salts must have equal length")
	}
}

func buildHeaderFromSchedule(alpha GroupElement, sharedSecrets []GroupElement, route []Node, delays []Delay, salts [][SaltSize]byte, dest Destination) (SphinxHeader, [][]byte, error) {
	n := len(route)

	keys := make([]RoutingKeys, n)
	payloadKeys := make([][]byte, n)
	for i := 0; i < n; i++ {
		k, err := deriveRoutingKeys(sharedSecrets[i], salts[i][:])
		if err != nil {
			logLocal.WithError(err).Error("sphinx: derive routing keys failed during construction")
			return SphinxHeader{}, nil, err
		}
		keys[i] = k
		payloadKeys[i] = append([]byte(nil), k.PayloadKey...)
	}

	filler, err := buildFiller(keys)
	if err != nil {
		return SphinxHeader{}, nil, err
	}

	routingInfo, err := buildRoutingInfo(route, delays, salts, dest, keys, filler)
	if err != nil {
		return SphinxHeader{}, nil, err
	}

	for i := range keys {
		keys[i].Zero()
	}

	var salt1 [SaltSize]byte
	copy(salt1[:], salts[0][:])

	return SphinxHeader{
		SharedSecret: alpha,
		HKDFSalt:     salt1,
		RoutingInfo:  routingInfo,
	}, payloadKeys, nil
}

// Process unwraps h for the relay holding nodeSecretKey: it derives the
// shared secret via DH, expands routing keys with h.HKDFSalt, verifies
// the integrity MAC, and either returns the next header to forward or
// the final destination, per §4.5.
func (h SphinxHeader) Process(nodeSecretKey Scalar) (ProcessedHeader, error) {
	s, err := dh(nodeSecretKey, h.SharedSecret)
	if err != nil {
		return ProcessedHeader{}, err
	}
	return h.processWithSharedSecret(s, h.HKDFSalt)
}

// ProcessWithPreviouslyDerivedKeys skips the DH step and treats
// sharedKey as the already-recovered secret s, deriving routing keys
// with saltOverride if non-nil (h.HKDFSalt otherwise). Reblinding still
// uses sharedKey itself, never the salted derivation, per §4.5: salting
// only affects symmetric-key expansion, not the group-element chain.
// This is the "precomputed keys" path for relays that cache a long-lived
// master secret and derive per-packet keys from a fresh salt.
func (h SphinxHeader) ProcessWithPreviouslyDerivedKeys(sharedKey GroupElement, saltOverride *[SaltSize]byte) (ProcessedHeader, error) {
	salt := h.HKDFSalt
	if saltOverride != nil {
		salt = *saltOverride
	}
	return h.processWithSharedSecret(sharedKey, salt)
}

func (h SphinxHeader) processWithSharedSecret(s GroupElement, saltForKeys [SaltSize]byte) (ProcessedHeader, error) {
	keys, err := deriveRoutingKeys(s, saltForKeys[:])
	if err != nil {
		logLocal.WithError(err).Error("sphinx: derive routing keys failed during processing")
		return ProcessedHeader{}, err
	}
	defer keys.Zero()

	result, err := unwrapRoutingInfo(h.RoutingInfo, keys)
	if err != nil {
		return ProcessedHeader{}, err
	}

	payloadKey := append([]byte(nil), keys.PayloadKey...)

	if result.isFinal {
		return ProcessedHeader{
			Kind:        FinalHop,
			Destination: result.destination,
			PayloadKey:  payloadKey,
		}, nil
	}

	b, err := deriveBlindingFactor(s)
	if err != nil {
		return ProcessedHeader{}, err
	}

	nextAlpha, err := dh(b, h.SharedSecret)
	if err != nil {
		return ProcessedHeader{}, err
	}

	return ProcessedHeader{
		Kind:        ForwardHop,
		NextAddress: result.nextAddress,
		Delay:       result.delay,
		PayloadKey:  payloadKey,
		NextHeader: SphinxHeader{
			SharedSecret: nextAlpha,
			HKDFSalt:     result.nextSalt,
			RoutingInfo:  result.next,
		},
	}, nil
}

// ToBytes serializes h as α ‖ salt ‖ β ‖ mac, exactly HeaderSize bytes.
func (h SphinxHeader) ToBytes() []byte {
	buf := make([]byte, 0, HeaderSize)
	buf = append(buf, h.SharedSecret[:]...)
	buf = append(buf, h.HKDFSalt[:]...)
	buf = append(buf, h.RoutingInfo.EncRouting[:]...)
	buf = append(buf, h.RoutingInfo.Mac[:]...)
	return buf
}

// FromBytes parses a serialized header. It fails with ErrInvalidHeader
// if b is not exactly HeaderSize bytes; it does not validate
// cryptographic contents (that only happens on Process*).
func FromBytes(b []byte) (SphinxHeader, error) {
	if len(b) != HeaderSize {
		return SphinxHeader{}, ErrInvalidHeader
	}

	var h SphinxHeader
	off := 0
	copy(h.SharedSecret[:], b[off:off+GroupElementSize])
	off += GroupElementSize
	copy(h.HKDFSalt[:], b[off:off+SaltSize])
	off += SaltSize
	copy(h.RoutingInfo.EncRouting[:], b[off:off+EncRoutingSize])
	off += EncRoutingSize
	copy(h.RoutingInfo.Mac[:], b[off:off+MacSize])

	return h, nil
}
