package sphinx

// RoutingKeys is the per-hop bundle expanded from a shared secret and a
// salt via a single HKDF call, split in fixed order:
// stream_cipher_key || integrity_hmac_key || payload_key || blinding_factor_seed.
type RoutingKeys struct {
	StreamCipherKey    []byte
	HeaderIntegrityKey []byte
	PayloadKey         []byte
	BlindingSeed       []byte
}

// Zero overwrites every secret segment in k.
func (k *RoutingKeys) Zero() {
	zero(k.StreamCipherKey)
	zero(k.HeaderIntegrityKey)
	zero(k.PayloadKey)
	zero(k.BlindingSeed)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

const (
	streamCipherKeyLen    = 32
	headerIntegrityKeyLen = 32
	payloadKeyLen         = 32
	blindingSeedLen       = 32

	routingKeysTotalLen = streamCipherKeyLen + headerIntegrityKeyLen + payloadKeyLen + blindingSeedLen
)

// ComputeRoutingKeys derives the routing-key bundle for a given shared
// secret and salt, exposed for collaborators (such as a payload-onion
// implementation) that need to recompute a hop's keys from a
// previously-recovered shared secret without going through Process.
func ComputeRoutingKeys(sharedSecret GroupElement, hkdfSalt [SaltSize]byte) (RoutingKeys, error) {
	return deriveRoutingKeys(sharedSecret, hkdfSalt[:])
}

// deriveRoutingKeys expands (sharedSecret, salt) into a RoutingKeys
// bundle via a single HKDF-SHA256 call, per the fixed partition above.
func deriveRoutingKeys(sharedSecret GroupElement, salt []byte) (RoutingKeys, error) {
	expanded, err := expandHKDF(salt, sharedSecret[:], routingKeysTotalLen)
	if err != nil {
		return RoutingKeys{}, err
	}

	off := 0
	next := func(n int) []byte {
		b := expanded[off : off+n]
		off += n
		return b
	}

	return RoutingKeys{
		StreamCipherKey:    next(streamCipherKeyLen),
		HeaderIntegrityKey: next(headerIntegrityKeyLen),
		PayloadKey:         next(payloadKeyLen),
		BlindingSeed:       next(blindingSeedLen),
	}, nil
}

// blindingDomainSalt is the fixed HKDF salt used to turn a shared secret
// into a blinding factor. It is a distinct constant from hkdfInfo
// (routing-key expansion) so the two derivations can never collide.
var blindingDomainSalt = []byte("sphinx-header-blinding-factor-v1")

// deriveBlindingFactor computes H_b(s): the blinding factor scalar is the
// HKDF-SHA256 output over s, used directly as an X25519 scalar. Per
// §4.2.1, curve25519.X25519 clamps this scalar internally on every call,
// so no separate clamp/reduce step happens here.
func deriveBlindingFactor(sharedSecret GroupElement) (Scalar, error) {
	out, err := expandHKDF(blindingDomainSalt, sharedSecret[:], GroupElementSize)
	if err != nil {
		return Scalar{}, err
	}
	var b Scalar
	copy(b[:], out)
	return b, nil
}

// keySchedule is the sender-side output of walking the route once: the
// first group element in the chain and the per-hop shared secrets.
type keySchedule struct {
	alpha         GroupElement
	sharedSecrets []GroupElement
}

// buildKeySchedule derives (α_1, [s_1..s_N]) from the sender's ephemeral
// scalar x and the route's public keys, per §4.2.
//
// Elliptic-curve scalar multiplication is associative under composition:
// applying scalars a then b to a point equals applying the single scalar
// a*b mod order. That lets every α_i and s_i be produced by replaying the
// chain of blinding factors [x, b_1, .., b_{i-1}] against a point one
// scalar at a time (exactly the "expo"/"expoGroupBase" technique used
// elsewhere in the reference pack), without ever needing raw modular
// scalar-field arithmetic that golang.org/x/crypto/curve25519 does not
// expose.
func buildKeySchedule(x Scalar, route []Node) (keySchedule, error) {
	blinders := make([]Scalar, 0, len(route))
	blinders = append(blinders, x)

	secrets := make([]GroupElement, len(route))
	alpha := basePoint()

	for i, node := range route {
		s, err := applyScalarChain(blinders, node.PublicKey)
		if err != nil {
			return keySchedule{}, err
		}
		secrets[i] = s

		if i == 0 {
			a, err := dh(x, basePoint())
			if err != nil {
				return keySchedule{}, err
			}
			alpha = a
		}

		if i < len(route)-1 {
			b, err := deriveBlindingFactor(s)
			if err != nil {
				return keySchedule{}, err
			}
			blinders = append(blinders, b)
		}
	}

	return keySchedule{alpha: alpha, sharedSecrets: secrets}, nil
}

// applyScalarChain computes scalar_n · (... · (scalar_1 · (scalar_0 · point)) ...)
// by folding each scalar into the running point in order.
func applyScalarChain(scalars []Scalar, point GroupElement) (GroupElement, error) {
	current := point
	for _, sc := range scalars {
		next, err := dh(sc, current)
		if err != nil {
			return GroupElement{}, err
		}
		current = next
	}
	return current, nil
}

// alphaChain recomputes α_1..α_i from the same blinding-factor chain
// buildKeySchedule produces, used by NewWithPrecomputedKeys callers that
// supply shared secrets directly and by tests that check invariant 6.
func alphaChain(initialAlpha GroupElement, blinders []Scalar) (GroupElement, error) {
	current := initialAlpha
	for _, b := range blinders {
		next, err := dh(b, current)
		if err != nil {
			return GroupElement{}, err
		}
		current = next
	}
	return current, nil
}
