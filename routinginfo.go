package sphinx

import (
	"fmt"
)

// EncapsulatedRoutingInfo is one layer of onion-encrypted routing
// metadata plus the integrity MAC that authenticates it.
type EncapsulatedRoutingInfo struct {
	EncRouting [EncRoutingSize]byte
	Mac        [MacSize]byte
}

// forwardHopEntry is the plaintext layout of one forward-hop routing
// entry before it is shifted into the onion: flag || address || delay ||
// next_salt || next_mac.
type forwardHopEntry struct {
	address  Address
	delay    Delay
	nextSalt [SaltSize]byte
	nextMac  [MacSize]byte
}

func (e forwardHopEntry) marshal() []byte {
	buf := make([]byte, 0, NodeMetaSize)
	buf = append(buf, flagForwardHop)
	buf = append(buf, e.address[:]...)
	buf = append(buf, e.delay.Bytes()...)
	buf = append(buf, e.nextSalt[:]...)
	buf = append(buf, e.nextMac[:]...)
	return buf
}

// buildRoutingInfo performs the inside-out onion construction of §4.4:
// it allocates the final-hop block, encrypts and MACs it, then for every
// preceding hop prepends a forward entry pointing at the next hop and
// re-encrypts/re-MACs the result. keys and route/delays/salts must all
// have the same length N; filler must be the output of buildFiller over
// the same keys.
func buildRoutingInfo(route []Node, delays []Delay, salts [][SaltSize]byte, dest Destination, keys []RoutingKeys, filler []byte) (EncapsulatedRoutingInfo, error) {
	n := len(route)

	finalFixedLen := FlagSize + DestinationAddressSize + SurbIDSize
	paddingLen := EncRoutingSize - len(filler) - finalFixedLen
	if paddingLen < 0 {
		return EncapsulatedRoutingInfo{}, fmt.Errorf("sphinx: route of length %d leaves no room for the final routing block", n)
	}

	// The padding starts as zero bytes, exactly like the filler's own
	// scratch buffer in buildFiller: the xorStream call below turns it
	// into pseudorandom-looking bytes keyed off keys[n-1] alone. That
	// keeps construction a pure function of the shared-secret chain, so
	// New and NewWithPrecomputedKeys produce byte-identical headers
	// whenever they're given the same chain, with no separate entropy
	// source to reconcile.
	padding := make([]byte, paddingLen)

	core := make([]byte, 0, EncRoutingSize-len(filler))
	core = append(core, flagFinalHop)
	core = append(core, dest.Address[:]...)
	core = append(core, dest.SurbID[:]...)
	core = append(core, padding...)

	encCore, err := xorStream(keys[n-1].StreamCipherKey, core)
	if err != nil {
		return EncapsulatedRoutingInfo{}, err
	}

	// filler is placed after the final hop's own stream-XOR, not folded
	// into the plaintext beforehand: every earlier hop's unwrap reveals a
	// pad-tail keyed on that hop's own stream alone (§4.4), and the filler
	// is built the same way (§4.3), so it must land in the ciphertext
	// untouched by keys[n-1] for the two to line up byte for byte.
	enc := append(encCore, filler...)
	mac := computeMAC(keys[n-1].HeaderIntegrityKey, enc)

	for i := n - 2; i >= 0; i-- {
		var nextSalt [SaltSize]byte
		copy(nextSalt[:], salts[i+1][:])
		var nextMac [MacSize]byte
		copy(nextMac[:], mac)

		entry := forwardHopEntry{
			address:  route[i+1].Address,
			delay:    delays[i+1],
			nextSalt: nextSalt,
			nextMac:  nextMac,
		}.marshal()

		newBlock := make([]byte, 0, EncRoutingSize)
		newBlock = append(newBlock, entry...)
		newBlock = append(newBlock, enc[:EncRoutingSize-NodeMetaSize]...)

		enc, err = xorStream(keys[i].StreamCipherKey, newBlock)
		if err != nil {
			return EncapsulatedRoutingInfo{}, err
		}
		mac = computeMAC(keys[i].HeaderIntegrityKey, enc)
	}

	var out EncapsulatedRoutingInfo
	copy(out.EncRouting[:], enc)
	copy(out.Mac[:], mac)
	return out, nil
}

// xorStream XOR-encrypts plaintext with stream(key, len(plaintext)).
func xorStream(key, plaintext []byte) ([]byte, error) {
	pad, err := stream(key, len(plaintext))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(plaintext))
	for i := range plaintext {
		out[i] = plaintext[i] ^ pad[i]
	}
	return out, nil
}

// unwrapResult is the outcome of decapsulating one routing-information
// layer: either the metadata needed to forward to the next hop, or the
// final destination.
type unwrapResult struct {
	isFinal bool

	// set when isFinal is false
	nextAddress Address
	delay       Delay
	nextSalt    [SaltSize]byte
	next        EncapsulatedRoutingInfo

	// set when isFinal is true
	destination Destination
}

// unwrapRoutingInfo verifies the MAC over enc under keys.HeaderIntegrityKey,
// then strips exactly one onion layer per §4.4's unwrap algorithm.
func unwrapRoutingInfo(enc EncapsulatedRoutingInfo, keys RoutingKeys) (unwrapResult, error) {
	if !verifyMAC(keys.HeaderIntegrityKey, enc.EncRouting[:], enc.Mac[:]) {
		logLocal.Warn("sphinx: routing info MAC verification failed")
		return unwrapResult{}, ErrInvalidHeader
	}

	extended := make([]byte, EncRoutingSize+NodeMetaSize)
	copy(extended, enc.EncRouting[:])

	pad, err := stream(keys.StreamCipherKey, len(extended))
	if err != nil {
		return unwrapResult{}, err
	}
	for i := range extended {
		extended[i] ^= pad[i]
	}

	if len(extended) < 1 {
		return unwrapResult{}, ErrMalformedRoutingInfo
	}

	switch extended[0] {
	case flagForwardHop:
		if len(extended) < NodeMetaSize+EncRoutingSize {
			return unwrapResult{}, ErrMalformedRoutingInfo
		}
		off := FlagSize

		var addr Address
		copy(addr[:], extended[off:off+AddressSize])
		off += AddressSize

		delay := DelayFromBytes(extended[off : off+DelaySize])
		off += DelaySize

		var nextSalt [SaltSize]byte
		copy(nextSalt[:], extended[off:off+SaltSize])
		off += SaltSize

		var nextMac [MacSize]byte
		copy(nextMac[:], extended[off:off+MacSize])
		off += MacSize

		var next EncapsulatedRoutingInfo
		copy(next.EncRouting[:], extended[off:off+EncRoutingSize])
		next.Mac = nextMac

		return unwrapResult{
			isFinal:     false,
			nextAddress: addr,
			delay:       delay,
			nextSalt:    nextSalt,
			next:        next,
		}, nil

	case flagFinalHop:
		off := FlagSize
		if len(extended) < off+DestinationAddressSize+SurbIDSize {
			return unwrapResult{}, ErrMalformedRoutingInfo
		}

		var dest Destination
		copy(dest.Address[:], extended[off:off+DestinationAddressSize])
		off += DestinationAddressSize
		copy(dest.SurbID[:], extended[off:off+SurbIDSize])

		return unwrapResult{isFinal: true, destination: dest}, nil

	default:
		logLocal.WithField("flag", extended[0]).Warn("sphinx: unrecognized routing info flag")
		return unwrapResult{}, ErrInvalidHeader
	}
}
