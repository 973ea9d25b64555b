package sphinx

// buildFiller precomputes the deterministic pseudorandom tail that keeps
// every intermediate hop's post-unwrap ciphertext the same length as a
// fresh header. For a route of length N it returns (N-1)*NodeMetaSize
// bytes; for N == 1 it returns an empty slice, since there is no
// intermediate hop whose output needs to look length-invariant.
//
// keys must be the routing-key bundles for hops 1..N in order; only the
// first len(keys)-1 bundles are consulted, matching §4.3's "do not
// calculate for the last hop" rule.
func buildFiller(keys []RoutingKeys) ([]byte, error) {
	n := len(keys)
	if n <= 1 {
		return []byte{}, nil
	}

	filler := make([]byte, 0, (n-1)*NodeMetaSize)
	for i := 0; i < n-1; i++ {
		filler = append(filler, make([]byte, NodeMetaSize)...)

		// The window always ends at EncRoutingSize+NodeMetaSize bytes into
		// hop i's own stream, but its start recedes by NodeMetaSize on every
		// iteration. That's what lines this hop's contribution up with the
		// pad-tail unwrapRoutingInfo reveals when hop i peels its own layer:
		// both read the same hop-i stream at the same receding offset, so
		// the filler one hop back is always exactly what the next unwrap's
		// extend-and-decrypt step produces.
		pad, err := stream(keys[i].StreamCipherKey, EncRoutingSize+NodeMetaSize)
		if err != nil {
			return nil, err
		}

		windowStart := EncRoutingSize - i*NodeMetaSize
		window := pad[windowStart : windowStart+len(filler)]
		xorInto(filler, window)
	}
	return filler, nil
}

// xorInto XORs src into dst in place; len(dst) must equal len(src).
func xorInto(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}
