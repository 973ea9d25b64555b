package sphinx

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

// GroupElement is a 32-byte X25519 public element.
type GroupElement [GroupElementSize]byte

// Scalar is a 32-byte X25519 scalar. curve25519.X25519 clamps its scalar
// argument internally on every call (RFC 7748), so callers never clamp
// or reduce a Scalar themselves.
type Scalar [GroupElementSize]byte

// Zero overwrites s in place. Call via defer wherever a Scalar is a local
// secret that must not outlive its call.
func (s *Scalar) Zero() {
	for i := range s {
		s[i] = 0
	}
}

// Zero overwrites g in place.
func (g *GroupElement) Zero() {
	for i := range g {
		g[i] = 0
	}
}

// GenerateKeyPair samples a fresh ephemeral X25519 scalar and its public
// element from the platform CSPRNG. Random-scalar generation policy
// beyond "use the platform CSPRNG" is a collaborator's concern.
func GenerateKeyPair() (Scalar, GroupElement, error) {
	var sk Scalar
	if _, err := rand.Read(sk[:]); err != nil {
		return Scalar{}, GroupElement{}, fmt.Errorf("sphinx: generate key pair: %w", err)
	}

	pk, err := dh(sk, basePoint())
	if err != nil {
		return Scalar{}, GroupElement{}, err
	}
	return sk, pk, nil
}

// PublicKeyFor returns the X25519 public element for a caller-supplied
// scalar, for relays that load a long-term secret key from storage
// rather than generating one fresh via GenerateKeyPair.
func PublicKeyFor(sk Scalar) (GroupElement, error) {
	return dh(sk, basePoint())
}

// basePoint returns the X25519 curve base point, i.e. G.
func basePoint() GroupElement {
	var g GroupElement
	g[0] = 9
	return g
}

// dh computes scalar * element, the X25519 Diffie-Hellman primitive that
// every shared secret and reblinding step in the key schedule is built
// on top of.
func dh(scalar Scalar, element GroupElement) (GroupElement, error) {
	out, err := curve25519.X25519(scalar[:], element[:])
	if err != nil {
		return GroupElement{}, fmt.Errorf("sphinx: x25519: %w", err)
	}
	var g GroupElement
	copy(g[:], out)
	return g, nil
}

// stream returns a deterministic pseudorandom byte stream of length n,
// derived from key under the package's fixed IV. It is used both to
// obfuscate routing-information layers and to build the filler; the
// fixed IV is safe because confidentiality relies on per-hop key
// uniqueness, not nonce uniqueness.
func stream(key []byte, n int) ([]byte, error) {
	cipher, err := chacha20.NewUnauthenticatedCipher(key, streamIV[:])
	if err != nil {
		return nil, fmt.Errorf("sphinx: stream cipher: %w", err)
	}

	out := make([]byte, n)
	cipher.XORKeyStream(out, out)
	return out, nil
}

// expandHKDF runs RFC-5869 extract-and-expand over SHA-256, with the
// package's fixed domain-separation info string, producing outLen bytes.
func expandHKDF(salt, ikm []byte, outLen int) ([]byte, error) {
	reader := hkdf.New(sha256.New, ikm, salt, hkdfInfo)
	out := make([]byte, outLen)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, fmt.Errorf("sphinx: hkdf: %w", err)
	}
	return out, nil
}

// computeMAC computes HMAC-SHA256(key, data) truncated to MacSize bytes.
func computeMAC(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)[:MacSize]
}

// verifyMAC reports whether mac is the HMAC over data under key,
// comparing in constant time so that timing does not leak which prefix
// of the MAC was wrong.
func verifyMAC(key, data, mac []byte) bool {
	expected := computeMAC(key, data)
	return subtle.ConstantTimeCompare(expected, mac) == 1
}
