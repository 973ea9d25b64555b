package sphinx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func demoRoutingKeys(t *testing.T, n int) []RoutingKeys {
	t.Helper()
	keys := make([]RoutingKeys, n)
	for i := 0; i < n; i++ {
		_, pk, err := GenerateKeyPair()
		if err != nil {
			t.Fatal(err)
		}
		var salt [SaltSize]byte
		salt[0] = byte(i + 1)
		k, err := deriveRoutingKeys(pk, salt[:])
		if err != nil {
			t.Fatal(err)
		}
		keys[i] = k
	}
	return keys
}

func TestBuildFiller_LengthMatchesRouteLength(t *testing.T) {
	for n := 1; n <= MaxRouteLength; n++ {
		keys := demoRoutingKeys(t, n)
		filler, err := buildFiller(keys)
		if err != nil {
			t.Fatal(err)
		}
		assert.Len(t, filler, (n-1)*NodeMetaSize, "filler length should be (n-1)*NodeMetaSize")
	}
}

func TestBuildFiller_SingleHopIsEmpty(t *testing.T) {
	keys := demoRoutingKeys(t, 1)
	filler, err := buildFiller(keys)
	if err != nil {
		t.Fatal(err)
	}
	assert.Empty(t, filler, "a single-hop route needs no filler")
}

func TestBuildFiller_DeterministicForSameKeys(t *testing.T) {
	keys := demoRoutingKeys(t, 3)

	a, err := buildFiller(keys)
	if err != nil {
		t.Fatal(err)
	}
	b, err := buildFiller(keys)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, a, b, "filler construction must be deterministic given the same routing keys")
}

func TestXorInto_SelfInverse(t *testing.T) {
	dst := []byte{1, 2, 3, 4}
	src := []byte{5, 6, 7, 8}
	orig := append([]byte(nil), dst...)

	xorInto(dst, src)
	xorInto(dst, src)

	assert.Equal(t, orig, dst, "XOR-ing the same bytes in twice should restore the original")
}
