package sphinx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func demoRoute(t *testing.T, n int) ([]Node, []Scalar) {
	t.Helper()
	route := make([]Node, n)
	secrets := make([]Scalar, n)
	for i := 0; i < n; i++ {
		sk, pk, err := GenerateKeyPair()
		if err != nil {
			t.Fatal(err)
		}
		var addr Address
		addr[0] = byte(i + 1)
		route[i] = Node{Address: addr, PublicKey: pk}
		secrets[i] = sk
	}
	return route, secrets
}

func TestBuildKeySchedule_SharedSecretsMatchPerHopDH(t *testing.T) {
	route, secrets := demoRoute(t, 3)

	x, _, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	schedule, err := buildKeySchedule(x, route)
	if err != nil {
		t.Fatal(err)
	}
	assert.Len(t, schedule.sharedSecrets, 3)

	// hop 0's shared secret is a plain DH between the sender's ephemeral
	// scalar and hop 0's long-term key.
	s0, err := dh(secrets[0], schedule.alpha)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, schedule.sharedSecrets[0], s0, "hop 0 shared secret should equal dh(hop0_secret, alpha_1)")
}

func TestBuildKeySchedule_ProcessRecoversSameSharedSecretChain(t *testing.T) {
	route, secrets := demoRoute(t, 3)

	x, _, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	schedule, err := buildKeySchedule(x, route)
	if err != nil {
		t.Fatal(err)
	}

	// Walk the chain exactly as each relay's Process would: recover s_i via
	// DH against the current alpha, then derive the next alpha with b_i.
	alpha := schedule.alpha
	for i := 0; i < len(route); i++ {
		s, err := dh(secrets[i], alpha)
		if err != nil {
			t.Fatal(err)
		}
		assert.Equal(t, schedule.sharedSecrets[i], s, "relay-recovered shared secret must match sender-side schedule")

		if i < len(route)-1 {
			b, err := deriveBlindingFactor(s)
			if err != nil {
				t.Fatal(err)
			}
			alpha, err = dh(b, alpha)
			if err != nil {
				t.Fatal(err)
			}
		}
	}
}

func TestDeriveRoutingKeys_SegmentsAreIndependent(t *testing.T) {
	_, pk, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	var salt [SaltSize]byte
	salt[0] = 1

	keys, err := deriveRoutingKeys(pk, salt[:])
	if err != nil {
		t.Fatal(err)
	}

	assert.Len(t, keys.StreamCipherKey, streamCipherKeyLen)
	assert.Len(t, keys.HeaderIntegrityKey, headerIntegrityKeyLen)
	assert.Len(t, keys.PayloadKey, payloadKeyLen)
	assert.Len(t, keys.BlindingSeed, blindingSeedLen)
	assert.NotEqual(t, keys.StreamCipherKey, keys.HeaderIntegrityKey)
	assert.NotEqual(t, keys.HeaderIntegrityKey, keys.PayloadKey)
}

func TestDeriveRoutingKeys_DifferentSaltsDiverge(t *testing.T) {
	_, pk, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	var saltA, saltB [SaltSize]byte
	saltA[0] = 1
	saltB[0] = 2

	keysA, err := deriveRoutingKeys(pk, saltA[:])
	if err != nil {
		t.Fatal(err)
	}
	keysB, err := deriveRoutingKeys(pk, saltB[:])
	if err != nil {
		t.Fatal(err)
	}

	assert.NotEqual(t, keysA.StreamCipherKey, keysB.StreamCipherKey, "distinct salts must produce distinct routing keys")
}

func TestRoutingKeys_Zero_WipesAllSegments(t *testing.T) {
	_, pk, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	var salt [SaltSize]byte
	keys, err := deriveRoutingKeys(pk, salt[:])
	if err != nil {
		t.Fatal(err)
	}

	keys.Zero()

	for _, b := range [][]byte{keys.StreamCipherKey, keys.HeaderIntegrityKey, keys.PayloadKey, keys.BlindingSeed} {
		for _, v := range b {
			assert.Zero(t, v, "Zero should overwrite every byte of every segment")
		}
	}
}

func TestComputeRoutingKeys_MatchesProcessDerivation(t *testing.T) {
	route, secrets := demoRoute(t, 1)
	x, _, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	schedule, err := buildKeySchedule(x, route)
	if err != nil {
		t.Fatal(err)
	}

	var salt [SaltSize]byte
	salt[0] = 7

	expected, err := deriveRoutingKeys(schedule.sharedSecrets[0], salt[:])
	if err != nil {
		t.Fatal(err)
	}

	s, err := dh(secrets[0], schedule.alpha)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ComputeRoutingKeys(s, salt)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, expected, got, "ComputeRoutingKeys should match the keys Process would derive for the same shared secret and salt")
}

func TestAlphaChain_MatchesBuildKeySchedule(t *testing.T) {
	route, _ := demoRoute(t, 2)
	x, _, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	schedule, err := buildKeySchedule(x, route)
	if err != nil {
		t.Fatal(err)
	}

	b, err := deriveBlindingFactor(schedule.sharedSecrets[0])
	if err != nil {
		t.Fatal(err)
	}

	alpha2, err := alphaChain(schedule.alpha, []Scalar{b})
	if err != nil {
		t.Fatal(err)
	}

	direct, err := dh(b, schedule.alpha)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, direct, alpha2)
}
