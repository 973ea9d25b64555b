package sphinx

import (
	"encoding/binary"
	"math"
	"math/rand"
	"time"
)

// Delay is an opaque non-negative forwarding delay. It carries no
// semantics about how the delay is realized (queuing, sleeping, batching
// into a mix epoch) — that is a transport-level collaborator's concern.
type Delay struct {
	d time.Duration
}

// NewDelay wraps a non-negative duration as a Delay. A negative duration
// is a programmer error.
func NewDelay(d time.Duration) Delay {
	if d < 0 {
		panic("sphinx: negative delay")
	}
	return Delay{d: d}
}

// Duration returns the wrapped time.Duration.
func (d Delay) Duration() time.Duration {
	return d.d
}

// Bytes serializes d as 8 little-endian bytes of nanoseconds.
func (d Delay) Bytes() []byte {
	buf := make([]byte, DelaySize)
	binary.LittleEndian.PutUint64(buf, uint64(d.d))
	return buf
}

// DelayFromBytes parses 8 little-endian bytes of nanoseconds into a
// Delay. b must be at least DelaySize bytes; extra bytes are ignored.
func DelayFromBytes(b []byte) Delay {
	ns := binary.LittleEndian.Uint64(b[:DelaySize])
	return Delay{d: time.Duration(ns)}
}

// GenerateFromAverageDuration draws n independent, exponentially
// distributed delays with the given mean, the way a Poisson mix-delay
// process is sampled: lambda = 1/avg, and each sample is -ln(U)/lambda
// for U uniform on (0, 1]. Grounded on the reference pack's
// katzenpost-client path-selection utility (its getDelays/rand.Exp
// pair), adapted here to return Delay values directly rather than raw
// float64 milliseconds.
func GenerateFromAverageDuration(n int, avg time.Duration) []Delay {
	if avg <= 0 {
		panic("sphinx: non-positive average delay")
	}

	lambda := 1.0 / float64(avg)
	delays := make([]Delay, n)
	for i := 0; i < n; i++ {
		u := rand.Float64()
		for u == 0 {
			u = rand.Float64()
		}
		ns := -math.Log(u) / lambda
		delays[i] = NewDelay(time.Duration(ns))
	}
	return delays
}
