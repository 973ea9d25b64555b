package sphinx

import "errors"

// ErrInvalidHeader is returned when a serialized header has the wrong
// length, a MAC check fails, or an unwrapped flag byte is unrecognized.
// MAC failure and a bad flag are deliberately indistinguishable from the
// caller's perspective so that a relay cannot learn which check rejected
// the packet.
var ErrInvalidHeader = errors.New("sphinx: invalid header")

// ErrMalformedRoutingInfo signals an internal inconsistency while
// unwrapping a routing block, such as a truncated entry. It is treated
// identically to ErrInvalidHeader at the package boundary.
var ErrMalformedRoutingInfo = errors.New("sphinx: malformed routing information")
