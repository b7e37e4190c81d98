package cache

import (
	"fmt"
	"time"
)

type ttlKind uint8

const (
	ttlNever ttlKind = iota // zero value: entries never expire
	ttlExpired
	ttlFinite
)

// TTL is the lifetime of an entry, measured from its last access.
//
// A TTL is one of three kinds:
//   - Never:   the entry never expires (this is the zero value)
//   - Expired: the entry is expired the instant it is checked
//   - For(d):  the entry expires once more than d has elapsed since last access
//
// Finite lifetimes have one-second resolution.
type TTL struct {
	kind ttlKind
	d    time.Duration
}

var (
	// Never is the TTL of entries that do not expire.
	Never = TTL{kind: ttlNever}
	// Expired is the TTL of entries that are already expired.
	// SetExpired uses it to invalidate an entry without removing it.
	Expired = TTL{kind: ttlExpired}
)

// For returns a finite TTL of d, truncated to whole seconds.
// A positive d below one second is rounded up to one second;
// a non-positive d yields Expired.
func For(d time.Duration) TTL {
	if d <= 0 {
		return Expired
	}
	d = d.Truncate(time.Second)
	if d == 0 {
		d = time.Second
	}
	return TTL{kind: ttlFinite, d: d}
}

// TTLOf converts a signed duration into a TTL:
// negative means Never, zero means Expired, positive means For(d).
func TTLOf(d time.Duration) TTL {
	switch {
	case d < 0:
		return Never
	case d == 0:
		return Expired
	default:
		return For(d)
	}
}

// Duration returns the signed-duration form of t (the inverse of TTLOf):
// -1s for Never, 0 for Expired, the lifetime otherwise.
func (t TTL) Duration() time.Duration {
	switch t.kind {
	case ttlExpired:
		return 0
	case ttlFinite:
		return t.d
	default:
		return -time.Second
	}
}

// IsNever reports whether t never expires.
func (t TTL) IsNever() bool { return t.kind == ttlNever }

func (t TTL) String() string {
	switch t.kind {
	case ttlExpired:
		return "expired"
	case ttlFinite:
		return t.d.String()
	default:
		return "never"
	}
}

// expired reports whether an entry last accessed at lastAccess is expired at now.
// Both instants are UnixNano.
func (t TTL) expired(lastAccess, now int64) bool {
	switch t.kind {
	case ttlNever:
		return false
	case ttlExpired:
		return true
	default:
		return now-lastAccess > int64(t.d)
	}
}

var _ fmt.Stringer = TTL{}
