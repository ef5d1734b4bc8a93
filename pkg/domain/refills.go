package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Refills is the remaining-refill count on a prescription. It distinguishes
// three cases the UI and low-stock logic treat differently:
//
//   - Unknown: the count was never captured (older records, hand entry).
//   - None: zero refills remain; low-stock alerts are suppressed because a
//     pickup cannot be ordered.
//   - Limited(n): n refills remain.
//
// The zero value is Unknown. JSON encodes Unknown as null and the known cases
// as their integer count, matching the snapshot format of existing data.
type Refills struct {
	known bool
	count int
}

// RefillsUnknown returns the unknown-count variant.
func RefillsUnknown() Refills { return Refills{} }

// RefillsNone returns the zero-refills variant.
func RefillsNone() Refills { return Refills{known: true} }

// RefillsCount returns a known count. Negative counts collapse to None.
func RefillsCount(n int) Refills {
	if n < 0 {
		n = 0
	}
	return Refills{known: true, count: n}
}

// IsKnown reports whether a count was captured.
func (r Refills) IsKnown() bool { return r.known }

// IsNone reports whether zero refills are known to remain.
func (r Refills) IsNone() bool { return r.known && r.count == 0 }

// Count returns the remaining count and whether it is known.
func (r Refills) Count() (int, bool) { return r.count, r.known }

// Decrement returns the variant with one fewer refill. Unknown stays Unknown
// and None stays None.
func (r Refills) Decrement() Refills {
	if !r.known || r.count == 0 {
		return r
	}
	return Refills{known: true, count: r.count - 1}
}

func (r Refills) String() string {
	if !r.known {
		return "unknown"
	}
	return fmt.Sprintf("%d", r.count)
}

// MarshalJSON encodes Unknown as null and known counts as integers.
func (r Refills) MarshalJSON() ([]byte, error) {
	if !r.known {
		return []byte("null"), nil
	}
	return json.Marshal(r.count)
}

// UnmarshalJSON accepts null or a non-negative integer.
func (r *Refills) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = Refills{}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode refills: %w", err)
	}
	if n < 0 {
		return fmt.Errorf("decode refills: negative count %d", n)
	}
	*r = Refills{known: true, count: n}
	return nil
}
