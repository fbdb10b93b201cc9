// internal/sortcount/solidity.go
package sortcount

import (
	"fmt"
	"strings"
)

// Solidity decides, from per-bank counts, whether a k-mer is kept.
type Solidity int

const (
	SolidSum Solidity = iota // total over banks within bounds
	SolidMin                 // smallest bank count within bounds
	SolidMax                 // largest bank count within bounds
	SolidOne                 // at least one bank within bounds
	SolidAll                 // every bank within bounds
)

var solidityNames = [...]string{"sum", "min", "max", "one", "all"}

func (s Solidity) String() string {
	if s >= 0 && int(s) < len(solidityNames) {
		return solidityNames[s]
	}
	return fmt.Sprintf("Solidity(%d)", int(s))
}

func ParseSolidity(v string) (Solidity, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return SolidSum, nil
	}
	for i, n := range solidityNames {
		if n == v {
			return Solidity(i), nil
		}
	}
	return SolidSum, fmt.Errorf("unknown solidity kind %q (want sum|min|max|one|all)", v)
}

func (s Solidity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Solidity) UnmarshalText(b []byte) error {
	v, err := ParseSolidity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Bounds is the inclusive abundance range of a solid k-mer. Max 0 means
// unbounded.
type Bounds struct {
	Min, Max uint32
}

func (b Bounds) contains(c uint32) bool {
	return c >= b.Min && (b.Max == 0 || c <= b.Max)
}

// Accept reports whether counts (one per bank) pass the filter; total is
// their saturating sum.
func (s Solidity) Accept(counts []uint32, total uint32, b Bounds) bool {
	switch s {
	case SolidMin:
		lo := counts[0]
		for _, c := range counts[1:] {
			lo = min(lo, c)
		}
		return b.contains(lo)
	case SolidMax:
		hi := counts[0]
		for _, c := range counts[1:] {
			hi = max(hi, c)
		}
		return b.contains(hi)
	case SolidOne:
		for _, c := range counts {
			if b.contains(c) {
				return true
			}
		}
		return false
	case SolidAll:
		for _, c := range counts {
			if !b.contains(c) {
				return false
			}
		}
		return true
	}
	return b.contains(total)
}
