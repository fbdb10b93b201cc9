// internal/count/strategy.go
package count

import (
	"fmt"
	"strings"
)

// Strategy names a counting algorithm.
type Strategy int

const (
	Auto Strategy = iota
	Hash
	Vector
)

func (s Strategy) String() string {
	switch s {
	case Auto:
		return "auto"
	case Hash:
		return "hash"
	case Vector:
		return "vector"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// Alternate is the counter tried when s fails.
func (s Strategy) Alternate() Strategy {
	if s == Hash {
		return Vector
	}
	return Hash
}

// ParseStrategy accepts "auto", "hash" or "vector" (case-insensitive).
func ParseStrategy(v string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "auto":
		return Auto, nil
	case "hash":
		return Hash, nil
	case "vector":
		return Vector, nil
	}
	return Auto, fmt.Errorf("unknown counting strategy %q (want auto|hash|vector)", v)
}

func (s Strategy) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Strategy) UnmarshalText(b []byte) error {
	v, err := ParseStrategy(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
