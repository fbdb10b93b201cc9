// internal/partition/sketch.go
package partition

import (
	"math"
	"math/bits"
)

const sketchBits = 10

// sketch is a HyperLogLog counter with 2^sketchBits registers.
type sketch [1 << sketchBits]uint8

func (s *sketch) add(h uint64) {
	i := h >> (64 - sketchBits)
	rho := uint8(bits.LeadingZeros64(h<<sketchBits|1<<(sketchBits-1)) + 1)
	if rho > s[i] {
		s[i] = rho
	}
}

func (s *sketch) estimate() uint64 {
	m := float64(len(s))
	var sum float64
	zeros := 0
	for _, r := range s {
		sum += math.Ldexp(1, -int(r))
		if r == 0 {
			zeros++
		}
	}
	e := 0.7213 / (1 + 1.079/m) * m * m / sum
	if e <= 2.5*m && zeros > 0 {
		e = m * math.Log(m/float64(zeros))
	}
	return uint64(e + 0.5)
}
