// internal/sortcount/histogram.go
package sortcount

// DefaultHistogramMax is the last histogram bin; it also collects every
// larger abundance.
const DefaultHistogramMax = 10000

// Histogram counts distinct k-mers per total abundance.
type Histogram []uint64

func NewHistogram(maxBin int) Histogram {
	if maxBin < 2 {
		maxBin = DefaultHistogramMax
	}
	return make(Histogram, maxBin+1)
}

func (h Histogram) Add(abundance uint32) {
	i := uint64(abundance)
	if last := uint64(len(h) - 1); i > last {
		i = last
	}
	h[i]++
}

// Cutoff is the first local minimum of h after bin 1, never below floor.
// A histogram without such a minimum yields floor.
func (h Histogram) Cutoff(floor uint32) uint32 {
	floor = max(floor, 1)
	for i := 2; i+1 < len(h); i++ {
		if h[i] <= h[i-1] && h[i] < h[i+1] {
			return max(uint32(i), floor)
		}
	}
	return floor
}
