// internal/kmer/seq.go
package kmer

var complement [256]byte

func init() {
	for _, p := range [][2]byte{{'A', 'T'}, {'C', 'G'}, {'G', 'C'}, {'T', 'A'}} {
		complement[p[0]] = p[1]
		complement[p[0]+'a'-'A'] = p[1] + 'a' - 'A'
	}
}

// ReverseComplementSeq returns the reverse complement of a raw sequence.
// Symbols outside ACGT map to 'N'.
func ReverseComplementSeq(seq []byte) []byte {
	n := len(seq)
	if n == 0 {
		return nil
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		c := complement[seq[n-1-i]]
		if c == 0 {
			c = 'N'
		}
		out[i] = c
	}
	return out
}
