// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package member

import (
	"github.com/biogo/biogo/alphabet"
	"gonum.org/v1/gonum/floats"
)

// MajorityConsensus synthesizes a consensus sequence for the alignment by
// majority rule over each column, ignoring gap characters unless a column
// is all gaps, in which case a gap is emitted. Ties are broken by the
// lexically smallest letter so the result is deterministic.
func MajorityConsensus(a *Alignment) alphabet.Letters {
	n := a.Len()
	out := make(alphabet.Letters, n)
	counts := make(map[byte]int, 8)
	for col := 0; col < n; col++ {
		for k := range counts {
			delete(counts, k)
		}
		for _, r := range a.Rows {
			c := r.Gapped[col]
			if c == '-' {
				continue
			}
			counts[c]++
		}
		if len(counts) == 0 {
			out[col] = alphabet.Letter('-')
			continue
		}
		out[col] = alphabet.Letter(majorityOf(counts))
	}
	return out
}

// majorityOf returns the key with the highest count, breaking ties by the
// smallest byte value.
func majorityOf(counts map[byte]int) byte {
	var best byte
	bestN := -1
	for c, n := range counts {
		if n > bestN || (n == bestN && c < best) {
			best, bestN = c, n
		}
	}
	return best
}

// ColumnFrequencies returns the per-letter relative frequency at column
// col, ignoring gaps: a soft consensus rather than a hard majority call.
func ColumnFrequencies(a *Alignment, col int) map[byte]float64 {
	counts := make(map[byte]int, 8)
	total := 0
	for _, r := range a.Rows {
		c := r.Gapped[col]
		if c == '-' {
			continue
		}
		counts[c]++
		total++
	}
	freqs := make(map[byte]float64, len(counts))
	if total == 0 {
		return freqs
	}
	vals := make([]float64, 0, len(counts))
	for _, n := range counts {
		vals = append(vals, float64(n))
	}
	sum := floats.Sum(vals)
	for c, n := range counts {
		freqs[c] = float64(n) / sum
	}
	return freqs
}
