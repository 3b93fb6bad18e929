// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package progress implements the diagnostic-stream progress line format
// of spec.md §6: `\t<message> <percent> %   (processing:<id>)`, with the
// percentage given to two decimal places. A Reporter serialises writes
// from multiple concurrent per-family workers so lines never interleave.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Reporter writes progress lines to an underlying io.Writer, guarding
// every write with a mutex so concurrent callers (one per worker in the
// orchestrator's fixed-size pool) never interleave a line.
type Reporter struct {
	mu sync.Mutex
	w  io.Writer
}

// New returns a Reporter writing to w. A nil w defaults to os.Stderr.
func New(w io.Writer) *Reporter {
	if w == nil {
		w = os.Stderr
	}
	return &Reporter{w: w}
}

// Report writes one progress line for id: message, the percentage
// complete (0-100, two decimal places), and the id being processed.
func (r *Reporter) Report(message string, percent float64, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "\t%s %.2f %%   (processing:%s)\n", message, percent, id)
}
