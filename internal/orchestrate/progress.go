// Copyright 2026 The LibScan Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package orchestrate

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

// Progress reports scan progress to w: a single live-updating line when w
// is a terminal, or one log line per completed unit otherwise, since a
// carriage-return-driven display is meaningless once redirected to a file
// or CI log (spec.md §6).
type Progress struct {
	mu    sync.Mutex
	w     io.Writer
	isTTY bool
	total int
	done  int
	start time.Time
}

// NewProgress returns a Progress over total units of work, writing to w.
func NewProgress(w io.Writer, total int) *Progress {
	isTTY := false
	if f, ok := w.(*os.File); ok {
		isTTY = isatty.IsTerminal(f.Fd())
	}
	return &Progress{w: w, isTTY: isTTY, total: total, start: time.Now()}
}

// Advance marks one more unit complete, labeled for display, and renders
// the updated line.
func (p *Progress) Advance(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++

	pct := 100.0
	if p.total > 0 {
		pct = float64(p.done) / float64(p.total) * 100
	}
	line := fmt.Sprintf("[%3.0f%%] %s/%s %s (%s)",
		pct,
		humanize.Comma(int64(p.done)),
		humanize.Comma(int64(p.total)),
		label,
		humanize.RelTime(p.start, time.Now(), "", "elapsed"))

	if p.isTTY {
		fmt.Fprintf(p.w, "\r%s", line)
		if p.done >= p.total {
			fmt.Fprintln(p.w)
		}
		return
	}
	fmt.Fprintln(p.w, line)
}
