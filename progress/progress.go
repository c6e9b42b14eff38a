// Copyright 2019 Tripline Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

// Package progress reports pipeline stage row counts to the terminal while
// a run is in flight. It is meant for supervised, interactive runs in lieu
// of a real metrics collector.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Reporter accumulates named stage counts and periodically rewrites one
// status line on out until Stop.
type Reporter struct {
	mu      sync.Mutex
	indexes map[string]int
	names   []string
	counts  []int64
	changed bool
	out     io.Writer
	start   time.Time
	done    chan struct{}
	once    sync.Once
}

// NewReporter starts a reporter writing to out every two seconds.
func NewReporter(out io.Writer) *Reporter {
	r := &Reporter{
		indexes: make(map[string]int),
		out:     out,
		start:   time.Now(),
		done:    make(chan struct{}),
	}
	go func() {
		tick := time.NewTicker(time.Second * 2)
		defer tick.Stop()
		for {
			select {
			case <-tick.C:
				r.write()
			case <-r.done:
				return
			}
		}
	}()
	return r
}

// Count adds value to the named stage counter.
func (r *Reporter) Count(stage string, value int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changed = true
	idx, ok := r.indexes[stage]
	if !ok {
		idx = len(r.counts)
		r.counts = append(r.counts, 0)
		r.names = append(r.names, stage)
		r.indexes[stage] = idx
	}
	r.counts[idx] += value
}

// Snapshot returns the current counters keyed by stage name.
func (r *Reporter) Snapshot() map[string]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64, len(r.names))
	for i, n := range r.names {
		out[n] = r.counts[i]
	}
	return out
}

// Stop halts the ticker and writes a final summary line.
func (r *Reporter) Stop() {
	r.once.Do(func() {
		close(r.done)
		r.mu.Lock()
		r.changed = true
		r.mu.Unlock()
		r.write()
		fmt.Fprintf(r.out, "\nelapsed: %v\n", time.Since(r.start).Round(time.Millisecond))
	})
}

func (r *Reporter) write() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.changed {
		return
	}
	sb := strings.Builder{}
	for i := range r.counts {
		sb.WriteString(fmt.Sprintf("%s: %d ", r.names[i], r.counts[i]))
	}
	r.changed = false
	fmt.Fprintf(r.out, "\r%s", sb.String())
}
