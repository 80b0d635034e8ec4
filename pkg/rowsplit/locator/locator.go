// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package locator

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matrixorigin/rowsplit/pkg/logutil"
	"github.com/matrixorigin/rowsplit/pkg/rowsplit/predicate"
	"github.com/matrixorigin/rowsplit/pkg/rowsplit/scanner"
	v2 "github.com/matrixorigin/rowsplit/pkg/util/metric/v2"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine"
	"github.com/matrixorigin/rowsplit/pkg/vm/process"
)

// Mode selects which matching row becomes the split point.
type Mode int

const (
	FirstMatch Mode = iota
	LastMatch
)

func (m Mode) String() string {
	switch m {
	case FirstMatch:
		return "first"
	case LastMatch:
		return "last"
	}
	return "unknown"
}

func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "first":
		return FirstMatch, true
	case "last":
		return LastMatch, true
	}
	return 0, false
}

// reduction folds the matching rows of a scan into a split point.
type reduction interface {
	// match records a matching row and reports whether the scan can stop.
	match(row int64) bool
	// result returns the split point, size if nothing matched.
	result(size int64) int64
}

type firstMatch struct {
	found int64
}

func (r *firstMatch) match(row int64) bool {
	r.found = row
	return true
}

func (r *firstMatch) result(size int64) int64 {
	if r.found < 0 {
		return size
	}
	return r.found
}

type lastMatch struct {
	found int64
}

func (r *lastMatch) match(row int64) bool {
	r.found = row
	return false
}

func (r *lastMatch) result(size int64) int64 {
	if r.found < 0 {
		return size
	}
	return r.found
}

func newReduction(mode Mode) reduction {
	if mode == LastMatch {
		return &lastMatch{found: -1}
	}
	return &firstMatch{found: -1}
}

// Locate scans ds forward and returns the index of the first or last row
// pred accepts, or ds.Rows() if none does.
func Locate(proc *process.Process, ds engine.Dataset, pred *predicate.Predicate, mode Mode) (int64, error) {
	start := time.Now()
	size := ds.Rows()
	onProgress := func(row int64) {
		proc.SetProgress(float64(row)/float64(size), func() string {
			return fmt.Sprintf("Searching row %d of %d", row, size)
		})
	}
	s, err := scanner.New(proc, ds, pred.Columns(), pred.NeedRowID(), onProgress)
	if err != nil {
		return 0, err
	}
	defer s.Close()

	red := newReduction(mode)
	for s.Next() {
		if pred.Eval(s.Row()) && red.match(s.Index()) {
			break
		}
	}
	if err = s.Err(); err != nil {
		return 0, err
	}
	sp := red.result(size)
	proc.SetProgress(1, func() string {
		return fmt.Sprintf("Searched %d rows", s.Index()+1)
	})
	v2.RowsplitLocateDurationHistogram.Observe(time.Since(start).Seconds())
	logutil.Debug("split point located",
		zap.Int64("rows", size),
		zap.Int64("split", sp),
		zap.String("mode", mode.String()),
		logutil.Elapsed(start),
	)
	return sp, nil
}
