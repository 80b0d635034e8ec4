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

package domain

import (
	"encoding/binary"
	"math"
	"sort"
	"strconv"
	"time"

	hll "github.com/axiomhq/hyperloglog"
	"go.uber.org/zap"
	"golang.org/x/exp/constraints"

	"github.com/matrixorigin/rowsplit/pkg/common/moerr"
	"github.com/matrixorigin/rowsplit/pkg/container/types"
	"github.com/matrixorigin/rowsplit/pkg/logutil"
	"github.com/matrixorigin/rowsplit/pkg/rowsplit/scanner"
	v2 "github.com/matrixorigin/rowsplit/pkg/util/metric/v2"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine"
	"github.com/matrixorigin/rowsplit/pkg/vm/process"
)

// MaxPossibleValues is the largest distinct value set kept for string and
// bool columns. Columns with more values only keep their bounds.
var MaxPossibleValues = 60

type collector interface {
	add(row scanner.RowView)
	domain() *engine.Domain
}

type ordered interface {
	constraints.Integer | constraints.Float | ~string
}

type boundsCollector[T ordered] struct {
	col    int
	get    func(row scanner.RowView, col int) T
	encode func(buf []byte, v T) []byte
	format func(v T) string

	seen         bool
	lower, upper T
	nulls        int64
	sk           *hll.Sketch
	buf          []byte

	// values is nil when the column is not tracked or has overflowed
	values map[T]struct{}
}

func (c *boundsCollector[T]) add(row scanner.RowView) {
	if row.IsNull(c.col) {
		c.nulls++
		return
	}
	v := c.get(row, c.col)
	// NaN has no place in an ordering
	if v != v {
		return
	}
	c.buf = c.encode(c.buf[:0], v)
	c.sk.Insert(c.buf)
	if !c.seen {
		c.lower, c.upper, c.seen = v, v, true
	} else if v < c.lower {
		c.lower = v
	} else if v > c.upper {
		c.upper = v
	}
	if c.values != nil {
		c.values[v] = struct{}{}
		if len(c.values) > MaxPossibleValues {
			c.values = nil
		}
	}
}

func (c *boundsCollector[T]) domain() *engine.Domain {
	d := &engine.Domain{
		NullCount:        c.nulls,
		DistinctEstimate: c.sk.Estimate(),
	}
	if c.seen {
		d.Lower, d.Upper = c.lower, c.upper
	}
	if c.values != nil {
		vals := make([]T, 0, len(c.values))
		for v := range c.values {
			vals = append(vals, v)
		}
		sort.Slice(vals, func(i, j int) bool { return vals[i] < vals[j] })
		d.Values = make([]string, len(vals))
		for i, v := range vals {
			d.Values[i] = c.format(v)
		}
		d.Bounded = true
	}
	return d
}

type boolCollector struct {
	col      int
	nulls    int64
	hasFalse bool
	hasTrue  bool
}

func (c *boolCollector) add(row scanner.RowView) {
	if row.IsNull(c.col) {
		c.nulls++
		return
	}
	if scanner.GetFixed[bool](row, c.col) {
		c.hasTrue = true
	} else {
		c.hasFalse = true
	}
}

func (c *boolCollector) domain() *engine.Domain {
	d := &engine.Domain{NullCount: c.nulls, Bounded: true, Values: []string{}}
	if c.hasFalse {
		d.Values = append(d.Values, "false")
		d.Lower, d.Upper = false, false
	}
	if c.hasTrue {
		d.Values = append(d.Values, "true")
		if !c.hasFalse {
			d.Lower = true
		}
		d.Upper = true
	}
	d.DistinctEstimate = uint64(len(d.Values))
	return d
}

func newBounds[T ordered](col int, track bool, get func(scanner.RowView, int) T,
	encode func([]byte, T) []byte, format func(T) string) *boundsCollector[T] {
	c := &boundsCollector[T]{
		col:    col,
		get:    get,
		encode: encode,
		format: format,
		sk:     hll.New(),
	}
	if track {
		c.values = make(map[T]struct{})
	}
	return c
}

func newCollector(col int, typ types.Type) collector {
	switch typ.Oid {
	case types.T_bool:
		return &boolCollector{col: col}
	case types.T_int32:
		return newBounds(col, false, scanner.GetFixed[int32],
			func(buf []byte, v int32) []byte { return binary.LittleEndian.AppendUint32(buf, uint32(v)) },
			func(v int32) string { return strconv.FormatInt(int64(v), 10) })
	case types.T_int64:
		return newBounds(col, false, scanner.GetFixed[int64],
			func(buf []byte, v int64) []byte { return binary.LittleEndian.AppendUint64(buf, uint64(v)) },
			func(v int64) string { return strconv.FormatInt(v, 10) })
	case types.T_float32:
		return newBounds(col, false, scanner.GetFixed[float32],
			func(buf []byte, v float32) []byte { return binary.LittleEndian.AppendUint32(buf, math.Float32bits(v)) },
			func(v float32) string { return strconv.FormatFloat(float64(v), 'g', -1, 32) })
	case types.T_float64:
		return newBounds(col, false, scanner.GetFixed[float64],
			func(buf []byte, v float64) []byte { return binary.LittleEndian.AppendUint64(buf, math.Float64bits(v)) },
			func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) })
	case types.T_char, types.T_varchar, types.T_text:
		return newBounds(col, true, scanner.GetFixed[string],
			func(buf []byte, v string) []byte { return append(buf, v...) },
			func(v string) string { return v })
	}
	panic(moerr.NewInternalErrorNoCtx("no domain for %s column", typ.String()))
}

// Refresh scans every row of ds and returns a copy of its schema whose
// domains describe the data of ds only. Nothing is returned if the scan is
// cancelled or fails.
func Refresh(proc *process.Process, ds engine.Dataset) (*engine.Schema, error) {
	start := time.Now()
	schema := ds.Schema().Clone()
	collectors := make([]collector, len(schema.Attrs))
	for i, attr := range schema.Attrs {
		collectors[i] = newCollector(i, attr.Type)
	}

	s, err := scanner.New(proc, ds, schema.AllCols(), false, nil)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	s.WithCounter(v2.RowsplitDomainScannedRowsCounter)

	for s.Next() {
		row := s.Row()
		for _, c := range collectors {
			c.add(row)
		}
	}
	if err = s.Err(); err != nil {
		return nil, err
	}

	for i, c := range collectors {
		schema.Attrs[i].Domain = c.domain()
	}
	v2.RowsplitDomainDurationHistogram.Observe(time.Since(start).Seconds())
	logutil.Debug("domains refreshed",
		zap.Int64("rows", ds.Rows()),
		zap.Int("columns", len(collectors)),
		logutil.Elapsed(start),
	)
	return schema, nil
}
