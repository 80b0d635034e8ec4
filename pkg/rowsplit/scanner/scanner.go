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

package scanner

import (
	"github.com/matrixorigin/rowsplit/pkg/common/moerr"
	"github.com/matrixorigin/rowsplit/pkg/container/batch"
	"github.com/matrixorigin/rowsplit/pkg/container/vector"
	v2 "github.com/matrixorigin/rowsplit/pkg/util/metric/v2"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine"
	"github.com/matrixorigin/rowsplit/pkg/vm/process"
)

// MaxProgressUpdates bounds how often a full scan reports progress and
// looks for cancellation.
var MaxProgressUpdates int64 = 200

// Scanner walks a dataset forward, one row at a time, materializing only
// the requested columns.
type Scanner struct {
	proc       *process.Process
	reader     engine.Reader
	size       int64
	stride     int64
	onProgress func(row int64)
	counter    rowCounter

	bat   *batch.Batch
	pos   int
	index int64
	err   error
}

type rowCounter interface {
	Add(float64)
}

// RowView reads the current row of a scanner. It is only valid until the
// next call to Next.
type RowView struct {
	bat *batch.Batch
	pos int
}

// Stride returns the number of rows between two progress reports over
// size rows.
func Stride(size int64) int64 {
	return max(size/MaxProgressUpdates, 1)
}

// New opens a scanner over ds. onProgress may be nil, it receives the index
// of the row about to be read.
func New(proc *process.Process, ds engine.Dataset, cols []int, withRowID bool, onProgress func(row int64)) (*Scanner, error) {
	r, err := ds.NewReader(proc.Ctx, cols, withRowID)
	if err != nil {
		return nil, moerr.ConvertGoError(proc.Ctx, err)
	}
	size := ds.Rows()
	return &Scanner{
		proc:       proc,
		reader:     r,
		size:       size,
		stride:     Stride(size),
		onProgress: onProgress,
		counter:    v2.RowsplitLocateScannedRowsCounter,
		index:      -1,
	}, nil
}

// WithCounter changes the metric the scanned rows are added to.
func (s *Scanner) WithCounter(c rowCounter) *Scanner {
	s.counter = c
	return s
}

// Next advances to the next row. It returns false at the end of the data,
// on cancellation or on a read failure, Err tells them apart.
func (s *Scanner) Next() bool {
	if s.err != nil {
		return false
	}
	next := s.index + 1
	if next >= s.size {
		return false
	}
	if next%s.stride == 0 {
		if s.onProgress != nil {
			s.onProgress(next)
		}
		if s.proc.Interrupted() {
			s.err = moerr.NewQueryInterrupted(s.proc.Ctx)
			return false
		}
	}

	s.pos++
	for s.bat == nil || s.pos >= s.bat.RowCount() {
		bat, err := s.reader.Read(s.proc.Ctx)
		if err != nil {
			s.err = moerr.ConvertGoError(s.proc.Ctx, err)
			return false
		}
		if bat == nil {
			s.err = moerr.NewUnexpectedEOF(s.proc.Ctx, "dataset")
			return false
		}
		s.bat, s.pos = bat, 0
	}
	s.index = next
	return true
}

// Row returns the current row.
func (s *Scanner) Row() RowView {
	return RowView{bat: s.bat, pos: s.pos}
}

// Index returns the position of the current row, -1 before the first Next.
func (s *Scanner) Index() int64 {
	return s.index
}

func (s *Scanner) Size() int64 {
	return s.size
}

func (s *Scanner) Err() error {
	return s.err
}

func (s *Scanner) Close() error {
	if s.counter != nil {
		s.counter.Add(float64(s.index + 1))
		s.counter = nil
	}
	return s.reader.Close()
}

func (r RowView) IsNull(col int) bool {
	return r.bat.Vecs[col].IsNull(uint64(r.pos))
}

func (r RowView) GetString(col int) string {
	return r.bat.Vecs[col].GetStringAt(r.pos)
}

func (r RowView) GetInt32(col int) int32 {
	return vector.MustFixedCol[int32](r.bat.Vecs[col])[r.pos]
}

func (r RowView) GetInt64(col int) int64 {
	return vector.MustFixedCol[int64](r.bat.Vecs[col])[r.pos]
}

func (r RowView) RowID() string {
	return r.bat.RowIDs[r.pos]
}

// GetFixed reads a fixed size cell, T must match the column type.
func GetFixed[T any](r RowView, col int) T {
	return vector.MustFixedCol[T](r.bat.Vecs[col])[r.pos]
}
