// Copyright 2021 Matrix Origin
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

package memEngine

import (
	"context"

	"github.com/matrixorigin/rowsplit/pkg/container/batch"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine"
)

// DefaultBatchRows is the number of rows a reader returns per batch.
var DefaultBatchRows = 8192

// Dataset keeps all rows in one batch. Windows share the column data.
type Dataset struct {
	schema *engine.Schema
	bat    *batch.Batch
	// base is the position of the first row in the dataset it was cut
	// from, generated row identifiers stay stable across windows.
	base      int64
	batchRows int
}

type reader struct {
	ds        *Dataset
	cols      []int
	withRowID bool
	offset    int
}

var _ engine.Dataset = new(Dataset)

// New wraps bat, whose vectors must follow schema. bat.RowIDs may be nil.
func New(schema *engine.Schema, bat *batch.Batch) *Dataset {
	return &Dataset{
		schema:    schema,
		bat:       bat,
		batchRows: DefaultBatchRows,
	}
}

// SetBatchRows changes how many rows a reader returns per batch.
func (d *Dataset) SetBatchRows(n int) {
	if n > 0 {
		d.batchRows = n
	}
}

func (d *Dataset) Rows() int64 {
	return int64(d.bat.RowCount())
}

func (d *Dataset) Schema() *engine.Schema {
	return d.schema
}

// Batch exposes the underlying data, callers must not modify it.
func (d *Dataset) Batch() *batch.Batch {
	return d.bat
}

func (d *Dataset) NewReader(_ context.Context, cols []int, withRowID bool) (engine.Reader, error) {
	return &reader{
		ds:        d,
		cols:      cols,
		withRowID: withRowID,
	}, nil
}

func (d *Dataset) Window(ctx context.Context, from, to int64) (engine.Dataset, error) {
	if err := engine.CheckWindow(ctx, from, to, d.Rows()); err != nil {
		return nil, err
	}
	bat, err := d.bat.Window(int(from), int(to))
	if err != nil {
		return nil, err
	}
	return &Dataset{
		schema:    d.schema,
		bat:       bat,
		base:      d.base + from,
		batchRows: d.batchRows,
	}, nil
}

func (r *reader) Read(ctx context.Context) (*batch.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows := r.ds.bat.RowCount()
	if r.offset >= rows {
		return nil, nil
	}
	end := r.offset + r.ds.batchRows
	if end > rows {
		end = rows
	}
	// unrequested columns are never windowed
	bat, err := r.ds.bat.Project(r.cols).Window(r.offset, end)
	if err != nil {
		return nil, err
	}
	if r.withRowID {
		if r.ds.bat.RowIDs != nil {
			bat.RowIDs = r.ds.bat.RowIDs[r.offset:end:end]
		} else {
			bat.RowIDs = generateRowIDs(r.ds.base+int64(r.offset), end-r.offset)
		}
	}
	r.offset = end
	return bat, nil
}

func (r *reader) Close() error {
	return nil
}

func generateRowIDs(start int64, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = engine.DefaultRowID(start + int64(i))
	}
	return ids
}
