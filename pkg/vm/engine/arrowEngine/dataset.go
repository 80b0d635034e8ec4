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

package arrowEngine

import (
	"context"

	"github.com/apache/arrow/go/v17/arrow"

	"github.com/matrixorigin/rowsplit/pkg/container/batch"
	"github.com/matrixorigin/rowsplit/pkg/container/vector"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine"
)

var DefaultBatchRows = 8192

// Dataset reads an arrow record. Windows are zero-copy slices of it, each
// holding a reference released by Close.
type Dataset struct {
	schema   *engine.Schema
	rec      arrow.Record
	rowIDIdx int
	// base is the position of the first row in the record the dataset was
	// sliced from.
	base      int64
	batchRows int
}

type reader struct {
	ds        *Dataset
	cols      []int
	withRowID bool
	offset    int64
}

var _ engine.Dataset = new(Dataset)

// New retains rec, rowIDColumn optionally names the identifier column.
func New(ctx context.Context, rec arrow.Record, rowIDColumn string) (*Dataset, error) {
	schema, err := ToSchema(ctx, rec.Schema(), rowIDColumn)
	if err != nil {
		return nil, err
	}
	rec.Retain()
	return &Dataset{
		schema:    schema,
		rec:       rec,
		rowIDIdx:  schema.ColIdx(rowIDColumn),
		batchRows: DefaultBatchRows,
	}, nil
}

func (d *Dataset) SetBatchRows(n int) {
	if n > 0 {
		d.batchRows = n
	}
}

func (d *Dataset) Rows() int64 {
	return d.rec.NumRows()
}

func (d *Dataset) Schema() *engine.Schema {
	return d.schema
}

func (d *Dataset) Record() arrow.Record {
	return d.rec
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
	return &Dataset{
		schema:    d.schema,
		rec:       d.rec.NewSlice(from, to),
		rowIDIdx:  d.rowIDIdx,
		base:      d.base + from,
		batchRows: d.batchRows,
	}, nil
}

func (d *Dataset) Close() error {
	if d.rec != nil {
		d.rec.Release()
		d.rec = nil
	}
	return nil
}

func (r *reader) Read(ctx context.Context) (*batch.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows := r.ds.Rows()
	if r.offset >= rows {
		return nil, nil
	}
	end := r.offset + int64(r.ds.batchRows)
	if end > rows {
		end = rows
	}
	start, stop := int(r.offset), int(end)

	bat := batch.New(r.ds.schema.Names())
	for _, c := range r.cols {
		vec := vector.NewVec(r.ds.schema.Attrs[c].Type)
		if err := appendArray(vec, r.ds.rec.Column(c), start, stop); err != nil {
			return nil, err
		}
		bat.Vecs[c] = vec
	}
	bat.SetRowCount(stop - start)
	if r.withRowID {
		bat.RowIDs = make([]string, stop-start)
		if r.ds.rowIDIdx >= 0 {
			col := r.ds.rec.Column(r.ds.rowIDIdx)
			for i := range bat.RowIDs {
				bat.RowIDs[i] = stringAt(col, start+i)
			}
		} else {
			for i := range bat.RowIDs {
				bat.RowIDs[i] = engine.DefaultRowID(r.ds.base + r.offset + int64(i))
			}
		}
	}
	r.offset = end
	return bat, nil
}

func (r *reader) Close() error {
	return nil
}
