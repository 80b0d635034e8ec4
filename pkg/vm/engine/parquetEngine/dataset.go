// Copyright 2021 - 2022 Matrix Origin
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

package parquetEngine

import (
	"context"
	"errors"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/matrixorigin/rowsplit/pkg/common/compress"
	"github.com/matrixorigin/rowsplit/pkg/common/moerr"
	"github.com/matrixorigin/rowsplit/pkg/container/batch"
	"github.com/matrixorigin/rowsplit/pkg/container/vector"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine/memEngine"
)

var DefaultBatchRows = 8192

// Dataset reads a parquet file column by column. Only the column chunks a
// reader asks for are decoded. Windows are materialized in memory.
type Dataset struct {
	schema  *engine.Schema
	file    *parquet.File
	closer  io.Closer
	leaves  []*parquet.Column
	mappers []*columnMapper

	rowIDIdx  int
	batchRows int
}

var _ engine.Dataset = new(Dataset)

// OpenFile opens a parquet file, optionally compressed as a whole.
func OpenFile(ctx context.Context, path string, rowIDColumn string) (*Dataset, error) {
	f, err := compress.OpenFile(ctx, path)
	if err != nil {
		return nil, err
	}
	ds, err := Open(ctx, f, f.Size(), rowIDColumn)
	if err != nil {
		f.Close()
		return nil, err
	}
	ds.closer = f
	return ds, nil
}

func Open(ctx context.Context, r io.ReaderAt, size int64, rowIDColumn string) (*Dataset, error) {
	file, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, moerr.ConvertGoError(ctx, err)
	}
	schema, leaves, err := toSchema(ctx, file, rowIDColumn)
	if err != nil {
		return nil, err
	}
	ds := &Dataset{
		schema:    schema,
		file:      file,
		leaves:    leaves,
		mappers:   make([]*columnMapper, len(leaves)),
		rowIDIdx:  schema.ColIdx(rowIDColumn),
		batchRows: DefaultBatchRows,
	}
	for i, attr := range schema.Attrs {
		if ds.mappers[i] = getMapper(attr.Type); ds.mappers[i] == nil {
			return nil, moerr.NewNYI(ctx, "load %s column %s", attr.Type.String(), attr.Name)
		}
	}
	return ds, nil
}

func (d *Dataset) SetBatchRows(n int) {
	if n > 0 {
		d.batchRows = n
	}
}

func (d *Dataset) Rows() int64 {
	return d.file.NumRows()
}

func (d *Dataset) Schema() *engine.Schema {
	return d.schema
}

func (d *Dataset) NewReader(ctx context.Context, cols []int, withRowID bool) (engine.Reader, error) {
	return d.newReader(ctx, cols, withRowID, 0, d.Rows())
}

// Window copies the rows [from, to) into an in-memory dataset. Row
// identifiers keep their positions in the file.
func (d *Dataset) Window(ctx context.Context, from, to int64) (engine.Dataset, error) {
	if err := engine.CheckWindow(ctx, from, to, d.Rows()); err != nil {
		return nil, err
	}
	r, err := d.newReader(ctx, d.schema.AllCols(), true, from, to)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	b := memEngine.NewBuilder(d.schema)
	for {
		bat, err := r.Read(ctx)
		if err != nil {
			return nil, err
		}
		if bat == nil {
			break
		}
		if err = b.AppendBatch(bat); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

func (d *Dataset) Close() error {
	if d.closer != nil {
		err := d.closer.Close()
		d.closer = nil
		return err
	}
	return nil
}

type columnCursor struct {
	mapper *columnMapper
	pages  parquet.Pages
	// decoded values of the current page not returned yet
	vals []parquet.Value
}

func (c *columnCursor) read(ctx context.Context, vec *vector.Vector, n int) error {
	for n > 0 {
		if len(c.vals) == 0 {
			page, err := c.pages.ReadPage()
			switch {
			case errors.Is(err, io.EOF):
				return moerr.NewUnexpectedEOF(ctx, "parquet column")
			case err != nil:
				return moerr.ConvertGoError(ctx, err)
			}
			vals := make([]parquet.Value, page.NumValues())
			m, err := page.Values().ReadValues(vals)
			if err != nil && !errors.Is(err, io.EOF) {
				return moerr.ConvertGoError(ctx, err)
			}
			c.vals = vals[:m]
			continue
		}
		k := min(n, len(c.vals))
		if err := c.mapper.mapping(vec, c.vals[:k]); err != nil {
			return err
		}
		c.vals = c.vals[k:]
		n -= k
	}
	return nil
}

type reader struct {
	ds        *Dataset
	cols      []int
	withRowID bool
	// cursors is indexed by attribute, nil for columns not read
	cursors []*columnCursor
	offset  int64
	end     int64
}

func (d *Dataset) newReader(ctx context.Context, cols []int, withRowID bool, from, to int64) (*reader, error) {
	r := &reader{
		ds:        d,
		cols:      cols,
		withRowID: withRowID,
		cursors:   make([]*columnCursor, len(d.leaves)),
		offset:    from,
		end:       to,
	}
	open := func(c int) error {
		if r.cursors[c] != nil {
			return nil
		}
		pages := d.leaves[c].Pages()
		r.cursors[c] = &columnCursor{mapper: d.mappers[c], pages: pages}
		if from > 0 {
			if err := pages.SeekToRow(from); err != nil {
				return moerr.ConvertGoError(ctx, err)
			}
		}
		return nil
	}
	for _, c := range cols {
		if err := open(c); err != nil {
			r.Close()
			return nil, err
		}
	}
	if withRowID && d.rowIDIdx >= 0 {
		if err := open(d.rowIDIdx); err != nil {
			r.Close()
			return nil, err
		}
	}
	return r, nil
}

func (r *reader) Read(ctx context.Context) (*batch.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.offset >= r.end {
		return nil, nil
	}
	n := int(min(int64(r.ds.batchRows), r.end-r.offset))

	attrs := r.ds.schema.Attrs
	bat := batch.New(r.ds.schema.Names())
	for _, c := range r.cols {
		vec := vector.NewVec(attrs[c].Type)
		if err := r.cursors[c].read(ctx, vec, n); err != nil {
			return nil, err
		}
		bat.Vecs[c] = vec
	}
	bat.SetRowCount(n)

	if r.withRowID {
		bat.RowIDs = make([]string, n)
		if idx := r.ds.rowIDIdx; idx >= 0 {
			vec := bat.Vecs[idx]
			if vec == nil {
				vec = vector.NewVec(attrs[idx].Type)
				if err := r.cursors[idx].read(ctx, vec, n); err != nil {
					return nil, err
				}
			}
			copy(bat.RowIDs, vector.MustStrCol(vec))
		} else {
			for i := range bat.RowIDs {
				bat.RowIDs[i] = engine.DefaultRowID(r.offset + int64(i))
			}
		}
	}
	r.offset += int64(n)
	return bat, nil
}

func (r *reader) Close() error {
	var err error
	for i, c := range r.cursors {
		if c == nil {
			continue
		}
		if cerr := c.pages.Close(); err == nil {
			err = cerr
		}
		r.cursors[i] = nil
	}
	return err
}
