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
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/matrixorigin/rowsplit/pkg/common/compress"
	"github.com/matrixorigin/rowsplit/pkg/common/moerr"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine"
)

// OpenFile loads an arrow IPC file, optionally compressed, as one dataset.
// Record batches of the file are concatenated.
func OpenFile(ctx context.Context, path string, rowIDColumn string) (*Dataset, error) {
	f, err := compress.OpenFile(ctx, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mem := memory.NewGoAllocator()
	fr, err := ipc.NewFileReader(f, ipc.WithAllocator(mem))
	if err != nil {
		return nil, moerr.ConvertGoError(ctx, err)
	}
	defer fr.Close()

	recs := make([]arrow.Record, 0, fr.NumRecords())
	defer func() {
		for _, rec := range recs {
			rec.Release()
		}
	}()
	for i := 0; i < fr.NumRecords(); i++ {
		rec, err := fr.Record(i)
		if err != nil {
			return nil, moerr.ConvertGoError(ctx, err)
		}
		rec.Retain()
		recs = append(recs, rec)
	}
	rec, err := concatRecords(mem, fr.Schema(), recs)
	if err != nil {
		return nil, moerr.ConvertGoError(ctx, err)
	}
	defer rec.Release()
	return New(ctx, rec, rowIDColumn)
}

func concatRecords(mem memory.Allocator, schema *arrow.Schema, recs []arrow.Record) (arrow.Record, error) {
	switch len(recs) {
	case 0:
		rb := array.NewRecordBuilder(mem, schema)
		defer rb.Release()
		return rb.NewRecord(), nil
	case 1:
		recs[0].Retain()
		return recs[0], nil
	}
	var rows int64
	for _, rec := range recs {
		rows += rec.NumRows()
	}
	cols := make([]arrow.Array, len(schema.Fields()))
	defer func() {
		for _, col := range cols {
			if col != nil {
				col.Release()
			}
		}
	}()
	parts := make([]arrow.Array, len(recs))
	for c := range cols {
		for i, rec := range recs {
			parts[i] = rec.Column(c)
		}
		col, err := array.Concatenate(parts, mem)
		if err != nil {
			return nil, err
		}
		cols[c] = col
	}
	return array.NewRecord(schema, cols, rows), nil
}

// WriteFile stores every row of ds as an arrow IPC file, compressed
// according to the path suffix.
func WriteFile(ctx context.Context, path string, ds engine.Dataset) error {
	mem := memory.NewGoAllocator()
	rec, err := FromDataset(ctx, mem, ds)
	if err != nil {
		return err
	}
	defer rec.Release()

	w, err := compress.CreateFile(ctx, path)
	if err != nil {
		return err
	}
	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err != nil {
		w.Close()
		return moerr.ConvertGoError(ctx, err)
	}
	if err = fw.Write(rec); err != nil {
		fw.Close()
		w.Close()
		return moerr.ConvertGoError(ctx, err)
	}
	if err = fw.Close(); err != nil {
		w.Close()
		return moerr.ConvertGoError(ctx, err)
	}
	return moerr.ConvertGoError(ctx, w.Close())
}
