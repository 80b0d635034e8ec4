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

package parquetEngine

import (
	"context"
	"encoding/json"
	"io"
	"sort"

	"github.com/parquet-go/parquet-go"

	"github.com/matrixorigin/rowsplit/pkg/common/compress"
	"github.com/matrixorigin/rowsplit/pkg/common/moerr"
	"github.com/matrixorigin/rowsplit/pkg/container/batch"
	"github.com/matrixorigin/rowsplit/pkg/container/types"
	"github.com/matrixorigin/rowsplit/pkg/container/vector"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine"
)

var DefaultPageBufferSize = 256 * 1024

func leafNode(typ types.Type) parquet.Node {
	switch typ.Oid {
	case types.T_bool:
		return parquet.Leaf(parquet.BooleanType)
	case types.T_int32:
		return parquet.Int(32)
	case types.T_int64:
		return parquet.Int(64)
	case types.T_float32:
		return parquet.Leaf(parquet.FloatType)
	case types.T_float64:
		return parquet.Leaf(parquet.DoubleType)
	case types.T_char, types.T_varchar, types.T_text:
		return parquet.String()
	}
	panic(moerr.NewInternalErrorNoCtx("type %s has no parquet mapping", typ.String()))
}

// toParquetSchema returns the file schema and, for every attribute, the
// index of its leaf column.
func toParquetSchema(schema *engine.Schema) (*parquet.Schema, []int) {
	group := parquet.Group{}
	names := make([]string, len(schema.Attrs))
	for i, attr := range schema.Attrs {
		group[attr.Name] = parquet.Optional(leafNode(attr.Type))
		names[i] = attr.Name
	}
	sort.Strings(names)
	leafIdx := make([]int, len(schema.Attrs))
	for i, attr := range schema.Attrs {
		leafIdx[i] = sort.SearchStrings(names, attr.Name)
	}
	return parquet.NewSchema("rowsplit", group), leafIdx
}

func valueAt(vec *vector.Vector, row int) parquet.Value {
	if vec.IsNull(uint64(row)) {
		return parquet.NullValue()
	}
	switch x := vec.GetValueAt(row).(type) {
	case bool:
		return parquet.BooleanValue(x)
	case int32:
		return parquet.Int32Value(x)
	case int64:
		return parquet.Int64Value(x)
	case float32:
		return parquet.FloatValue(x)
	case float64:
		return parquet.DoubleValue(x)
	case string:
		return parquet.ByteArrayValue([]byte(x))
	}
	panic(moerr.NewInternalErrorNoCtx("unexpected value in %s vector", vec.GetType().String()))
}

func toRows(bat *batch.Batch, leafIdx []int) []parquet.Row {
	rows := make([]parquet.Row, bat.RowCount())
	for r := range rows {
		row := make(parquet.Row, len(leafIdx))
		for i, vec := range bat.Vecs {
			v := valueAt(vec, r)
			def := 1
			if v.IsNull() {
				def = 0
			}
			row[leafIdx[i]] = v.Level(0, def, leafIdx[i])
		}
		rows[r] = row
	}
	return rows
}

// Write stores every row of ds to w. The attribute order and types are
// recorded in the file metadata so that Open restores the same schema.
func Write(ctx context.Context, w io.Writer, ds engine.Dataset) error {
	schema := ds.Schema()
	if len(schema.Attrs) == 0 {
		return moerr.NewInvalidInput(ctx, "can't write a dataset without columns")
	}
	metas := make([]columnMeta, len(schema.Attrs))
	for i, attr := range schema.Attrs {
		metas[i] = columnMeta{Name: attr.Name, Type: attr.Type.String()}
	}
	meta, err := json.Marshal(metas)
	if err != nil {
		return moerr.ConvertGoError(ctx, err)
	}

	ps, leafIdx := toParquetSchema(schema)
	pw := parquet.NewWriter(w, ps,
		parquet.KeyValueMetadata(columnsMetaKey, string(meta)),
		parquet.PageBufferSize(DefaultPageBufferSize),
	)

	r, err := ds.NewReader(ctx, schema.AllCols(), false)
	if err != nil {
		return err
	}
	defer r.Close()
	for {
		bat, err := r.Read(ctx)
		if err != nil {
			return err
		}
		if bat == nil {
			break
		}
		if _, err = pw.WriteRows(toRows(bat, leafIdx)); err != nil {
			return moerr.ConvertGoError(ctx, err)
		}
	}
	return moerr.ConvertGoError(ctx, pw.Close())
}

// WriteFile writes ds to path, compressed according to the path suffix.
func WriteFile(ctx context.Context, path string, ds engine.Dataset) error {
	w, err := compress.CreateFile(ctx, path)
	if err != nil {
		return err
	}
	if err = Write(ctx, w, ds); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
