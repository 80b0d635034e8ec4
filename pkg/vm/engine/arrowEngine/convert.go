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
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/matrixorigin/rowsplit/pkg/common/moerr"
	"github.com/matrixorigin/rowsplit/pkg/container/types"
	"github.com/matrixorigin/rowsplit/pkg/container/vector"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine"
)

func toType(dt arrow.DataType) (types.Type, bool) {
	switch dt.ID() {
	case arrow.BOOL:
		return types.T_bool.ToType(), true
	case arrow.INT32:
		return types.T_int32.ToType(), true
	case arrow.INT64:
		return types.T_int64.ToType(), true
	case arrow.FLOAT32:
		return types.T_float32.ToType(), true
	case arrow.FLOAT64:
		return types.T_float64.ToType(), true
	case arrow.STRING, arrow.LARGE_STRING:
		return types.T_varchar.ToType(), true
	}
	return types.Type{}, false
}

func toArrowType(typ types.Type) arrow.DataType {
	switch typ.Oid {
	case types.T_bool:
		return arrow.FixedWidthTypes.Boolean
	case types.T_int32:
		return arrow.PrimitiveTypes.Int32
	case types.T_int64:
		return arrow.PrimitiveTypes.Int64
	case types.T_float32:
		return arrow.PrimitiveTypes.Float32
	case types.T_float64:
		return arrow.PrimitiveTypes.Float64
	case types.T_char, types.T_varchar, types.T_text:
		return arrow.BinaryTypes.String
	}
	panic(moerr.NewInternalErrorNoCtx("type %s has no arrow mapping", typ.String()))
}

// ToSchema maps an arrow schema. rowIDColumn, if set, must name a string
// field holding the row identifiers.
func ToSchema(ctx context.Context, as *arrow.Schema, rowIDColumn string) (*engine.Schema, error) {
	schema := &engine.Schema{
		Attrs:     make([]engine.Attribute, len(as.Fields())),
		RowIDName: rowIDColumn,
	}
	for i, f := range as.Fields() {
		typ, ok := toType(f.Type)
		if !ok {
			return nil, moerr.NewNotSupported(ctx, "arrow type %s of column '%s'", f.Type, f.Name)
		}
		schema.Attrs[i] = engine.Attribute{Name: f.Name, Type: typ}
	}
	if rowIDColumn != "" {
		idx := schema.ColIdx(rowIDColumn)
		if idx < 0 {
			return nil, moerr.NewInvalidInput(ctx, "row id column %s not found", rowIDColumn)
		}
		if !schema.Attrs[idx].Type.Oid.IsStringLike() {
			return nil, moerr.NewInvalidInput(ctx, "row id column %s is not a string column", rowIDColumn)
		}
	}
	return schema, nil
}

func ToArrowSchema(schema *engine.Schema) *arrow.Schema {
	fields := make([]arrow.Field, len(schema.Attrs))
	for i, attr := range schema.Attrs {
		fields[i] = arrow.Field{Name: attr.Name, Type: toArrowType(attr.Type), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func nullsOf(arr arrow.Array, start, end int) []bool {
	if arr.NullN() == 0 {
		return nil
	}
	isNulls := make([]bool, end-start)
	for i := range isNulls {
		isNulls[i] = arr.IsNull(start + i)
	}
	return isNulls
}

// appendArray copies the rows [start, end) of arr into vec.
func appendArray(vec *vector.Vector, arr arrow.Array, start, end int) error {
	switch a := arr.(type) {
	case *array.Int32:
		return vector.AppendFixedList(vec, a.Int32Values()[start:end], nullsOf(a, start, end))
	case *array.Int64:
		return vector.AppendFixedList(vec, a.Int64Values()[start:end], nullsOf(a, start, end))
	case *array.Float32:
		return vector.AppendFixedList(vec, a.Float32Values()[start:end], nullsOf(a, start, end))
	case *array.Float64:
		return vector.AppendFixedList(vec, a.Float64Values()[start:end], nullsOf(a, start, end))
	case *array.Boolean:
		for i := start; i < end; i++ {
			if err := vector.AppendFixed(vec, a.Value(i), a.IsNull(i)); err != nil {
				return err
			}
		}
		return nil
	case *array.String:
		for i := start; i < end; i++ {
			if err := vector.AppendString(vec, a.Value(i), a.IsNull(i)); err != nil {
				return err
			}
		}
		return nil
	case *array.LargeString:
		for i := start; i < end; i++ {
			if err := vector.AppendString(vec, a.Value(i), a.IsNull(i)); err != nil {
				return err
			}
		}
		return nil
	}
	return moerr.NewInternalErrorNoCtx("unexpected arrow array %T", arr)
}

func stringAt(arr arrow.Array, i int) string {
	if arr.IsNull(i) {
		return ""
	}
	switch a := arr.(type) {
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	}
	panic(moerr.NewInternalErrorNoCtx("unexpected row id array %T", arr))
}

func valid(vec *vector.Vector) []bool {
	if !vec.HasNull() {
		return nil
	}
	v := make([]bool, vec.Length())
	for i := range v {
		v[i] = !vec.IsNull(uint64(i))
	}
	return v
}

func appendBuilder(b array.Builder, vec *vector.Vector) {
	switch fb := b.(type) {
	case *array.BooleanBuilder:
		fb.AppendValues(vector.MustFixedCol[bool](vec), valid(vec))
	case *array.Int32Builder:
		fb.AppendValues(vector.MustFixedCol[int32](vec), valid(vec))
	case *array.Int64Builder:
		fb.AppendValues(vector.MustFixedCol[int64](vec), valid(vec))
	case *array.Float32Builder:
		fb.AppendValues(vector.MustFixedCol[float32](vec), valid(vec))
	case *array.Float64Builder:
		fb.AppendValues(vector.MustFixedCol[float64](vec), valid(vec))
	case *array.StringBuilder:
		fb.AppendValues(vector.MustStrCol(vec), valid(vec))
	default:
		panic(moerr.NewInternalErrorNoCtx("unexpected arrow builder %T", b))
	}
}

// FromDataset materializes every column of ds into one record.
func FromDataset(ctx context.Context, mem memory.Allocator, ds engine.Dataset) (arrow.Record, error) {
	schema := ds.Schema()
	rb := array.NewRecordBuilder(mem, ToArrowSchema(schema))
	defer rb.Release()

	r, err := ds.NewReader(ctx, schema.AllCols(), false)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	for {
		bat, err := r.Read(ctx)
		if err != nil {
			return nil, err
		}
		if bat == nil {
			break
		}
		for i, vec := range bat.Vecs {
			appendBuilder(rb.Field(i), vec)
		}
	}
	return rb.NewRecord(), nil
}
