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
	"encoding/json"

	"github.com/parquet-go/parquet-go"

	"github.com/matrixorigin/rowsplit/pkg/common/moerr"
	"github.com/matrixorigin/rowsplit/pkg/container/types"
	"github.com/matrixorigin/rowsplit/pkg/container/vector"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine"
)

// columnsMetaKey holds the column names and types in their original
// order, parquet groups store fields sorted by name.
const columnsMetaKey = "rowsplit.columns"

type columnMeta struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type columnMapper struct {
	mapper func(vec *vector.Vector, vals []parquet.Value) error
}

func (mp *columnMapper) mapping(vec *vector.Vector, vals []parquet.Value) error {
	return mp.mapper(vec, vals)
}

func columnType(sc *parquet.Column) (types.Type, bool) {
	switch sc.Type().Kind() {
	case parquet.Boolean:
		return types.T_bool.ToType(), true
	case parquet.Int32:
		return types.T_int32.ToType(), true
	case parquet.Int64:
		return types.T_int64.ToType(), true
	case parquet.Float:
		return types.T_float32.ToType(), true
	case parquet.Double:
		return types.T_float64.ToType(), true
	case parquet.ByteArray:
		return types.T_varchar.ToType(), true
	case parquet.FixedLenByteArray:
		return types.New(types.T_char, int32(sc.Type().Length())), true
	}
	return types.Type{}, false
}

func getMapper(typ types.Type) *columnMapper {
	mp := &columnMapper{}
	switch typ.Oid {
	case types.T_bool:
		mp.mapper = func(vec *vector.Vector, vals []parquet.Value) error {
			for _, v := range vals {
				if err := vector.AppendFixed(vec, v.Boolean(), v.IsNull()); err != nil {
					return err
				}
			}
			return nil
		}
	case types.T_int32:
		mp.mapper = func(vec *vector.Vector, vals []parquet.Value) error {
			for _, v := range vals {
				if err := vector.AppendFixed(vec, v.Int32(), v.IsNull()); err != nil {
					return err
				}
			}
			return nil
		}
	case types.T_int64:
		mp.mapper = func(vec *vector.Vector, vals []parquet.Value) error {
			for _, v := range vals {
				if err := vector.AppendFixed(vec, v.Int64(), v.IsNull()); err != nil {
					return err
				}
			}
			return nil
		}
	case types.T_float32:
		mp.mapper = func(vec *vector.Vector, vals []parquet.Value) error {
			for _, v := range vals {
				if err := vector.AppendFixed(vec, v.Float(), v.IsNull()); err != nil {
					return err
				}
			}
			return nil
		}
	case types.T_float64:
		mp.mapper = func(vec *vector.Vector, vals []parquet.Value) error {
			for _, v := range vals {
				if err := vector.AppendFixed(vec, v.Double(), v.IsNull()); err != nil {
					return err
				}
			}
			return nil
		}
	case types.T_char, types.T_varchar, types.T_text:
		mp.mapper = func(vec *vector.Vector, vals []parquet.Value) error {
			for _, v := range vals {
				if err := vector.AppendBytes(vec, v.ByteArray(), v.IsNull()); err != nil {
					return err
				}
			}
			return nil
		}
	default:
		return nil
	}
	return mp
}

// toSchema maps the top level columns of f. Columns come back in the
// order recorded by WriteFile when the file carries it.
func toSchema(ctx context.Context, f *parquet.File, rowIDColumn string) (*engine.Schema, []*parquet.Column, error) {
	var metas []columnMeta
	if s, ok := f.Lookup(columnsMetaKey); ok {
		if err := json.Unmarshal([]byte(s), &metas); err != nil {
			return nil, nil, moerr.NewInvalidInput(ctx, "malformed %s metadata: %v", columnsMetaKey, err)
		}
	}

	root := f.Root()
	var leaves []*parquet.Column
	if len(metas) > 0 {
		leaves = make([]*parquet.Column, len(metas))
		for i, m := range metas {
			if leaves[i] = root.Column(m.Name); leaves[i] == nil {
				return nil, nil, moerr.NewInvalidInput(ctx, "column %s not found", m.Name)
			}
		}
	} else {
		leaves = root.Columns()
	}

	schema := &engine.Schema{
		Attrs:     make([]engine.Attribute, len(leaves)),
		RowIDName: rowIDColumn,
	}
	for i, col := range leaves {
		if !col.Leaf() {
			return nil, nil, moerr.NewNYI(ctx, "can't load group column %s", col.Name())
		}
		if col.Repeated() {
			return nil, nil, moerr.NewNYI(ctx, "can't load repeated column %s", col.Name())
		}
		typ, ok := columnType(col)
		if !ok {
			return nil, nil, moerr.NewNotSupported(ctx, "parquet type %s of column '%s'", col.Type(), col.Name())
		}
		if len(metas) > 0 && typ.Oid.IsStringLike() {
			if t, ok := types.ParseT(metas[i].Type); ok && t.IsStringLike() {
				typ = types.New(t, typ.Width)
			}
		}
		schema.Attrs[i] = engine.Attribute{Name: col.Name(), Type: typ}
	}

	if rowIDColumn != "" {
		idx := schema.ColIdx(rowIDColumn)
		if idx < 0 {
			return nil, nil, moerr.NewInvalidInput(ctx, "row id column %s not found", rowIDColumn)
		}
		if !schema.Attrs[idx].Type.Oid.IsStringLike() {
			return nil, nil, moerr.NewInvalidInput(ctx, "row id column %s is not a string column", rowIDColumn)
		}
	}
	return schema, leaves, nil
}
