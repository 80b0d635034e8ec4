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

package vector

import (
	"bytes"
	"fmt"

	"github.com/matrixorigin/rowsplit/pkg/common/moerr"
	"github.com/matrixorigin/rowsplit/pkg/container/nulls"
	"github.com/matrixorigin/rowsplit/pkg/container/types"
)

// Vector represent a column
type Vector struct {
	// type represent the type of column
	typ types.Type
	nsp *nulls.Nulls // nulls list

	// one of []bool, []int32, []int64, []float32, []float64, []string,
	// always of length >= length
	col any

	length int
}

func NewVec(typ types.Type) *Vector {
	vec := &Vector{
		typ: typ,
		nsp: &nulls.Nulls{},
	}
	switch typ.Oid {
	case types.T_bool:
		vec.col = []bool{}
	case types.T_int32:
		vec.col = []int32{}
	case types.T_int64:
		vec.col = []int64{}
	case types.T_float32:
		vec.col = []float32{}
	case types.T_float64:
		vec.col = []float64{}
	case types.T_char, types.T_varchar, types.T_text:
		vec.col = []string{}
	default:
		panic(moerr.NewInternalErrorNoCtx("vec of type %s is not supported", typ.String()))
	}
	return vec
}

func (v *Vector) Length() int {
	return v.length
}

func (v *Vector) GetType() *types.Type {
	return &v.typ
}

func (v *Vector) GetNulls() *nulls.Nulls {
	return v.nsp
}

func (v *Vector) IsNull(i uint64) bool {
	return nulls.Contains(v.nsp, i)
}

func (v *Vector) HasNull() bool {
	return nulls.Any(v.nsp)
}

// MustFixedCol returns the column data, T must match the vector type.
func MustFixedCol[T any](v *Vector) []T {
	return v.col.([]T)[:v.length]
}

// MustStrCol returns the column of a string-like vector.
func MustStrCol(v *Vector) []string {
	return MustFixedCol[string](v)
}

func (v *Vector) GetStringAt(i int) string {
	return v.col.([]string)[i]
}

// GetValueAt boxes the i-th value, nil if it is null.
func (v *Vector) GetValueAt(i int) any {
	if v.IsNull(uint64(i)) {
		return nil
	}
	switch col := v.col.(type) {
	case []bool:
		return col[i]
	case []int32:
		return col[i]
	case []int64:
		return col[i]
	case []float32:
		return col[i]
	case []float64:
		return col[i]
	case []string:
		return col[i]
	}
	panic(moerr.NewInternalErrorNoCtx("unexpected column data %T", v.col))
}

func AppendFixed[T any](vec *Vector, val T, isNull bool) error {
	col, ok := vec.col.([]T)
	if !ok {
		return moerr.NewInternalErrorNoCtx("append %T to %s vector", val, vec.typ.String())
	}
	if isNull {
		nulls.Add(vec.nsp, uint64(vec.length))
		var zero T
		val = zero
	}
	vec.col = append(col[:vec.length], val)
	vec.length++
	return nil
}

func AppendString(vec *Vector, val string, isNull bool) error {
	return AppendFixed(vec, val, isNull)
}

func AppendBytes(vec *Vector, val []byte, isNull bool) error {
	return AppendFixed(vec, string(val), isNull)
}

func AppendFixedList[T any](vec *Vector, ws []T, isNulls []bool) error {
	for i, w := range ws {
		isNull := false
		if len(isNulls) > 0 {
			isNull = isNulls[i]
		}
		if err := AppendFixed(vec, w, isNull); err != nil {
			return err
		}
	}
	return nil
}

// CheckAny reports whether AppendAny would accept val, without touching vec.
func CheckAny(vec *Vector, val any) error {
	ok := true
	switch val.(type) {
	case nil:
	case bool:
		_, ok = vec.col.([]bool)
	case int32:
		_, ok = vec.col.([]int32)
	case int64:
		_, ok = vec.col.([]int64)
	case float32:
		_, ok = vec.col.([]float32)
	case float64:
		_, ok = vec.col.([]float64)
	case string:
		_, ok = vec.col.([]string)
	default:
		ok = false
	}
	if !ok {
		return moerr.NewInternalErrorNoCtx("append %T to %s vector", val, vec.typ.String())
	}
	return nil
}

// AppendAny appends a boxed value as produced by GetValueAt.
func AppendAny(vec *Vector, val any) error {
	if err := CheckAny(vec, val); err != nil {
		return err
	}
	switch x := val.(type) {
	case nil:
		return appendNull(vec)
	case bool:
		return AppendFixed(vec, x, false)
	case int32:
		return AppendFixed(vec, x, false)
	case int64:
		return AppendFixed(vec, x, false)
	case float32:
		return AppendFixed(vec, x, false)
	case float64:
		return AppendFixed(vec, x, false)
	default:
		return AppendFixed(vec, x.(string), false)
	}
}

func appendNull(vec *Vector) error {
	switch vec.col.(type) {
	case []bool:
		return AppendFixed(vec, false, true)
	case []int32:
		return AppendFixed(vec, int32(0), true)
	case []int64:
		return AppendFixed(vec, int64(0), true)
	case []float32:
		return AppendFixed(vec, float32(0), true)
	case []float64:
		return AppendFixed(vec, float64(0), true)
	case []string:
		return AppendFixed(vec, "", true)
	}
	return moerr.NewInternalErrorNoCtx("append null to %s vector", vec.typ.String())
}

// Window returns a view of the rows [start, end). The values are shared
// with v, only the null bitmap is rebuilt.
func (v *Vector) Window(start, end int) (*Vector, error) {
	if start < 0 || end < start || end > v.length {
		return nil, moerr.NewInvalidRangeNoCtx(int64(start), int64(end), int64(v.length))
	}
	w := &Vector{
		typ:    v.typ,
		length: end - start,
	}
	switch col := v.col.(type) {
	case []bool:
		w.col = col[start:end:end]
	case []int32:
		w.col = col[start:end:end]
	case []int64:
		w.col = col[start:end:end]
	case []float32:
		w.col = col[start:end:end]
	case []float64:
		w.col = col[start:end:end]
	case []string:
		w.col = col[start:end:end]
	}
	w.nsp = nulls.Range(v.nsp, uint64(start), uint64(end), uint64(start), &nulls.Nulls{})
	return w, nil
}

func (v *Vector) String() string {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := 0; i < v.length; i++ {
		if i > 0 {
			buf.WriteByte(' ')
		}
		if val := v.GetValueAt(i); val == nil {
			buf.WriteString("null")
		} else {
			fmt.Fprintf(&buf, "%v", val)
		}
	}
	buf.WriteByte(']')
	return buf.String()
}
