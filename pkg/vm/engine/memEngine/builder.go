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

package memEngine

import (
	"github.com/matrixorigin/rowsplit/pkg/common/moerr"
	"github.com/matrixorigin/rowsplit/pkg/container/batch"
	"github.com/matrixorigin/rowsplit/pkg/container/vector"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine"
)

// Builder appends rows to a new in-memory dataset.
type Builder struct {
	schema *engine.Schema
	bat    *batch.Batch
	ids    []string
	hasIDs bool
}

func NewBuilder(schema *engine.Schema) *Builder {
	bat := batch.New(schema.Names())
	for i, attr := range schema.Attrs {
		bat.Vecs[i] = vector.NewVec(attr.Type)
	}
	return &Builder{schema: schema, bat: bat}
}

// Append adds one row. An empty rowID gets the positional identifier, a
// nil value is a missing cell.
func (b *Builder) Append(rowID string, vals ...any) error {
	if len(vals) != len(b.bat.Vecs) {
		return moerr.NewInvalidInputNoCtx("row has %d values, schema has %d columns", len(vals), len(b.bat.Vecs))
	}
	if err := b.appendValues(vals); err != nil {
		return err
	}
	n := int64(b.bat.RowCount())
	if rowID == "" {
		rowID = engine.DefaultRowID(n)
	} else {
		b.hasIDs = true
	}
	b.ids = append(b.ids, rowID)
	b.bat.SetRowCount(int(n) + 1)
	return nil
}

// AppendBatch copies every row of bat, which must follow the builder
// schema. Missing vectors in bat are appended as nulls.
func (b *Builder) AppendBatch(bat *batch.Batch) error {
	vals := make([]any, len(b.bat.Vecs))
	for row := 0; row < bat.RowCount(); row++ {
		for i := range vals {
			vals[i] = nil
			if i < len(bat.Vecs) && bat.Vecs[i] != nil {
				vals[i] = bat.Vecs[i].GetValueAt(row)
			}
		}
		if err := b.appendValues(vals); err != nil {
			return err
		}
		id := engine.DefaultRowID(int64(b.bat.RowCount()))
		if bat.RowIDs != nil {
			id = bat.RowIDs[row]
			b.hasIDs = true
		}
		b.ids = append(b.ids, id)
		b.bat.SetRowCount(b.bat.RowCount() + 1)
	}
	return nil
}

// appendValues adds one value to every vector, or none of them when any
// value does not fit its column.
func (b *Builder) appendValues(vals []any) error {
	for i, val := range vals {
		if err := vector.CheckAny(b.bat.Vecs[i], val); err != nil {
			return err
		}
	}
	for i, val := range vals {
		if err := vector.AppendAny(b.bat.Vecs[i], val); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) Build() *Dataset {
	if b.hasIDs {
		b.bat.RowIDs = b.ids
	}
	return New(b.schema, b.bat)
}
