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

package engine

import (
	"context"
	"strconv"

	"github.com/matrixorigin/rowsplit/pkg/container/batch"
	"github.com/matrixorigin/rowsplit/pkg/container/types"
)

// Domain summarizes the values observed in one column.
type Domain struct {
	// Lower and Upper are the bounds, nil when every value is null or the
	// bounds were never computed.
	Lower any
	Upper any
	// Values is the set of distinct values of string and bool columns,
	// complete only if Bounded is set.
	Values  []string
	Bounded bool

	NullCount        int64
	DistinctEstimate uint64
}

type Attribute struct {
	Name   string
	Type   types.Type
	Domain *Domain
}

// Schema is the ordered list of attributes of a Dataset. It is immutable
// for the lifetime of the Dataset.
type Schema struct {
	Attrs []Attribute
	// RowIDName names the column the row identifiers were read from, empty
	// when identifiers are generated from the row position.
	RowIDName string
}

// Reader is a forward only cursor over a Dataset.
type Reader interface {
	// Read returns the next batch, or nil at the end of the data. Only the
	// requested vectors are set on the batch.
	Read(ctx context.Context) (*batch.Batch, error)
	Close() error
}

// Dataset is an ordered, read-only sequence of rows.
type Dataset interface {
	Rows() int64
	Schema() *Schema

	// NewReader opens a cursor materializing only cols, and the row
	// identifiers if withRowID is set.
	NewReader(ctx context.Context, cols []int, withRowID bool) (Reader, error)

	// Window returns the rows [from, to) as a new Dataset. Backends that can
	// slice logically do so, others materialize a copy.
	Window(ctx context.Context, from, to int64) (Dataset, error)
}

// DefaultRowID is the identifier of the idx-th row of a dataset whose
// source carries no identifier column.
func DefaultRowID(idx int64) string {
	return "Row" + strconv.FormatInt(idx, 10)
}

func NewSchema(attrs ...Attribute) *Schema {
	return &Schema{Attrs: attrs}
}

func (s *Schema) Len() int {
	return len(s.Attrs)
}

// ColIdx returns the position of the column name, or -1.
func (s *Schema) ColIdx(name string) int {
	for i, attr := range s.Attrs {
		if attr.Name == name {
			return i
		}
	}
	return -1
}

func (s *Schema) Names() []string {
	names := make([]string, len(s.Attrs))
	for i, attr := range s.Attrs {
		names[i] = attr.Name
	}
	return names
}

func (s *Schema) AllCols() []int {
	cols := make([]int, len(s.Attrs))
	for i := range cols {
		cols[i] = i
	}
	return cols
}

func (s *Schema) Clone() *Schema {
	attrs := make([]Attribute, len(s.Attrs))
	for i, attr := range s.Attrs {
		attrs[i] = attr
		if attr.Domain != nil {
			d := *attr.Domain
			d.Values = append([]string(nil), attr.Domain.Values...)
			attrs[i].Domain = &d
		}
	}
	return &Schema{Attrs: attrs, RowIDName: s.RowIDName}
}
