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

package batch

import (
	"bytes"
	"fmt"

	"github.com/matrixorigin/rowsplit/pkg/common/moerr"
	"github.com/matrixorigin/rowsplit/pkg/container/vector"
)

func New(attrs []string) *Batch {
	return &Batch{
		Attrs:    attrs,
		Vecs:     make([]*vector.Vector, len(attrs)),
		rowCount: 0,
	}
}

func (bat *Batch) RowCount() int {
	return bat.rowCount
}

func (bat *Batch) SetRowCount(rowCount int) {
	bat.rowCount = rowCount
}

// Window returns a view of the rows [start, end), sharing the column data.
func (bat *Batch) Window(start, end int) (*Batch, error) {
	if start < 0 || end < start || end > bat.rowCount {
		return nil, moerr.NewInvalidRangeNoCtx(int64(start), int64(end), int64(bat.rowCount))
	}
	rbat := &Batch{
		Attrs:    bat.Attrs,
		Vecs:     make([]*vector.Vector, len(bat.Vecs)),
		rowCount: end - start,
	}
	for i, vec := range bat.Vecs {
		if vec == nil {
			continue
		}
		w, err := vec.Window(start, end)
		if err != nil {
			return nil, err
		}
		rbat.Vecs[i] = w
	}
	if bat.RowIDs != nil {
		rbat.RowIDs = bat.RowIDs[start:end:end]
	}
	return rbat, nil
}

// Project keeps only the vectors at cols, the others are set to nil.
func (bat *Batch) Project(cols []int) *Batch {
	rbat := &Batch{
		Attrs:    bat.Attrs,
		Vecs:     make([]*vector.Vector, len(bat.Vecs)),
		rowCount: bat.rowCount,
	}
	for _, c := range cols {
		rbat.Vecs[c] = bat.Vecs[c]
	}
	return rbat
}

func (bat *Batch) String() string {
	var buf bytes.Buffer

	for i, vec := range bat.Vecs {
		if vec == nil {
			continue
		}
		buf.WriteString(fmt.Sprintf("%d : %s\n", i, vec.String()))
	}
	return buf.String()
}
