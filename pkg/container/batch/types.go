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
	"github.com/matrixorigin/rowsplit/pkg/container/vector"
)

// Batch represents a part of a dataset
// including row identifiers, columns and list of attributes
//
//	(Attrs) - list of attributes
//	(Vecs)  - columns, nil when the column was not requested
//	(RowIDs) - row identifiers, nil when they were not requested
type Batch struct {
	// Attrs column name list
	Attrs []string
	// Vecs col data
	Vecs []*vector.Vector
	// RowIDs row identifier of every row
	RowIDs []string

	rowCount int
}
