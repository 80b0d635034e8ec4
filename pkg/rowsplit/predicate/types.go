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

package predicate

import (
	"strings"
)

// Criterion is how a cell or row identifier is tested.
type Criterion int

const (
	Equals Criterion = iota
	Missing
	Empty
)

func (c Criterion) String() string {
	switch c {
	case Equals:
		return "equals"
	case Missing:
		return "missing"
	case Empty:
		return "empty"
	}
	return "unknown"
}

// ParseCriterion accepts the names printed by Criterion.String.
func ParseCriterion(s string) (Criterion, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "equals":
		return Equals, true
	case "missing":
		return Missing, true
	case "empty":
		return Empty, true
	}
	return 0, false
}

// MatchSpec declares which rows match. Column is ignored when UseRowID is
// set, Pattern is only read by Equals.
type MatchSpec struct {
	UseRowID  bool
	Column    string
	Criterion Criterion
	Pattern   string
}

// Row is the part of a scanned row a predicate reads. Column indexes are
// positions in the dataset schema.
type Row interface {
	IsNull(col int) bool
	GetString(col int) string
	GetInt32(col int) int32
	GetInt64(col int) int64
	RowID() string
}

// Predicate is a compiled MatchSpec, bound to one column of one schema.
type Predicate struct {
	spec MatchSpec
	// col is -1 when the row identifier is tested
	col  int
	test func(row Row) bool
}
