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
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/matrixorigin/rowsplit/pkg/common/moerr"
	"github.com/matrixorigin/rowsplit/pkg/container/types"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine"
)

// Compile checks spec against schema and builds its predicate. Warnings
// do not prevent the predicate from being used.
func Compile(ctx context.Context, schema *engine.Schema, spec MatchSpec) (*Predicate, []*moerr.Error, error) {
	switch spec.Criterion {
	case Equals, Missing, Empty:
	default:
		return nil, nil, moerr.NewBadConfig(ctx, "unknown match criterion %d", int(spec.Criterion))
	}

	if spec.UseRowID {
		return compileRowID(ctx, spec)
	}

	col := schema.ColIdx(spec.Column)
	if col < 0 {
		return nil, nil, moerr.NewInvalidInput(ctx, "column %s not found", spec.Column)
	}
	typ := schema.Attrs[col].Type
	kind := typ.Oid.Kind()
	if kind == types.KindUnsupported {
		return nil, nil, moerr.NewUnsupportedColumnType(ctx, spec.Column, typ.String())
	}

	p := &Predicate{spec: spec, col: col}
	switch spec.Criterion {
	case Missing:
		p.test = func(row Row) bool {
			return row.IsNull(col)
		}
	case Empty:
		if kind == types.KindStringLike {
			p.test = func(row Row) bool {
				return row.IsNull(col) || strings.TrimSpace(row.GetString(col)) == ""
			}
		} else {
			p.test = func(row Row) bool {
				return row.IsNull(col)
			}
		}
	case Equals:
		test, err := compileEquals(ctx, spec, col, kind)
		if err != nil {
			return nil, nil, err
		}
		p.test = test
	}
	return p, nil, nil
}

func compileRowID(ctx context.Context, spec MatchSpec) (*Predicate, []*moerr.Error, error) {
	p := &Predicate{spec: spec, col: -1}
	var warnings []*moerr.Error
	switch spec.Criterion {
	case Equals:
		pattern := spec.Pattern
		p.test = func(row Row) bool {
			return row.RowID() == pattern
		}
	case Empty:
		p.test = func(row Row) bool {
			return strings.TrimSpace(row.RowID()) == ""
		}
	case Missing:
		// row identifiers are never absent
		p.test = func(Row) bool {
			return false
		}
		warnings = append(warnings, moerr.NewRowIDNeverMissing(ctx))
	}
	return p, warnings, nil
}

func compileEquals(ctx context.Context, spec MatchSpec, col int, kind types.Kind) (func(Row) bool, error) {
	switch kind {
	case types.KindStringLike:
		pattern := spec.Pattern
		return func(row Row) bool {
			return !row.IsNull(col) && row.GetString(col) == pattern
		}, nil
	case types.KindInteger:
		v, err := parseInt(ctx, spec, kind, 32)
		if err != nil {
			return nil, err
		}
		want := int32(v)
		return func(row Row) bool {
			return !row.IsNull(col) && row.GetInt32(col) == want
		}, nil
	case types.KindLongInteger:
		want, err := parseInt(ctx, spec, kind, 64)
		if err != nil {
			return nil, err
		}
		return func(row Row) bool {
			return !row.IsNull(col) && row.GetInt64(col) == want
		}, nil
	}
	panic(moerr.NewInternalErrorNoCtx("equals on %s column %s", kind, spec.Column))
}

func parseInt(ctx context.Context, spec MatchSpec, kind types.Kind, bitSize int) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(spec.Pattern), 10, bitSize)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, moerr.NewPatternOutOfRange(ctx, spec.Pattern, kind.String(), spec.Column)
		}
		return 0, moerr.NewPatternNotParseable(ctx, spec.Pattern, kind.String(), spec.Column)
	}
	return v, nil
}

// Eval reports whether row matches.
func (p *Predicate) Eval(row Row) bool {
	return p.test(row)
}

// Columns lists the schema positions the predicate reads.
func (p *Predicate) Columns() []int {
	if p.col < 0 {
		return nil
	}
	return []int{p.col}
}

func (p *Predicate) NeedRowID() bool {
	return p.col < 0
}

func (p *Predicate) Spec() MatchSpec {
	return p.spec
}

func (p *Predicate) String() string {
	target := "row id"
	if !p.spec.UseRowID {
		target = "column " + p.spec.Column
	}
	if p.spec.Criterion == Equals {
		return fmt.Sprintf("%s %s '%s'", target, p.spec.Criterion, p.spec.Pattern)
	}
	return fmt.Sprintf("%s %s", target, p.spec.Criterion)
}
