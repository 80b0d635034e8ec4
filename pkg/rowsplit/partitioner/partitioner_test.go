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

package partitioner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/rowsplit/pkg/common/moerr"
	"github.com/matrixorigin/rowsplit/pkg/container/types"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine/memEngine"
)

func letters(t *testing.T, vals ...string) *memEngine.Dataset {
	schema := engine.NewSchema(engine.Attribute{Name: "name", Type: types.T_varchar.ToType()})
	b := memEngine.NewBuilder(schema)
	for _, v := range vals {
		require.NoError(t, b.Append("", v))
	}
	return b.Build()
}

func values(t *testing.T, ds engine.Dataset) []string {
	ctx := context.Background()
	r, err := ds.NewReader(ctx, []int{0}, false)
	require.NoError(t, err)
	defer r.Close()
	var out []string
	for {
		bat, err := r.Read(ctx)
		require.NoError(t, err)
		if bat == nil {
			return out
		}
		for i := 0; i < bat.RowCount(); i++ {
			out = append(out, bat.Vecs[0].GetStringAt(i))
		}
	}
}

// windowTracker hands out closable windows and fails the failAt-th call.
type windowTracker struct {
	engine.Dataset
	calls  int
	failAt int
	open   int
}

type trackedWindow struct {
	engine.Dataset
	tracker *windowTracker
}

func (w *trackedWindow) Close() error {
	w.tracker.open--
	return nil
}

func (d *windowTracker) Window(ctx context.Context, from, to int64) (engine.Dataset, error) {
	d.calls++
	if d.calls == d.failAt {
		return nil, errors.New("window failed")
	}
	w, err := d.Dataset.Window(ctx, from, to)
	if err != nil {
		return nil, err
	}
	d.open++
	return &trackedWindow{Dataset: w, tracker: d}, nil
}

func TestScenarios(t *testing.T) {
	ctx := context.Background()
	ds := letters(t, "a", "b", "c", "b", "e")
	incl := Inclusion{Top: true, Bottom: false}

	top, bottom, err := Split(ctx, ds, 1, incl)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, values(t, top.Data))
	require.Equal(t, []string{"c", "b", "e"}, values(t, bottom.Data))
	require.Equal(t, int64(2), top.Rows())
	require.Equal(t, int64(3), bottom.Rows())

	top, bottom, err = Split(ctx, ds, 3, incl)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c", "b"}, values(t, top.Data))
	require.Equal(t, []string{"e"}, values(t, bottom.Data))
	require.Same(t, ds.Schema(), top.Data.Schema())
	require.Same(t, ds.Schema(), bottom.Data.Schema())
}

func TestRangesCoverage(t *testing.T) {
	for size := int64(0); size < 6; size++ {
		for sp := int64(0); sp <= size; sp++ {
			for _, incl := range []Inclusion{{Top: true, Bottom: false}, {Top: false, Bottom: true}} {
				top, bottom := Ranges(size, sp, incl)
				require.Equal(t, int64(0), top[0])
				require.Equal(t, top[1], bottom[0], "size %d sp %d %+v", size, sp, incl)
				require.Equal(t, size, bottom[1])
			}
		}
	}
}

func TestRangesOverlapAndGap(t *testing.T) {
	top, bottom := Ranges(5, 2, Inclusion{Top: true, Bottom: true})
	require.Equal(t, [2]int64{0, 3}, top)
	require.Equal(t, [2]int64{2, 5}, bottom)

	top, bottom = Ranges(5, 2, Inclusion{})
	require.Equal(t, [2]int64{0, 2}, top)
	require.Equal(t, [2]int64{3, 5}, bottom)

	// matching the last row
	top, bottom = Ranges(5, 4, Inclusion{Top: true})
	require.Equal(t, [2]int64{0, 5}, top)
	require.Equal(t, [2]int64{5, 5}, bottom)
}

func TestNoMatch(t *testing.T) {
	ctx := context.Background()
	ds := letters(t, "a", "b", "c")
	for _, incl := range []Inclusion{{}, {Top: true}, {Bottom: true}, {Top: true, Bottom: true}} {
		top, bottom, err := Split(ctx, ds, 3, incl)
		require.NoError(t, err)
		require.Equal(t, int64(0), top.From)
		require.Equal(t, int64(3), top.To)
		require.Equal(t, int64(3), bottom.From)
		require.Equal(t, int64(3), bottom.To)
		require.Equal(t, int64(0), bottom.Data.Rows())
	}
}

func TestEmptyDataset(t *testing.T) {
	top, bottom, err := Split(context.Background(), letters(t), 0, Inclusion{Top: true})
	require.NoError(t, err)
	require.Equal(t, int64(0), top.Data.Rows())
	require.Equal(t, int64(0), bottom.Data.Rows())
}

func TestInvalidSplitPoint(t *testing.T) {
	_, _, err := Split(context.Background(), letters(t, "a"), 2, Inclusion{})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidRange))
	_, _, err = Split(context.Background(), letters(t, "a"), -1, Inclusion{})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidRange))
}

func TestSecondWindowFailureReleasesFirst(t *testing.T) {
	ds := &windowTracker{Dataset: letters(t, "a", "b", "c"), failAt: 2}
	top, bottom, err := Split(context.Background(), ds, 1, Inclusion{Top: true})
	require.Error(t, err)
	require.Nil(t, top.Data)
	require.Nil(t, bottom.Data)
	require.Equal(t, 0, ds.open)

	ds = &windowTracker{Dataset: letters(t, "a", "b", "c"), failAt: 1}
	_, _, err = Split(context.Background(), ds, 1, Inclusion{Top: true})
	require.Error(t, err)
	require.Equal(t, 0, ds.open)
}

func TestCancelledReleasesBoth(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ds := &windowTracker{Dataset: letters(t, "a", "b", "c")}
	top, _, err := Split(ctx, ds, 1, Inclusion{Top: true})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrQueryInterrupted))
	require.Nil(t, top.Data)
	require.Equal(t, 0, ds.open)
}

func TestRelease(t *testing.T) {
	ds := &windowTracker{Dataset: letters(t, "a", "b", "c")}
	top, bottom, err := Split(context.Background(), ds, 0, Inclusion{Bottom: true})
	require.NoError(t, err)
	require.Equal(t, 2, ds.open)
	require.NoError(t, Release(top, bottom, Partition{}))
	require.Equal(t, 0, ds.open)
}
