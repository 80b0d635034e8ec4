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

package locator

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/prashantv/gostub"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/rowsplit/pkg/common/moerr"
	"github.com/matrixorigin/rowsplit/pkg/container/types"
	"github.com/matrixorigin/rowsplit/pkg/rowsplit/predicate"
	"github.com/matrixorigin/rowsplit/pkg/rowsplit/scanner"
	v2 "github.com/matrixorigin/rowsplit/pkg/util/metric/v2"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine/memEngine"
	"github.com/matrixorigin/rowsplit/pkg/vm/process"
	"github.com/matrixorigin/rowsplit/pkg/vm/process/mock_process"
)

func stringDataset(t *testing.T, vals ...any) *memEngine.Dataset {
	schema := engine.NewSchema(
		engine.Attribute{Name: "name", Type: types.T_varchar.ToType()},
		engine.Attribute{Name: "n", Type: types.T_int32.ToType()},
	)
	b := memEngine.NewBuilder(schema)
	for i, v := range vals {
		require.NoError(t, b.Append("", v, int32(i)))
	}
	ds := b.Build()
	ds.SetBatchRows(2)
	return ds
}

func compile(t *testing.T, ds engine.Dataset, spec predicate.MatchSpec) *predicate.Predicate {
	p, _, err := predicate.Compile(context.Background(), ds.Schema(), spec)
	require.NoError(t, err)
	return p
}

func TestLocateModes(t *testing.T) {
	proc := process.New(context.Background(), nil)
	ds := stringDataset(t, "a", "b", "c", "b", "e")
	pred := compile(t, ds, predicate.MatchSpec{Column: "name", Criterion: predicate.Equals, Pattern: "b"})

	sp, err := Locate(proc, ds, pred, FirstMatch)
	require.NoError(t, err)
	require.Equal(t, int64(1), sp)

	sp, err = Locate(proc, ds, pred, LastMatch)
	require.NoError(t, err)
	require.Equal(t, int64(3), sp)
}

func TestRowsScanned(t *testing.T) {
	ds := stringDataset(t, "a", "b", "c", "b", "e", "f", "b", "h", "i", "j")
	kases := []struct {
		name    string
		pattern string
		mode    Mode
		split   int64
		scanned float64
	}{
		{"first stops at the match", "b", FirstMatch, 1, 2},
		{"first on row zero", "a", FirstMatch, 0, 1},
		{"last reads everything", "b", LastMatch, 6, 10},
		{"last on row zero", "a", LastMatch, 0, 10},
		{"no match reads everything", "z", FirstMatch, 10, 10},
	}
	for _, k := range kases {
		t.Run(k.name, func(t *testing.T) {
			proc := process.New(context.Background(), nil)
			pred := compile(t, ds, predicate.MatchSpec{Column: "name", Criterion: predicate.Equals, Pattern: k.pattern})
			before := testutil.ToFloat64(v2.RowsplitLocateScannedRowsCounter)
			sp, err := Locate(proc, ds, pred, k.mode)
			require.NoError(t, err)
			require.Equal(t, k.split, sp)
			require.Equal(t, k.scanned, testutil.ToFloat64(v2.RowsplitLocateScannedRowsCounter)-before)
		})
	}
}

func TestSingleMatchSameInBothModes(t *testing.T) {
	proc := process.New(context.Background(), nil)
	ds := stringDataset(t, "a", "b", "c", "d", "e", "f", "g")
	for _, pattern := range []string{"a", "d", "g"} {
		pred := compile(t, ds, predicate.MatchSpec{Column: "name", Criterion: predicate.Equals, Pattern: pattern})
		first, err := Locate(proc, ds, pred, FirstMatch)
		require.NoError(t, err)
		last, err := Locate(proc, ds, pred, LastMatch)
		require.NoError(t, err)
		require.Equal(t, first, last)
	}
}

func TestNoMatchAndEmpty(t *testing.T) {
	proc := process.New(context.Background(), nil)
	ds := stringDataset(t, "a", "b", "c")
	pred := compile(t, ds, predicate.MatchSpec{Column: "name", Criterion: predicate.Equals, Pattern: "z"})
	for _, mode := range []Mode{FirstMatch, LastMatch} {
		sp, err := Locate(proc, ds, pred, mode)
		require.NoError(t, err)
		require.Equal(t, int64(3), sp)
	}

	empty := stringDataset(t)
	pred = compile(t, empty, predicate.MatchSpec{Column: "name", Criterion: predicate.Missing})
	for _, mode := range []Mode{FirstMatch, LastMatch} {
		sp, err := Locate(proc, empty, pred, mode)
		require.NoError(t, err)
		require.Equal(t, int64(0), sp)
	}
}

func TestEmptyCriterion(t *testing.T) {
	proc := process.New(context.Background(), nil)
	ds := stringDataset(t, "x", "", "y")
	pred := compile(t, ds, predicate.MatchSpec{Column: "name", Criterion: predicate.Empty})
	sp, err := Locate(proc, ds, pred, FirstMatch)
	require.NoError(t, err)
	require.Equal(t, int64(1), sp)

	ds = stringDataset(t, "x", nil, "y", "  ")
	sp, err = Locate(proc, ds, pred, LastMatch)
	require.NoError(t, err)
	require.Equal(t, int64(3), sp)
}

func TestRowIDTarget(t *testing.T) {
	proc := process.New(context.Background(), nil)
	ds := stringDataset(t, "a", "b", "c", "d")
	pred := compile(t, ds, predicate.MatchSpec{UseRowID: true, Criterion: predicate.Equals, Pattern: "Row2"})
	sp, err := Locate(proc, ds, pred, LastMatch)
	require.NoError(t, err)
	require.Equal(t, int64(2), sp)

	pred = compile(t, ds, predicate.MatchSpec{UseRowID: true, Criterion: predicate.Missing})
	sp, err = Locate(proc, ds, pred, FirstMatch)
	require.NoError(t, err)
	require.Equal(t, int64(4), sp)
}

func TestIntegerColumn(t *testing.T) {
	proc := process.New(context.Background(), nil)
	ds := stringDataset(t, "a", "b", "c", "d")
	pred := compile(t, ds, predicate.MatchSpec{Column: "n", Criterion: predicate.Equals, Pattern: "2"})
	sp, err := Locate(proc, ds, pred, FirstMatch)
	require.NoError(t, err)
	require.Equal(t, int64(2), sp)
}

func TestProgressReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var fractions []float64
	var labels []string
	sink := mock_process.NewMockProgressSink(ctrl)
	sink.EXPECT().SetProgress(gomock.Any(), gomock.Any()).Do(func(fraction float64, label func() string) {
		fractions = append(fractions, fraction)
		labels = append(labels, label())
	}).Times(6)

	proc := process.New(context.Background(), sink)
	ds := stringDataset(t, "a", "b", "c", "b", "e")
	pred := compile(t, ds, predicate.MatchSpec{Column: "name", Criterion: predicate.Equals, Pattern: "b"})
	sp, err := Locate(proc, ds, pred, LastMatch)
	require.NoError(t, err)
	require.Equal(t, int64(3), sp)

	require.Equal(t, []float64{0, 0.2, 0.4, 0.6, 0.8, 1}, fractions)
	require.Equal(t, "Searching row 0 of 5", labels[0])
	require.Equal(t, "Searching row 4 of 5", labels[4])
	require.Equal(t, "Searched 5 rows", labels[5])
}

func TestLocateCancelled(t *testing.T) {
	stubs := gostub.Stub(&scanner.MaxProgressUpdates, int64(2))
	defer stubs.Reset()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var proc *process.Process
	sink := mock_process.NewMockProgressSink(ctrl)
	sink.EXPECT().SetProgress(gomock.Any(), gomock.Any()).Do(func(fraction float64, label func() string) {
		if fraction >= 0.5 {
			proc.Cancel()
		}
	}).MinTimes(1)
	proc = process.New(context.Background(), sink)

	ds := stringDataset(t, "a", "b", "c", "b", "e", "f", "g", "h")
	pred := compile(t, ds, predicate.MatchSpec{Column: "name", Criterion: predicate.Equals, Pattern: "b"})
	_, err := Locate(proc, ds, pred, LastMatch)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrQueryInterrupted))
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{FirstMatch, LastMatch} {
		got, ok := ParseMode(m.String())
		require.True(t, ok)
		require.Equal(t, m, got)
	}
	_, ok := ParseMode("middle")
	require.False(t, ok)
}
