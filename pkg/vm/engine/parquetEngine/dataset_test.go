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

package parquetEngine

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/prashantv/gostub"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/rowsplit/pkg/common/moerr"
	"github.com/matrixorigin/rowsplit/pkg/container/batch"
	"github.com/matrixorigin/rowsplit/pkg/container/types"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine/memEngine"
)

// columns deliberately not in name order
func testSchema() *engine.Schema {
	return engine.NewSchema(
		engine.Attribute{Name: "name", Type: types.T_text.ToType()},
		engine.Attribute{Name: "id", Type: types.T_int64.ToType()},
		engine.Attribute{Name: "age", Type: types.T_int32.ToType()},
		engine.Attribute{Name: "vip", Type: types.T_bool.ToType()},
		engine.Attribute{Name: "score", Type: types.T_float64.ToType()},
	)
}

func buildSource(t *testing.T, n int) *memEngine.Dataset {
	b := memEngine.NewBuilder(testSchema())
	for i := 0; i < n; i++ {
		var age any = int32(i)
		if i%5 == 0 {
			age = nil
		}
		var name any = string(rune('a' + i%26))
		if i%7 == 3 {
			name = nil
		}
		require.NoError(t, b.Append("", name, int64(i), age, i%2 == 0, float64(i)*1.5))
	}
	return b.Build()
}

func readAll(t *testing.T, ds engine.Dataset, cols []int, withRowID bool) []*batch.Batch {
	ctx := context.Background()
	r, err := ds.NewReader(ctx, cols, withRowID)
	require.NoError(t, err)
	defer r.Close()
	var bats []*batch.Batch
	for {
		bat, err := r.Read(ctx)
		require.NoError(t, err)
		if bat == nil {
			return bats
		}
		bats = append(bats, bat)
	}
}

func writeAndOpen(t *testing.T, src engine.Dataset, rowIDColumn string) *Dataset {
	ctx := context.Background()
	var buf bytes.Buffer
	require.NoError(t, Write(ctx, &buf, src))
	ds, err := Open(ctx, bytes.NewReader(buf.Bytes()), int64(buf.Len()), rowIDColumn)
	require.NoError(t, err)
	return ds
}

func TestSchemaRestored(t *testing.T) {
	ds := writeAndOpen(t, buildSource(t, 3), "")
	require.Equal(t, []string{"name", "id", "age", "vip", "score"}, ds.Schema().Names())
	require.Equal(t, types.T_text, ds.Schema().Attrs[0].Type.Oid)
	require.Equal(t, types.T_int32, ds.Schema().Attrs[2].Type.Oid)
	require.Equal(t, int64(3), ds.Rows())
}

func TestRoundTripValues(t *testing.T) {
	src := buildSource(t, 50)
	ds := writeAndOpen(t, src, "")
	ds.SetBatchRows(16)

	bats := readAll(t, ds, ds.Schema().AllCols(), true)
	require.Equal(t, 4, len(bats))
	row := 0
	for _, bat := range bats {
		for i := 0; i < bat.RowCount(); i++ {
			for c := range bat.Vecs {
				require.Equal(t, src.Batch().Vecs[c].GetValueAt(row), bat.Vecs[c].GetValueAt(i), "row %d col %d", row, c)
			}
			require.Equal(t, engine.DefaultRowID(int64(row)), bat.RowIDs[i])
			row++
		}
	}
	require.Equal(t, 50, row)
}

func TestPrunedRead(t *testing.T) {
	ds := writeAndOpen(t, buildSource(t, 10), "")
	bats := readAll(t, ds, []int{2}, false)
	require.Equal(t, 1, len(bats))
	require.Nil(t, bats[0].Vecs[0])
	require.Nil(t, bats[0].RowIDs)
	require.True(t, bats[0].Vecs[2].IsNull(5))
	require.Equal(t, int32(6), bats[0].Vecs[2].GetValueAt(6))
}

func TestRowIDColumn(t *testing.T) {
	ds := writeAndOpen(t, buildSource(t, 5), "name")
	bats := readAll(t, ds, []int{1}, true)
	require.Equal(t, []string{"a", "b", "c", "", "e"}, bats[0].RowIDs)
	require.Nil(t, bats[0].Vecs[0])

	ctx := context.Background()
	var buf bytes.Buffer
	require.NoError(t, Write(ctx, &buf, buildSource(t, 2)))
	_, err := Open(ctx, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "id")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))
}

func TestWindowAcrossPages(t *testing.T) {
	stubs := gostub.Stub(&DefaultPageBufferSize, 64)
	defer stubs.Reset()

	ctx := context.Background()
	src := buildSource(t, 300)
	ds := writeAndOpen(t, src, "")
	ds.SetBatchRows(32)

	w, err := ds.Window(ctx, 123, 250)
	require.NoError(t, err)
	require.Equal(t, int64(127), w.Rows())
	bats := readAll(t, w, []int{1, 2}, true)
	require.Equal(t, "Row123", bats[0].RowIDs[0])
	require.Equal(t, int64(123), bats[0].Vecs[1].GetValueAt(0))
	require.Nil(t, bats[0].Vecs[2].GetValueAt(2))

	_, err = ds.Window(ctx, 10, 301)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidRange))

	empty, err := ds.Window(ctx, 300, 300)
	require.NoError(t, err)
	require.Equal(t, int64(0), empty.Rows())
}

func TestForeignFileColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	schema := parquet.NewSchema("x", parquet.Group{
		"b": parquet.String(),
		"a": parquet.Optional(parquet.Int(32)),
	})
	w := parquet.NewWriter(&buf, schema)
	row := parquet.Row{
		parquet.Int32Value(7).Level(0, 1, 0),
		parquet.ByteArrayValue([]byte("x")).Level(0, 0, 1),
	}
	_, err := w.WriteRows([]parquet.Row{row})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	ds, err := Open(context.Background(), bytes.NewReader(buf.Bytes()), int64(buf.Len()), "")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, ds.Schema().Names())
	require.Equal(t, types.T_varchar, ds.Schema().Attrs[1].Type.Oid)
	bats := readAll(t, ds, []int{0, 1}, false)
	require.Equal(t, int32(7), bats[0].Vecs[0].GetValueAt(0))
	require.Equal(t, "x", bats[0].Vecs[1].GetValueAt(0))
}

func TestFileIO(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := buildSource(t, 20)
	for _, name := range []string{"t.parquet", "t.parquet.gz"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(ctx, path, src))
		ds, err := OpenFile(ctx, path, "")
		require.NoError(t, err)
		require.Equal(t, int64(20), ds.Rows())
		require.NoError(t, ds.Close())
	}
	_, err := OpenFile(ctx, filepath.Join(dir, "missing.parquet"), "")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrFileNotFound))
}

func TestEmptyDataset(t *testing.T) {
	ds := writeAndOpen(t, memEngine.NewBuilder(testSchema()).Build(), "")
	require.Equal(t, int64(0), ds.Rows())
	require.Nil(t, readAll(t, ds, ds.Schema().AllCols(), true))
}
