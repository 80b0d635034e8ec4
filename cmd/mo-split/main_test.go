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

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/rowsplit/pkg/container/types"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine/arrowEngine"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine/memEngine"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine/parquetEngine"
)

const splitConfig = `
[split]
column = "name"
criterion = "equals"
pattern = "b"
mode = "first"

[log]
level = "error"
`

func letters(t *testing.T, vals ...string) *memEngine.Dataset {
	schema := engine.NewSchema(
		engine.Attribute{Name: "name", Type: types.T_varchar.ToType()},
		engine.Attribute{Name: "n", Type: types.T_int64.ToType()},
	)
	b := memEngine.NewBuilder(schema)
	for i, v := range vals {
		require.NoError(t, b.Append("", v, int64(i)))
	}
	return b.Build()
}

func names(t *testing.T, path string) []string {
	ctx := context.Background()
	ds, err := openInput(ctx, path, "")
	require.NoError(t, err)
	defer engine.Release(ds)
	r, err := ds.NewReader(ctx, []int{ds.Schema().ColIdx("name")}, false)
	require.NoError(t, err)
	defer r.Close()
	out := []string{}
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

func execute(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, dir, data string) string {
	path := filepath.Join(dir, "split.toml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func TestRunSingleInput(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	input := filepath.Join(dir, "in.parquet")
	require.NoError(t, parquetEngine.WriteFile(ctx, input, letters(t, "a", "b", "c", "b", "e")))

	top := filepath.Join(dir, "top.parquet")
	bottom := filepath.Join(dir, "bottom.arrow")
	metrics := filepath.Join(dir, "metrics.prom")
	out, err := execute(t, "run", "-c", writeConfig(t, dir, splitConfig),
		"--top", top, "--bottom", bottom, "--metrics-file", metrics, input)
	require.NoError(t, err)
	require.Contains(t, out, "split at row 1")

	require.Equal(t, []string{"a", "b"}, names(t, top))
	require.Equal(t, []string{"c", "b", "e"}, names(t, bottom))

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	require.Contains(t, string(data), "mo_rowsplit_split_total")
}

func TestRunManyInputs(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	first := filepath.Join(dir, "first.parquet.gz")
	second := filepath.Join(dir, "second.arrow")
	require.NoError(t, parquetEngine.WriteFile(ctx, first, letters(t, "x", "b", "y")))
	require.NoError(t, arrowEngine.WriteFile(ctx, second, letters(t, "z", "z")))

	out, err := execute(t, "run", "-c", writeConfig(t, dir, splitConfig),
		"--top", filepath.Join(dir, "top.parquet"),
		"--bottom", filepath.Join(dir, "bottom.parquet.zst"),
		first, second)
	require.NoError(t, err)
	require.Contains(t, out, "second.arrow: warning: no row matches")

	require.Equal(t, []string{"x", "b"}, names(t, filepath.Join(dir, "top_first.parquet")))
	require.Equal(t, []string{"y"}, names(t, filepath.Join(dir, "bottom_first.parquet.zst")))
	require.Equal(t, []string{"z", "z"}, names(t, filepath.Join(dir, "top_second.parquet")))
	require.Equal(t, []string{}, names(t, filepath.Join(dir, "bottom_second.parquet.zst")))
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	input := filepath.Join(dir, "in.parquet")
	require.NoError(t, parquetEngine.WriteFile(ctx, input, letters(t, "a")))

	_, err := execute(t, "run", "-c", filepath.Join(dir, "missing.toml"),
		"--top", filepath.Join(dir, "t.parquet"), "--bottom", filepath.Join(dir, "b.parquet"), input)
	require.Error(t, err)

	cfg := writeConfig(t, dir, "[split]\ncolumn = \"n\"\npattern = \"x\"\n")
	out, err := execute(t, "run", "-c", cfg,
		"--top", filepath.Join(dir, "t.parquet"), "--bottom", filepath.Join(dir, "b.parquet"), input)
	require.Error(t, err)
	require.Contains(t, out, input)

	cfg = writeConfig(t, dir, splitConfig)
	_, err = execute(t, "run", "-c", cfg,
		"--top", filepath.Join(dir, "t.csv"), "--bottom", filepath.Join(dir, "b.parquet"), input)
	require.Error(t, err)
}

func TestSchema(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	input := filepath.Join(dir, "in.arrow.lz4")
	require.NoError(t, arrowEngine.WriteFile(ctx, input, letters(t, "a", "b")))

	out, err := execute(t, "schema", input)
	require.NoError(t, err)
	require.Contains(t, out, "2 rows")
	require.Contains(t, out, "VARCHAR")
	require.Contains(t, out, "BIGINT")

	out, err = execute(t, "schema", "--domains", input)
	require.NoError(t, err)
	require.Contains(t, out, "DISTINCT")
}

func TestOutputPath(t *testing.T) {
	require.Equal(t, "top.parquet", outputPath("top.parquet", "in/a.arrow", false))
	require.Equal(t, "top_a.parquet", outputPath("top.parquet", "in/a.arrow", true))
	require.Equal(t, "out/top_a.parquet.gz", outputPath("out/top.parquet.gz", "a.parquet.lz4", true))
}

func TestLogSink(t *testing.T) {
	s := newLogSink("in")
	calls := 0
	label := func() string {
		calls++
		return "step"
	}
	for i := 0; i <= 100; i++ {
		s.SetProgress(float64(i)/100, label)
	}
	require.Equal(t, 11, calls)
}
