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
	"context"
	"path/filepath"
	"strings"

	"github.com/matrixorigin/rowsplit/pkg/common/compress"
	"github.com/matrixorigin/rowsplit/pkg/common/moerr"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine/arrowEngine"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine/parquetEngine"
)

const (
	formatParquet = "parquet"
	formatArrow   = "arrow"
)

// fileFormat looks at the suffix left once the compression suffix is gone.
func fileFormat(ctx context.Context, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(compress.TrimCompressExt(path))) {
	case ".parquet":
		return formatParquet, nil
	case ".arrow", ".ipc", ".feather":
		return formatArrow, nil
	}
	return "", moerr.NewNotSupported(ctx, "file format of %s", path)
}

func openInput(ctx context.Context, path, rowIDColumn string) (engine.Dataset, error) {
	format, err := fileFormat(ctx, path)
	if err != nil {
		return nil, err
	}
	if format == formatArrow {
		ds, err := arrowEngine.OpenFile(ctx, path, rowIDColumn)
		if err != nil {
			return nil, err
		}
		return ds, nil
	}
	ds, err := parquetEngine.OpenFile(ctx, path, rowIDColumn)
	if err != nil {
		return nil, err
	}
	return ds, nil
}

func writeOutput(ctx context.Context, path string, ds engine.Dataset) error {
	format, err := fileFormat(ctx, path)
	if err != nil {
		return err
	}
	if format == formatArrow {
		return arrowEngine.WriteFile(ctx, path, ds)
	}
	return parquetEngine.WriteFile(ctx, path, ds)
}

// outputPath names the output of input. With several inputs the stem of
// the input is appended, "top.parquet.gz" and "in/a.arrow" give
// "top_a.parquet.gz".
func outputPath(out, input string, many bool) string {
	if !many {
		return out
	}
	stem := filepath.Base(compress.TrimCompressExt(input))
	stem = strings.TrimSuffix(stem, filepath.Ext(stem))
	plain := compress.TrimCompressExt(out)
	ext := filepath.Ext(plain)
	return strings.TrimSuffix(plain, ext) + "_" + stem + ext + out[len(plain):]
}
