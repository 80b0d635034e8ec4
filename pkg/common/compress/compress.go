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

package compress

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/matrixorigin/rowsplit/pkg/common/moerr"
)

const (
	NOCOMPRESS = "none"
	GZIP       = "gzip"
	LZ4        = "lz4"
	ZSTD       = "zstd"
)

// GetCompressType derives the compression of a file from its suffix.
func GetCompressType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return GZIP
	case ".lz4":
		return LZ4
	case ".zst", ".zstd":
		return ZSTD
	default:
		return NOCOMPRESS
	}
}

// TrimCompressExt strips the compression suffix, "a.parquet.lz4" gives
// "a.parquet".
func TrimCompressExt(path string) string {
	if GetCompressType(path) == NOCOMPRESS {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path))
}

type zstdReadCloser struct {
	*zstd.Decoder
}

func (r zstdReadCloser) Close() error {
	r.Decoder.Close()
	return nil
}

// GetUnCompressReader wraps r with the decoder matching compType.
func GetUnCompressReader(ctx context.Context, compType string, r io.Reader) (io.ReadCloser, error) {
	switch compType {
	case NOCOMPRESS:
		return io.NopCloser(r), nil
	case GZIP:
		return gzip.NewReader(r)
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case ZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{dec}, nil
	default:
		return nil, moerr.NewNotSupported(ctx, "compress type '%s'", compType)
	}
}

// GetCompressWriter wraps w with the encoder matching compType. Closing the
// result flushes the encoder but leaves w open.
func GetCompressWriter(ctx context.Context, compType string, w io.Writer) (io.WriteCloser, error) {
	switch compType {
	case NOCOMPRESS:
		return nopWriteCloser{w}, nil
	case GZIP:
		return gzip.NewWriter(w), nil
	case LZ4:
		return lz4.NewWriter(w), nil
	case ZSTD:
		return zstd.NewWriter(w)
	default:
		return nil, moerr.NewNotSupported(ctx, "compress type '%s'", compType)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}

// File is a random access view of a possibly compressed file.
type File interface {
	io.ReaderAt
	io.ReadSeeker
	io.Closer
	Size() int64
}

type osFile struct {
	*os.File
	size int64
}

func (f *osFile) Size() int64 {
	return f.size
}

type memFile struct {
	*bytes.Reader
}

func (f memFile) Close() error {
	return nil
}

// OpenFile opens path for random access. Compressed files are decoded into
// memory since their readers can not seek.
func OpenFile(ctx context.Context, path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, moerr.NewFileNotFound(ctx, path)
		}
		return nil, moerr.ConvertGoError(ctx, err)
	}
	compType := GetCompressType(path)
	if compType == NOCOMPRESS {
		st, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, moerr.ConvertGoError(ctx, err)
		}
		return &osFile{File: f, size: st.Size()}, nil
	}
	defer f.Close()
	r, err := GetUnCompressReader(ctx, compType, f)
	if err != nil {
		return nil, moerr.ConvertGoError(ctx, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, moerr.ConvertGoError(ctx, err)
	}
	return memFile{bytes.NewReader(data)}, nil
}

type fileWriter struct {
	io.WriteCloser
	f *os.File
}

func (w *fileWriter) Close() error {
	err := w.WriteCloser.Close()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// CreateFile creates path, compressing what is written according to its
// suffix.
func CreateFile(ctx context.Context, path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, moerr.ConvertGoError(ctx, err)
	}
	w, err := GetCompressWriter(ctx, GetCompressType(path), f)
	if err != nil {
		f.Close()
		return nil, moerr.ConvertGoError(ctx, err)
	}
	return &fileWriter{WriteCloser: w, f: f}, nil
}
