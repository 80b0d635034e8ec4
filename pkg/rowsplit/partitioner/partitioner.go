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

	"go.uber.org/zap"

	"github.com/matrixorigin/rowsplit/pkg/common/moerr"
	"github.com/matrixorigin/rowsplit/pkg/logutil"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine"
)

// Inclusion tells, independently for each side, whether the matching row
// belongs to it. Setting both duplicates the row, setting neither drops it.
type Inclusion struct {
	Top    bool
	Bottom bool
}

// Partition is the half-open row range [From, To) of the source dataset.
type Partition struct {
	From int64
	To   int64
	Data engine.Dataset
}

func (p Partition) Rows() int64 {
	return p.To - p.From
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Ranges computes the top and bottom ranges of a dataset of size rows
// split at sp. sp == size means nothing matched.
func Ranges(size, sp int64, incl Inclusion) (top, bottom [2]int64) {
	if sp >= size {
		return [2]int64{0, size}, [2]int64{size, size}
	}
	topEnd := sp + b2i(incl.Top)
	bottomStart := sp + b2i(!incl.Bottom)
	return [2]int64{0, topEnd}, [2]int64{bottomStart, size}
}

// Split cuts ds in two at sp. Either both partitions are returned or
// none, a window already taken is released on failure.
func Split(ctx context.Context, ds engine.Dataset, sp int64, incl Inclusion) (top, bottom Partition, err error) {
	size := ds.Rows()
	if sp < 0 || sp > size {
		return top, bottom, moerr.NewInvalidRange(ctx, sp, sp, size)
	}
	tr, br := Ranges(size, sp, incl)

	topData, err := ds.Window(ctx, tr[0], tr[1])
	if err != nil {
		return top, bottom, err
	}
	bottomData, err := ds.Window(ctx, br[0], br[1])
	if err == nil {
		err = moerr.ConvertGoError(ctx, ctx.Err())
	}
	if err != nil {
		if rerr := engine.Release(topData); rerr != nil {
			logutil.Warn("release top partition failed", zap.Error(rerr))
		}
		if bottomData != nil {
			if rerr := engine.Release(bottomData); rerr != nil {
				logutil.Warn("release bottom partition failed", zap.Error(rerr))
			}
		}
		return Partition{}, Partition{}, err
	}

	top = Partition{From: tr[0], To: tr[1], Data: topData}
	bottom = Partition{From: br[0], To: br[1], Data: bottomData}
	return top, bottom, nil
}

// Release frees the data of both partitions.
func Release(parts ...Partition) error {
	var err error
	for _, p := range parts {
		if p.Data == nil {
			continue
		}
		if rerr := engine.Release(p.Data); err == nil {
			err = rerr
		}
	}
	return err
}
