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

// Package nulls wrap up functions for the manipulation of bitmap library roaring.
// A column stores all of its absent cells in a Nulls.
// You can think of Nulls as a bitmap.
package nulls

import (
	roaring "github.com/RoaringBitmap/roaring/roaring64"
)

type Nulls struct {
	Np *roaring.Bitmap
}

// Any returns true if any bit in the Nulls is set, otherwise it will return false.
func Any(nsp *Nulls) bool {
	if nsp == nil || nsp.Np == nil {
		return false
	}
	return !nsp.Np.IsEmpty()
}

// Contains returns true if the integer is contained in the Nulls
func Contains(nsp *Nulls, row uint64) bool {
	return nsp != nil && nsp.Np != nil && nsp.Np.Contains(row)
}

func Add(nsp *Nulls, rows ...uint64) {
	if len(rows) == 0 {
		return
	}
	if nsp.Np == nil {
		nsp.Np = roaring.New()
	}
	nsp.Np.AddMany(rows)
}

// Range adds the numbers in nsp starting at start and ending at end to m.
// `bias` represents the starting offset used for the Range Output
// Return the result
func Range(nsp *Nulls, start, end, bias uint64, m *Nulls) *Nulls {
	if !Any(nsp) {
		return m
	}
	it := nsp.Np.Iterator()
	it.AdvanceIfNeeded(start)
	for it.HasNext() {
		row := it.Next()
		if row >= end {
			break
		}
		Add(m, row-bias)
	}
	return m
}
