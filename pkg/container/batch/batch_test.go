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

package batch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/rowsplit/pkg/container/types"
	"github.com/matrixorigin/rowsplit/pkg/container/vector"
)

func newTestBatch(t *testing.T) *Batch {
	bat := New([]string{"name", "age"})
	bat.Vecs[0] = vector.NewVec(types.T_varchar.ToType())
	bat.Vecs[1] = vector.NewVec(types.T_int64.ToType())
	for i, name := range []string{"a", "b", "c", "d"} {
		require.NoError(t, vector.AppendString(bat.Vecs[0], name, false))
		require.NoError(t, vector.AppendFixed(bat.Vecs[1], int64(i), i == 2))
	}
	bat.RowIDs = []string{"Row0", "Row1", "Row2", "Row3"}
	bat.SetRowCount(4)
	return bat
}

func TestWindow(t *testing.T) {
	bat := newTestBatch(t)
	w, err := bat.Window(1, 3)
	require.NoError(t, err)
	require.Equal(t, 2, w.RowCount())
	require.Equal(t, []string{"Row1", "Row2"}, w.RowIDs)
	require.Equal(t, "[b c]", w.Vecs[0].String())
	require.Equal(t, "[1 null]", w.Vecs[1].String())

	empty, err := bat.Window(4, 4)
	require.NoError(t, err)
	require.Equal(t, 0, empty.RowCount())
	require.Empty(t, empty.RowIDs)

	_, err = bat.Window(2, 1)
	require.Error(t, err)
}

func TestProject(t *testing.T) {
	bat := newTestBatch(t)
	p := bat.Project([]int{1})
	require.Nil(t, p.Vecs[0])
	require.NotNil(t, p.Vecs[1])
	require.Equal(t, 4, p.RowCount())
	require.Equal(t, "1 : [0 1 null 3]\n", p.String())
}
