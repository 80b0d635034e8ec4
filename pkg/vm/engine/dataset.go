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

package engine

import (
	"context"

	"github.com/matrixorigin/rowsplit/pkg/common/moerr"
)

// CheckWindow validates a half-open row range against rows.
func CheckWindow(ctx context.Context, from, to, rows int64) error {
	if from < 0 || to < from || to > rows {
		return moerr.NewInvalidRange(ctx, from, to, rows)
	}
	return nil
}

type schemaDataset struct {
	Dataset
	schema *Schema
}

// WithSchema rebinds ds to schema, which must describe the same columns.
// Windows of the result keep the new schema.
func WithSchema(ds Dataset, schema *Schema) Dataset {
	if inner, ok := ds.(*schemaDataset); ok {
		ds = inner.Dataset
	}
	return &schemaDataset{Dataset: ds, schema: schema}
}

func (d *schemaDataset) Schema() *Schema {
	return d.schema
}

func (d *schemaDataset) Window(ctx context.Context, from, to int64) (Dataset, error) {
	w, err := d.Dataset.Window(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return WithSchema(w, d.schema), nil
}

// Close forwards to the wrapped dataset if it holds resources.
func (d *schemaDataset) Close() error {
	return Release(d.Dataset)
}

// Release frees ds if it owns resources.
func Release(ds Dataset) error {
	if c, ok := ds.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
