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

package rowsplit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/matrixorigin/rowsplit/pkg/common/moerr"
	"github.com/matrixorigin/rowsplit/pkg/logutil"
	"github.com/matrixorigin/rowsplit/pkg/rowsplit/domain"
	"github.com/matrixorigin/rowsplit/pkg/rowsplit/locator"
	"github.com/matrixorigin/rowsplit/pkg/rowsplit/partitioner"
	"github.com/matrixorigin/rowsplit/pkg/rowsplit/predicate"
	v2 "github.com/matrixorigin/rowsplit/pkg/util/metric/v2"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine"
	"github.com/matrixorigin/rowsplit/pkg/vm/process"
)

// SplitPolicy controls where the split happens and what each side keeps.
type SplitPolicy struct {
	Mode                 locator.Mode
	IncludeMatchInTop    bool
	IncludeMatchInBottom bool
	RecomputeDomains     bool
}

// Result of a split. The caller owns both partitions.
type Result struct {
	Top        partitioner.Partition
	Bottom     partitioner.Partition
	SplitPoint int64
	Warnings   []*moerr.Error
}

// Release frees the data of both partitions.
func (r *Result) Release() error {
	return partitioner.Release(r.Top, r.Bottom)
}

// ValidateConfiguration checks spec and policy against schema without
// touching any data.
func ValidateConfiguration(ctx context.Context, schema *engine.Schema, spec predicate.MatchSpec, policy SplitPolicy) ([]*moerr.Error, error) {
	_, warnings, err := compile(ctx, schema, spec, policy)
	return warnings, err
}

func compile(ctx context.Context, schema *engine.Schema, spec predicate.MatchSpec, policy SplitPolicy) (*predicate.Predicate, []*moerr.Error, error) {
	switch policy.Mode {
	case locator.FirstMatch, locator.LastMatch:
	default:
		return nil, nil, moerr.NewBadConfig(ctx, "unknown split mode %d", int(policy.Mode))
	}
	return predicate.Compile(ctx, schema, spec)
}

// ComputeOutputSchemas returns the schemas of the two outputs, both are
// the input schema.
func ComputeOutputSchemas(schema *engine.Schema) (top, bottom *engine.Schema) {
	return schema, schema
}

// Execute locates the split point of ds and cuts it in two. On error,
// including cancellation, no partition is returned.
func Execute(proc *process.Process, ds engine.Dataset, spec predicate.MatchSpec, policy SplitPolicy) (res *Result, err error) {
	start := time.Now()
	defer func() {
		v2.RowsplitTotalDurationHistogram.Observe(time.Since(start).Seconds())
		if err == nil {
			return
		}
		if moerr.IsMoErrCode(err, moerr.ErrQueryInterrupted) {
			v2.RowsplitCancelledCounter.Inc()
			proc.Info("split cancelled", logutil.Elapsed(start))
			return
		}
		v2.RowsplitFailedCounter.Inc()
		proc.Error("split failed", zap.Error(err))
	}()

	pred, warnings, err := compile(proc.Ctx, ds.Schema(), spec, policy)
	if err != nil {
		return nil, err
	}
	size := ds.Rows()
	proc.Debug("split started",
		zap.Int64("rows", size),
		zap.Stringer("predicate", pred),
		zap.Stringer("mode", policy.Mode),
	)

	sp, err := locator.Locate(proc, ds, pred, policy.Mode)
	if err != nil {
		return nil, err
	}
	if sp == size {
		warnings = append(warnings, moerr.NewNoMatchFound(proc.Ctx, size))
	}

	partStart := time.Now()
	top, bottom, err := partitioner.Split(proc.Ctx, ds, sp, partitioner.Inclusion{
		Top:    policy.IncludeMatchInTop,
		Bottom: policy.IncludeMatchInBottom,
	})
	if err != nil {
		return nil, err
	}
	v2.RowsplitPartitionDurationHistogram.Observe(time.Since(partStart).Seconds())

	if policy.RecomputeDomains {
		if err = refreshDomains(proc, &top, &bottom); err != nil {
			if rerr := partitioner.Release(top, bottom); rerr != nil {
				proc.Warn("release partitions failed", zap.Error(rerr))
			}
			return nil, err
		}
	}

	if sp == size {
		v2.RowsplitNoMatchCounter.Inc()
	} else {
		v2.RowsplitMatchedCounter.Inc()
	}
	for _, w := range warnings {
		proc.Warn(w.Error(), zap.Uint16("code", w.ErrorCode()))
	}
	proc.Info("split finished",
		zap.Int64("rows", size),
		zap.Int64("split", sp),
		zap.Stringer("mode", policy.Mode),
		zap.Int64("top", top.Rows()),
		zap.Int64("bottom", bottom.Rows()),
		logutil.Elapsed(start),
	)
	return &Result{
		Top:        top,
		Bottom:     bottom,
		SplitPoint: sp,
		Warnings:   warnings,
	}, nil
}

// refreshDomains recomputes the domains of both partitions, one after the
// other. The partitions are only rebound once both succeeded.
func refreshDomains(proc *process.Process, top, bottom *partitioner.Partition) error {
	topSchema, err := domain.Refresh(proc, top.Data)
	if err != nil {
		return err
	}
	bottomSchema, err := domain.Refresh(proc, bottom.Data)
	if err != nil {
		return err
	}
	top.Data = engine.WithSchema(top.Data, topSchema)
	bottom.Data = engine.WithSchema(bottom.Data, bottomSchema)
	return nil
}
