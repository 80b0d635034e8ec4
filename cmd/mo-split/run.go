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
	"fmt"
	"io"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matrixorigin/rowsplit/pkg/common/moerr"
	"github.com/matrixorigin/rowsplit/pkg/config"
	"github.com/matrixorigin/rowsplit/pkg/logutil"
	"github.com/matrixorigin/rowsplit/pkg/rowsplit"
	"github.com/matrixorigin/rowsplit/pkg/rowsplit/predicate"
	v2 "github.com/matrixorigin/rowsplit/pkg/util/metric/v2"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine"
	"github.com/matrixorigin/rowsplit/pkg/vm/process"
)

type runArg struct {
	configPath  string
	top         string
	bottom      string
	metricsFile string

	cfg    *config.Config
	inputs []string
	out    io.Writer
}

func (arg *runArg) PrepareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run INPUT...",
		Short: "Split every input and write its top and bottom parts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := arg.FromCommand(cmd, args); err != nil {
				return err
			}
			return arg.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&arg.configPath, "config", "c", "split.toml", "split job file")
	cmd.Flags().StringVar(&arg.top, "top", "", "top output, .parquet or .arrow, optionally compressed")
	cmd.Flags().StringVar(&arg.bottom, "bottom", "", "bottom output, .parquet or .arrow, optionally compressed")
	cmd.Flags().StringVar(&arg.metricsFile, "metrics-file", "", "dump the split metrics to this file when done")
	_ = cmd.MarkFlagRequired("top")
	_ = cmd.MarkFlagRequired("bottom")
	return cmd
}

func (arg *runArg) FromCommand(cmd *cobra.Command, args []string) (err error) {
	arg.inputs = args
	arg.out = cmd.OutOrStdout()
	if arg.cfg, err = config.LoadFile(cmd.Context(), arg.configPath); err != nil {
		return err
	}
	logutil.SetupMOLogger(&arg.cfg.Log)
	return nil
}

func (arg *runArg) String() string {
	return fmt.Sprintf("split %d input(s) with %s", len(arg.inputs), arg.configPath)
}

// job splits one input into its two outputs.
type job struct {
	input       string
	top         string
	bottom      string
	rowIDColumn string
	spec        predicate.MatchSpec
	policy      rowsplit.SplitPolicy
}

type jobResult struct {
	splitPoint int64
	topRows    int64
	bottomRows int64
	warnings   []*moerr.Error
	err        error
}

func (j *job) run(ctx context.Context) (res jobResult) {
	ds, err := openInput(ctx, j.input, j.rowIDColumn)
	if err != nil {
		res.err = err
		return
	}
	defer func() {
		if err := engine.Release(ds); err != nil {
			logutil.Warn("release input failed", zap.String("input", j.input), zap.Error(err))
		}
	}()

	proc := process.New(ctx, newLogSink(j.input)).WithJob(j.input)
	defer proc.Cancel()
	r, err := rowsplit.Execute(proc, ds, j.spec, j.policy)
	if err != nil {
		res.err = err
		return
	}
	defer func() {
		if err := r.Release(); err != nil {
			logutil.Warn("release partitions failed", zap.String("input", j.input), zap.Error(err))
		}
	}()

	res.splitPoint = r.SplitPoint
	res.warnings = r.Warnings
	res.topRows, res.bottomRows = r.Top.Rows(), r.Bottom.Rows()
	if res.err = writeOutput(ctx, j.top, r.Top.Data); res.err != nil {
		return
	}
	res.err = writeOutput(ctx, j.bottom, r.Bottom.Data)
	return
}

func (arg *runArg) Run(ctx context.Context) error {
	spec, err := arg.cfg.Split.MatchSpec(ctx)
	if err != nil {
		return err
	}
	policy, err := arg.cfg.Split.Policy(ctx)
	if err != nil {
		return err
	}

	pool, err := ants.NewPool(arg.cfg.PoolSize)
	if err != nil {
		return moerr.ConvertGoError(ctx, err)
	}
	defer pool.Release()

	many := len(arg.inputs) > 1
	jobs := make([]*job, len(arg.inputs))
	results := make([]jobResult, len(arg.inputs))
	var wg sync.WaitGroup
	for i, input := range arg.inputs {
		jobs[i] = &job{
			input:       input,
			top:         outputPath(arg.top, input, many),
			bottom:      outputPath(arg.bottom, input, many),
			rowIDColumn: arg.cfg.Split.RowIDColumn,
			spec:        spec,
			policy:      policy,
		}
		wg.Add(1)
		if err = pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i].err = moerr.ConvertPanicError(ctx, r)
				}
			}()
			results[i] = jobs[i].run(ctx)
		}); err != nil {
			wg.Done()
			results[i].err = moerr.ConvertGoError(ctx, err)
		}
	}
	wg.Wait()

	var firstErr error
	for i, res := range results {
		j := jobs[i]
		for _, w := range res.warnings {
			fmt.Fprintf(arg.out, "%s: warning: %s\n", j.input, w.Error())
		}
		if res.err != nil {
			fmt.Fprintf(arg.out, "%s: %v\n", j.input, res.err)
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		fmt.Fprintf(arg.out, "%s: split at row %d, %d rows to %s, %d rows to %s\n",
			j.input, res.splitPoint, res.topRows, j.top, res.bottomRows, j.bottom)
	}

	if arg.metricsFile != "" {
		if err = prometheus.WriteToTextfile(arg.metricsFile, v2.GetPrometheusGatherer()); err != nil {
			logutil.Error("write metrics failed", zap.String("file", arg.metricsFile), zap.Error(err))
		}
	}
	return firstErr
}
