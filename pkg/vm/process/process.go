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

package process

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/matrixorigin/rowsplit/pkg/logutil"
)

// New creates a process whose lifetime is bounded by ctx. sink may be nil.
func New(ctx context.Context, sink ProgressSink) *Process {
	ctx, cancel := context.WithCancel(ctx)
	return &Process{
		Ctx:    ctx,
		Cancel: cancel,
		sink:   sink,
		logger: logutil.GetGlobalLogger(),
	}
}

// WithJob tags every message logged through proc with the job id.
func (proc *Process) WithJob(id string) *Process {
	proc.JobID = id
	proc.logger = logutil.GetGlobalLogger().With(zap.String("job", id))
	return proc
}

// Interrupted reports whether the job was cancelled.
func (proc *Process) Interrupted() bool {
	return proc.Ctx.Err() != nil
}

func (proc *Process) SetProgress(fraction float64, label func() string) {
	if proc.sink != nil {
		proc.sink.SetProgress(fraction, label)
	}
}

// log do logging.
// just for Info/Error/Warn/Debug
func (proc *Process) log(level zapcore.Level, msg string, fields ...zap.Field) {
	if ce := proc.logger.WithOptions(zap.AddCallerSkip(2)).Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

func (proc *Process) Info(msg string, fields ...zap.Field) {
	proc.log(zap.InfoLevel, msg, fields...)
}

func (proc *Process) Error(msg string, fields ...zap.Field) {
	proc.log(zap.ErrorLevel, msg, fields...)
}

func (proc *Process) Warn(msg string, fields ...zap.Field) {
	proc.log(zap.WarnLevel, msg, fields...)
}

func (proc *Process) Debug(msg string, fields ...zap.Field) {
	proc.log(zap.DebugLevel, msg, fields...)
}
