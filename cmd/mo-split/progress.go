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
	"go.uber.org/zap"

	"github.com/matrixorigin/rowsplit/pkg/logutil"
)

const progressSteps = 10

// logSink logs the progress of one job once per tenth of the rows.
type logSink struct {
	input string
	next  int
}

func newLogSink(input string) *logSink {
	return &logSink{input: input}
}

func (s *logSink) SetProgress(fraction float64, label func() string) {
	step := int(fraction * progressSteps)
	if step < s.next && fraction < 1 {
		return
	}
	s.next = step + 1
	logutil.Debug(label(), zap.String("input", s.input), zap.Float64("progress", fraction))
}
