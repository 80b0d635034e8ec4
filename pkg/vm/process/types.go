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
)

// ProgressSink receives the progress of a running split. label is only
// evaluated if the sink displays it.
type ProgressSink interface {
	SetProgress(fraction float64, label func() string)
}

// Process carries what a running job needs from its environment: the
// cancellation signal, the progress sink and a logger tagged with the job.
type Process struct {
	Ctx    context.Context
	Cancel context.CancelFunc

	JobID string

	sink   ProgressSink
	logger *zap.Logger
}
