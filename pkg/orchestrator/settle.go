// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package orchestrator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kadirpekel/minesweeper-agents/pkg/failure"
)

// Task is one unit of work in a settle-all batch.
type Task[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Outcome is the settled result of a task: a value or an error, never both.
type Outcome[T any] struct {
	Name  string
	Value T
	Err   error
}

// Settle runs tasks concurrently, at most limit at a time, and waits for all
// of them. Outcomes are returned in task order. A failing or panicking task
// never cancels the others.
func Settle[T any](ctx context.Context, limit int, tasks ...Task[T]) []Outcome[T] {
	outcomes := make([]Outcome[T], len(tasks))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, task := range tasks {
		g.Go(func() error {
			outcomes[i] = settleOne(ctx, task)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func settleOne[T any](ctx context.Context, task Task[T]) (out Outcome[T]) {
	out.Name = task.Name
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out.Value = zero
			out.Err = failure.New(failure.Internal, task.Name, fmt.Sprintf("panic: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		out.Err = failure.Wrapf(failure.Transport, task.Name, err, "not started")
		return out
	}

	out.Value, out.Err = task.Run(ctx)
	if out.Err != nil {
		var zero T
		out.Value = zero
	}
	return out
}
