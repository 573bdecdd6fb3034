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
	"time"

	"github.com/kadirpekel/minesweeper-agents/pkg/agent"
)

// HealthSnapshot is the health of every registered agent at one moment.
type HealthSnapshot struct {
	Status    agent.Status            `json:"status"`
	Agents    map[string]agent.Health `json:"agents"`
	CheckedAt time.Time               `json:"checked_at"`
}

// Healthy reports whether every agent answered its probe.
func (h HealthSnapshot) Healthy() bool {
	return h.Status == agent.StatusOK
}

// HealthCheck probes every registered agent concurrently. One failing agent
// degrades the snapshot without affecting the probes of the others.
func (o *Orchestrator) HealthCheck(ctx context.Context) HealthSnapshot {
	members := o.members.List()
	tasks := make([]Task[agent.Health], 0, len(members))
	for _, m := range members {
		tasks = append(tasks, Task[agent.Health]{
			Name: m.Name(),
			Run: func(ctx context.Context) (agent.Health, error) {
				return m.HealthCheck(ctx), nil
			},
		})
	}

	snapshot := HealthSnapshot{
		Status:    agent.StatusOK,
		Agents:    make(map[string]agent.Health, len(tasks)),
		CheckedAt: time.Now(),
	}
	for _, out := range Settle(ctx, o.cfg.MaxConcurrentAgents, tasks...) {
		h := out.Value
		if out.Err != nil {
			h = agent.Health{Status: agent.StatusError, Detail: out.Err.Error()}
		}
		snapshot.Agents[out.Name] = h
		if h.Status != agent.StatusOK {
			snapshot.Status = agent.StatusDegraded
		}
	}

	o.logger.Debug("Health check", "status", string(snapshot.Status), "agents", len(snapshot.Agents))
	return snapshot
}
