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

package agent

import (
	"context"

	"github.com/kadirpekel/minesweeper-agents/pkg/mcpsession"
)

const ProtocolAgentName = "protocol"

// ServerSummary is the handshake result plus what the provider offers.
type ServerSummary struct {
	mcpsession.ServerInfo
	ToolsCount     int `json:"tools_count"`
	ResourcesCount int `json:"resources_count"`
}

// ProtocolAgent exposes provider introspection.
type ProtocolAgent struct {
	base
}

func NewProtocolAgent(deps Deps) *ProtocolAgent {
	return &ProtocolAgent{base: newBase(ProtocolAgentName, deps)}
}

func (a *ProtocolAgent) ListTools(ctx context.Context) ([]mcpsession.Descriptor, error) {
	return run(ctx, &a.base, "list_tools", func(ctx context.Context, s *mcpsession.Session) ([]mcpsession.Descriptor, error) {
		return s.ListTools(ctx)
	})
}

func (a *ProtocolAgent) ListResources(ctx context.Context) ([]mcpsession.Descriptor, error) {
	return run(ctx, &a.base, "list_resources", func(ctx context.Context, s *mcpsession.Session) ([]mcpsession.Descriptor, error) {
		return s.ListResources(ctx)
	})
}

// GetServerInfo composes the handshake result with tool and resource counts.
// Counts are only requested for capabilities the provider advertises.
func (a *ProtocolAgent) GetServerInfo(ctx context.Context) (ServerSummary, error) {
	return run(ctx, &a.base, "get_server_info", func(ctx context.Context, s *mcpsession.Session) (ServerSummary, error) {
		summary := ServerSummary{ServerInfo: s.ServerInfo()}
		if summary.Has(mcpsession.CapabilityTools) {
			tools, err := s.ListTools(ctx)
			if err != nil {
				return ServerSummary{}, err
			}
			summary.ToolsCount = len(tools)
		}
		if summary.Has(mcpsession.CapabilityResources) {
			resources, err := s.ListResources(ctx)
			if err != nil {
				return ServerSummary{}, err
			}
			summary.ResourcesCount = len(resources)
		}
		return summary, nil
	})
}

// HealthCheck performs a handshake and reports the provider's name.
func (a *ProtocolAgent) HealthCheck(ctx context.Context) Health {
	info, err := run(ctx, &a.base, "health_check", func(_ context.Context, s *mcpsession.Session) (mcpsession.ServerInfo, error) {
		return s.ServerInfo(), nil
	})
	h := probe(len(info.Capabilities), err)
	if err == nil {
		h.Detail = info.Name + " " + info.Version
	}
	return h
}
