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

package mcpsession

import (
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Capability is a feature group a provider advertises during the handshake.
type Capability string

const (
	CapabilityTools     Capability = "tools"
	CapabilityResources Capability = "resources"
	CapabilityPrompts   Capability = "prompts"
	CapabilityLogging   Capability = "logging"
)

// Descriptor describes one tool or resource offered by a provider.
// It is fetched on demand and never cached.
type Descriptor struct {
	Name        string         `json:"name"`
	URI         string         `json:"uri,omitempty"`
	Description string         `json:"description,omitempty"`
	MIMEType    string         `json:"mime_type,omitempty"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

// Payload is the result of a successful tool invocation.
type Payload struct {
	Text       string `json:"text"`
	Structured any    `json:"structured,omitempty"`
}

// ServerInfo is the provider identity negotiated during the handshake.
type ServerInfo struct {
	Name            string       `json:"name"`
	Version         string       `json:"version"`
	ProtocolVersion string       `json:"protocol_version"`
	Capabilities    []Capability `json:"capabilities"`
	Instructions    string       `json:"instructions,omitempty"`
}

// Has reports whether the provider advertised c.
func (i ServerInfo) Has(c Capability) bool {
	for _, have := range i.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

func serverInfoFrom(res *mcp.InitializeResult) ServerInfo {
	info := ServerInfo{
		Name:            res.ServerInfo.Name,
		Version:         res.ServerInfo.Version,
		ProtocolVersion: res.ProtocolVersion,
		Instructions:    res.Instructions,
	}
	caps := res.Capabilities
	if caps.Tools != nil {
		info.Capabilities = append(info.Capabilities, CapabilityTools)
	}
	if caps.Resources != nil {
		info.Capabilities = append(info.Capabilities, CapabilityResources)
	}
	if caps.Prompts != nil {
		info.Capabilities = append(info.Capabilities, CapabilityPrompts)
	}
	if caps.Logging != nil {
		info.Capabilities = append(info.Capabilities, CapabilityLogging)
	}
	return info
}

func toolDescriptor(t mcp.Tool) Descriptor {
	return Descriptor{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: convertSchema(t.InputSchema),
	}
}

func resourceDescriptor(r mcp.Resource) Descriptor {
	return Descriptor{
		Name:        r.Name,
		URI:         r.URI,
		Description: r.Description,
		MIMEType:    r.MIMEType,
	}
}

// convertSchema converts an MCP input schema to a plain map.
func convertSchema(schema mcp.ToolInputSchema) map[string]any {
	data, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return map[string]any{"type": "object"}
	}
	return result
}

// textOf concatenates the text parts of a tool result.
func textOf(contents []mcp.Content) string {
	var parts []string
	for _, c := range contents {
		switch tc := c.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// resourceText concatenates the text parts of a resource read.
func resourceText(contents []mcp.ResourceContents) (string, bool) {
	var (
		parts []string
		found bool
	)
	for _, c := range contents {
		switch rc := c.(type) {
		case mcp.TextResourceContents:
			parts = append(parts, rc.Text)
			found = true
		case *mcp.TextResourceContents:
			parts = append(parts, rc.Text)
			found = true
		}
	}
	return strings.Join(parts, "\n"), found
}
