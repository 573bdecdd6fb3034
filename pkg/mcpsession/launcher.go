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
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kadirpekel/minesweeper-agents/pkg/config"
)

// Launcher produces a fresh transport for one session.
// The transport must not be started; the session starts it.
type Launcher interface {
	Launch(ctx context.Context) (transport.Interface, error)

	// Describe returns a short human-readable description for logs.
	Describe() string
}

// StdioLauncher spawns the provider as a subprocess speaking MCP over
// stdin/stdout. The subprocess lives exactly as long as the session.
type StdioLauncher struct {
	Command string
	Args    []string
	Env     map[string]string
}

func (l *StdioLauncher) Launch(_ context.Context) (transport.Interface, error) {
	if l.Command == "" {
		return nil, fmt.Errorf("stdio launcher: command is required")
	}
	return transport.NewStdio(l.Command, convertEnv(l.Env), l.Args...), nil
}

func (l *StdioLauncher) Describe() string {
	return strings.TrimSpace("stdio:" + l.Command + " " + strings.Join(l.Args, " "))
}

// HTTPLauncher connects to a provider over streamable HTTP.
type HTTPLauncher struct {
	URL string
}

func (l *HTTPLauncher) Launch(_ context.Context) (transport.Interface, error) {
	if l.URL == "" {
		return nil, fmt.Errorf("http launcher: url is required")
	}
	tr, err := transport.NewStreamableHTTP(l.URL)
	if err != nil {
		return nil, fmt.Errorf("http launcher: %w", err)
	}
	return tr, nil
}

func (l *HTTPLauncher) Describe() string {
	return "streamable-http:" + l.URL
}

// InProcessLauncher talks to an MCP server running in the same process.
type InProcessLauncher struct {
	Server *server.MCPServer
}

func (l *InProcessLauncher) Launch(_ context.Context) (transport.Interface, error) {
	if l.Server == nil {
		return nil, fmt.Errorf("inprocess launcher: server is required")
	}
	return transport.NewInProcessTransport(l.Server), nil
}

func (l *InProcessLauncher) Describe() string {
	return "inprocess"
}

// LauncherFunc adapts a function to the Launcher interface.
type LauncherFunc func(ctx context.Context) (transport.Interface, error)

func (f LauncherFunc) Launch(ctx context.Context) (transport.Interface, error) {
	return f(ctx)
}

func (f LauncherFunc) Describe() string {
	return "func"
}

// LauncherFor builds the launcher described by a provider configuration.
// The in-process transport needs a live server and is therefore only
// available through InProcessLauncher directly.
func LauncherFor(cfg config.ProviderConfig) (Launcher, error) {
	switch cfg.Transport {
	case config.TransportStdio, "":
		return &StdioLauncher{
			Command: cfg.Command,
			Args:    cfg.Args,
			Env:     cfg.Env,
		}, nil
	case config.TransportStreamableHTTP:
		return &HTTPLauncher{URL: cfg.URL}, nil
	default:
		return nil, fmt.Errorf("unsupported provider transport %q", cfg.Transport)
	}
}

// convertEnv converts a map to the KEY=VALUE form used by os/exec.
// Keys are sorted so the resulting environment is deterministic.
func convertEnv(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]string, 0, len(env))
	for _, k := range keys {
		result = append(result, k+"="+env[k])
	}
	return result
}
