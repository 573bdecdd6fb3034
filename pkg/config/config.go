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

// Package config defines the configuration value type and its loader.
//
// Configuration is loaded once at startup and passed by value to the
// components that need it; nothing re-reads it while serving requests.
package config

import (
	"fmt"
	"time"

	"github.com/kadirpekel/minesweeper-agents/pkg/observability"
)

// Config is the root configuration.
//
// Example:
//
//	orchestrator:
//	  max_concurrent_agents: 5
//	  timeout_seconds: 30
//	provider:
//	  transport: stdio
//	  args: ["provider"]
//	backend:
//	  base_url: http://localhost:5022/api
type Config struct {
	Orchestrator  OrchestratorConfig   `yaml:"orchestrator,omitempty"`
	Provider      ProviderConfig       `yaml:"provider,omitempty"`
	Backend       BackendConfig        `yaml:"backend,omitempty"`
	Logger        LoggerConfig         `yaml:"logger,omitempty"`
	Observability observability.Config `yaml:"observability,omitempty"`
	Server        ServerConfig         `yaml:"server,omitempty"`
}

// Default returns a configuration with every default applied.
func Default() Config {
	var c Config
	c.SetDefaults()
	return c
}

// SetDefaults applies default values to every section.
func (c *Config) SetDefaults() {
	c.Orchestrator.SetDefaults()
	c.Provider.SetDefaults()
	c.Backend.SetDefaults()
	c.Logger.SetDefaults()
	c.Observability.SetDefaults()
	c.Server.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Orchestrator.Validate(); err != nil {
		return fmt.Errorf("orchestrator: %w", err)
	}
	if err := c.Provider.Validate(); err != nil {
		return fmt.Errorf("provider: %w", err)
	}
	if err := c.Backend.Validate(); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	return nil
}

const (
	DefaultMaxConcurrentAgents = 5
	DefaultTimeoutSeconds      = 30
)

// OrchestratorConfig bounds agent fan-out and protocol session deadlines.
type OrchestratorConfig struct {
	// MaxConcurrentAgents caps concurrently running agent calls in health
	// checks and other fan-outs. Composite requests ignore values below
	// their slot count and always query both agents at once.
	// Default: 5
	MaxConcurrentAgents int `yaml:"max_concurrent_agents,omitempty"`

	// TimeoutSeconds bounds each session handshake and each invocation.
	// Default: 30
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
}

func (c *OrchestratorConfig) SetDefaults() {
	if c.MaxConcurrentAgents == 0 {
		c.MaxConcurrentAgents = DefaultMaxConcurrentAgents
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
}

func (c *OrchestratorConfig) Validate() error {
	if c.MaxConcurrentAgents < 1 {
		return fmt.Errorf("max_concurrent_agents must be at least 1, got %d", c.MaxConcurrentAgents)
	}
	if c.TimeoutSeconds < 1 {
		return fmt.Errorf("timeout_seconds must be at least 1, got %d", c.TimeoutSeconds)
	}
	return nil
}

// Timeout returns TimeoutSeconds as a duration.
func (c OrchestratorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// ProviderConfig describes how sessions reach the capability provider.
type ProviderConfig struct {
	// Transport is "stdio" or "streamable-http".
	// Default: stdio
	Transport string `yaml:"transport,omitempty"`

	// Command is the provider executable for stdio.
	// Default: empty, resolved by the CLI to its own executable.
	Command string `yaml:"command,omitempty"`

	// Args are passed to Command.
	// Default: ["provider"]
	Args []string `yaml:"args,omitempty"`

	// Env is added to the provider's environment.
	Env map[string]string `yaml:"env,omitempty"`

	// URL is the streamable HTTP endpoint.
	URL string `yaml:"url,omitempty"`
}

func (c *ProviderConfig) SetDefaults() {
	if c.Transport == "" {
		c.Transport = TransportStdio
	}
	if c.Transport == TransportStdio && len(c.Args) == 0 && c.Command == "" {
		c.Args = []string{"provider"}
	}
}

func (c *ProviderConfig) Validate() error {
	switch c.Transport {
	case TransportStdio:
	case TransportStreamableHTTP:
		if c.URL == "" {
			return fmt.Errorf("url is required for the %s transport", c.Transport)
		}
	default:
		return fmt.Errorf("invalid transport %q (valid: %s, %s)", c.Transport, TransportStdio, TransportStreamableHTTP)
	}
	return nil
}

const (
	DefaultBackendURL     = "http://localhost:5022/api"
	DefaultBackendTimeout = 10 * time.Second
)

// BackendConfig configures the scoring API used by the provider.
type BackendConfig struct {
	// BaseURL of the scoring API, including the /api prefix.
	// Default: http://localhost:5022/api
	BaseURL string `yaml:"base_url,omitempty"`

	// Timeout for each backend request.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

func (c *BackendConfig) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBackendURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultBackendTimeout
	}
}

func (c *BackendConfig) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

// ServerConfig configures the HTTP front door.
type ServerConfig struct {
	// Address to listen on.
	// Default: ":8080"
	Address string `yaml:"address,omitempty"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
}
