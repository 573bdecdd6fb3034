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

package config

import (
	"fmt"
	"slices"
)

// Log levels and formats accepted in the logger section.
var (
	LogLevels  = []string{"debug", "info", "warn", "warning", "error"}
	LogFormats = []string{"simple", "verbose", "json"}
)

// LoggerConfig is the logger section of the config file. The
// --log-level, --log-file and --log-format flags override it, and so do
// LOG_LEVEL, LOG_FILE and LOG_FORMAT.
//
//	logger:
//	  level: debug
//	  format: json
//	  file: /var/log/minesweeper.log
type LoggerConfig struct {
	Level string `yaml:"level,omitempty"`

	// File receives log output instead of stderr.
	File string `yaml:"file,omitempty"`

	// Format is "simple" for the colored line handler, "verbose" to add
	// timestamps, or "json" for one slog JSON record per line.
	Format string `yaml:"format,omitempty"`
}

func (c *LoggerConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "simple"
	}
}

func (c *LoggerConfig) Validate() error {
	if c.Level != "" && !slices.Contains(LogLevels, c.Level) {
		return fmt.Errorf("invalid log level %q (valid: debug, info, warn, error)", c.Level)
	}
	if c.Format != "" && !slices.Contains(LogFormats, c.Format) {
		return fmt.Errorf("invalid log format %q (valid: simple, verbose, json)", c.Format)
	}
	return nil
}
