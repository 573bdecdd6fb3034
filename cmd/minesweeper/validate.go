// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kadirpekel/minesweeper-agents/pkg/config"
)

// ValidateCmd validates a configuration file.
type ValidateCmd struct {
	File string `arg:"" name:"config" help:"Configuration file path." placeholder:"PATH"`

	// PrintConfig prints the expanded configuration
	PrintConfig bool `short:"p" name:"print-config" help:"Print the expanded configuration (with defaults applied and env vars resolved)."`
}

func (c *ValidateCmd) Run(cli *CLI) error {
	if _, err := os.Stat(c.File); err != nil {
		return fmt.Errorf("cannot read %s: %w", c.File, err)
	}

	cfg, err := config.Load(c.File)
	if err != nil {
		if cli.JSON {
			_ = printJSON(map[string]any{"valid": false, "file": c.File, "error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "❌ %s: %v\n", c.File, err)
		}
		return err
	}

	if c.PrintConfig {
		if cli.JSON {
			return printJSON(cfg)
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to render config: %w", err)
		}
		fmt.Print(string(out))
		return nil
	}

	if cli.JSON {
		return printJSON(map[string]any{"valid": true, "file": c.File})
	}
	fmt.Printf("✅ %s is valid\n", c.File)
	return nil
}
