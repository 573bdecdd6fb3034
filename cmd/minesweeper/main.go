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

// Command minesweeper is the CLI for the Minesweeper agents.
//
// Usage:
//
//	minesweeper ask "Pokaż top 5 wyników easy"
//	minesweeper health
//	minesweeper serve --config config.yaml
//	minesweeper provider --http :8090
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	minesweeper "github.com/kadirpekel/minesweeper-agents"
	"github.com/kadirpekel/minesweeper-agents/pkg/config"
)

// CLI defines the command-line interface.
type CLI struct {
	Ask       AskCmd       `cmd:"" help:"Route a free-text request through the orchestrator."`
	Health    HealthCmd    `cmd:"" help:"Probe every agent."`
	Tools     ToolsCmd     `cmd:"" help:"List the provider's tools."`
	Resources ResourcesCmd `cmd:"" help:"List the provider's resources."`
	Info      InfoCmd      `cmd:"" help:"Show provider information."`
	Report    ReportCmd    `cmd:"" help:"Generate a statistics report."`
	Progress  ProgressCmd  `cmd:"" help:"Show a player's progress."`
	Compare   CompareCmd   `cmd:"" help:"Compare two players."`
	Docs      DocsCmd      `cmd:"" help:"Print the scoring API documentation."`
	Serve     ServeCmd     `cmd:"" help:"Serve the orchestrator over HTTP."`
	Provider  ProviderCmd  `cmd:"" help:"Run the MCP capability provider."`
	Validate  ValidateCmd  `cmd:"" help:"Validate a configuration file."`
	Version   VersionCmd   `cmd:"" help:"Show version information."`

	Config    string `short:"c" help:"Path to config file." type:"path" env:"MINESWEEPER_CONFIG"`
	JSON      bool   `help:"Print results as JSON."`
	LogLevel  string `help:"Log level (debug, info, warn, error)."`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple, verbose, json)."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(cli *CLI) error {
	info := minesweeper.GetVersion()
	if cli.JSON {
		return printJSON(info)
	}
	fmt.Println(info.String())
	return nil
}

func main() {
	_ = config.LoadEnvFiles()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("minesweeper"),
		kong.Description("Minesweeper agents over the Model Context Protocol"),
		kong.UsageOnError(),
	)

	cleanup, err := initLogger(&cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
