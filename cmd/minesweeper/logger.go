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

	"github.com/kadirpekel/minesweeper-agents/pkg/config"
	"github.com/kadirpekel/minesweeper-agents/pkg/logger"
)

const (
	// LogFileEnvVar is the environment variable name for log file path
	LogFileEnvVar = "LOG_FILE"
	// LogLevelEnvVar is the environment variable name for log level
	LogLevelEnvVar = "LOG_LEVEL"
	// LogFormatEnvVar is the environment variable name for log format
	LogFormatEnvVar = "LOG_FORMAT"
)

// initLogger initializes the logger.
// Priority: CLI flags > env vars > config file > defaults
func initLogger(cli *CLI) (func(), error) {
	var fileCfg config.LoggerConfig
	if cli.Config != "" {
		if cfg, err := config.Load(cli.Config); err == nil {
			fileCfg = cfg.Logger
		}
	}
	fileCfg.SetDefaults()

	level := firstNonEmpty(cli.LogLevel, os.Getenv(LogLevelEnvVar), fileCfg.Level)
	file := firstNonEmpty(cli.LogFile, os.Getenv(LogFileEnvVar), fileCfg.File)
	format := firstNonEmpty(cli.LogFormat, os.Getenv(LogFormatEnvVar), fileCfg.Format)

	lvl, err := logger.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	output := os.Stderr
	var cleanup func()
	if file != "" {
		f, closeFn, err := logger.OpenLogFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = f
		cleanup = closeFn
	}

	logger.Init(lvl, output, format)
	return cleanup, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
