// Package minesweeper coordinates agents that serve a Minesweeper scoring
// backend through the Model Context Protocol.
//
// A free-text request is classified into an intent and routed to the game
// agent (scores), the data agent (statistics) or both. Every agent call runs
// in its own short-lived MCP session against the capability provider, which
// wraps the scoring HTTP API.
//
// # Quick Start
//
// Start the scoring API, then ask a question:
//
//	minesweeper ask "Pokaż top 5 wyników easy"
//	minesweeper ask "Dodaj wynik Jan, easy, 120s"
//
// The provider is launched on demand as a subprocess of the CLI itself
// (minesweeper provider). To serve the orchestrator over HTTP:
//
//	minesweeper serve --config config.yaml
//
// # Configuration
//
//	orchestrator:
//	  max_concurrent_agents: 5
//	  timeout_seconds: 30
//	provider:
//	  transport: stdio
//	backend:
//	  base_url: "${MINESWEEPER_API_URL:-http://localhost:5022/api}"
//	observability:
//	  metrics:
//	    enabled: true
//
// See the pkg/ subpackages for the building blocks.
package minesweeper
