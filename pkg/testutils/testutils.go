// Package testutils provides an in-process fake capability provider and
// other helpers shared by package tests.
package testutils

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// StatsText is the stats resource served by the fake provider by default.
const StatsText = `📊 Statystyki gry Saper

🎮 Rozegranych gier: 12
👥 Unikalnych graczy: 3

📈 Gry według poziomu:
  🟢 Łatwy:  6 (50.0%)
  🟡 Średni: 4 (33.3%)
  🔴 Trudny: 2 (16.7%)

🏆 Najlepsze czasy:
  🟢 Łatwy:  12s
  🟡 Średni: 95s
  🔴 Trudny: 301s
`

// DocsText is the docs resource served by the fake provider by default.
const DocsText = "# Minesweeper API\n\nGET /api/scores\n"

// ErrInitializeRefused is returned by a fake provider configured to fail
// the handshake.
var ErrInitializeRefused = errors.New("initialize refused")

// FakeProvider is an in-process MCP server with call accounting. It serves
// the minesweeper tools and resources with canned responses.
type FakeProvider struct {
	Server *server.MCPServer

	stats         string
	docs          string
	withResources bool
	withTools     bool
	failInit      bool
	toolErrors    map[string]string
	delay         time.Duration

	mu       sync.Mutex
	calls    map[string]int
	lastArgs map[string]map[string]any

	launches atomic.Int32
	closes   atomic.Int32
}

// FakeOption configures a FakeProvider.
type FakeOption func(*FakeProvider)

// WithStats replaces the stats resource text.
func WithStats(text string) FakeOption {
	return func(p *FakeProvider) { p.stats = text }
}

// WithoutResources builds a provider that does not advertise resources.
func WithoutResources() FakeOption {
	return func(p *FakeProvider) { p.withResources = false }
}

// WithoutTools builds a provider that does not advertise tools.
func WithoutTools() FakeOption {
	return func(p *FakeProvider) { p.withTools = false }
}

// WithFailingInitialize makes every handshake fail at the transport.
func WithFailingInitialize() FakeOption {
	return func(p *FakeProvider) { p.failInit = true }
}

// WithToolError makes a tool return an error result with msg.
func WithToolError(tool, msg string) FakeOption {
	return func(p *FakeProvider) { p.toolErrors[tool] = msg }
}

// WithDelay makes every tool and resource handler wait d or until the
// request context ends.
func WithDelay(d time.Duration) FakeOption {
	return func(p *FakeProvider) { p.delay = d }
}

// NewFakeProvider creates a fake provider.
func NewFakeProvider(opts ...FakeOption) *FakeProvider {
	p := &FakeProvider{
		stats:         StatsText,
		docs:          DocsText,
		withResources: true,
		withTools:     true,
		toolErrors:    make(map[string]string),
		calls:         make(map[string]int),
		lastArgs:      make(map[string]map[string]any),
	}
	for _, opt := range opts {
		opt(p)
	}

	serverOpts := []server.ServerOption{server.WithRecovery()}
	if p.withTools {
		serverOpts = append(serverOpts, server.WithToolCapabilities(false))
	}
	if p.withResources {
		serverOpts = append(serverOpts, server.WithResourceCapabilities(false, false))
	}
	p.Server = server.NewMCPServer("fake-minesweeper", "test", serverOpts...)

	if p.withTools {
		p.addTools()
	}
	if p.withResources {
		p.addResources()
	}
	return p
}

func (p *FakeProvider) addTools() {
	p.Server.AddTool(mcp.NewTool("get_scores",
		mcp.WithDescription("Top scores"),
		mcp.WithString("difficulty"),
		mcp.WithNumber("limit"),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if res, err := p.enter(ctx, "get_scores", req); res != nil || err != nil {
			return res, err
		}
		difficulty := req.GetString("difficulty", "")
		if difficulty == "" {
			difficulty = "wszystkie"
		}
		return mcp.NewToolResultText(fmt.Sprintf("🏆 Top %d wyników (%s):\n\n1. Anna - 12s (easy)",
			req.GetInt("limit", 10), difficulty)), nil
	})

	p.Server.AddTool(mcp.NewTool("submit_score",
		mcp.WithDescription("Submit a score"),
		mcp.WithString("player_name", mcp.Required()),
		mcp.WithString("difficulty", mcp.Required()),
		mcp.WithNumber("time_seconds", mcp.Required()),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if res, err := p.enter(ctx, "submit_score", req); res != nil || err != nil {
			return res, err
		}
		return mcp.NewToolResultText(fmt.Sprintf("✅ Wynik zapisany!\n\n👤 Gracz: %s\n⏱️ Czas: %ds\n🎯 Poziom: %s",
			req.GetString("player_name", ""), req.GetInt("time_seconds", 0), req.GetString("difficulty", ""))), nil
	})

	p.Server.AddTool(mcp.NewTool("get_player_progress",
		mcp.WithDescription("Player progress"),
		mcp.WithString("player_name", mcp.Required()),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if res, err := p.enter(ctx, "get_player_progress", req); res != nil || err != nil {
			return res, err
		}
		return mcp.NewToolResultText(fmt.Sprintf("📈 Postęp gracza %s", req.GetString("player_name", ""))), nil
	})
}

func (p *FakeProvider) addResources() {
	p.Server.AddResource(mcp.NewResource("stats://game-stats", "Game statistics",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		if err := p.record(ctx, "stats://game-stats", nil); err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{mcp.TextResourceContents{
			URI: req.Params.URI, MIMEType: "text/plain", Text: p.stats,
		}}, nil
	})

	p.Server.AddResource(mcp.NewResource("docs://api-docs", "API documentation",
		mcp.WithMIMEType("text/markdown"),
	), func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		if err := p.record(ctx, "docs://api-docs", nil); err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{mcp.TextResourceContents{
			URI: req.Params.URI, MIMEType: "text/markdown", Text: p.docs,
		}}, nil
	})
}

// enter records a tool call and returns the configured error result, if any.
func (p *FakeProvider) enter(ctx context.Context, tool string, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := p.record(ctx, tool, req.GetArguments()); err != nil {
		return nil, err
	}
	if msg, ok := p.toolErrors[tool]; ok {
		return mcp.NewToolResultError(msg), nil
	}
	return nil, nil
}

func (p *FakeProvider) record(ctx context.Context, name string, args map[string]any) error {
	p.mu.Lock()
	p.calls[name]++
	p.lastArgs[name] = args
	p.mu.Unlock()

	if p.delay <= 0 {
		return nil
	}
	select {
	case <-time.After(p.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Launch returns a fresh tracked in-process transport. Its signature matches
// mcpsession.LauncherFunc.
func (p *FakeProvider) Launch(_ context.Context) (transport.Interface, error) {
	p.launches.Add(1)
	return &TrackingTransport{
		Interface: transport.NewInProcessTransport(p.Server),
		failInit:  p.failInit,
		onClose:   func() { p.closes.Add(1) },
	}, nil
}

// Calls returns how many times a tool or resource URI was invoked.
func (p *FakeProvider) Calls(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[name]
}

// TotalCalls returns the number of tool and resource invocations.
func (p *FakeProvider) TotalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		n += c
	}
	return n
}

// LastArgs returns the arguments of the most recent call to tool.
func (p *FakeProvider) LastArgs(tool string) map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastArgs[tool]
}

// Launches returns how many transports were handed out.
func (p *FakeProvider) Launches() int {
	return int(p.launches.Load())
}

// Closes returns how many transports were closed.
func (p *FakeProvider) Closes() int {
	return int(p.closes.Load())
}

// TrackingTransport wraps a transport and counts closes. It can also fail
// the initialize request to simulate a handshake failure.
type TrackingTransport struct {
	transport.Interface

	failInit bool
	onClose  func()
	closed   atomic.Bool
}

func (t *TrackingTransport) SendRequest(ctx context.Context, req transport.JSONRPCRequest) (*transport.JSONRPCResponse, error) {
	if t.failInit && req.Method == string(mcp.MethodInitialize) {
		return nil, ErrInitializeRefused
	}
	return t.Interface.SendRequest(ctx, req)
}

func (t *TrackingTransport) Close() error {
	if t.closed.CompareAndSwap(false, true) && t.onClose != nil {
		t.onClose()
	}
	return t.Interface.Close()
}

// TestContext returns a context that is cancelled when the test ends.
func TestContext(t interface{ Cleanup(func()) }) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}
