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

// Package mcpsession manages single-use sessions with an MCP capability
// provider.
//
// A session goes through launch, handshake, zero or more invocations and
// close. It is never reused: every agent call opens a fresh session with
// Use and the session is closed on every exit path.
package mcpsession

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kadirpekel/minesweeper-agents/pkg/failure"
	"github.com/kadirpekel/minesweeper-agents/pkg/observability"
)

// State is the lifecycle state of a session.
type State int32

const (
	StateUnopened State = iota
	StateConnecting
	StateInitialized
	StateInvoking
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateConnecting:
		return "connecting"
	case StateInitialized:
		return "initialized"
	case StateInvoking:
		return "invoking"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

const (
	DefaultTimeout      = 30 * time.Second
	DefaultCloseTimeout = 5 * time.Second

	clientName = "minesweeper-agents"

	// maxPages bounds list pagination against a provider that never stops
	// returning cursors.
	maxPages = 100
)

// SupportedProtocolVersions lists the MCP protocol revisions accepted from a
// provider during the handshake.
var SupportedProtocolVersions = []string{
	"2024-11-05",
	"2025-03-26",
	"2025-06-18",
	mcp.LATEST_PROTOCOL_VERSION,
}

// Options configures a session.
type Options struct {
	// Timeout bounds the handshake and each invocation separately.
	Timeout time.Duration

	// CloseTimeout bounds how long Close waits for the transport to shut down
	// before abandoning it.
	CloseTimeout time.Duration

	// Require lists capabilities the provider must advertise.
	Require []Capability

	// ClientVersion is reported to the provider in the handshake.
	ClientVersion string

	Metrics *observability.Metrics
	Tracer  trace.Tracer
	Logger  *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.CloseTimeout <= 0 {
		o.CloseTimeout = DefaultCloseTimeout
	}
	if o.ClientVersion == "" {
		o.ClientVersion = "dev"
	}
	if o.Tracer == nil {
		o.Tracer = observability.GetTracer("mcpsession")
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Session is one exclusive conversation with a provider.
type Session struct {
	id       string
	provider string
	opts     Options
	logger   *slog.Logger

	state  atomic.Int32
	client *client.Client
	info   ServerInfo
	cancel context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

// Open launches a transport, starts it and performs the handshake.
// On any failure the transport is released and no session is returned.
func Open(ctx context.Context, launcher Launcher, opts Options) (*Session, error) {
	opts = opts.withDefaults()

	s := &Session{
		id:       uuid.NewString(),
		provider: launcher.Describe(),
		opts:     opts,
	}
	s.logger = opts.Logger.With("session", s.id, "provider", s.provider)
	s.state.Store(int32(StateConnecting))

	// The lifetime context outlives the per-operation deadlines; stdio
	// subprocesses are bound to it.
	lifetime, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	ctx, span := opts.Tracer.Start(ctx, "mcpsession.open",
		trace.WithAttributes(
			attribute.String("session.id", s.id),
			attribute.String("provider", s.provider),
		),
	)
	defer span.End()

	start := time.Now()
	err := s.connect(ctx, lifetime, launcher)
	opts.Metrics.ObserveSessionOperation("open", time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		opts.Metrics.RecordSession("failed")
		opts.Metrics.RecordSessionFailure("open", string(failure.KindOf(err)))
		s.logger.Debug("Session open failed", "error", err)
		_ = s.Close()
		return nil, err
	}

	opts.Metrics.RecordSession("opened")
	span.SetAttributes(attribute.String("server.name", s.info.Name))
	s.logger.Debug("Session opened",
		"server", s.info.Name,
		"protocol_version", s.info.ProtocolVersion,
	)
	return s, nil
}

func (s *Session) connect(ctx, lifetime context.Context, launcher Launcher) error {
	tr, err := launcher.Launch(lifetime)
	if err != nil {
		return failure.Wrap(failure.Transport, "launch", err)
	}

	c := client.NewClient(tr)
	s.client = c

	if err := c.Start(lifetime); err != nil {
		return failure.Wrapf(failure.Transport, "start", err, "failed to start transport %s", s.provider)
	}
	if stderr, ok := client.GetStderr(c); ok {
		go s.drainStderr(stderr)
	}

	opCtx, cancel := context.WithTimeout(trace.ContextWithSpan(lifetime, trace.SpanFromContext(ctx)), s.opts.Timeout)
	defer cancel()

	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{
		Name:    clientName,
		Version: s.opts.ClientVersion,
	}

	res, err := c.Initialize(opCtx, req)
	if err != nil {
		return s.classify(opCtx, "initialize", failure.Handshake, err)
	}
	if res == nil {
		return failure.New(failure.Handshake, "initialize", "empty initialize result")
	}

	info := serverInfoFrom(res)
	if !supportedVersion(info.ProtocolVersion) {
		return failure.New(failure.Handshake, "initialize",
			fmt.Sprintf("unsupported protocol version %q", info.ProtocolVersion))
	}
	for _, want := range s.opts.Require {
		if !info.Has(want) {
			return failure.New(failure.Handshake, "initialize",
				fmt.Sprintf("provider %q does not advertise the %s capability", info.Name, want))
		}
	}

	s.info = info
	s.state.Store(int32(StateInitialized))
	return nil
}

func supportedVersion(v string) bool {
	if v == "" {
		return false
	}
	for _, s := range SupportedProtocolVersions {
		if s == v {
			return true
		}
	}
	return false
}

// ID returns the session identifier used in logs and traces.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// ServerInfo returns the provider identity negotiated in the handshake.
func (s *Session) ServerInfo() ServerInfo {
	return s.info
}

// CallTool invokes a tool and returns its text and structured content.
// A result flagged as an error by the provider is an Invocation failure.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (Payload, error) {
	var payload Payload
	err := s.invoke(ctx, "call_tool", attribute.String("tool", name), func(opCtx context.Context) error {
		req := mcp.CallToolRequest{}
		req.Params.Name = name
		req.Params.Arguments = args

		res, err := s.client.CallTool(opCtx, req)
		if err != nil {
			return s.classify(opCtx, "call_tool", failure.Invocation, err)
		}
		text := textOf(res.Content)
		if res.IsError {
			if text == "" {
				text = "tool reported an error"
			}
			return failure.New(failure.Invocation, "call_tool", fmt.Sprintf("%s: %s", name, text))
		}
		payload = Payload{Text: text, Structured: res.StructuredContent}
		return nil
	})
	return payload, err
}

// ReadResource reads a text resource.
func (s *Session) ReadResource(ctx context.Context, uri string) (string, error) {
	var text string
	err := s.invoke(ctx, "read_resource", attribute.String("uri", uri), func(opCtx context.Context) error {
		req := mcp.ReadResourceRequest{}
		req.Params.URI = uri

		res, err := s.client.ReadResource(opCtx, req)
		if err != nil {
			return s.classify(opCtx, "read_resource", failure.Invocation, err)
		}
		t, ok := resourceText(res.Contents)
		if !ok {
			return failure.New(failure.Invocation, "read_resource",
				fmt.Sprintf("resource %s has no text content", uri))
		}
		text = t
		return nil
	})
	return text, err
}

// ListTools lists every tool the provider offers, following pagination.
func (s *Session) ListTools(ctx context.Context) ([]Descriptor, error) {
	var out []Descriptor
	err := s.invoke(ctx, "list_tools", attribute.String("list", "tools"), func(opCtx context.Context) error {
		req := mcp.ListToolsRequest{}
		for page := 0; page < maxPages; page++ {
			res, err := s.client.ListTools(opCtx, req)
			if err != nil {
				return s.classify(opCtx, "list_tools", failure.Invocation, err)
			}
			for _, t := range res.Tools {
				out = append(out, toolDescriptor(t))
			}
			if res.NextCursor == "" {
				return nil
			}
			req.Params.Cursor = res.NextCursor
		}
		return nil
	})
	return out, err
}

// ListResources lists every resource the provider offers, following pagination.
func (s *Session) ListResources(ctx context.Context) ([]Descriptor, error) {
	var out []Descriptor
	err := s.invoke(ctx, "list_resources", attribute.String("list", "resources"), func(opCtx context.Context) error {
		req := mcp.ListResourcesRequest{}
		for page := 0; page < maxPages; page++ {
			res, err := s.client.ListResources(opCtx, req)
			if err != nil {
				return s.classify(opCtx, "list_resources", failure.Invocation, err)
			}
			for _, r := range res.Resources {
				out = append(out, resourceDescriptor(r))
			}
			if res.NextCursor == "" {
				return nil
			}
			req.Params.Cursor = res.NextCursor
		}
		return nil
	})
	return out, err
}

// invoke runs one exclusive operation under the session deadline.
func (s *Session) invoke(ctx context.Context, op string, attr attribute.KeyValue, fn func(context.Context) error) error {
	if !s.state.CompareAndSwap(int32(StateInitialized), int32(StateInvoking)) {
		switch s.State() {
		case StateClosed:
			return failure.New(failure.Transport, op, "session is closed")
		case StateInvoking:
			return failure.New(failure.Invocation, op, "another invocation is in flight")
		default:
			return failure.New(failure.Handshake, op, fmt.Sprintf("session is %s", s.State()))
		}
	}
	defer s.state.CompareAndSwap(int32(StateInvoking), int32(StateInitialized))

	ctx, span := s.opts.Tracer.Start(ctx, "mcpsession."+op,
		trace.WithAttributes(attribute.String("session.id", s.id), attr),
	)
	defer span.End()

	opCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	start := time.Now()
	err := fn(opCtx)
	s.opts.Metrics.ObserveSessionOperation(op, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.opts.Metrics.RecordSessionFailure(op, string(failure.KindOf(err)))
		s.logger.Debug("Session operation failed", "operation", op, "error", err)
	}
	return err
}

// Close releases the transport. It is idempotent and always leaves the
// session in StateClosed, even when the underlying close fails or hangs.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		s.closeErr = s.release()
	})
	return s.closeErr
}

func (s *Session) release() error {
	defer func() {
		if s.cancel != nil {
			s.cancel()
		}
	}()
	if s.client == nil {
		return nil
	}
	err := closeWithin(s.client.Close, s.opts.CloseTimeout)
	if err != nil {
		s.logger.Warn("Session close failed", "error", err)
	}
	return err
}

func closeWithin(closeFn func() error, grace time.Duration) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic during close: %v", r)
			}
		}()
		done <- closeFn()
	}()

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("close did not finish within %s", grace)
	}
}

// Use opens a session, runs fn with it and closes it on every exit path,
// including a panic in fn, which is reported as an Internal failure.
func Use[T any](ctx context.Context, launcher Launcher, opts Options, fn func(context.Context, *Session) (T, error)) (result T, err error) {
	s, err := Open(ctx, launcher, opts)
	if err != nil {
		return result, err
	}
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result = zero
			err = failure.New(failure.Internal, "session", fmt.Sprintf("panic: %v", r))
			s.logger.Error("Recovered panic in session", "panic", r)
		}
		_ = s.Close()
	}()
	return fn(ctx, s)
}

// classify maps a client error onto a failure kind. Deadlines and severed
// transports are Transport failures; anything else gets fallback.
func (s *Session) classify(opCtx context.Context, op string, fallback failure.Kind, err error) error {
	var fe *failure.Error
	if errors.As(err, &fe) {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(opCtx.Err(), context.DeadlineExceeded):
		return failure.Wrapf(failure.Transport, op, err, "timed out after %s", s.opts.Timeout)
	case errors.Is(err, context.Canceled) || errors.Is(opCtx.Err(), context.Canceled):
		return failure.Wrapf(failure.Transport, op, err, "canceled")
	case isSevered(err):
		return failure.Wrapf(failure.Transport, op, err, "transport severed")
	}
	return failure.Wrap(fallback, op, err)
}

// drainStderr forwards a subprocess provider's stderr to the debug log so a
// chatty provider never blocks on a full pipe.
func (s *Session) drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		s.logger.Debug("Provider stderr", "line", scanner.Text())
	}
}
