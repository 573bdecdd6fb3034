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

// Package failure defines the typed failures returned across the agent and
// orchestration boundary.
//
// Every agent operation reports problems as a *Error carrying a Kind, so the
// orchestrator can fold any outcome into a response without inspecting
// transport details.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	// Transport covers spawn/connect failures, severed transports and deadlines.
	Transport Kind = "transport_error"
	// Handshake covers initialize failures and version/capability mismatches.
	Handshake Kind = "handshake_error"
	// Invocation is a peer-reported failure for a specific call.
	Invocation Kind = "invocation_error"
	// Validation is a score rejected by the plausibility rule.
	Validation Kind = "validation_error"
	// Format is malformed request text.
	Format Kind = "format_error"
	// UnknownIntent is a request no classifier rule matched.
	UnknownIntent Kind = "unknown_intent"
	// NotImplemented marks operations that exist but are not available yet.
	NotImplemented Kind = "not_implemented"
	// Internal is anything that escaped the other kinds (e.g. a recovered panic).
	Internal Kind = "internal_error"
)

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *Error of the same kind. This lets callers
// match on sentinel values such as &Error{Kind: Validation}.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == "" && t.Err == nil
}

// New creates a failure of the given kind.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap classifies err. If err already is a *Error its kind is preserved and
// only the operation is filled in when missing.
func Wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		if fe.Op == "" {
			fe.Op = op
		}
		return fe
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrapf classifies err with an additional message.
func Wrapf(kind Kind, op string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or Internal when err is not classified.
// A nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Internal
}

// Message returns the human-readable part of err without the kind prefix.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var fe *Error
	if !errors.As(err, &fe) {
		return err.Error()
	}
	switch {
	case fe.Message != "" && fe.Err != nil:
		return fmt.Sprintf("%s: %v", fe.Message, fe.Err)
	case fe.Message != "":
		return fe.Message
	case fe.Err != nil:
		return fe.Err.Error()
	default:
		return string(fe.Kind)
	}
}
