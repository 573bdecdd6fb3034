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

package orchestrator

import (
	"github.com/kadirpekel/minesweeper-agents/pkg/failure"
)

// Status discriminates a response.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusError          Status = "error"
	StatusNotImplemented Status = "not_implemented"
)

const (
	unknownSuggestion = "Try: 'Pokaż wyniki' or 'Dodaj wynik Jan, easy, 120s'"
	submitUsage       = "Invalid format. Use: 'Dodaj wynik [name], [difficulty], [time]'"
)

// Response is the outcome of one request. It carries either Data or an
// Error with an optional Suggestion.
type Response struct {
	RequestID  string       `json:"request_id"`
	Intent     Intent       `json:"intent"`
	Status     Status       `json:"status"`
	Agent      string       `json:"agent,omitempty"`
	Data       any          `json:"data,omitempty"`
	Error      string       `json:"error,omitempty"`
	ErrorKind  failure.Kind `json:"error_kind,omitempty"`
	Suggestion string       `json:"suggestion,omitempty"`
}

// OK reports whether the response carries a payload.
func (r Response) OK() bool {
	return r.Status == StatusSuccess
}

// ScoresResult is the payload of a score lookup.
type ScoresResult struct {
	Query ScoresQuery `json:"query"`
	Text  string      `json:"text"`
}

// SubmitResult is the payload of an accepted submission.
type SubmitResult struct {
	PlayerName  string `json:"player_name"`
	Difficulty  string `json:"difficulty"`
	TimeSeconds int    `json:"time_seconds"`
	Message     string `json:"message"`
}

// Slot is one independently settled part of a composite response.
type Slot struct {
	Status    Status       `json:"status"`
	Agent     string       `json:"agent"`
	Data      any          `json:"data,omitempty"`
	Error     string       `json:"error,omitempty"`
	ErrorKind failure.Kind `json:"error_kind,omitempty"`
}

// CompositeResult holds the slots of a composite request, keyed by name.
type CompositeResult map[string]Slot

func statusOf(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case failure.KindOf(err) == failure.NotImplemented:
		return StatusNotImplemented
	default:
		return StatusError
	}
}

func respond(agentName string, data any, err error) Response {
	if err != nil {
		return failed(agentName, err, "")
	}
	return Response{Status: StatusSuccess, Agent: agentName, Data: data}
}

func failed(agentName string, err error, suggestion string) Response {
	return Response{
		Status:     statusOf(err),
		Agent:      agentName,
		Error:      failure.Message(err),
		ErrorKind:  failure.KindOf(err),
		Suggestion: suggestion,
	}
}

func slotOf(agentName string, data any, err error) Slot {
	if err != nil {
		return Slot{
			Status:    statusOf(err),
			Agent:     agentName,
			Error:     failure.Message(err),
			ErrorKind: failure.KindOf(err),
		}
	}
	return Slot{Status: StatusSuccess, Agent: agentName, Data: data}
}
