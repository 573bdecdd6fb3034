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

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/kadirpekel/minesweeper-agents/pkg/failure"
	"github.com/kadirpekel/minesweeper-agents/pkg/orchestrator"
)

const maxRequestBody = 64 << 10

// Request is the body of POST /v1/requests.
type Request struct {
	Request string `json:"request"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *HTTPServer) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    "minesweeper-agents",
		"version": s.version,
	})
}

func (s *HTTPServer) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleHealth probes every agent. A degraded snapshot is served with 503.
func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	snapshot := s.proc.HealthCheck(r.Context())
	code := http.StatusOK
	if !snapshot.Healthy() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, snapshot)
}

func (s *HTTPServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	var req Request
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Request) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "request must not be empty"})
		return
	}

	resp := s.proc.Process(r.Context(), req.Request)
	writeJSON(w, statusCode(resp), resp)
}

// statusCode maps a response to an HTTP status. Caller mistakes are 422,
// provider trouble is 502.
func statusCode(resp orchestrator.Response) int {
	switch resp.Status {
	case orchestrator.StatusSuccess:
		return http.StatusOK
	case orchestrator.StatusNotImplemented:
		return http.StatusNotImplemented
	}
	switch resp.ErrorKind {
	case failure.Validation, failure.Format, failure.UnknownIntent:
		return http.StatusUnprocessableEntity
	case failure.Transport, failure.Handshake, failure.Invocation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
