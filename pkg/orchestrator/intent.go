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

import "strings"

// Intent is the classified purpose of a request.
type Intent string

const (
	IntentGetScores   Intent = "get_scores"
	IntentSubmitScore Intent = "submit_score"
	IntentAnalytics   Intent = "analytics"
	IntentComposite   Intent = "composite"
	IntentUnknown     Intent = "unknown"
)

// rule maps any of its keywords, matched as substrings of the lower-cased
// request, to an intent.
type rule struct {
	intent   Intent
	keywords []string
}

// rules are evaluated in order and the first match wins, so a request that
// mentions both "wyniki" and "dodaj" is a score lookup.
var rules = []rule{
	{IntentGetScores, []string{"wyniki", "scores", "top", "ranking", "najlepsi", "pokaż"}},
	{IntentSubmitScore, []string{"dodaj", "zapisz", "submit", "nowy wynik"}},
	{IntentAnalytics, []string{"analiza", "statystyki", "raport", "stats"}},
	{IntentComposite, []string{"wszystko", "pełny", "kompletny"}},
}

// Classify maps a request to exactly one intent.
func Classify(request string) Intent {
	lower := strings.ToLower(request)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.intent
			}
		}
	}
	return IntentUnknown
}
