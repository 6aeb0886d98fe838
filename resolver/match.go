// Package resolver resolves natural-language property references to GA4
// property records, so tool callers never need exact identifiers.
package resolver

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/metriclane/ga4mcp/ga"
)

// Stage identifies which resolution rule produced a match. Exposed in tool
// results for explainability and asserted on in tests.
type Stage string

const (
	StageExactID      Stage = "exact_id"
	StageExactName    Stage = "exact_name"
	StageDisplayName  Stage = "display_name"
	StageAlias        Stage = "alias"
	StageFuzzyName    Stage = "fuzzy_name"
	StageFuzzyDisplay Stage = "fuzzy_display"
	StagePartial      Stage = "partial"
	StageExact        Stage = "exact"
	StageFuzzy        Stage = "fuzzy"
)

// searchFloor is the inclusion threshold for ranked search. Deliberately
// below the resolve acceptance threshold: search is exploratory.
const searchFloor = 0.3

// Match pairs a property with the confidence and rule that selected it.
// Confidence is kept at full precision here; rounding to 3 decimals happens
// at the presentation boundary.
type Match struct {
	Property   ga.Property
	Confidence float64
	Stage      Stage
}

// normalize lower-cases and strips everything except letters and digits.
// Unlike ga.CanonicalName it does not truncate: only stored record names
// carry the length cap.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// similarity is the normalized block-matching ratio between two strings,
// computed character-wise with difflib's SequenceMatcher.
func similarity(a, b string) float64 {
	return difflib.NewMatcher(splitChars(a), splitChars(b)).Ratio()
}

func splitChars(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "")
}

// containmentScore boosts a query that appears verbatim inside a candidate
// name: 0.7 base plus up to 0.3 proportional to how much of the candidate
// the query covers.
func containmentScore(query, name, display string) float64 {
	denom := utf8.RuneCountInString(name)
	if d := utf8.RuneCountInString(display); d > denom {
		denom = d
	}
	if denom < 1 {
		denom = 1
	}
	return 0.7 + 0.3*float64(utf8.RuneCountInString(query))/float64(denom)
}

// Resolve maps a query to the single best property, first-match-wins across
// ordered stages:
//
//  1. exact property ID
//  2. exact canonical name
//  3. display name, case-insensitive
//  4. user-declared alias
//  5. fuzzy scoring, accepted only strictly above threshold
//
// Snapshot order is preserved within a stage. Returns nil when the snapshot
// is empty or nothing clears the threshold; a miss is not an error.
func Resolve(query string, snapshot []ga.Property, threshold float64, aliases map[string][]string) *Match {
	if len(snapshot) == 0 {
		return nil
	}

	queryLower := strings.ToLower(strings.TrimSpace(query))
	queryCanon := normalize(query)

	for i := range snapshot {
		if snapshot[i].ID == query {
			return &Match{Property: snapshot[i], Confidence: 1.0, Stage: StageExactID}
		}
	}

	for i := range snapshot {
		if snapshot[i].Name == queryCanon {
			return &Match{Property: snapshot[i], Confidence: 1.0, Stage: StageExactName}
		}
	}

	for i := range snapshot {
		if strings.ToLower(snapshot[i].DisplayName) == queryLower {
			return &Match{Property: snapshot[i], Confidence: 1.0, Stage: StageDisplayName}
		}
	}

	if m := resolveAlias(queryCanon, snapshot, aliases); m != nil {
		return m
	}

	return resolveFuzzy(queryCanon, snapshot, threshold)
}

// resolveAlias checks the user-declared alias table. Alias keys are walked
// in sorted order so that resolution is deterministic; the first entry
// whose aliases contain the query and whose key names a known property
// wins. The table may reference properties that do not exist.
func resolveAlias(queryCanon string, snapshot []ga.Property, aliases map[string][]string) *Match {
	if len(aliases) == 0 {
		return nil
	}

	keys := make([]string, 0, len(aliases))
	for key := range aliases {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		hit := false
		for _, alias := range aliases[key] {
			if normalize(alias) == queryCanon {
				hit = true
				break
			}
		}
		if !hit {
			continue
		}
		keyLower := strings.ToLower(key)
		for i := range snapshot {
			if snapshot[i].Name == key || strings.ToLower(snapshot[i].DisplayName) == keyLower {
				return &Match{Property: snapshot[i], Confidence: 1.0, Stage: StageAlias}
			}
		}
	}
	return nil
}

// resolveFuzzy scores every record and keeps the strictly best one. Ties go
// to the earliest record in snapshot order. The winner must strictly exceed
// threshold or the resolve reports absence.
//
// A query that canonicalizes to nothing matches nothing: the empty string
// is a substring of every name and would otherwise sweep the snapshot in at
// the containment base score.
func resolveFuzzy(queryCanon string, snapshot []ga.Property, threshold float64) *Match {
	if queryCanon == "" {
		return nil
	}

	var best *Match

	for i := range snapshot {
		prop := snapshot[i]
		displayCanon := normalize(prop.DisplayName)

		score, stage := recordScore(queryCanon, prop.Name, displayCanon)
		if best == nil || score > best.Confidence {
			best = &Match{Property: prop, Confidence: score, Stage: stage}
		}
	}

	if best == nil || !(best.Confidence > threshold) {
		return nil
	}
	return best
}

// recordScore computes a record's effective fuzzy score: the maximum of
// name similarity, display similarity, and (when the query is a substring
// of either) the containment score. The stage reports which component won.
func recordScore(queryCanon, name, displayCanon string) (float64, Stage) {
	score := similarity(queryCanon, name)
	stage := StageFuzzyName

	if s := similarity(queryCanon, displayCanon); s > score {
		score, stage = s, StageFuzzyDisplay
	}

	if strings.Contains(name, queryCanon) || strings.Contains(displayCanon, queryCanon) {
		if s := containmentScore(queryCanon, name, displayCanon); s > score {
			score, stage = s, StagePartial
		}
	}

	return score, stage
}

// RankedSearch scores every record against the query and returns matches
// above the inclusion floor, sorted by descending confidence with ties kept
// in snapshot order, truncated to maxResults. Unlike Resolve it never
// short-circuits, and its floor (0.3) is intentionally lower than the
// resolve threshold: callers use it for "did you mean" suggestions.
func RankedSearch(query string, snapshot []ga.Property, maxResults int) []Match {
	if len(snapshot) == 0 {
		return nil
	}

	queryCanon := normalize(query)
	// Empty queries match nothing, mirroring resolveFuzzy.
	if queryCanon == "" {
		return nil
	}
	matches := make([]Match, 0, len(snapshot))

	for i := range snapshot {
		prop := snapshot[i]

		if prop.ID == query || prop.Name == queryCanon {
			matches = append(matches, Match{Property: prop, Confidence: 1.0, Stage: StageExact})
			continue
		}

		displayCanon := normalize(prop.DisplayName)
		score := similarity(queryCanon, prop.Name)
		if s := similarity(queryCanon, displayCanon); s > score {
			score = s
		}
		if strings.Contains(prop.Name, queryCanon) || strings.Contains(displayCanon, queryCanon) {
			if s := containmentScore(queryCanon, prop.Name, displayCanon); s > score {
				score = s
			}
		}

		if score > searchFloor {
			stage := StageFuzzy
			if score == 1.0 {
				stage = StageExact
			}
			matches = append(matches, Match{Property: prop, Confidence: score, Stage: stage})
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Confidence > matches[b].Confidence
	})
	if maxResults > 0 && len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches
}
