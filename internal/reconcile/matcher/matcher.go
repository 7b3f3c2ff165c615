// Package matcher maps free-text borrower names to canonical roster
// identities. This is the stage most exposed to data-entry noise, so the
// decision is deterministic and conservative: a low-confidence match is
// rejected for human review, never silently recorded against the wrong
// person.
package matcher

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"shelfsync/internal/domain"
)

const (
	// acceptThreshold is the minimum similarity score for any match.
	acceptThreshold = 0.75
	// ambiguityMargin is how far ahead of the runner-up the best candidate
	// must finish to be accepted.
	ambiguityMargin = 0.05
)

// Matcher scores free-text names against the canonical roster.
type Matcher struct {
	roster []domain.Borrower
}

func New(roster []domain.Borrower) *Matcher {
	return &Matcher{roster: roster}
}

// Match resolves a free-text name. Exact case-insensitive equality wins
// immediately; otherwise every candidate gets a similarity score and the
// unique best candidate is accepted only if it clears acceptThreshold and
// beats the runner-up by ambiguityMargin.
//
// Failure modes: domain.ErrUnknownBorrower when nothing clears the
// threshold, domain.ErrAmbiguousBorrower when two or more candidates tie
// within the margin.
func (m *Matcher) Match(name string) (domain.BorrowerID, error) {
	needle := normalize(name)
	if needle == "" {
		return 0, fmt.Errorf("%w: empty name", domain.ErrUnknownBorrower)
	}

	var (
		best, runnerUp float64
		bestID         domain.BorrowerID
		bestName       string
	)
	for _, b := range m.roster {
		candidate := normalize(b.Name)
		if candidate == needle {
			return b.ID, nil
		}
		score := similarity(needle, candidate)
		switch {
		case score > best:
			runnerUp = best
			best = score
			bestID = b.ID
			bestName = b.Name
		case score > runnerUp:
			runnerUp = score
		}
	}

	if best < acceptThreshold {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownBorrower, name)
	}
	if best-runnerUp < ambiguityMargin {
		return 0, fmt.Errorf("%w: %q matches %q and a close runner-up", domain.ErrAmbiguousBorrower, name, bestName)
	}
	return bestID, nil
}

// similarity blends whole-string edit distance with token-wise comparison so
// both misspellings ("Jon Smith") and abbreviated forms ("J. Smith") score
// sensibly. Result is in [0, 1].
func similarity(a, b string) float64 {
	whole := editSimilarity(a, b)
	tokens := tokenSimilarity(strings.Fields(a), strings.Fields(b))
	if tokens > whole {
		return tokens
	}
	return whole
}

func editSimilarity(a, b string) float64 {
	longest := len([]rune(a))
	if n := len([]rune(b)); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// tokenSimilarity pairs each entered token with its best counterpart and
// averages. An initial ("J." or "J") scores a fixed 0.8 against a token it
// abbreviates: enough to clear the threshold, low enough that a full
// spelling elsewhere in the roster still dominates.
func tokenSimilarity(entered, canonical []string) float64 {
	if len(entered) == 0 || len(canonical) == 0 {
		return 0
	}
	var total float64
	for _, tok := range entered {
		best := 0.0
		for _, cand := range canonical {
			score := tokenScore(tok, cand)
			if score > best {
				best = score
			}
		}
		total += best
	}
	return total / float64(len(entered))
}

func tokenScore(entered, canonical string) float64 {
	if entered == canonical {
		return 1
	}
	if initial, ok := asInitial(entered); ok && strings.HasPrefix(canonical, initial) {
		return 0.8
	}
	return editSimilarity(entered, canonical)
}

// asInitial recognizes single-letter abbreviations, with or without a
// trailing period.
func asInitial(tok string) (string, bool) {
	trimmed := strings.TrimSuffix(tok, ".")
	if len([]rune(trimmed)) == 1 {
		return trimmed, true
	}
	return "", false
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}
