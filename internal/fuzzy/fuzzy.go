// Package fuzzy scores how well a typed query matches a candidate string.
//
// A query matches when its runes occur in the candidate in the same order,
// ignoring case and diacritics. Matches are scored by an optimal alignment
// that rewards contiguous runs, word-boundary starts and short candidates,
// and penalizes gaps between matched runes.
package fuzzy

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	subseq "github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Scoring constants.
const (
	scoreMatch        = 16
	scoreGapStart     = -3
	scoreGapExtension = -1

	bonusBoundary    = scoreMatch / 2
	bonusNonWord     = scoreMatch / 2
	bonusCamel       = bonusBoundary + scoreGapExtension
	bonusConsecutive = bonusBoundary

	bonusFirstCharMultiplier = 2

	// lengthPenaltyDivisor controls how quickly long candidates lose score.
	lengthPenaltyDivisor = 8
	maxLengthPenalty     = scoreMatch
)

// unreachable marks alignment cells that cannot be part of a match.
const unreachable = math.MinInt32

// Result is the outcome of scoring one candidate.
// The zero value is NoMatch.
type Result struct {
	Score   int
	Matched bool
}

// NoMatch is returned when the query runes do not occur in order.
var NoMatch = Result{}

// Matched returns a matching result with the given score.
func Matched(score int) Result {
	return Result{Score: score, Matched: true}
}

// Pattern is a compiled query. It is immutable and safe for concurrent use.
type Pattern struct {
	query  string
	folded []rune
	// gate is folded as a string, fed to the subsequence pre-check.
	gate string
}

// Compile prepares query for repeated scoring.
func Compile(query string) Pattern {
	normalized := normalize(query)
	folded := make([]rune, 0, utf8.RuneCountInString(normalized))
	for _, r := range normalized {
		folded = append(folded, unicode.ToLower(r))
	}
	return Pattern{query: query, folded: folded, gate: string(folded)}
}

// Query returns the query the pattern was compiled from.
func (p Pattern) Query() string {
	return p.query
}

// Empty reports whether the pattern matches everything.
func (p Pattern) Empty() bool {
	return len(p.folded) == 0
}

// Score scores candidate against query.
func Score(candidate, query string) Result {
	return Compile(query).Score(candidate)
}

// Score scores candidate against the compiled query. An empty query matches
// every candidate with score 0.
func (p Pattern) Score(candidate string) Result {
	if p.Empty() {
		return Matched(0)
	}

	// Cheap in-order check before normalizing and the quadratic alignment.
	// It folds the same way as normalize plus unicode.ToLower.
	if !subseq.MatchNormalizedFold(p.gate, candidate) {
		return NoMatch
	}
	return p.scoreAligned(candidate)
}

// scoreAligned scores a candidate that passed the subsequence check.
func (p Pattern) scoreAligned(candidate string) Result {
	text := []rune(normalize(candidate))
	if len(text) < len(p.folded) {
		return NoMatch
	}

	folded := make([]rune, len(text))
	for i, r := range text {
		folded[i] = unicode.ToLower(r)
	}

	best, ok := align(p.folded, text, folded)
	if !ok {
		return NoMatch
	}

	penalty := (len(text) - len(p.folded)) / lengthPenaltyDivisor
	if penalty > maxLengthPenalty {
		penalty = maxLengthPenalty
	}
	return Matched(best - penalty)
}

// align computes the best alignment score of query within text. text keeps
// its original case for boundary detection; folded is its lower-cased copy.
//
// matched[j] holds the best score with the current query rune matched at j.
// gapped[j] holds the best score of a previous-row match followed by an
// unmatched run ending at j-1, ready for a gapped match at j.
//
// bonusConsecutive is the largest position bonus, so a contiguous run never
// scores below the same runes with a gap between them.
func align(query, text, folded []rune) (int, bool) {
	n := len(text)

	bonus := make([]int, n)
	prevClass := classNonWord
	for j, r := range text {
		class := classOf(r)
		bonus[j] = bonusFor(prevClass, class)
		prevClass = class
	}

	matched := make([]int, n)
	next := make([]int, n)
	gapped := make([]int, n)

	for j := 0; j < n; j++ {
		if folded[j] == query[0] {
			matched[j] = scoreMatch + bonus[j]*bonusFirstCharMultiplier
		} else {
			matched[j] = unreachable
		}
	}

	for i := 1; i < len(query); i++ {
		fillGaps(gapped, matched)

		for j := 0; j < n; j++ {
			next[j] = unreachable
			if j == 0 || folded[j] != query[i] {
				continue
			}
			if matched[j-1] != unreachable {
				next[j] = matched[j-1] + scoreMatch + max(bonus[j], bonusConsecutive)
			}
			if gapped[j] != unreachable {
				next[j] = max(next[j], gapped[j]+scoreMatch+bonus[j])
			}
		}

		matched, next = next, matched
	}

	best := unreachable
	for _, s := range matched {
		best = max(best, s)
	}
	return best, best != unreachable
}

// fillGaps computes, for each j, the best score of a match at k <= j-2
// followed by the affine penalty for the unmatched run k+1..j-1.
func fillGaps(gapped, matched []int) {
	for j := range gapped {
		gapped[j] = unreachable
		if j < 2 {
			continue
		}
		if matched[j-2] != unreachable {
			gapped[j] = matched[j-2] + scoreGapStart
		}
		if gapped[j-1] != unreachable {
			if s := gapped[j-1] + scoreGapExtension; s > gapped[j] {
				gapped[j] = s
			}
		}
	}
}

type charClass int

const (
	classNonWord charClass = iota
	classLower
	classUpper
	classLetter
	classNumber
)

func classOf(r rune) charClass {
	switch {
	case unicode.IsLower(r):
		return classLower
	case unicode.IsUpper(r):
		return classUpper
	case unicode.IsNumber(r):
		return classNumber
	case unicode.IsLetter(r):
		return classLetter
	default:
		return classNonWord
	}
}

// bonusFor returns the position bonus for a rune of class cur preceded by a
// rune of class prev. The start of the text counts as a non-word rune.
func bonusFor(prev, cur charClass) int {
	if cur == classNonWord {
		return bonusNonWord
	}
	switch {
	case prev == classNonWord:
		return bonusBoundary
	case prev == classLower && cur == classUpper:
		return bonusCamel
	case prev != classNumber && cur == classNumber:
		return bonusCamel
	default:
		return 0
	}
}

// normalize replaces invalid UTF-8 and strips diacritics, the same folding
// lithammer/fuzzysearch applies in its normalized matchers.
func normalize(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, string(utf8.RuneError))
	}
	if isASCII(s) {
		return s
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
