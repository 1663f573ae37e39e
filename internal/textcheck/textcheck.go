// Package textcheck validates learner input without calling out to any
// service: ASCII-folded token matching with a one-edit typo allowance
// against anchor words extracted from the target phrase.
package textcheck

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// stopwords excluded from anchor extraction (Italian function words)
var stopwords = map[string]bool{
	"il": true, "lo": true, "la": true, "i": true, "gli": true, "le": true,
	"un": true, "una": true, "uno": true,
	"di": true, "a": true, "da": true, "in": true, "con": true, "su": true,
	"per": true, "tra": true, "fra": true,
	"e": true, "o": true, "ma": true, "che": true, "quale": true, "quali": true,
	"quanto": true, "quanti": true,
	"dove": true, "come": true, "quando": true, "perche": true, "cosa": true, "cos": true,
	"mi": true, "ti": true, "si": true, "ci": true, "vi": true,
	"lei": true, "lui": true, "voi": true, "noi": true, "tu": true, "io": true,
	"suo": true, "sua": true, "tuo": true, "tua": true,
	"vostro": true, "vostra": true, "mio": true, "mia": true,
}

// Normalize case-folds, strips diacritics (NFD, dropping combining
// marks), and collapses every non-alphanumeric run to a single space.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(text, "’", "'")))

	var b strings.Builder
	prevSpace := false
	for _, r := range norm.NFD.String(text) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			prevSpace = false
			continue
		}
		if !prevSpace && b.Len() > 0 {
			b.WriteByte(' ')
			prevSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokens splits normalized text into words
func Tokens(text string) []string {
	n := Normalize(text)
	if n == "" {
		return nil
	}
	return strings.Fields(n)
}

// BuildAnchors extracts the content words of a phrase, keeping digits
// even when short, dropping stopwords, deduplicating in order.
func BuildAnchors(phrase string) []string {
	var anchors []string
	seen := map[string]bool{}
	for _, t := range Tokens(phrase) {
		if !isDigits(t) && stopwords[t] {
			continue
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		anchors = append(anchors, t)
	}
	return anchors
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// oneEditAway reports whether two tokens differ by at most one
// insertion, deletion or substitution
func oneEditAway(a, b string) bool {
	if a == b {
		return true
	}
	la, lb := len(a), len(b)
	if la-lb > 1 || lb-la > 1 {
		return false
	}
	i, j, edits := 0, 0, 0
	for i < la && j < lb {
		if a[i] == b[j] {
			i++
			j++
			continue
		}
		edits++
		if edits > 1 {
			return false
		}
		switch {
		case la > lb:
			i++
		case lb > la:
			j++
		default:
			i++
			j++
		}
	}
	if i < la || j < lb {
		edits++
	}
	return edits <= 1
}

func anchorHit(userTokens []string, anchor string) bool {
	for _, ut := range userTokens {
		if ut == anchor || oneEditAway(ut, anchor) {
			return true
		}
	}
	return false
}

// Result explains a sentence validation outcome
type Result struct {
	Anchors []string
	Hits    []string
	MinHits int
	Reason  string
}

// ValidateSentence checks that the user's sentence covers enough anchors
// of the target phrase. The hit threshold is dynamic: all anchors when
// there are at most two, two of three, otherwise at least three. A target
// containing a number additionally requires a matching number.
func ValidateSentence(userSentence, targetPhrase string) (bool, Result) {
	userTokens := Tokens(userSentence)
	anchors := BuildAnchors(targetPhrase)

	if len(anchors) == 0 {
		return true, Result{}
	}

	minHits := 3
	switch {
	case len(anchors) <= 2:
		minHits = len(anchors)
	case len(anchors) == 3:
		minHits = 2
	}

	var hits []string
	hit := map[string]bool{}
	for _, a := range anchors {
		if anchorHit(userTokens, a) {
			hits = append(hits, a)
			hit[a] = true
		}
	}

	// a target with numbers requires at least one matching number
	hasNum, numHit := false, false
	for _, a := range anchors {
		if isDigits(a) {
			hasNum = true
			if hit[a] {
				numHit = true
			}
		}
	}
	if hasNum && !numHit {
		return false, Result{Anchors: anchors, Hits: hits, MinHits: minHits, Reason: "missing_number"}
	}

	return len(hits) >= minHits, Result{Anchors: anchors, Hits: hits, MinHits: minHits}
}

// AcceptableSentence is the cheap gate applied to every free-text
// submission: at least three runes and at least one letter.
func AcceptableSentence(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < 3 {
		return false
	}
	for _, r := range trimmed {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
