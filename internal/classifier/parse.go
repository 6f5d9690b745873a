package classifier

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/spec-kit/civic-triage/internal/domain"
)

// ErrUnparseable means the reply carried neither a category nor a confidence
// marker. Parse still returns Other with the default confidence alongside it.
var ErrUnparseable = errors.New("reply has no category or confidence marker")

// defaultConfidence applies when the model answers without a usable score.
const defaultConfidence = 50

var (
	categoryPattern   = regexp.MustCompile(`(?i)category[\s*]*:[\s*]*([^,\r\n]+)`)
	confidencePattern = regexp.MustCompile(`(?i)confidence[\s*]*:[\s*]*(-?\d+)`)
	confidenceTail    = regexp.MustCompile(`(?i)confidence.*$`)
)

// Parse extracts a classification from free model text. Only the
// "Category:" and "Confidence:" markers are trusted; the rest of the layout is
// ignored. The returned category is always a member of the taxonomy and the
// confidence is always within [0,100].
func Parse(raw string) (domain.Classification, error) {
	result := domain.Classification{Category: domain.CategoryOther, Confidence: defaultConfidence}
	catMatch := categoryPattern.FindStringSubmatch(raw)
	confMatch := confidencePattern.FindStringSubmatch(raw)
	if catMatch == nil && confMatch == nil {
		return result, ErrUnparseable
	}

	if catMatch != nil {
		name := confidenceTail.ReplaceAllString(catMatch[1], "")
		if c, ok := domain.LookupCategory(strings.Trim(name, " \t\"'*[]().`;")); ok {
			result.Category = c
		}
	}
	if confMatch != nil {
		result.Confidence = parseConfidence(confMatch[1])
	}
	return result, nil
}

func parseConfidence(digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil {
		// Only overflow can fail here; clamp toward the sign.
		if strings.HasPrefix(digits, "-") {
			return 0
		}
		return 100
	}
	return clampConfidence(n)
}

func clampConfidence(n int) int {
	switch {
	case n < 0:
		return 0
	case n > 100:
		return 100
	}
	return n
}
