package services

import (
	"context"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"lexicon/models"
	"lexicon/repository"
)

// DefaultVariantThreshold is the minimum similarity for a suggestion.
const DefaultVariantThreshold = 0.75

// VariantDetector suggests an existing term that a candidate spelling is
// likely a variant of. Suggestions are advisory and never block a submission.
type VariantDetector interface {
	Suggest(ctx context.Context, candidate string) (*models.TermSummary, error)
}

type variantDetector struct {
	terms     repository.TermRepository
	threshold float64
	metrics   *Metrics
}

// NewVariantDetector creates a detector. A threshold outside (0, 1] falls back
// to DefaultVariantThreshold.
func NewVariantDetector(terms repository.TermRepository, threshold float64, metrics *Metrics) VariantDetector {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultVariantThreshold
	}
	return &variantDetector{terms: terms, threshold: threshold, metrics: metrics}
}

// Suggest returns the most similar non-rejected term at or above the
// threshold, or nil. On equal similarity the older term wins.
func (d *variantDetector) Suggest(ctx context.Context, candidate string) (*models.TermSummary, error) {
	key := NormalizeTerm(candidate)
	if key == "" {
		return nil, nil
	}
	summaries, err := d.terms.ListTermSummaries(ctx)
	if err != nil {
		return nil, persistenceError("list terms for variant check", err)
	}

	var (
		best      *models.TermSummary
		bestScore float64
	)
	for i := range summaries {
		score := similarity(key, NormalizeTerm(summaries[i].Term))
		if score < d.threshold || score <= bestScore {
			continue
		}
		best, bestScore = &summaries[i], score
	}
	d.metrics.variantCheck(best != nil)
	if best != nil {
		slog.Debug("[VariantDetector] Suggested variant", "component", "variants",
			"candidate", candidate, "term_id", best.ID, "score", bestScore)
	}
	return best, nil
}

// NormalizeTerm folds a term to its comparison key: compatibility
// decomposition, combining marks removed, lower case, letters and digits only.
func NormalizeTerm(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Similarity returns 1 - distance/maxLen over the normalised forms of a and b.
func Similarity(a, b string) float64 {
	return similarity(NormalizeTerm(a), NormalizeTerm(b))
}

func similarity(a, b string) float64 {
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 0
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
}
