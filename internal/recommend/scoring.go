// Package recommend scores a user's category history and picks the categories
// worth recommending templates from.
package recommend

import (
	"sort"
	"time"

	"github.com/brandonhuynh1/eventwish-api/internal/models"
)

// DefaultTopCategories is how many categories feed a recommendation
const DefaultTopCategories = 3

// Weights controls how much each signal contributes to a category score
type Weights struct {
	VisitCount     float64
	Recency        float64
	SourceTemplate float64
	SourceDirect   float64
}

// DefaultWeights favours visit volume, then recency, then where the visit came from
var DefaultWeights = Weights{
	VisitCount:     50,
	Recency:        30,
	SourceTemplate: 20,
	SourceDirect:   10,
}

// ScoredCategory is a category visit with its computed score
type ScoredCategory struct {
	Category   string
	Score      float64
	VisitCount int
	VisitDate  time.Time
}

// Score computes the weighted score of a single category visit.
// oldest and newest bound the visit dates of the whole history.
func Score(visit models.CategoryVisit, maxVisitCount int, oldest, newest time.Time, w Weights) float64 {
	var countScore float64
	if maxVisitCount > 0 {
		countScore = float64(visit.VisitCount) / float64(maxVisitCount) * w.VisitCount
	}

	span := newest.Sub(oldest)
	recencyScore := w.Recency
	if span != 0 {
		recencyScore = float64(visit.VisitDate.Sub(oldest)) / float64(span) * w.Recency
	}

	sourceScore := w.SourceDirect
	if visit.Source == models.SourceTemplate {
		sourceScore = w.SourceTemplate
	}

	return countScore + recencyScore + sourceScore
}

// Rank scores every visit and orders them by descending score.
// Ties keep their input order.
func Rank(visits []models.CategoryVisit, w Weights) []ScoredCategory {
	if len(visits) == 0 {
		return []ScoredCategory{}
	}

	maxVisitCount := visits[0].VisitCount
	oldest, newest := visits[0].VisitDate, visits[0].VisitDate
	for _, v := range visits[1:] {
		if v.VisitCount > maxVisitCount {
			maxVisitCount = v.VisitCount
		}
		if v.VisitDate.Before(oldest) {
			oldest = v.VisitDate
		}
		if v.VisitDate.After(newest) {
			newest = v.VisitDate
		}
	}

	scored := make([]ScoredCategory, 0, len(visits))
	for _, v := range visits {
		scored = append(scored, ScoredCategory{
			Category:   v.Category,
			Score:      Score(v, maxVisitCount, oldest, newest, w),
			VisitCount: v.VisitCount,
			VisitDate:  v.VisitDate,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// TopCategories returns the n best scoring categories
func TopCategories(visits []models.CategoryVisit, n int, w Weights) []ScoredCategory {
	ranked := Rank(visits, w)
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// PerCategoryLimit splits limit across categories, rounding up
func PerCategoryLimit(limit, categories int) int {
	if categories <= 0 {
		return limit
	}
	return (limit + categories - 1) / categories
}

// Interleave merges lists round-robin so every category is represented
// near the top of the result.
func Interleave[T any](lists [][]T) []T {
	longest, total := 0, 0
	for _, l := range lists {
		total += len(l)
		if len(l) > longest {
			longest = len(l)
		}
	}

	out := make([]T, 0, total)
	for i := 0; i < longest; i++ {
		for _, l := range lists {
			if i < len(l) {
				out = append(out, l[i])
			}
		}
	}
	return out
}
