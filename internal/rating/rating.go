// Package rating computes restaurant quality ratings from inspection
// history. Two paths exist: the full aggregate over up to three years of
// graded inspections used on detail pages, and a cheap single-grade path
// used for search listings where many restaurants are rated in one pass.
package rating

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/dinewatch/dinewatch-go/internal/conf"
	"github.com/dinewatch/dinewatch-go/internal/datastore"
	"github.com/dinewatch/dinewatch-go/internal/errors"
	"github.com/dinewatch/dinewatch-go/internal/grading"
	"github.com/dinewatch/dinewatch-go/internal/observability"
)

// Mode selects between the full aggregate and the fast single-grade path.
type Mode string

const (
	// ModeFull aggregates up to three years of graded inspections.
	ModeFull Mode = "full"
	// ModeFast infers a rating from the latest inspection grade alone.
	ModeFast Mode = "fast"
)

// sentinelYear marks known-bad dates in the source feed; records dated in
// this year never contribute to a rating.
const sentinelYear = 1900

// Result is the derived quality rating for one restaurant. Computed fresh
// on each request, never persisted.
type Result struct {
	Stars                float64    `json:"stars"`
	Grade                string     `json:"grade"`
	InspectionCount      int        `json:"inspection_count"`
	LatestInspectionDate *time.Time `json:"latest_inspection_date"`
	Description          string     `json:"description"`
	AvgScore             float64    `json:"avg_score"`
}

// Engine computes ratings against a datastore. It is stateless apart from
// the fast-path cache and safe for concurrent use.
type Engine struct {
	ds        datastore.Interface
	window    time.Duration
	fastCache *cache.Cache
	metrics   *observability.Metrics
	nowFunc   func() time.Time
}

// New creates a rating engine using the window and cache settings from the
// configuration.
func New(ds datastore.Interface, settings *conf.Settings) *Engine {
	ttl := time.Duration(settings.Rating.CacheTTL) * time.Second
	cleanup := time.Duration(settings.Rating.CacheCleanup) * time.Second
	return &Engine{
		ds:        ds,
		window:    time.Duration(settings.Rating.WindowDays) * 24 * time.Hour,
		fastCache: cache.New(ttl, cleanup),
		nowFunc:   time.Now,
	}
}

// SetMetrics attaches observability metrics to the engine. Safe to skip;
// the engine works without metrics.
func (e *Engine) SetMetrics(m *observability.Metrics) {
	e.metrics = m
}

// Compute returns the rating for a restaurant in the requested mode.
func (e *Engine) Compute(camis int64, mode Mode) (Result, error) {
	switch mode {
	case ModeFast:
		return e.computeFast(camis)
	case ModeFull, "":
		return e.computeFull(camis)
	default:
		return Result{}, errors.Newf("unknown rating mode: %q", mode).
			Component("rating").
			Category(errors.CategoryValidation).
			Context("mode", string(mode)).
			Build()
	}
}

// FromSummary rates a search listing row from its latest grade without
// touching the database, caching the result per restaurant.
func (e *Engine) FromSummary(summary *datastore.RestaurantSummary) Result {
	key := strconv.FormatInt(summary.CAMIS, 10)
	if cached, found := e.fastCache.Get(key); found {
		return cached.(Result)
	}
	result := fastResult(summary.LatestGrade, summary.LatestInspectionDate)
	e.fastCache.Set(key, result, cache.DefaultExpiration)
	return result
}

// computeFull aggregates graded inspections within the lookback window,
// falling back to the unwindowed graded set when the window is empty.
func (e *Engine) computeFull(camis int64) (Result, error) {
	if e.metrics != nil {
		e.metrics.Rating.ComputationsTotal.WithLabelValues(string(ModeFull)).Inc()
		start := e.nowFunc()
		defer func() {
			e.metrics.Rating.ComputeDuration.Observe(time.Since(start).Seconds())
		}()
	}

	graded, err := e.ds.GetGradedInspections(camis)
	if err != nil {
		return Result{}, errors.New(err).
			Component("rating").
			Category(errors.CategoryRating).
			Context("camis", camis).
			Build()
	}

	cutoff := e.nowFunc().Add(-e.window)
	qualifying := filterInspections(graded, &cutoff)
	if len(qualifying) == 0 {
		// No recent graded inspections; widen to the full history.
		qualifying = filterInspections(graded, nil)
	}
	if len(qualifying) == 0 {
		return defaultResult(), nil
	}

	var weightSum, scoreSum float64
	var scoreCount int
	gradeCounts := make(map[string]int, 3)
	var latest *datastore.Inspection
	for i := range qualifying {
		insp := qualifying[i]
		weight, _ := grading.StarWeight(insp.Grade)
		weightSum += weight
		gradeCounts[insp.Grade]++
		if insp.Score != nil {
			scoreSum += float64(*insp.Score)
			scoreCount++
		}
		if latest == nil || laterInspection(insp, latest) {
			latest = insp
		}
	}

	count := len(qualifying)
	avgRating := weightSum / float64(count)
	stars := math.Round(avgRating*10) / 10

	avgScore := 0.0
	if scoreCount > 0 {
		avgScore = scoreSum / float64(scoreCount)
	}

	return Result{
		Stars:                stars,
		Grade:                modeGrade(gradeCounts),
		InspectionCount:      count,
		LatestInspectionDate: latest.InspectionDate,
		Description:          describe(avgRating, count),
		AvgScore:             avgScore,
	}, nil
}

// computeFast infers a rating from the single latest inspection.
func (e *Engine) computeFast(camis int64) (Result, error) {
	key := strconv.FormatInt(camis, 10)
	if cached, found := e.fastCache.Get(key); found {
		if e.metrics != nil {
			e.metrics.Rating.CacheHits.Inc()
		}
		return cached.(Result), nil
	}
	if e.metrics != nil {
		e.metrics.Rating.CacheMisses.Inc()
		e.metrics.Rating.ComputationsTotal.WithLabelValues(string(ModeFast)).Inc()
	}

	latest, err := e.ds.GetLatestInspection(camis)
	if err != nil {
		if errors.Is(err, datastore.ErrInspectionNotFound) {
			return fastResult("", nil), nil
		}
		return Result{}, errors.New(err).
			Component("rating").
			Category(errors.CategoryRating).
			Context("camis", camis).
			Build()
	}

	result := fastResult(latest.Grade, latest.InspectionDate)
	e.fastCache.Set(key, result, cache.DefaultExpiration)
	return result, nil
}

// filterInspections keeps graded records with valid dates, dropping the
// 1900 sentinel rows and, when cutoff is non-nil, anything older than it.
func filterInspections(inspections []datastore.Inspection, cutoff *time.Time) []*datastore.Inspection {
	var kept []*datastore.Inspection
	for i := range inspections {
		insp := &inspections[i]
		if insp.InspectionDate == nil || !grading.Graded(insp.Grade) {
			continue
		}
		if insp.InspectionDate.Year() == sentinelYear {
			continue
		}
		if cutoff != nil && insp.InspectionDate.Before(*cutoff) {
			continue
		}
		kept = append(kept, insp)
	}
	return kept
}

// laterInspection reports whether a should replace b as the latest record.
// Date ties go to the higher row ID, the most recently loaded record.
func laterInspection(a, b *datastore.Inspection) bool {
	if a.InspectionDate.After(*b.InspectionDate) {
		return true
	}
	return a.InspectionDate.Equal(*b.InspectionDate) && a.ID > b.ID
}

// modeGrade returns the most frequent grade. Frequency ties break to the
// alphabetically first letter so the result is deterministic.
func modeGrade(counts map[string]int) string {
	grades := make([]string, 0, len(counts))
	for grade := range counts {
		grades = append(grades, grade)
	}
	sort.Strings(grades)

	best := ""
	bestCount := 0
	for _, grade := range grades {
		if counts[grade] > bestCount {
			best = grade
			bestCount = counts[grade]
		}
	}
	return best
}

// describe maps the average star rating onto a descriptive label.
func describe(avgRating float64, count int) string {
	switch {
	case avgRating >= 4.5:
		return fmt.Sprintf("Excellent health record across %d graded inspections", count)
	case avgRating >= 3.5:
		return fmt.Sprintf("Good health record across %d graded inspections", count)
	case avgRating >= 2.5:
		return fmt.Sprintf("Fair health record across %d graded inspections", count)
	default:
		return fmt.Sprintf("Needs improvement based on %d graded inspections", count)
	}
}

// fastResult maps a single latest grade onto a listing rating.
func fastResult(grade string, date *time.Time) Result {
	if grade == "" {
		return Result{
			Stars:       0,
			Grade:       grading.GradeNotAvailable,
			Description: "No grade available",
		}
	}
	result := Result{
		Grade:                grade,
		InspectionCount:      1,
		LatestInspectionDate: date,
	}
	switch grade {
	case grading.GradeA:
		result.Stars, result.Description = 5, "Excellent"
	case grading.GradeB:
		result.Stars, result.Description = 4, "Good"
	case grading.GradeC:
		result.Stars, result.Description = 3, "Fair"
	default:
		result.Stars, result.Description = 2, "Needs improvement"
	}
	return result
}

// defaultResult is the rating for a restaurant with no graded inspections.
func defaultResult() Result {
	return Result{
		Stars:           0,
		Grade:           grading.GradeNotAvailable,
		InspectionCount: 0,
		Description:     "No graded inspections available",
		AvgScore:        0,
	}
}
