package reports

import (
	"sort"
	"time"

	"github.com/yungbote/linguapath-backend/internal/domain"
)

// Score bucket labels, in ascending order.
const (
	Bucket0To20   = "0-20"
	Bucket21To40  = "21-40"
	Bucket41To60  = "41-60"
	Bucket61To80  = "61-80"
	Bucket81To100 = "81-100"
)

var bucketLabels = []string{Bucket0To20, Bucket21To40, Bucket41To60, Bucket61To80, Bucket81To100}

// Percentage is completed*100/total with a zero total mapped to 0.
func Percentage(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) * 100.0 / float64(total)
}

// MeanPositive averages the strictly positive values; no positive value yields 0.
func MeanPositive(values []float64) float64 {
	var sum float64
	n := 0
	for _, v := range values {
		if v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// BucketFor places a score in its distribution bucket. Scores below zero land in
// the lowest bucket and scores above 100 in the highest, so the buckets cover
// every integer.
func BucketFor(score int) string {
	switch {
	case score <= 20:
		return Bucket0To20
	case score <= 40:
		return Bucket21To40
	case score <= 60:
		return Bucket41To60
	case score <= 80:
		return Bucket61To80
	default:
		return Bucket81To100
	}
}

func NewScoreDistribution() domain.ScoreDistribution {
	d := make(domain.ScoreDistribution, len(bucketLabels))
	for _, l := range bucketLabels {
		d[l] = 0
	}
	return d
}

// Distribution counts scores per bucket; all five buckets are always present.
func Distribution(scores []int) domain.ScoreDistribution {
	d := NewScoreDistribution()
	for _, s := range scores {
		d[BucketFor(s)]++
	}
	return d
}

// attemptStats is the leaf rollup of one (user, subconcept) attempt list.
type attemptStats struct {
	count   int
	highest int
	first   *time.Time
	last    *time.Time
}

// summarizeAttempts derives count, best score, first start and last end. The
// best score is independent of attempt order.
func summarizeAttempts(attempts []*domain.Attempt) attemptStats {
	var st attemptStats
	for _, a := range attempts {
		if a == nil {
			continue
		}
		if st.count == 0 || a.Score > st.highest {
			st.highest = a.Score
		}
		st.count++
		st.first = minTime(st.first, ptrTime(a.StartedAt))
		st.last = maxTime(st.last, ptrTime(a.FinishedAt()))
	}
	return st
}

func ptrTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func minTime(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.Before(*a):
		return b
	default:
		return a
	}
}

func maxTime(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.After(*a):
		return b
	default:
		return a
	}
}

func toViews(attempts []*domain.Attempt) []domain.AttemptView {
	out := make([]domain.AttemptView, 0, len(attempts))
	for _, a := range attempts {
		if a == nil {
			continue
		}
		var ended *time.Time
		if a.EndedAt != nil {
			e := a.EndedAt.UTC()
			ended = &e
		}
		out = append(out, domain.AttemptView{
			AttemptID:  a.ID.String(),
			SessionID:  a.SessionID,
			StartedAt:  a.StartedAt.UTC(),
			EndedAt:    ended,
			Score:      a.Score,
			Successful: a.Successful,
		})
	}
	return out
}

// sortAttempts orders by start time, then creation time for equal starts.
func sortAttempts(rows []*domain.Attempt) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.StartedAt.Equal(b.StartedAt) {
			return a.StartedAt.Before(b.StartedAt)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
