package reports

import (
	"testing"
	"time"

	"github.com/yungbote/linguapath-backend/internal/domain"
)

func TestPercentage(t *testing.T) {
	if got := Percentage(0, 0); got != 0 {
		t.Fatalf("Percentage(0,0): want=0 got=%v", got)
	}
	if got := Percentage(3, 0); got != 0 {
		t.Fatalf("Percentage(3,0): want=0 got=%v", got)
	}
	if got := Percentage(1, 4); got != 25 {
		t.Fatalf("Percentage(1,4): want=25 got=%v", got)
	}
}

func TestMeanPositiveIgnoresNonPositive(t *testing.T) {
	if got := MeanPositive([]float64{0, 8, 0, 4, -2}); got != 6 {
		t.Fatalf("MeanPositive: want=6 got=%v", got)
	}
	if got := MeanPositive(nil); got != 0 {
		t.Fatalf("MeanPositive(nil): want=0 got=%v", got)
	}
}

func TestDistributionBuckets(t *testing.T) {
	got := Distribution([]int{5, 25, 55, 85, 95})
	want := domain.ScoreDistribution{"0-20": 1, "21-40": 1, "41-60": 1, "61-80": 0, "81-100": 2}
	if len(got) != len(want) {
		t.Fatalf("Distribution buckets: want=%v got=%v", want, got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("Distribution[%s]: want=%d got=%d", k, v, got[k])
		}
	}
}

func TestDistributionPartitionsEveryScore(t *testing.T) {
	var scores []int
	for s := -5; s <= 120; s++ {
		scores = append(scores, s)
	}
	d := Distribution(scores)
	total := 0
	for _, n := range d {
		total += n
	}
	if total != len(scores) {
		t.Fatalf("Distribution total: want=%d got=%d", len(scores), total)
	}
	for _, edge := range []struct {
		score int
		want  string
	}{{20, "0-20"}, {21, "21-40"}, {40, "21-40"}, {41, "41-60"}, {60, "41-60"}, {61, "61-80"}, {80, "61-80"}, {81, "81-100"}, {100, "81-100"}} {
		if got := BucketFor(edge.score); got != edge.want {
			t.Fatalf("BucketFor(%d): want=%s got=%s", edge.score, edge.want, got)
		}
	}
}

func TestSummarizeAttemptsOrderIndependent(t *testing.T) {
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	end := func(d time.Duration) *time.Time { e := base.Add(d); return &e }
	a := []*domain.Attempt{
		{StartedAt: base.Add(2 * time.Hour), EndedAt: end(3 * time.Hour), Score: 3},
		{StartedAt: base, EndedAt: end(time.Hour), Score: 9},
		{StartedAt: base.Add(4 * time.Hour), Score: 5},
	}
	reversed := []*domain.Attempt{a[2], a[1], a[0]}

	for _, in := range [][]*domain.Attempt{a, reversed} {
		st := summarizeAttempts(in)
		if st.count != 3 || st.highest != 9 {
			t.Fatalf("summarizeAttempts: want count=3 highest=9 got count=%d highest=%d", st.count, st.highest)
		}
		if st.first == nil || !st.first.Equal(base) {
			t.Fatalf("first attempt: want=%v got=%v", base, st.first)
		}
		// the attempt without an end counts at its start
		if st.last == nil || !st.last.Equal(base.Add(4*time.Hour)) {
			t.Fatalf("last attempt: want=%v got=%v", base.Add(4*time.Hour), st.last)
		}
	}
}
