package reports

import "time"

// Report levels used as metric labels.
const (
	LevelProgram  = "program"
	LevelStage    = "stage"
	LevelUnit     = "unit"
	LevelAttempts = "attempts"
	LevelConcepts = "concepts"
	LevelUserData = "userdata"
)

// CacheMetrics receives cache and invalidation observations.
type CacheMetrics interface {
	CacheHit(level string)
	CacheMiss(level string)
	CacheBypass(level string)
	ObserveBuild(level string, d time.Duration)
	Evicted(n int)
	EvictionFailed(stage string)
}

type nopMetrics struct{}

func (nopMetrics) CacheHit(string)                    {}
func (nopMetrics) CacheMiss(string)                   {}
func (nopMetrics) CacheBypass(string)                 {}
func (nopMetrics) ObserveBuild(string, time.Duration) {}
func (nopMetrics) Evicted(int)                        {}
func (nopMetrics) EvictionFailed(string)              {}
