package build

import (
	"sync"
	"time"
)

// BuildMetrics tracks build counts and timings across rebuilds.
type BuildMetrics struct {
	TotalBuilds      int64
	SuccessfulBuilds int64
	FailedBuilds     int64
	PagesWritten     int64
	PagesSkipped     int64
	AverageDuration  time.Duration
	TotalDuration    time.Duration
	LastBuild        time.Time
	mutex            sync.RWMutex
}

// NewBuildMetrics creates a new build metrics tracker
func NewBuildMetrics() *BuildMetrics {
	return &BuildMetrics{}
}

// RecordBuild records one finished build. A nil result counts as a failure.
func (bm *BuildMetrics) RecordBuild(result *Result, err error) {
	bm.mutex.Lock()
	defer bm.mutex.Unlock()

	bm.TotalBuilds++
	bm.LastBuild = time.Now()

	if err != nil || result == nil {
		bm.FailedBuilds++
	} else {
		bm.SuccessfulBuilds++
		bm.PagesWritten += int64(len(result.Pages))
		bm.PagesSkipped += int64(len(result.Skipped))
		bm.TotalDuration += result.Duration
	}

	if bm.SuccessfulBuilds > 0 {
		bm.AverageDuration = bm.TotalDuration / time.Duration(bm.SuccessfulBuilds)
	}
}

// GetSnapshot returns a snapshot of current metrics
func (bm *BuildMetrics) GetSnapshot() BuildMetrics {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()
	return BuildMetrics{
		TotalBuilds:      bm.TotalBuilds,
		SuccessfulBuilds: bm.SuccessfulBuilds,
		FailedBuilds:     bm.FailedBuilds,
		PagesWritten:     bm.PagesWritten,
		PagesSkipped:     bm.PagesSkipped,
		AverageDuration:  bm.AverageDuration,
		TotalDuration:    bm.TotalDuration,
		LastBuild:        bm.LastBuild,
	}
}

// GetSuccessRate returns the success rate as a percentage
func (bm *BuildMetrics) GetSuccessRate() float64 {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()

	if bm.TotalBuilds == 0 {
		return 0.0
	}

	return float64(bm.SuccessfulBuilds) / float64(bm.TotalBuilds) * 100.0
}
