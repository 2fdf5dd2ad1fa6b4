package analysis

import (
	"fmt"
	"sync"

	"github.com/apex-data/brake.report/internal/config"
	"github.com/apex-data/brake.report/internal/telemetry"
)

// Pipeline runs the full segment/analyze/aggregate chain for one lap and
// memoizes the result keyed by (lap id, samples version). Replacing a lap's
// samples bumps the version, so stale summaries are never served.
type Pipeline struct {
	cfg *config.TuningConfig

	mu    sync.Mutex
	cache map[cacheKey]*LapSummary
}

type cacheKey struct {
	lapID   string
	version int64
}

// NewPipeline returns a Pipeline using the given tuning. A nil cfg uses
// all defaults.
func NewPipeline(cfg *config.TuningConfig) *Pipeline {
	if cfg == nil {
		cfg = config.DefaultTuning()
	}
	return &Pipeline{
		cfg:   cfg,
		cache: make(map[cacheKey]*LapSummary),
	}
}

// Config returns the tuning the pipeline runs with.
func (p *Pipeline) Config() *config.TuningConfig { return p.cfg }

// Analyze produces the LapSummary for a lap, reusing a cached result when
// the lap's samples have not changed. The returned summary is shared;
// callers must not mutate it.
func (p *Pipeline) Analyze(lap *telemetry.Lap) (*LapSummary, error) {
	key := cacheKey{lapID: lap.ID, version: lap.SamplesVersion}

	p.mu.Lock()
	if sum, ok := p.cache[key]; ok {
		p.mu.Unlock()
		return sum, nil
	}
	p.mu.Unlock()

	sum, err := p.analyze(lap)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[key] = sum
	p.mu.Unlock()
	return sum, nil
}

func (p *Pipeline) analyze(lap *telemetry.Lap) (*LapSummary, error) {
	det := telemetry.ZoneDetection{
		BrakeOn:     p.cfg.GetBrakeOnPct(),
		BrakeOff:    p.cfg.GetBrakeOffPct(),
		MinDuration: p.cfg.GetMinZoneDurationS(),
		MinOffDwell: p.cfg.GetMinOffDwellS(),
	}
	zones, err := telemetry.Segment(lap.Samples, det)
	if err != nil {
		return nil, fmt.Errorf("segmenting lap %s: %w", lap.ID, err)
	}

	metrics := make([]ZoneMetrics, 0, len(zones))
	for _, z := range zones {
		sub := lap.Samples[z.Start : z.End+1]
		corner := telemetry.CornerFor(lap.SectorMarkers, sub[0].Distance)
		metrics = append(metrics, AnalyzeZone(sub, corner, p.cfg))
	}

	sum := AggregateLap(lap, metrics, p.cfg)
	return &sum, nil
}

// Invalidate drops every cached summary of a lap, regardless of version.
func (p *Pipeline) Invalidate(lapID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key := range p.cache {
		if key.lapID == lapID {
			delete(p.cache, key)
		}
	}
}

// BenchmarksFor converts a lap's analyzed zones into leaderboard entries,
// one per zone.
func BenchmarksFor(lap *telemetry.Lap, sum *LapSummary) []BenchmarkEntry {
	entries := make([]BenchmarkEntry, 0, len(sum.Zones))
	for _, z := range sum.Zones {
		entries = append(entries, BenchmarkEntry{
			LapID:       lap.ID,
			UserID:      lap.UserID,
			Track:       lap.Track,
			Corner:      z.Corner,
			BrakePeak:   z.BrakePeak,
			DecelAvg:    z.DecelAvg,
			TrailRatio:  z.TrailRatio,
			ABSRatio:    z.ABSRatio,
			Score:       BrakingScore(z.BrakePeak, z.DecelAvg, z.TrailRatio, z.ABSRatio),
			SubmittedAt: lap.CreatedAt,
		})
	}
	return entries
}
