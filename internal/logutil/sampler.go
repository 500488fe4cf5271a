package logutil

import (
	"time"

	"github.com/rs/zerolog"
)

// LevelSampler drops events below Level. Warnings, when set, throttles warn
// events: a single trace can report the same anomaly for every frame.
type LevelSampler struct {
	Level    zerolog.Level
	Warnings zerolog.Sampler
}

func newLevelSampler(lvl zerolog.Level) LevelSampler {
	return LevelSampler{
		Level:    lvl,
		Warnings: &zerolog.BurstSampler{Burst: 100, Period: time.Second},
	}
}

func (l LevelSampler) Sample(lvl zerolog.Level) bool {
	if lvl < l.Level {
		return false
	}
	if lvl == zerolog.WarnLevel && l.Warnings != nil {
		return l.Warnings.Sample(lvl)
	}
	return true
}
