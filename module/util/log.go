package util

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// LogProgressFunc adds to the progress. Safe for concurrent use; negative
// values are ignored.
type LogProgressFunc func(add int)

// LogProgress returns a function that accumulates progress towards total and
// logs a line at every tenth of the way.
func LogProgress(log zerolog.Logger, msg string, total int) LogProgressFunc {
	start := time.Now()
	var current atomic.Uint64
	var mu sync.Mutex

	logAt := func(value uint64) {
		mu.Lock()
		defer mu.Unlock()
		percentage := float64(100)
		if total > 0 {
			percentage = float64(value) / float64(total) * 100
		}
		log.Info().
			Uint64("current", value).
			Int("total", total).
			Str("elapsed", time.Since(start).Round(time.Second).String()).
			Msgf("%s progress %.1f%%", msg, percentage)
	}
	logAt(0)

	step := uint64(total) / 10
	if step == 0 {
		step = 1
	}

	return func(add int) {
		if add <= 0 {
			return
		}
		now := current.Add(uint64(add))
		before := now - uint64(add)
		if before/step != now/step {
			logAt(now)
		}
	}
}
