package engine

import (
	"math"

	"github.com/uptimer-dev/uptimer/internal/domain/heartbeat"
	"github.com/uptimer-dev/uptimer/internal/domain/monitor"
)

// Uptime is the plain passing/total ratio over a heartbeat window, rounded
// to whole percent. Not a time-weighted availability metric. Empty input is
// 0, never a division by zero.
func Uptime(hbs []*heartbeat.Heartbeat) int {
	total := len(hbs)
	if total == 0 {
		return 0
	}
	down := 0
	for _, hb := range hbs {
		if hb.Status == monitor.StatusDown {
			down++
		}
	}
	return int(math.Round(float64(total-down) / float64(total) * 100))
}
