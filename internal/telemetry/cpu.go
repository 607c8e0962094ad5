package telemetry

import (
	stderrors "errors"

	"github.com/rileyhilliard/pfdash/internal/gauge"
	"github.com/rileyhilliard/pfdash/internal/sysctl"
)

// cpIdle is the index of CP_IDLE in kern.cp_time.
const cpIdle = 4

// CPU tracks aggregate CPU time from kern.cp_time.
type CPU struct {
	total gauge.Pair[uint64]
	idle  gauge.Pair[uint64]
}

// Update reads kern.cp_time, a variable-length array of unsigned longs that
// runs to the end of the stream.
func (c *CPU) Update(d *sysctl.Decoder) error {
	var total, idle uint64
	for i := 0; ; i++ {
		v, err := d.Ulong()
		if stderrors.Is(err, sysctl.ErrEnd) {
			break
		}
		if err != nil {
			return err
		}
		total += v
		if i == cpIdle {
			idle = v
		}
	}

	c.total.Push(total)
	c.idle.Push(idle)
	return nil
}

// UsagePercent returns the share of non-idle time since the previous update.
// It's absent until two samples exist or when no time elapsed.
func (c *CPU) UsagePercent() (float64, bool) {
	dTotal, ok := c.total.Delta()
	if !ok || dTotal == 0 {
		return 0, false
	}
	dIdle, _ := c.idle.Delta()
	busy := gauge.Sub(dTotal, dIdle)
	return float64(busy) * 100 / float64(dTotal), true
}
