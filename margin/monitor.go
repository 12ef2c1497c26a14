package margin

import (
	"github.com/jasonlvhit/gocron"
)

// Monitor drives the periodic liquidation pass. The cadence is a
// configuration parameter; shorter intervals trade CPU for liquidation
// latency.
type Monitor struct {
	engine    *Engine
	scheduler *gocron.Scheduler
	stopped   chan bool
}

func NewMonitor(engine *Engine) *Monitor {
	return &Monitor{engine: engine}
}

func (m *Monitor) Start(tickSeconds uint64) {
	m.scheduler = gocron.NewScheduler()
	m.scheduler.Every(tickSeconds).Seconds().Do(m.engine.LiquidationPass)
	m.stopped = m.scheduler.Start()
}

func (m *Monitor) Stop() {
	if m.stopped != nil {
		m.stopped <- true
	}
}
