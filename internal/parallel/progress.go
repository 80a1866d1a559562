package parallel

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// DefaultProgressInterval is the minimum time between progress reports.
const DefaultProgressInterval = time.Second

// Progress is a snapshot of a run's advancement.
type Progress struct {
	Done  uint64
	Total uint64
}

// Percent returns Done/Total in [0, 100].
func (p Progress) Percent() int {
	if p.Total == 0 {
		return 100
	}
	return int(min(p.Done*100/p.Total, 100))
}

// ProgressReporter counts processed tuples and forwards a report at most
// once per interval. It is safe for concurrent use by workers.
type ProgressReporter struct {
	total     uint64
	done      atomic.Uint64
	sometimes *rate.Sometimes
	report    func(Progress)
}

// NewProgressReporter creates a reporter for total tuples. An interval of 0
// uses DefaultProgressInterval. A nil report function discards reports.
func NewProgressReporter(total uint64, interval time.Duration, report func(Progress)) *ProgressReporter {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	return &ProgressReporter{
		total:     total,
		sometimes: &rate.Sometimes{Interval: interval},
		report:    report,
	}
}

// Add records n more processed tuples.
func (p *ProgressReporter) Add(n uint64) {
	done := p.done.Add(n)
	if p.report == nil {
		return
	}
	p.sometimes.Do(func() {
		p.report(Progress{Done: done, Total: p.total})
	})
}

// Current returns the progress so far without reporting it.
func (p *ProgressReporter) Current() Progress {
	return Progress{Done: p.done.Load(), Total: p.total}
}
