package obs

import (
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/montanaflynn/stats"
)

// Durations keeps a bounded window of recent samples for one operation and
// summarises them as percentiles.
type Durations struct {
	name string
	max  int

	mu      sync.Mutex
	samples []float64 // milliseconds, ring buffer
	next    int
	count   uint64
	bytes   uint64
}

func NewDurations(name string, window int) *Durations {
	if window < 1 {
		window = 1
	}
	return &Durations{name: name, max: window, samples: make([]float64, 0, window)}
}

// Observe records one sample and the size of what it produced.
func (d *Durations) Observe(dur time.Duration, size int) {
	ms := float64(dur) / float64(time.Millisecond)

	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.samples) < d.max {
		d.samples = append(d.samples, ms)
	} else {
		d.samples[d.next] = ms
	}
	d.next = (d.next + 1) % d.max
	d.count++
	if size > 0 {
		d.bytes += uint64(size)
	}
}

type Summary struct {
	Name  string  `json:"name"`
	Count uint64  `json:"count"`
	P50   float64 `json:"p50_ms"`
	P95   float64 `json:"p95_ms"`
	Max   float64 `json:"max_ms"`
	Bytes string  `json:"bytes"`
}

func (d *Durations) Summary() Summary {
	d.mu.Lock()
	window := stats.Float64Data(append([]float64(nil), d.samples...))
	s := Summary{Name: d.name, Count: d.count, Bytes: humanize.Bytes(d.bytes)}
	d.mu.Unlock()

	if len(window) == 0 {
		return s
	}
	s.P50, _ = window.Percentile(50)
	s.P95, _ = window.Percentile(95)
	s.Max, _ = window.Max()
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("op=%s count=%d p50=%.1fms p95=%.1fms max=%.1fms bytes=%s",
		s.Name, s.Count, s.P50, s.P95, s.Max, s.Bytes)
}
