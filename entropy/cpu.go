package entropy

import (
	"context"
	"encoding/binary"
	"time"
)

const (
	cpuIterations = 8
	cpuLoopCount  = 2000
)

// sink defeats dead-code elimination of the timing loop
var sink uint64

// CpuJitter measures the elapsed time of short busy loops and returns the
// raw nanosecond durations as bytes. The low-order bits wobble with scheduler
// and cache noise. This source never fails.
type CpuJitter struct{}

func NewCpuJitter() *CpuJitter {
	return &CpuJitter{}
}

func (c *CpuJitter) Name() string {
	return "cpu_timing_jitter"
}

func (c *CpuJitter) Collect(ctx context.Context) ([]byte, error) {
	buf := make([]byte, 0, cpuIterations*8)

	for range cpuIterations {
		t1 := time.Now()
		for i := range cpuLoopCount {
			sink += uint64(i)
		}
		elapsed := time.Since(t1)
		buf = binary.BigEndian.AppendUint64(buf, uint64(elapsed.Nanoseconds()))
	}

	return buf, nil
}
