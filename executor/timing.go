package executor

import (
	"sync/atomic"
	"time"
)

// Timing reports cumulative stage durations. Load, Decode and Process are
// summed across workers, so they can exceed wall time.
type Timing struct {
	Load    time.Duration `json:"load"`
	Decode  time.Duration `json:"decode"`
	Process time.Duration `json:"process"`
	// Wait is the time Run spent blocked on the prefetch queue.
	Wait time.Duration `json:"wait"`
}

type timing struct {
	load, decode, process, wait atomic.Int64
}

func (t *timing) snapshot() Timing {
	return Timing{
		Load:    time.Duration(t.load.Load()),
		Decode:  time.Duration(t.decode.Load()),
		Process: time.Duration(t.process.Load()),
		Wait:    time.Duration(t.wait.Load()),
	}
}
