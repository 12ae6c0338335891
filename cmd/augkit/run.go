package main

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/augkit/executor"
	"github.com/kbukum/augkit/logger"
)

// epochStats summarizes one completed epoch.
type epochStats struct {
	Epoch    int           `json:"epoch"`
	Batches  int           `json:"batches"`
	Samples  int           `json:"samples"`
	Padded   int           `json:"padded"`
	Duration time.Duration `json:"duration"`
}

// runStats is the state of one run across epochs. It is shared with the
// status server, so every access goes through its methods.
type runStats struct {
	mu      sync.Mutex
	started time.Time
	epochs  []epochStats
	labels  map[int]int
	current epochStats
}

func newRunStats() *runStats {
	return &runStats{started: time.Now(), labels: make(map[int]int)}
}

func (s *runStats) beginEpoch(epoch int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = epochStats{Epoch: epoch}
}

// addBatch counts the real samples of b; padded slots are excluded from
// the label histogram.
func (s *runStats) addBatch(b *executor.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Batches++
	s.current.Samples += b.Size() - b.Padded
	s.current.Padded += b.Padded
	for _, l := range b.Labels[:b.Size()-b.Padded] {
		s.labels[l]++
	}
}

func (s *runStats) endEpoch(d time.Duration) epochStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Duration = d
	s.epochs = append(s.epochs, s.current)
	return s.current
}

// runSummary is the JSON view of a run.
type runSummary struct {
	Elapsed     time.Duration   `json:"elapsed"`
	Epochs      []epochStats    `json:"epochs"`
	Current     epochStats      `json:"current"`
	Batches     int             `json:"batches"`
	Samples     int             `json:"samples"`
	LabelCounts map[int]int     `json:"label_counts"`
	Pipeline    *executor.Stats `json:"pipeline,omitempty"`
}

func (s *runStats) summary() runSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := runSummary{
		Elapsed:     time.Since(s.started),
		Epochs:      append([]epochStats(nil), s.epochs...),
		Current:     s.current,
		LabelCounts: make(map[int]int, len(s.labels)),
	}
	for _, e := range s.epochs {
		out.Batches += e.Batches
		out.Samples += e.Samples
	}
	for l, n := range s.labels {
		out.LabelCounts[l] = n
	}
	return out
}

// runEpochs drives p through the given number of epochs.
func runEpochs(ctx context.Context, p *executor.Pipeline, epochs int, stats *runStats, log *logger.Logger) error {
	it := executor.NewIterator(p)
	for e := 0; e < epochs; e++ {
		if e > 0 {
			if err := it.Reset(ctx); err != nil {
				return err
			}
		}

		start := time.Now()
		stats.beginEpoch(p.Epoch())
		for b, err := range it.All(ctx) {
			if err != nil {
				return err
			}
			stats.addBatch(b)
		}

		es := stats.endEpoch(time.Since(start))
		log.Info("epoch complete", map[string]interface{}{
			logger.FieldEpoch: es.Epoch,
			"batches":         es.Batches,
			"samples":         es.Samples,
			"padded":          es.Padded,
			"duration":        es.Duration.String(),
		})
	}
	return nil
}
