package blink

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/mrsinham/blinkforge/internal/config"
	"github.com/mrsinham/blinkforge/internal/logging"
	"github.com/mrsinham/blinkforge/internal/sampling"
)

// Options controls a simulation run.
type Options struct {
	// Seed overrides the config seed when non-zero.
	Seed int64
	// SeedSource is hashed into a seed when neither Seed nor the config
	// provides one, typically the output path.
	SeedSource string
	// Workers overrides the config worker count when non-zero.
	Workers int
	// ProgressCallback is called after each generated event.
	ProgressCallback func(completed, total int)
	// Logger receives run diagnostics (nil = discard).
	Logger *slog.Logger
}

// Result is a finished simulation.
type Result struct {
	Table   *Table
	Plan    Plan
	Seed    int64
	Workers int
	Disk    sampling.Disk
}

// task is everything a worker needs to produce one event.
type task struct {
	slot Slot
	seed uint64
}

// Simulate validates cfg, schedules the blink events and generates them on a
// worker pool. It returns only once every event has been written.
func Simulate(cfg *config.Config, opts Options) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	gen, err := NewGenerator(cfg)
	if err != nil {
		return nil, fmt.Errorf("build generator: %w", err)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Seed
	}
	if seed == 0 {
		seed = sampling.SeedFromString(opts.SeedSource)
		logger.Info("derived seed", "source", opts.SeedSource, "seed", seed)
	}

	plan := Schedule(cfg.Frames, cfg.ExpectedBlinks())
	slots := plan.Slots()
	logger.Info("simulation plan",
		"frames", plan.Frames,
		"blinks", plan.Blinks,
		"frames_per_blink", plan.FramesPerBlink,
		"scheduled", len(slots),
		"seed", seed)

	// Phase 1: precompute tasks with their own seeds
	tasks := make([]task, len(slots))
	for i, s := range slots {
		tasks[i] = task{slot: s, seed: sampling.TaskSeed(seed, s.ID)}
	}

	table := NewTable(plan.Blinks)

	numWorkers := opts.Workers
	if numWorkers == 0 {
		numWorkers = cfg.Workers
	}
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	// Don't use more workers than tasks
	if numWorkers > len(tasks) {
		numWorkers = len(tasks)
	}

	// Phase 2: generate in parallel, each worker writing its own slots
	if len(tasks) > 0 {
		generate(gen, table, tasks, numWorkers, opts.ProgressCallback, logger)
	}

	if n := table.Len() - 1; n != table.Capacity() {
		return nil, fmt.Errorf("simulation filled %d of %d event slots", n, table.Capacity())
	}
	logger.Info("simulation complete", "events", table.Len()-1, "workers", numWorkers)

	return &Result{
		Table:   table,
		Plan:    plan,
		Seed:    seed,
		Workers: numWorkers,
		Disk:    gen.Disk(),
	}, nil
}

func generate(gen *Generator, table *Table, tasks []task, numWorkers int, progress func(int, int), logger *slog.Logger) {
	taskChan := make(chan task, len(tasks))
	doneChan := make(chan int, len(tasks))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range taskChan {
				rng := sampling.NewRand(t.seed)
				table.Set(gen.Generate(t.slot.ID, t.slot.Frame, rng))
				doneChan <- t.slot.ID
			}
		}()
	}

	for _, t := range tasks {
		taskChan <- t
	}
	close(taskChan)

	go func() {
		wg.Wait()
		close(doneChan)
	}()

	// doneChan closes only after every worker returned, so the table is
	// complete once this loop ends.
	completed := 0
	for range doneChan {
		completed++
		if progress != nil {
			progress(completed, len(tasks))
		}
		if completed%100 == 0 || completed == len(tasks) {
			logger.Debug("progress", "completed", completed, "total", len(tasks))
		}
	}
}
