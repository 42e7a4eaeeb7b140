// Package verify checks the flag engine and interpreter against their
// defining properties over exhaustive input spaces.
package verify

import (
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oisee/z80emu/pkg/result"
)

// ChunkSize is the number of cases per task.
const ChunkSize = 4096

// Config holds self-test configuration.
type Config struct {
	NumWorkers int      // Number of parallel workers (defaults to NumCPU)
	Only       []string // Property names to run; all if empty
	Verbose    bool     // Log progress at info level
	Logger     *logrus.Logger
}

// Property is a predicate over case indices 0..Cases-1. Check returns a
// description of the input when the case fails.
type Property struct {
	Name  string
	Desc  string
	Cases int64
	Check func(i int64) (detail string, ok bool)
}

// Run checks the selected properties and returns one outcome per property.
func Run(cfg Config) (*result.Table, error) {
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = runtime.NumCPU()
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	props, err := selectProperties(cfg.Only)
	if err != nil {
		return nil, err
	}

	var tasks []Task
	for _, p := range props {
		for from := int64(0); from < p.Cases; from += ChunkSize {
			to := min(from+ChunkSize, p.Cases)
			tasks = append(tasks, Task{Prop: p, From: from, To: to})
		}
	}
	if cfg.Verbose {
		log.WithFields(logrus.Fields{
			"properties": len(props),
			"tasks":      len(tasks),
			"workers":    cfg.NumWorkers,
		}).Info("Starting self-test")
	}

	pool := NewWorkerPool(cfg.NumWorkers, log)
	start := time.Now()
	tallies := pool.RunTasks(tasks)

	table := result.NewTable()
	for _, p := range props {
		t := tallies[p.Name]
		table.Add(result.Outcome{
			Property: p.Name,
			Cases:    p.Cases,
			Failures: t.failures.Load(),
			Example:  t.example,
			Elapsed:  time.Duration(t.elapsed.Load()),
		})
	}

	if cfg.Verbose {
		checked, failed := pool.Stats()
		log.WithFields(logrus.Fields{
			"checked": checked,
			"failed":  failed,
			"elapsed": time.Since(start).Round(time.Millisecond),
		}).Info("Self-test finished")
	}
	return table, nil
}

func selectProperties(only []string) ([]*Property, error) {
	all := Properties()
	if len(only) == 0 {
		return all, nil
	}
	byName := make(map[string]*Property, len(all))
	for _, p := range all {
		byName[p.Name] = p
	}
	var props []*Property
	for _, name := range only {
		p, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown property %q", name)
		}
		props = append(props, p)
	}
	return props, nil
}
