package verify

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Task is a unit of work: cases [From, To) of one property.
type Task struct {
	Prop     *Property
	From, To int64
}

// tally accumulates the outcome of one property across tasks.
type tally struct {
	failures atomic.Int64
	elapsed  atomic.Int64

	mu      sync.Mutex
	first   int64
	example string
}

func (t *tally) fail(i int64, detail string) {
	t.failures.Add(1)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.example == "" || i < t.first {
		t.first = i
		t.example = detail
	}
}

// WorkerPool manages parallel property checkers.
type WorkerPool struct {
	NumWorkers int
	checked    atomic.Int64
	failed     atomic.Int64
	log        *logrus.Logger
}

// NewWorkerPool creates a pool with the given number of workers.
func NewWorkerPool(numWorkers int, log *logrus.Logger) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &WorkerPool{NumWorkers: numWorkers, log: log}
}

// Stats returns the number of cases checked and failed so far.
func (wp *WorkerPool) Stats() (checked, failed int64) {
	return wp.checked.Load(), wp.failed.Load()
}

// RunTasks distributes tasks across workers and returns a tally per
// property name.
func (wp *WorkerPool) RunTasks(tasks []Task) map[string]*tally {
	tallies := make(map[string]*tally)
	for _, t := range tasks {
		if _, ok := tallies[t.Prop.Name]; !ok {
			tallies[t.Prop.Name] = &tally{}
		}
	}

	ch := make(chan Task, len(tasks))
	for _, t := range tasks {
		ch <- t
	}
	close(ch)

	var wg sync.WaitGroup
	for i := 0; i < wp.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range ch {
				wp.processTask(task, tallies[task.Prop.Name])
			}
		}()
	}
	wg.Wait()
	return tallies
}

func (wp *WorkerPool) processTask(task Task, t *tally) {
	start := time.Now()
	for i := task.From; i < task.To; i++ {
		wp.checked.Add(1)
		if detail, ok := task.Prop.Check(i); !ok {
			wp.failed.Add(1)
			t.fail(i, detail)
			wp.log.WithFields(logrus.Fields{
				"property": task.Prop.Name,
				"case":     i,
			}).Debug(detail)
		}
	}
	t.elapsed.Add(int64(time.Since(start)))
}
