package pipeline

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/will-rowe/q2types/src/format"
)

// Job is one path to validate against a registered format
type Job struct {
	Format string
	Path   string
}

// Result is the outcome of a Job
type Result struct {
	Job
	Err     error
	Elapsed time.Duration
}

// theBoss is used to orchestrate the minions
type theBoss struct {
	registry    *format.Registry // formats are looked up here, it must be sealed
	level       format.Level     // the validation level for every job
	jobs        []Job            // the work, in input order
	results     []Result         // results land at their job's index
	minionQueue chan chan int    // idle minions park their input channel here
	wg          sync.WaitGroup   // one count per dispatched job
}

// ValidateAll validates the jobs across numProc minions and returns the results in input order
func ValidateAll(registry *format.Registry, jobs []Job, level format.Level, numProc int) []Result {
	if numProc < 1 {
		numProc = 1
	}
	boss := &theBoss{
		registry:    registry,
		level:       level,
		jobs:        jobs,
		results:     make([]Result, len(jobs)),
		minionQueue: make(chan chan int, numProc),
	}

	// launch the minions
	minions := make([]*minion, numProc)
	for i := 0; i < numProc; i++ {
		minions[i] = newMinion(i, boss)
		minions[i].start()
	}

	// hand each job to the next idle minion
	for i := range jobs {
		boss.wg.Add(1)
		input := <-boss.minionQueue
		input <- i
	}
	boss.wg.Wait()

	// close down the minions
	for _, minion := range minions {
		minion.finish()
	}
	return boss.results
}

// run validates one job, it is called by the minions
func (theBoss *theBoss) run(i int) {
	job := theBoss.jobs[i]
	start := time.Now()
	var err error
	if v, ok := theBoss.registry.Lookup(job.Format); ok {
		err = v.Validate(job.Path, theBoss.level)
	} else {
		err = errors.Errorf("no format is registered as %q", job.Format)
	}
	theBoss.results[i] = Result{Job: job, Err: err, Elapsed: time.Since(start)}
}
