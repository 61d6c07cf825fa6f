package systems

import (
	"runtime"
	"sync"

	"github.com/pthm-cable/arbor/growth"
)

// parallelThreshold is the minimum neuron count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 8

// GrowthJob is one neuron's growth work for a tick. Each job owns its axon
// and tree for the duration of the step.
type GrowthJob struct {
	Index    int // neuron index in the Environment
	Axon     *growth.AxonGrowth
	Tree     *growth.DendriticTree
	Soma     growth.Position
	Activity float32
}

// GrowthResult captures what a job did, applied after the parallel phase.
type GrowthResult struct {
	Moved    float32
	Branched bool
}

// workerScratch holds per-worker reusable buffers.
type workerScratch struct {
	factors []growth.GrowthFactor
}

// workChunk represents a range of jobs for a worker to process.
type workChunk struct {
	start, end int
}

// GrowthPool grows axons and trees across persistent workers. Results are
// written by job index, so the outcome does not depend on scheduling.
type GrowthPool struct {
	env     *Environment
	jobs    []GrowthJob
	results []GrowthResult
	dt      float32

	scratches  []workerScratch
	numWorkers int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

// NewGrowthPool creates a pool. workers <= 0 uses GOMAXPROCS.
func NewGrowthPool(workers int) *GrowthPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &GrowthPool{
		numWorkers: workers,
		scratches:  make([]workerScratch, workers),
		results:    make([]GrowthResult, 0, 64),
	}
}

// Workers returns the number of workers.
func (p *GrowthPool) Workers() int { return p.numWorkers }

// startWorkers launches persistent worker goroutines.
func (p *GrowthPool) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop signals all workers to exit and waits for them. The pool restarts
// lazily on the next Run.
func (p *GrowthPool) Stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *GrowthPool) worker(workerID int) {
	defer p.wg.Done()
	scratch := &p.scratches[workerID]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.computeChunk(chunk.start, chunk.end, scratch)
			p.doneChan <- struct{}{}
		}
	}
}

// Run grows every job by dt against env. The returned slice is reused by the
// next call.
func (p *GrowthPool) Run(env *Environment, jobs []GrowthJob, dt float32) []GrowthResult {
	n := len(jobs)
	p.env = env
	p.jobs = jobs
	p.dt = dt

	if cap(p.results) < n {
		p.results = make([]GrowthResult, n)
	}
	p.results = p.results[:n]
	clear(p.results)

	if n == 0 {
		return p.results
	}

	if n < parallelThreshold || p.numWorkers == 1 {
		p.computeChunk(0, n, &p.scratches[0])
	} else {
		p.computeParallel(n)
	}

	p.env = nil
	p.jobs = nil
	return p.results
}

// computeParallel dispatches work to the worker pool.
func (p *GrowthPool) computeParallel(n int) {
	if !p.running {
		p.startWorkers()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end}
		chunksDispatched++
	}

	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}

// computeChunk processes a range of jobs for a single worker.
func (p *GrowthPool) computeChunk(i0, i1 int, scratch *workerScratch) {
	for i := i0; i < i1; i++ {
		job := &p.jobs[i]
		res := &p.results[i]

		if job.Axon != nil {
			scratch.factors = p.env.AxonFactors(scratch.factors[:0], job.Index)
			res.Moved = job.Axon.Grow(scratch.factors, p.dt)
		}
		if job.Tree != nil {
			scratch.factors = p.env.TreeFactors(scratch.factors[:0], job.Index, job.Soma)
			res.Branched = job.Tree.Grow(scratch.factors, p.dt, job.Activity)
		}
	}
}
