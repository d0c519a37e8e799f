package pipeline

import (
	"log"
	"sync"
)

// RunRequest asks the runner to process one queued job.
type RunRequest struct {
	JobID     string
	GalleryID string
}

// Runner owns the background workers that drain queued processing jobs.
// Requests are deduplicated per gallery so double-submitting a gallery
// while its run is still pending is a no-op.
type Runner struct {
	Orchestrator *Orchestrator
	JobQueue     chan RunRequest
	Wg           sync.WaitGroup
	StopChan     chan struct{}
	Pending      map[string]bool
	Mutex        sync.Mutex
}

func NewRunner(orc *Orchestrator, queueSize, numWorkers int) *Runner {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}

	r := &Runner{
		Orchestrator: orc,
		JobQueue:     make(chan RunRequest, queueSize),
		StopChan:     make(chan struct{}),
		Pending:      make(map[string]bool),
	}

	r.Wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go r.worker(i)
	}
	log.Printf("pipeline: started %d runner worker(s) with queue size %d", numWorkers, queueSize)

	return r
}

func (r *Runner) worker(id int) {
	defer r.Wg.Done()
	log.Printf("pipeline: runner worker %d started", id)
	for {
		select {
		case req, ok := <-r.JobQueue:
			if !ok {
				log.Printf("pipeline: runner worker %d stopping: job queue closed", id)
				return
			}
			log.Printf("pipeline: worker %d picked up job %s (gallery %s)", id, req.JobID, req.GalleryID)
			r.Orchestrator.Run(req.JobID)

			r.Mutex.Lock()
			delete(r.Pending, req.GalleryID)
			r.Mutex.Unlock()

		case <-r.StopChan:
			log.Printf("pipeline: runner worker %d stopping: stop signal received", id)
			return
		}
	}
}

// Enqueue queues a run request. It returns false when the gallery already
// has a pending or running request, or when the queue is full.
func (r *Runner) Enqueue(req RunRequest) bool {
	r.Mutex.Lock()
	if r.Pending[req.GalleryID] {
		r.Mutex.Unlock()
		log.Printf("pipeline: gallery %s already has a pending run, skipping queue", req.GalleryID)
		return false
	}
	r.Pending[req.GalleryID] = true
	r.Mutex.Unlock()

	select {
	case r.JobQueue <- req:
		return true
	default:
		r.Mutex.Lock()
		delete(r.Pending, req.GalleryID)
		r.Mutex.Unlock()
		log.Printf("pipeline: ERROR job queue full, dropping run request for job %s", req.JobID)
		return false
	}
}

// Stop signals the workers and waits for in-flight runs to finish.
func (r *Runner) Stop() {
	log.Println("pipeline: stopping runner workers...")
	close(r.StopChan)
	r.Wg.Wait()
	log.Println("pipeline: all runner workers stopped")
}
