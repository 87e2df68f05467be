package jobs

import (
	"context"
	"log"
	"sync"

	"github.com/ErikING-Chile/fast-check/pkg/models"
)

// Start launches the worker pool and requeues any jobs that were still
// queued when the process last stopped. It returns once the pool is running;
// workers drain until ctx is cancelled.
func (c *Controller) Start(ctx context.Context) {
	requeued := 0
	for _, job := range c.store.GetAllJobs() {
		if job.Status != models.JobStatusQueued {
			continue
		}
		select {
		case c.queue <- job.ID:
			requeued++
		default:
			log.Printf("Queue full while requeueing job %s, leaving it queued", job.ID)
		}
	}
	if requeued > 0 {
		log.Printf("Requeued %d pending jobs", requeued)
	}

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			c.runWorker(ctx, worker)
		}(i + 1)
	}
	go func() {
		wg.Wait()
		close(c.done)
	}()
}

// Wait blocks until all workers have exited after context cancellation
func (c *Controller) Wait() {
	<-c.done
}

func (c *Controller) runWorker(ctx context.Context, worker int) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-c.queue:
			c.execute(ctx, worker, id)
		}
	}
}

// execute runs one job to a terminal state. Any pipeline error fails the job;
// the worker itself never dies on a bad job.
func (c *Controller) execute(ctx context.Context, worker int, id string) {
	if err := c.store.StartJob(id); err != nil {
		log.Printf("Worker %d: cannot start job %s: %v", worker, id, err)
		return
	}
	job, err := c.store.GetJob(id)
	if err != nil {
		log.Printf("Worker %d: job %s disappeared after start: %v", worker, id, err)
		return
	}
	log.Printf("Worker %d: running job %s (%s)", worker, id, job.VideoPath)

	report := func(fraction float64, step, logLine string) {
		if err := c.store.UpdateProgress(id, fraction, step, logLine); err != nil {
			log.Printf("Worker %d: progress update for job %s rejected: %v", worker, id, err)
		}
	}

	result, err := c.runner.Run(ctx, job, report)
	if err != nil {
		log.Printf("Worker %d: job %s failed: %v", worker, id, err)
		if ferr := c.store.FailJob(id, err.Error()); ferr != nil {
			log.Printf("Worker %d: cannot fail job %s: %v", worker, id, ferr)
		}
		return
	}

	if err := c.store.CompleteJob(id, result); err != nil {
		log.Printf("Worker %d: cannot complete job %s: %v", worker, id, err)
		return
	}
	log.Printf("Worker %d: job %s completed with %d segments, %d claims",
		worker, id, len(result.Transcript.Segments), len(result.Claims))
}
