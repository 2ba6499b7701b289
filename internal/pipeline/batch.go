package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BatchResult aggregates the per-file outcomes of one batch run, keyed by
// input path so that inputs sharing a basename never collide. Failures are
// isolated: one broken file never stops the rest of the batch.
type BatchResult struct {
	Files    map[string]*FileResult
	Duration time.Duration
}

// Succeeded counts files that reached a successful terminal state, DONE or
// NO_FINDINGS.
func (r *BatchResult) Succeeded() int {
	n := 0
	for _, f := range r.Files {
		if f.State == StateDone || f.State == StateNoFindings {
			n++
		}
	}
	return n
}

// Failed counts files that ended in FAILED.
func (r *BatchResult) Failed() int {
	return len(r.Files) - r.Succeeded()
}

// ProcessBatch runs jobs through a bounded worker pool. Results are
// gathered in completion order and keyed by input path.
func (c *Coordinator) ProcessBatch(ctx context.Context, jobs []Job, workers int) *BatchResult {
	start := time.Now()
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	c.logger.Info("Starting batch",
		zap.Int("files", len(jobs)),
		zap.Int("workers", workers),
	)

	jobCh := make(chan Job)
	resultCh := make(chan *FileResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				resultCh <- c.Process(ctx, job)
			}
		}()
	}

	go func() {
		defer close(jobCh)
		for _, job := range jobs {
			select {
			case jobCh <- job:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	batch := &BatchResult{Files: make(map[string]*FileResult, len(jobs))}
	for result := range resultCh {
		batch.Files[result.InputPath] = result
	}
	batch.Duration = time.Since(start)

	c.logger.Info("Batch completed",
		zap.Int("succeeded", batch.Succeeded()),
		zap.Int("failed", batch.Failed()),
		zap.Duration("duration", batch.Duration),
	)

	return batch
}
