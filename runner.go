package mlr

import (
	"runtime"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/pkg/errors"
)

// runAll dispatches n independent iterations over a bounded pool of
// goroutines and returns their records indexed by iteration number,
// regardless of completion order. The records slice is pre-allocated and each
// goroutine writes only its own slot, so no reordering pass is needed and no
// state is shared between iterations. The call either returns all n records
// or, when an iteration panics past the executor's own recovery, a batch
// execution error with no partial results.
func runAll(n, concurrency int, progress bool, fn func(i int) record) ([]record, error) {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	records := make([]record, n)

	var bar *pb.ProgressBar
	if progress {
		bar = pb.StartNew(n)
	}

	// Set the limit to how many goroutines can be run.
	// http://jmoiron.net/blog/limiting-concurrency-in-go/
	sem := make(chan bool, concurrency)
	var (
		mu       sync.Mutex
		batchErr error
	)
	for i := 0; i < n; i++ {
		sem <- true
		go func(i int) {
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					if batchErr == nil {
						batchErr = errors.Wrapf(ErrBatchExecution, "iteration %d: %v", i+1, r)
					}
					mu.Unlock()
				}
				if bar != nil {
					bar.Increment()
				}
				<-sem
			}()
			records[i] = fn(i)
		}(i)
	}

	// Wait until the last goroutine has read from the semaphore.
	for i := 0; i < cap(sem); i++ {
		sem <- true
	}

	if bar != nil {
		bar.Finish()
	}

	if batchErr != nil {
		return nil, batchErr
	}
	return records, nil
}
