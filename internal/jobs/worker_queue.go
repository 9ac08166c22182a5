package jobs

import (
	"github.com/ederson/cardforge/internal/autoscan"
	"github.com/ederson/cardforge/internal/worker"
)

// WorkerQueue implements JobQueue using a worker pool
type WorkerQueue struct {
	scanPool *worker.Pool
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(scanPool *worker.Pool) JobQueue {
	return &WorkerQueue{scanPool: scanPool}
}

func (q *WorkerQueue) EnqueueScan(scanner *autoscan.Scanner) error {
	return q.scanPool.Submit(&worker.ScanJob{Scanner: scanner})
}
