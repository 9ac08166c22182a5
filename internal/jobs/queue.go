package jobs

import "github.com/ederson/cardforge/internal/autoscan"

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	EnqueueScan(scanner *autoscan.Scanner) error
}
