package worker

import (
	"context"

	"github.com/ederson/cardforge/internal/autoscan"
	"github.com/ederson/cardforge/internal/logger"
)

// ScanJob drives one auto-scan loop to completion, pause, or safety stop.
type ScanJob struct {
	Scanner *autoscan.Scanner
}

func (j *ScanJob) Name() string { return "auto_scan" }

func (j *ScanJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	err := j.Scanner.Run(ctx)
	if err != nil {
		log.Error("scan run ended with error: %v", err)
		return err
	}

	state := j.Scanner.State()
	log.Info("scan run finished: pages_processed=%d, cards_created=%d, errors=%d",
		state.Stats.PagesProcessed, state.Stats.CardsCreated, state.Stats.ErrorsCount)
	return nil
}
