package indexer

import (
	"context"
	"fmt"
	"time"
)

func (i *Indexer) indexChain(ctx context.Context, src SourceOpts) error {
	chain := src.Source.Chain()
	logger := i.logger.With("chain", chain)

	start, err := i.startBlock(ctx, src)
	if err != nil {
		return err
	}

	logger.Info("starting indexer", "startBlock", start)

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down indexer")
			return nil
		default:
		}

		lastBlock, err := src.Source.LatestBlock(ctx)
		if err != nil {
			logger.Warn("failed to get chain head", "error", err)
			i.sleep(ctx, i.retryDelay)
			continue
		}

		// If we don't have enough blocks yet, wait and continue
		if lastBlock < start || lastBlock-start+1 < src.MinBatchSize {
			logger.Debug("waiting for more blocks",
				"chainHead", lastBlock,
				"nextBatchStart", start,
				"minBatchSize", src.MinBatchSize)
			i.sleep(ctx, src.FetchInterval)
			continue
		}

		// use larger batches when catching up
		end := start + min(src.MaxBatchSize, lastBlock-start+1) - 1

		logger.Info("processing blocks",
			"startBlock", start,
			"endBlock", end,
			"batchSize", end-start+1,
			"chainHead", lastBlock)

		events, err := src.Source.FilterEvents(ctx, start, end)
		if err != nil {
			logger.Warn("failed to filter events", "startBlock", start, "endBlock", end, "error", err)
			i.sleep(ctx, i.retryDelay)
			continue
		}

		for _, ev := range events {
			select {
			case <-ctx.Done():
				logger.Info("shutting down indexer")
				return nil
			case i.out <- ev:
			}
		}

		if err := i.cursor.UpdateLastIndexedBlock(ctx, chain, end); err != nil {
			// the batch is re-read on restart and the controller drops the repeats
			logger.Warn("failed to update last indexed block", "block", end, "error", err)
		}
		i.metrics.Indexed(string(chain), end)

		logger.Info("batch complete", "blocksProcessed", end-start+1, "events", len(events))

		start = end + 1
	}
}

// startBlock resumes after the persisted cursor, or from the configured
// default on a fresh database.
func (i *Indexer) startBlock(ctx context.Context, src SourceOpts) (uint64, error) {
	chain := src.Source.Chain()

	for {
		last, err := i.cursor.GetLastIndexedBlock(ctx, chain)
		if err == nil {
			if last > 0 && last+1 > src.DefaultStartBlock {
				return last + 1, nil
			}
			return src.DefaultStartBlock, nil
		}

		i.logger.Warn("failed to load last indexed block", "chain", chain, "error", err)
		if !i.sleep(ctx, i.retryDelay) {
			return 0, fmt.Errorf("failed to load last indexed block for %s: %w", chain, ctx.Err())
		}
	}
}

// sleep waits for d and reports false if ctx ended first.
func (i *Indexer) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
