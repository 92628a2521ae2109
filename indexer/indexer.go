package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lightlink-network/ll-bridge-validator/metrics"
	"github.com/lightlink-network/ll-bridge-validator/types"
)

// Source reads normalized bridge events from one chain.
type Source interface {
	Chain() types.Chain
	LatestBlock(ctx context.Context) (uint64, error)
	FilterEvents(ctx context.Context, from, to uint64) ([]types.Event, error)
}

// Cursor persists how far each chain has been indexed.
type Cursor interface {
	GetLastIndexedBlock(ctx context.Context, chain types.Chain) (uint64, error)
	UpdateLastIndexedBlock(ctx context.Context, chain types.Chain, blockNumber uint64) error
}

type SourceOpts struct {
	Source            Source
	DefaultStartBlock uint64
	MinBatchSize      uint64
	MaxBatchSize      uint64
	FetchInterval     time.Duration
}

type Indexer struct {
	sources    []SourceOpts
	cursor     Cursor
	out        chan<- types.Event
	metrics    *metrics.Metrics
	retryDelay time.Duration
	logger     *slog.Logger
}

type IndexerOpts struct {
	Sources []SourceOpts
	Cursor  Cursor
	// Out receives every indexed event in block order, per chain.
	Out        chan<- types.Event
	Metrics    *metrics.Metrics
	RetryDelay time.Duration
	Logger     *slog.Logger
}

func NewIndexer(opts IndexerOpts) (*Indexer, error) {
	if opts.Cursor == nil {
		return nil, errors.New("indexer needs a cursor store")
	}
	if opts.Out == nil {
		return nil, errors.New("indexer needs an output channel")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}

	for i := range opts.Sources {
		s := &opts.Sources[i]
		if s.Source == nil {
			return nil, fmt.Errorf("source %d is nil", i)
		}
		if s.MaxBatchSize == 0 {
			s.MaxBatchSize = 1000
		}
		if s.MinBatchSize > s.MaxBatchSize {
			return nil, fmt.Errorf("%s: min batch size %d exceeds max batch size %d", s.Source.Chain(), s.MinBatchSize, s.MaxBatchSize)
		}
		if s.FetchInterval <= 0 {
			s.FetchInterval = 10 * time.Second
		}
	}

	return &Indexer{
		sources:    opts.Sources,
		cursor:     opts.Cursor,
		out:        opts.Out,
		metrics:    opts.Metrics,
		retryDelay: opts.RetryDelay,
		logger:     opts.Logger.With("component", "indexer"),
	}, nil
}

// Run indexes every source concurrently until ctx is done. It returns the
// first error that stops a chain loop.
func (i *Indexer) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, src := range i.sources {
		src := src
		g.Go(func() error {
			return i.indexChain(ctx, src)
		})
	}

	return g.Wait()
}
