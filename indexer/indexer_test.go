package indexer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/lightlink-network/ll-bridge-validator/types"
)

type fakeSource struct {
	mu      sync.Mutex
	chain   types.Chain
	head    uint64
	events  map[uint64][]types.Event
	queries [][2]uint64
	failing int
}

func (s *fakeSource) Chain() types.Chain { return s.chain }

func (s *fakeSource) LatestBlock(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.head, nil
}

func (s *fakeSource) FilterEvents(ctx context.Context, from, to uint64) ([]types.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing > 0 {
		s.failing--
		return nil, errors.New("connection reset")
	}
	s.queries = append(s.queries, [2]uint64{from, to})
	var out []types.Event
	for n := from; n <= to; n++ {
		out = append(out, s.events[n]...)
	}
	return out, nil
}

type fakeCursor struct {
	mu     sync.Mutex
	blocks map[types.Chain]uint64
}

func (c *fakeCursor) GetLastIndexedBlock(ctx context.Context, chain types.Chain) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocks[chain], nil
}

func (c *fakeCursor) UpdateLastIndexedBlock(ctx context.Context, chain types.Chain, block uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocks[chain] = block
	return nil
}

func (c *fakeCursor) get(chain types.Chain) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocks[chain]
}

func relay(id byte, block uint64) types.Event {
	return types.SubRelayMessage{ID: common.BytesToHash([]byte{id}), Block: block}
}

func collect(t *testing.T, out <-chan types.Event, n int) []types.Event {
	t.Helper()
	var got []types.Event
	for len(got) < n {
		select {
		case ev := <-out:
			got = append(got, ev)
		case <-time.After(2 * time.Second):
			t.Fatalf("received %d of %d events", len(got), n)
		}
	}
	return got
}

func TestIndexerResumesAfterCursor(t *testing.T) {
	require := require.New(t)

	src := &fakeSource{
		chain: types.Substrate,
		head:  12,
		events: map[uint64][]types.Event{
			5:  {relay(1, 5)},
			8:  {relay(2, 8), relay(3, 8)},
			12: {relay(4, 12)},
		},
	}
	cursor := &fakeCursor{blocks: map[types.Chain]uint64{types.Substrate: 7}}
	out := make(chan types.Event)

	idx, err := NewIndexer(IndexerOpts{
		Sources:    []SourceOpts{{Source: src, MaxBatchSize: 3, FetchInterval: time.Millisecond}},
		Cursor:     cursor,
		Out:        out,
		RetryDelay: time.Millisecond,
	})
	require.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- idx.Run(ctx) }()

	got := collect(t, out, 3)
	require.Equal([]types.Event{relay(2, 8), relay(3, 8), relay(4, 12)}, got)

	require.Eventually(func() bool { return cursor.get(types.Substrate) == 12 }, time.Second, time.Millisecond)

	cancel()
	require.NoError(<-done)

	src.mu.Lock()
	defer src.mu.Unlock()
	require.Equal([][2]uint64{{8, 10}, {11, 12}}, src.queries)
}

func TestIndexerStartsAtDefaultBlock(t *testing.T) {
	require := require.New(t)

	src := &fakeSource{
		chain:  types.Ethereum,
		head:   4,
		events: map[uint64][]types.Event{1: {relay(1, 1)}, 3: {relay(2, 3)}},
	}
	cursor := &fakeCursor{blocks: map[types.Chain]uint64{}}
	out := make(chan types.Event, 4)

	idx, err := NewIndexer(IndexerOpts{
		Sources:    []SourceOpts{{Source: src, DefaultStartBlock: 2, FetchInterval: time.Millisecond}},
		Cursor:     cursor,
		Out:        out,
		RetryDelay: time.Millisecond,
	})
	require.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go idx.Run(ctx)

	require.Equal([]types.Event{relay(2, 3)}, collect(t, out, 1))
	require.Eventually(func() bool { return cursor.get(types.Ethereum) == 4 }, time.Second, time.Millisecond)
}

func TestIndexerRetriesTransportErrors(t *testing.T) {
	require := require.New(t)

	src := &fakeSource{
		chain:   types.Ethereum,
		head:    2,
		failing: 3,
		events:  map[uint64][]types.Event{2: {relay(9, 2)}},
	}
	cursor := &fakeCursor{blocks: map[types.Chain]uint64{}}
	out := make(chan types.Event, 1)

	idx, err := NewIndexer(IndexerOpts{
		Sources:    []SourceOpts{{Source: src, DefaultStartBlock: 1, FetchInterval: time.Millisecond}},
		Cursor:     cursor,
		Out:        out,
		RetryDelay: time.Millisecond,
	})
	require.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go idx.Run(ctx)

	require.Equal([]types.Event{relay(9, 2)}, collect(t, out, 1))
	require.Eventually(func() bool { return cursor.get(types.Ethereum) == 2 }, time.Second, time.Millisecond)
}

func TestIndexerWaitsForMinBatch(t *testing.T) {
	require := require.New(t)

	src := &fakeSource{chain: types.Ethereum, head: 3}
	cursor := &fakeCursor{blocks: map[types.Chain]uint64{types.Ethereum: 1}}
	out := make(chan types.Event)

	idx, err := NewIndexer(IndexerOpts{
		Sources: []SourceOpts{{Source: src, MinBatchSize: 5, MaxBatchSize: 10, FetchInterval: time.Millisecond}},
		Cursor:  cursor,
		Out:     out,
	})
	require.NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(idx.Run(ctx))

	require.Empty(src.queries)
	require.Equal(uint64(1), cursor.get(types.Ethereum))
}

func TestNewIndexerValidates(t *testing.T) {
	out := make(chan types.Event)
	cursor := &fakeCursor{}

	_, err := NewIndexer(IndexerOpts{Out: out})
	require.Error(t, err)

	_, err = NewIndexer(IndexerOpts{Cursor: cursor})
	require.Error(t, err)

	_, err = NewIndexer(IndexerOpts{
		Cursor:  cursor,
		Out:     out,
		Sources: []SourceOpts{{Source: &fakeSource{chain: types.Ethereum}, MinBatchSize: 10, MaxBatchSize: 2}},
	})
	require.ErrorContains(t, err, "exceeds max batch size")
}
