package quorum

import (
	"context"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/lightlink-network/ll-bridge-validator/types"
)

func TestLocalChainVotesAsAccount(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	m := newMachine(t, MachineOpts{})

	c1, c2 := NewLocalChain(m, v1), NewLocalChain(m, v2)
	require.Equal(types.Substrate, c1.Chain())

	h1, err := c1.MultiSignedMint(ctx, mintID, e1, s1, uint256.NewInt(1000))
	require.NoError(err)
	h2, err := c2.MultiSignedMint(ctx, mintID, e1, s1, uint256.NewInt(1000))
	require.NoError(err)
	require.NotEqual(h1, h2)
	require.Equal(uint64(1000), m.BalanceOf(s1))

	latest, err := c1.LatestBlock(ctx)
	require.NoError(err)
	events, err := c1.FilterEvents(ctx, 0, latest)
	require.NoError(err)
	require.Len(events, 1)
	require.Equal(types.KindSubMintedMessage, events[0].Kind())

	_, err = c1.MultiSignedMint(ctx, mintID, e1, s1, uint256.NewInt(1000))
	require.ErrorIs(err, ErrAlreadyVoted)
}

func TestLocalChainRejectsWideAmounts(t *testing.T) {
	m := newMachine(t, MachineOpts{})
	c := NewLocalChain(m, v1)

	wide := new(uint256.Int).Lsh(uint256.NewInt(1), 70)
	_, err := c.MultiSignedMint(context.Background(), mintID, e1, s1, wide)
	require.ErrorIs(t, err, ErrOverflow)

	_, ok := m.Message(mintID)
	require.False(t, ok)
}

func TestLocalChainAdminCalls(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	m := newMachine(t, MachineOpts{})
	c1, c3 := NewLocalChain(m, v1), NewLocalChain(m, v3)

	_, err := c1.PauseBridge(ctx)
	require.NoError(err)
	_, err = c3.PauseBridge(ctx)
	require.NoError(err)
	require.True(m.IsPaused())

	_, err = c1.ResumeBridge(ctx)
	require.NoError(err)
	_, err = c3.ResumeBridge(ctx)
	require.NoError(err)
	require.False(m.IsPaused())

	_, err = c1.AddValidator(ctx, v4)
	require.NoError(err)
	_, err = c3.AddValidator(ctx, v4)
	require.NoError(err)
	require.True(m.IsValidator(v4))

	limitID := types.MessageID{0x01}
	for _, c := range []*LocalChain{c1, c3, NewLocalChain(m, v4)} {
		_, err = c.SetPendingMintLimit(ctx, limitID, uint256.NewInt(5000))
		require.NoError(err)
	}
	require.Equal(uint64(5000), m.Limits().PendingMint)

	ctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = c1.RemoveValidator(ctx, v4)
	require.ErrorIs(err, context.Canceled)
}

func TestProduceExpiresStaleProposals(t *testing.T) {
	require := require.New(t)
	m := newMachine(t, MachineOpts{ProposalTTL: 3})
	require.NoError(m.MultiSignedMint(v1, mintID, e1, s1, 10))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Produce(ctx, time.Millisecond) }()

	require.Eventually(func() bool {
		msg, ok := m.Message(mintID)
		return ok && msg.Status == StatusCanceled
	}, time.Second, time.Millisecond)

	cancel()
	require.NoError(<-done)
	require.ErrorIs(m.MultiSignedMint(v2, mintID, e1, s1, 10), ErrNotOpen)
}
