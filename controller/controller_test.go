package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/lightlink-network/ll-bridge-validator/metrics"
	"github.com/lightlink-network/ll-bridge-validator/types"
)

func relay(id byte, amount uint64) types.EthRelayMessage {
	return types.EthRelayMessage{
		ID:     common.BytesToHash([]byte{id}),
		From:   common.HexToAddress("0xe1"),
		To:     types.HexToSubAddress("0x51"),
		Amount: *uint256.NewInt(amount),
		Block:  10,
	}
}

func startController(t *testing.T) (*Controller, chan types.Event, chan types.Event, chan error) {
	t.Helper()

	in := make(chan types.Event)
	out := make(chan types.Event, 16)
	c := NewController(ControllerOpts{Inbound: in, Outbound: out, Metrics: metrics.New()})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Run(ctx)
	}()

	require.Eventually(t, func() bool { return c.Status() == Active }, time.Second, time.Millisecond)
	return c, in, out, errCh
}

func receive(t *testing.T, out <-chan types.Event) types.Event {
	t.Helper()
	select {
	case ev := <-out:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for forwarded event")
		return nil
	}
}

func TestStorageDedup(t *testing.T) {
	require := require.New(t)
	s := newStorage()

	ev := relay(1, 100)
	require.NoError(s.putEvent(ev))
	require.ErrorIs(s.putEvent(ev), ErrDuplicate)

	// same message id, different value: a status update
	approved := types.EthApprovedRelayMessage{ID: ev.ID, From: ev.From, To: ev.To, Amount: ev.Amount, Block: 11}
	require.NoError(s.putEvent(approved))
	require.Equal(types.Event(approved), s.events[ev.ID])

	// the original value is no longer the stored one, so it is accepted again
	require.NoError(s.putEvent(ev))
}

func TestAdmitForwardsOnce(t *testing.T) {
	require := require.New(t)

	out := make(chan types.Event, 4)
	c := NewController(ControllerOpts{Outbound: out})
	require.NoError(c.transition(context.Background(), Active))

	ev := relay(1, 1000)
	require.NoError(c.Admit(context.Background(), ev))
	require.ErrorIs(c.Admit(context.Background(), ev), ErrDuplicate)

	require.Len(out, 1)
	require.Equal(types.Event(ev), <-out)
	require.Equal(int64(1), c.Stats().Seen)
}

func TestNotReadyQueuesUntilActive(t *testing.T) {
	require := require.New(t)

	out := make(chan types.Event, 4)
	c := NewController(ControllerOpts{Outbound: out})
	require.Equal(NotReady, c.Status())

	first, second := relay(1, 1), relay(2, 2)
	require.NoError(c.Admit(context.Background(), first))
	require.NoError(c.Admit(context.Background(), second))
	require.Len(out, 0)
	require.Equal(int64(2), c.Stats().Queued)

	require.NoError(c.transition(context.Background(), Active))
	require.Equal(types.Event(first), <-out)
	require.Equal(types.Event(second), <-out)
	require.Equal(int64(0), c.Stats().Queued)
}

func TestRunDropsDuplicates(t *testing.T) {
	require := require.New(t)
	_, in, out, _ := startController(t)

	ev := relay(7, 500)
	in <- ev
	in <- ev
	in <- relay(8, 500)

	require.Equal(types.Event(ev), receive(t, out))
	require.Equal(types.Event(relay(8, 500)), receive(t, out))
	require.Len(out, 0)
}

func TestPauseQueuesInAdmissionOrder(t *testing.T) {
	require := require.New(t)
	c, in, out, _ := startController(t)
	ctx := context.Background()

	require.NoError(c.Pause(ctx))
	require.Equal(Paused, c.Status())

	in <- relay(1, 1)
	in <- relay(2, 2)
	in <- relay(2, 2) // duplicate while paused is still rejected

	require.Eventually(func() bool { return c.Stats().Queued == 2 }, time.Second, time.Millisecond)
	require.Len(out, 0, "nothing is forwarded while paused")

	require.NoError(c.Resume(ctx))
	in <- relay(3, 3)

	require.Equal(types.Event(relay(1, 1)), receive(t, out))
	require.Equal(types.Event(relay(2, 2)), receive(t, out))
	require.Equal(types.Event(relay(3, 3)), receive(t, out))
	require.Len(out, 0)
}

func TestStopIsTerminal(t *testing.T) {
	require := require.New(t)
	c, in, out, errCh := startController(t)
	ctx := context.Background()

	require.NoError(c.Pause(ctx))
	in <- relay(1, 1)
	require.NoError(c.Stop(ctx))

	select {
	case err := <-errCh:
		require.NoError(err)
	case <-time.After(time.Second):
		t.Fatal("controller did not stop")
	}

	_, ok := <-out
	require.False(ok, "outbound channel should be closed without forwarding queued events")
	require.Equal(Stopped, c.Status())
	require.ErrorIs(c.Resume(ctx), ErrStopped)
	require.ErrorIs(c.Admit(ctx, relay(2, 2)), ErrStopped)
}

func TestInvalidTransitions(t *testing.T) {
	require := require.New(t)
	c := NewController(ControllerOpts{Outbound: make(chan types.Event, 1)})

	err := c.transition(context.Background(), Paused)
	require.True(errors.Is(err, ErrInvalidTransition))

	require.True(canTransition(Active, Paused))
	require.True(canTransition(Paused, Active))
	require.True(canTransition(NotReady, Stopped))
	require.False(canTransition(Stopped, Active))
	require.Equal("Paused", Paused.String())
}
