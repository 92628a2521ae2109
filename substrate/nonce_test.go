package substrate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNonceTrackerSkipsPendingNonces(t *testing.T) {
	require := require.New(t)
	var n nonceTracker

	require.Equal(uint64(7), n.allocate(7))
	// node has not seen the first extrinsic yet
	require.Equal(uint64(8), n.allocate(7))
	require.Equal(uint64(9), n.allocate(8))

	// node caught up and moved past our view
	require.Equal(uint64(12), n.allocate(12))
}

func TestNonceTrackerReleasesRejectedNonce(t *testing.T) {
	require := require.New(t)
	var n nonceTracker

	require.Equal(uint64(3), n.allocate(3))
	require.Equal(uint64(4), n.allocate(3))
	n.release(4)
	require.Equal(uint64(4), n.allocate(3))

	// a nonce followed by a later one is not released
	require.Equal(uint64(5), n.allocate(3))
	n.release(4)
	require.Equal(uint64(6), n.allocate(3))
}
