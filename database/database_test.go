package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/lightlink-network/ll-bridge-validator/database/models"
	"github.com/lightlink-network/ll-bridge-validator/types"
)

func TestLastIndexedBlock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		db := NewDatabaseFromClient(mt.Client, "validator", nil)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "validator.last_indexed_block", mtest.FirstBatch, bson.D{
			{Key: "chain", Value: "ethereum"},
			{Key: "block_number", Value: int64(42)},
		}))

		block, err := db.GetLastIndexedBlock(context.Background(), types.Ethereum)
		require.NoError(mt, err)
		require.Equal(mt, uint64(42), block)
	})

	mt.Run("never indexed", func(mt *mtest.T) {
		db := NewDatabaseFromClient(mt.Client, "validator", nil)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "validator.last_indexed_block", mtest.FirstBatch))

		block, err := db.GetLastIndexedBlock(context.Background(), types.Substrate)
		require.NoError(mt, err)
		require.Equal(mt, uint64(0), block)
	})

	mt.Run("update", func(mt *mtest.T) {
		db := NewDatabaseFromClient(mt.Client, "validator", nil)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		require.NoError(mt, db.UpdateLastIndexedBlock(context.Background(), types.Ethereum, 43))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		require.Equal(mt, "update", started.CommandName)
	})
}

func TestDispatches(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create", func(mt *mtest.T) {
		db := NewDatabaseFromClient(mt.Client, "validator", nil)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := db.CreateDispatch(context.Background(), models.Dispatch{
			MessageID: "0xaa",
			Kind:      types.KindEthRelayMessage,
			Call:      "approveTransfer",
			Status:    string(types.DispatchSubmitted),
			Attempts:  1,
		})
		require.NoError(mt, err)

		started := mt.GetStartedEvent()
		require.Equal(mt, "insert", started.CommandName)
	})

	mt.Run("paginated", func(mt *mtest.T) {
		db := NewDatabaseFromClient(mt.Client, "validator", nil)
		now := time.Now().UTC().Truncate(time.Millisecond)

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "validator.dispatches", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(2)}}),
			mtest.CreateCursorResponse(0, "validator.dispatches", mtest.FirstBatch,
				bson.D{
					{Key: "message_id", Value: "0xbb"},
					{Key: "kind", Value: types.KindSubMintedMessage},
					{Key: "status", Value: string(types.DispatchFailed)},
					{Key: "error", Value: "nonce too low"},
					{Key: "attempts", Value: int32(3)},
					{Key: "created_at", Value: now},
				},
				bson.D{
					{Key: "message_id", Value: "0xaa"},
					{Key: "kind", Value: types.KindSubBurnedMessage},
					{Key: "status", Value: string(types.DispatchSkipped)},
					{Key: "created_at", Value: now.Add(-time.Minute)},
				},
			),
		)

		result, err := db.GetDispatches(context.Background(), models.Filter{}, 1, 10)
		require.NoError(mt, err)
		require.Equal(mt, int64(2), result.TotalCount)
		require.Equal(mt, int64(1), result.Page)

		items, ok := result.Items.([]models.Dispatch)
		require.True(mt, ok)
		require.Len(mt, items, 2)
		require.Equal(mt, "0xbb", items[0].MessageID)
		require.Equal(mt, 3, items[0].Attempts)
		require.Equal(mt, "nonce too low", items[0].Error)
		require.Equal(mt, string(types.DispatchSkipped), items[1].Status)
	})

	mt.Run("count fails", func(mt *mtest.T) {
		db := NewDatabaseFromClient(mt.Client, "validator", nil)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad query",
			Name:    "BadValue",
		}))

		_, err := db.GetDispatches(context.Background(), models.Filter{Status: "FAILED"}, 1, 10)
		require.ErrorContains(mt, err, "failed to get total count")
	})
}

func TestBuildFilter(t *testing.T) {
	require.Equal(t, bson.M{}, buildFilter(models.Filter{}))
	require.Equal(t, bson.M{
		"status":     "FAILED",
		"kind":       types.KindEthRelayMessage,
		"chain":      "ethereum",
		"message_id": "0xaa",
	}, buildFilter(models.Filter{
		Status:    "FAILED",
		Kind:      types.KindEthRelayMessage,
		Chain:     "ethereum",
		MessageID: "0xaa",
	}))
}
