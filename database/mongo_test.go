package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoPlans(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("save", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		store := NewMongoPlans(mt.Coll)
		id, err := store.SavePlan(context.Background(), "user-1", "Goa", map[string]int{"days": 3}, 900)
		require.NoError(mt, err)
		assert.Len(mt, id, 36)
	})

	mt.Run("get", func(mt *mtest.T) {
		created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "plan-1"},
			{Key: "owner_id", Value: "user-1"},
			{Key: "title", Value: "Goa"},
			{Key: "document", Value: `{"days":3}`},
			{Key: "total_price", Value: 900.0},
			{Key: "created_at", Value: created},
		}))

		store := NewMongoPlans(mt.Coll)
		sp, err := store.GetPlan(context.Background(), "plan-1")
		require.NoError(mt, err)
		assert.Equal(mt, "user-1", sp.OwnerID)
		assert.JSONEq(mt, `{"days":3}`, string(sp.Document))
		assert.Equal(mt, 900.0, sp.TotalPrice)
		assert.True(mt, created.Equal(sp.CreatedAt))
	})

	mt.Run("missing", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := NewMongoPlans(mt.Coll).GetPlan(context.Background(), "nope")
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}
