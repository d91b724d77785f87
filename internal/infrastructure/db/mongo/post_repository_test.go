package mongo

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/mietgram/campus-api/internal/core/domain"
	"github.com/mietgram/campus-api/internal/core/ports"
)

func newMockPostRepository(mt *mtest.T) *PostRepository {
	return &PostRepository{col: mt.Coll, timeout: time.Second}
}

// missedUpdate is a findAndModify reply whose filter matched nothing.
func missedUpdate() bson.D {
	return mtest.CreateSuccessResponse()
}

func likedDoc(pid primitive.ObjectID, likes ...primitive.ObjectID) bson.D {
	arr := bson.A{}
	for _, id := range likes {
		arr = append(arr, id)
	}
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
		{Key: "_id", Value: pid},
		{Key: "likes", Value: arr},
	}})
}

func cursorReply(mt *mtest.T, docs ...bson.D) bson.D {
	ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
	return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, docs...)
}

// countReply answers the aggregate behind CountDocuments.
func countReply(mt *mtest.T, n int) bson.D {
	if n == 0 {
		return cursorReply(mt)
	}
	return cursorReply(mt, bson.D{{Key: "n", Value: int32(n)}})
}

func TestPostRepository_ToggleLike(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	pid := primitive.NewObjectID()
	uid := primitive.NewObjectID()
	other := primitive.NewObjectID()

	mt.Run("adds when absent", func(mt *mtest.T) {
		mt.AddMockResponses(likedDoc(pid, other, uid))

		res, err := newMockPostRepository(mt).ToggleLike(context.Background(), pid.Hex(), uid.Hex())
		require.NoError(mt, err)
		assert.True(mt, res.IsLiked)
		assert.Equal(mt, 2, res.Likes)
	})

	mt.Run("removes when present", func(mt *mtest.T) {
		mt.AddMockResponses(missedUpdate(), likedDoc(pid, other))

		res, err := newMockPostRepository(mt).ToggleLike(context.Background(), pid.Hex(), uid.Hex())
		require.NoError(mt, err)
		assert.False(mt, res.IsLiked)
		assert.Equal(mt, 1, res.Likes)
	})

	mt.Run("missing post", func(mt *mtest.T) {
		mt.AddMockResponses(missedUpdate(), missedUpdate(), countReply(mt, 0))

		_, err := newMockPostRepository(mt).ToggleLike(context.Background(), pid.Hex(), uid.Hex())
		assert.ErrorIs(mt, err, domain.ErrPostNotFound)
	})

	mt.Run("retries after a concurrent flip", func(mt *mtest.T) {
		mt.AddMockResponses(missedUpdate(), missedUpdate(), countReply(mt, 1), likedDoc(pid, uid))

		res, err := newMockPostRepository(mt).ToggleLike(context.Background(), pid.Hex(), uid.Hex())
		require.NoError(mt, err)
		assert.True(mt, res.IsLiked)
		assert.Equal(mt, 1, res.Likes)
	})

	mt.Run("gives up under sustained contention", func(mt *mtest.T) {
		for i := 0; i < toggleAttempts; i++ {
			mt.AddMockResponses(missedUpdate(), missedUpdate(), countReply(mt, 1))
		}

		_, err := newMockPostRepository(mt).ToggleLike(context.Background(), pid.Hex(), uid.Hex())
		assert.ErrorIs(mt, err, domain.ErrStoreUnavailable)
	})

	mt.Run("malformed post id", func(mt *mtest.T) {
		_, err := newMockPostRepository(mt).ToggleLike(context.Background(), "nope", uid.Hex())
		assert.ErrorIs(mt, err, domain.ErrPostNotFound)
	})
}

func TestPostRepository_ListByAuthors_PageBeyondRange(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("offset would overflow", func(mt *mtest.T) {
		posts, err := newMockPostRepository(mt).ListByAuthors(context.Background(), ports.FeedQuery{
			AuthorIDs: []string{primitive.NewObjectID().Hex()},
			Page:      math.MaxInt,
			Limit:     10,
		})
		require.NoError(mt, err)
		assert.NotNil(mt, posts)
		assert.Empty(mt, posts)
	})

	mt.Run("past the last page", func(mt *mtest.T) {
		mt.AddMockResponses(cursorReply(mt))

		posts, err := newMockPostRepository(mt).ListByAuthors(context.Background(), ports.FeedQuery{
			AuthorIDs: []string{primitive.NewObjectID().Hex()},
			Page:      500,
			Limit:     10,
		})
		require.NoError(mt, err)
		assert.Empty(mt, posts)
	})
}
