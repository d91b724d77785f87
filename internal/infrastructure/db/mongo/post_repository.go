package mongo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mietgram/campus-api/internal/core/domain"
	"github.com/mietgram/campus-api/internal/core/ports"
)

const (
	collectionPosts = "posts"
	// toggleAttempts bounds retries when another request flips the same like
	// between our two conditional updates.
	toggleAttempts = 5
)

// PostRepository implements ports.PostRepository on the posts collection.
type PostRepository struct {
	col     *mongo.Collection
	timeout time.Duration
}

func NewPostRepository(db *mongo.Database, timeout time.Duration) *PostRepository {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &PostRepository{col: db.Collection(collectionPosts), timeout: timeout}
}

type mongoComment struct {
	ID        string             `bson:"id"`
	UserID    primitive.ObjectID `bson:"userId"`
	Username  string             `bson:"username"`
	Text      string             `bson:"text"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type mongoPost struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty"`
	UserID     primitive.ObjectID   `bson:"userId"`
	Username   string               `bson:"username"`
	UserImage  string               `bson:"userImage"`
	MediaURL   string               `bson:"mediaUrl"`
	MediaType  string               `bson:"mediaType"`
	Caption    string               `bson:"caption"`
	Location   string               `bson:"location,omitempty"`
	Tags       []string             `bson:"tags"`
	Likes      []primitive.ObjectID `bson:"likes"`
	Comments   []mongoComment       `bson:"comments"`
	IsArchived bool                 `bson:"isArchived"`
	CreatedAt  time.Time            `bson:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt"`
}

func (m mongoPost) toDomain() *domain.Post {
	comments := make([]domain.Comment, len(m.Comments))
	for i, c := range m.Comments {
		comments[i] = domain.Comment{
			ID:        c.ID,
			UserID:    c.UserID.Hex(),
			Username:  c.Username,
			Text:      c.Text,
			CreatedAt: c.CreatedAt.UTC(),
		}
	}
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	return &domain.Post{
		ID:         m.ID.Hex(),
		UserID:     m.UserID.Hex(),
		Username:   m.Username,
		UserImage:  m.UserImage,
		MediaURL:   m.MediaURL,
		MediaType:  domain.MediaType(m.MediaType),
		Caption:    m.Caption,
		Location:   m.Location,
		Tags:       tags,
		Likes:      hexIDs(m.Likes),
		Comments:   comments,
		IsArchived: m.IsArchived,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

func (r *PostRepository) Create(ctx context.Context, p *domain.Post) (*domain.Post, error) {
	author, err := primitive.ObjectIDFromHex(p.UserID)
	if err != nil {
		return nil, domain.ErrIdentityNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc := mongoPost{
		ID:         primitive.NewObjectID(),
		UserID:     author,
		Username:   p.Username,
		UserImage:  p.UserImage,
		MediaURL:   p.MediaURL,
		MediaType:  string(p.MediaType),
		Caption:    p.Caption,
		Location:   p.Location,
		Tags:       p.Tags,
		Likes:      []primitive.ObjectID{},
		Comments:   []mongoComment{},
		IsArchived: p.IsArchived,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert post: %w", translate(err, domain.ErrPostNotFound))
	}
	return doc.toDomain(), nil
}

func (r *PostRepository) FindByID(ctx context.Context, id string) (*domain.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrPostNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var mp mongoPost
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&mp); err != nil {
		return nil, translate(err, domain.ErrPostNotFound)
	}
	return mp.toDomain(), nil
}

// ListByAuthors runs the feed query. _id breaks created_at ties so that pages
// stay disjoint for posts sharing a timestamp.
func (r *PostRepository) ListByAuthors(ctx context.Context, q ports.FeedQuery) ([]*domain.Post, error) {
	authors := objectIDs(q.AuthorIDs)
	if len(authors) == 0 || q.Limit <= 0 {
		return []*domain.Post{}, nil
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	if int64(page-1) > math.MaxInt64/int64(q.Limit) {
		return []*domain.Post{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{
		"userId":     bson.M{"$in": authors},
		"isArchived": false,
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(page-1) * int64(q.Limit)).
		SetLimit(int64(q.Limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err, domain.ErrPostNotFound)
	}
	defer cur.Close(ctx)

	var docs []mongoPost
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err, domain.ErrPostNotFound)
	}

	out := make([]*domain.Post, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

// ToggleLike flips membership with two conditional single-document updates:
// add only if absent, otherwise remove only if present. Each call therefore
// has exactly one net effect even when requests for the same pair race.
func (r *PostRepository) ToggleLike(ctx context.Context, postID, userID string) (*domain.LikeResult, error) {
	pid, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return nil, domain.ErrPostNotFound
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"likes": 1})

	for attempt := 0; attempt < toggleAttempts; attempt++ {
		likes, err := r.conditionalLikeUpdate(ctx,
			bson.M{"_id": pid, "likes": bson.M{"$ne": uid}},
			bson.M{"$addToSet": bson.M{"likes": uid}}, opts)
		if err == nil {
			return &domain.LikeResult{Likes: likes, IsLiked: true}, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, translate(err, domain.ErrPostNotFound)
		}

		likes, err = r.conditionalLikeUpdate(ctx,
			bson.M{"_id": pid, "likes": uid},
			bson.M{"$pull": bson.M{"likes": uid}}, opts)
		if err == nil {
			return &domain.LikeResult{Likes: likes, IsLiked: false}, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, translate(err, domain.ErrPostNotFound)
		}

		n, err := r.col.CountDocuments(ctx, bson.M{"_id": pid}, options.Count().SetLimit(1))
		if err != nil {
			return nil, translate(err, domain.ErrPostNotFound)
		}
		if n == 0 {
			return nil, domain.ErrPostNotFound
		}
		// The membership flipped between the two updates; try again.
	}
	return nil, fmt.Errorf("toggle like: %w: contention on post %s", domain.ErrStoreUnavailable, postID)
}

func (r *PostRepository) conditionalLikeUpdate(ctx context.Context, filter, update bson.M, opts *options.FindOneAndUpdateOptions) (int, error) {
	var doc struct {
		Likes []primitive.ObjectID `bson:"likes"`
	}
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return 0, err
	}
	return len(doc.Likes), nil
}

// AddComment appends c to the post's comment list.
func (r *PostRepository) AddComment(ctx context.Context, postID string, c domain.Comment) error {
	pid, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return domain.ErrPostNotFound
	}
	uid, err := primitive.ObjectIDFromHex(c.UserID)
	if err != nil {
		return domain.ErrIdentityNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": pid}, bson.M{
		"$push": bson.M{"comments": mongoComment{
			ID:        c.ID,
			UserID:    uid,
			Username:  c.Username,
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		}},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return translate(err, domain.ErrPostNotFound)
	}
	if res.MatchedCount == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

func (r *PostRepository) SetArchived(ctx context.Context, postID string, archived bool) (*domain.Post, error) {
	pid, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return nil, domain.ErrPostNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var mp mongoPost
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": pid},
		bson.M{"$set": bson.M{"isArchived": archived, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&mp)
	if err != nil {
		return nil, translate(err, domain.ErrPostNotFound)
	}
	return mp.toDomain(), nil
}

// EnsureIndexes creates the feed index and the created_at index.
func (r *PostRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "userId", Value: 1},
			{Key: "isArchived", Value: 1},
			{Key: "createdAt", Value: -1},
			{Key: "_id", Value: -1},
		}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
