package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mietgram/campus-api/internal/core/domain"
)

const collectionUsers = "users"

// IdentityRepository implements ports.IdentityRepository on the users collection.
// Follow and Unfollow run in a transaction and need a replica set deployment.
type IdentityRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewIdentityRepository(db *mongo.Database, timeout time.Duration) *IdentityRepository {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &IdentityRepository{coll: db.Collection(collectionUsers), timeout: timeout}
}

type mongoUser struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	Username     string               `bson:"username"`
	FullName     string               `bson:"fullName"`
	Email        string               `bson:"email"`
	PasswordHash string               `bson:"password"`
	ProfilePic   string               `bson:"profilePic"`
	Bio          string               `bson:"bio,omitempty"`
	Role         string               `bson:"campusRole"`
	Followers    []primitive.ObjectID `bson:"followers"`
	Following    []primitive.ObjectID `bson:"following"`
	IsPrivate    bool                 `bson:"isPrivate"`
	IsVerified   bool                 `bson:"isVerified"`
	StreakCount  int                  `bson:"streakCount"`
	Banned       bool                 `bson:"banned"`
	CreatedAt    time.Time            `bson:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt"`
}

func toMongoUser(u *domain.User) mongoUser {
	return mongoUser{
		Username:     u.Username,
		FullName:     u.FullName,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		ProfilePic:   u.ProfilePic,
		Bio:          u.Bio,
		Role:         string(u.Role),
		Followers:    objectIDs(u.Followers),
		Following:    objectIDs(u.Following),
		IsPrivate:    u.IsPrivate,
		IsVerified:   u.IsVerified,
		StreakCount:  u.StreakCount,
		Banned:       u.Banned,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (m mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:           m.ID.Hex(),
		Username:     m.Username,
		FullName:     m.FullName,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		ProfilePic:   m.ProfilePic,
		Bio:          m.Bio,
		Role:         domain.CampusRole(m.Role),
		Followers:    hexIDs(m.Followers),
		Following:    hexIDs(m.Following),
		IsPrivate:    m.IsPrivate,
		IsVerified:   m.IsVerified,
		StreakCount:  m.StreakCount,
		Banned:       m.Banned,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

func (r *IdentityRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc := toMongoUser(user)
	doc.ID = primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("insert user: %w", translate(err, domain.ErrIdentityNotFound))
	}
	return doc.toDomain(), nil
}

func (r *IdentityRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		return nil, translate(err, domain.ErrIdentityNotFound)
	}
	return mu.toDomain(), nil
}

func (r *IdentityRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrIdentityNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *IdentityRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *IdentityRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"$or": bson.A{
		bson.M{"email": email},
		bson.M{"username": username},
	}}, options.Count().SetLimit(1))
	if err != nil {
		return false, translate(err, domain.ErrIdentityNotFound)
	}
	return n > 0, nil
}

// Follow adds the edge on both documents inside one transaction. $addToSet
// keeps it idempotent.
func (r *IdentityRepository) Follow(ctx context.Context, followerID, followeeID string) error {
	return r.updateEdge(ctx, followerID, followeeID, "$addToSet")
}

// Unfollow removes the edge on both documents inside one transaction.
func (r *IdentityRepository) Unfollow(ctx context.Context, followerID, followeeID string) error {
	return r.updateEdge(ctx, followerID, followeeID, "$pull")
}

func (r *IdentityRepository) updateEdge(ctx context.Context, followerID, followeeID, op string) error {
	follower, err1 := primitive.ObjectIDFromHex(followerID)
	followee, err2 := primitive.ObjectIDFromHex(followeeID)
	if err1 != nil || err2 != nil {
		return domain.ErrIdentityNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	sess, err := r.coll.Database().Client().StartSession()
	if err != nil {
		return translate(err, domain.ErrIdentityNotFound)
	}
	defer sess.EndSession(ctx)

	now := time.Now().UTC()
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, err := r.coll.UpdateOne(sc, bson.M{"_id": followee}, bson.M{
			op:     bson.M{"followers": follower},
			"$set": bson.M{"updatedAt": now},
		})
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, domain.ErrIdentityNotFound
		}
		res, err = r.coll.UpdateOne(sc, bson.M{"_id": follower}, bson.M{
			op:     bson.M{"following": followee},
			"$set": bson.M{"updatedAt": now},
		})
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, nil
	})
	if err != nil {
		return translate(err, domain.ErrIdentityNotFound)
	}
	return nil
}

func (r *IdentityRepository) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrIdentityNotFound
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.FullName != nil {
		set["fullName"] = *update.FullName
	}
	if update.Bio != nil {
		set["bio"] = *update.Bio
	}
	if update.ProfilePic != nil {
		set["profilePic"] = *update.ProfilePic
	}
	if update.IsPrivate != nil {
		set["isPrivate"] = *update.IsPrivate
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var mu mongoUser
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&mu)
	if err != nil {
		return nil, translate(err, domain.ErrIdentityNotFound)
	}
	return mu.toDomain(), nil
}

func (r *IdentityRepository) SetBanned(ctx context.Context, id string, banned bool) error {
	return r.setFlag(ctx, id, "banned", banned)
}

func (r *IdentityRepository) SetVerified(ctx context.Context, id string) error {
	return r.setFlag(ctx, id, "isVerified", true)
}

func (r *IdentityRepository) setFlag(ctx context.Context, id, field string, value bool) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrIdentityNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		field:       value,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return translate(err, domain.ErrIdentityNotFound)
	}
	if res.MatchedCount == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

// EnsureIndexes creates the unique handle and email indexes.
func (r *IdentityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
