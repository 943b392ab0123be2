package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agroconnect/marketplace-auth/internal/core/domain"
)

const accountsCollection = "users"

// AccountDirectory implements ports.AccountDirectory on MongoDB. Email
// uniqueness is enforced by a unique index, so concurrent registrations for
// the same address cannot both succeed.
type AccountDirectory struct {
	coll *mongo.Collection
}

func NewAccountDirectory(db *mongo.Database) *AccountDirectory {
	return &AccountDirectory{coll: db.Collection(accountsCollection)}
}

type accountDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	DisplayName  string             `bson:"display_name"`
	Role         string             `bson:"role"`
	Phone        string             `bson:"phone,omitempty"`
	Address      string             `bson:"address,omitempty"`
	Avatar       string             `bson:"avatar"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (d accountDoc) toDomain() *domain.Identity {
	return &domain.Identity{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		DisplayName:  d.DisplayName,
		Role:         domain.Role(d.Role),
		Phone:        d.Phone,
		Address:      d.Address,
		Avatar:       d.Avatar,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

// EnsureIndexes creates the unique email index. Call once at startup.
func (r *AccountDirectory) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_email"),
	})
	return err
}

func (r *AccountDirectory) Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := accountDoc{
		ID:           primitive.NewObjectID(),
		Email:        identity.Email,
		PasswordHash: identity.PasswordHash,
		DisplayName:  identity.DisplayName,
		Role:         string(identity.Role),
		Phone:        identity.Phone,
		Address:      identity.Address,
		Avatar:       identity.Avatar,
		CreatedAt:    identity.CreatedAt,
		UpdatedAt:    identity.UpdatedAt,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateAccount
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AccountDirectory) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *AccountDirectory) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// UpdateProfile $sets only the present, non-empty fields of update and
// returns the document as it is after the write.
func (r *AccountDirectory) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.Identity, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc accountDoc
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": profileSet(update, time.Now().UTC())}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	return doc.toDomain(), nil
}

func profileSet(update domain.ProfileUpdate, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	update = update.Changes()
	if v, ok := update.DisplayName.Get(); ok {
		set["display_name"] = v
	}
	if v, ok := update.Phone.Get(); ok {
		set["phone"] = v
	}
	if v, ok := update.Address.Get(); ok {
		set["address"] = v
	}
	if v, ok := update.Avatar.Get(); ok {
		set["avatar"] = v
	}
	return set
}

func (r *AccountDirectory) findOne(ctx context.Context, filter bson.M) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc accountDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}
