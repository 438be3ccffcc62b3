package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/maintenance-app/maintenance-api/internal/core/domain"
)

const (
	usersCollection = "users"
	emailIndex      = "email_1"
	usernameIndex   = "username_1"

	duplicateKeyCode = 11000
)

// UserRepository implements ports.UserRepository using MongoDB.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

type mongoUser struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Email         string             `bson:"email"`
	Username      string             `bson:"username,omitempty"`
	PasswordHash  string             `bson:"password_hash"`
	FullName      string             `bson:"full_name"`
	Role          string             `bson:"role"`
	Tier          string             `bson:"subscription_tier"`
	TierExpiresAt *time.Time         `bson:"subscription_expires_at,omitempty"`
	IsActive      bool               `bson:"is_active"`
	IsVerified    bool               `bson:"is_verified"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

// EnsureIndexes creates the unique indexes the auth core relies on.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName(emailIndex).SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetName(usernameIndex).SetUnique(true).SetSparse(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	doc := mongoUser{
		Email:         user.Email,
		Username:      user.Username,
		PasswordHash:  user.PasswordHash,
		FullName:      user.FullName,
		Role:          string(user.Role),
		Tier:          string(user.Tier),
		TierExpiresAt: user.TierExpiresAt,
		IsActive:      user.IsActive,
		IsVerified:    user.IsVerified,
		CreatedAt:     user.CreatedAt.UTC(),
		UpdatedAt:     user.UpdatedAt.UTC(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if duplicateIndex(err) == usernameIndex {
				return nil, domain.ErrDuplicateUsername
			}
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain()
}

// duplicateIndex returns the name of the unique index a duplicate-key write
// error violated, or "" when it cannot be determined. The server reports it
// as "... index: <name> dup key: ...".
func duplicateIndex(err error) string {
	var we mongo.WriteException
	if !errors.As(err, &we) {
		return ""
	}
	for _, e := range we.WriteErrors {
		if e.Code != duplicateKeyCode {
			continue
		}
		_, rest, ok := strings.Cut(e.Message, " index: ")
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(rest, " ")
		return name
	}
	return ""
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	update := bson.M{"$set": bson.M{
		"is_active":  active,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var mu mongoUser
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return mu.toDomain()
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain()
}

// toDomain converts the stored strings back into the canonical enums.
func (mu mongoUser) toDomain() (*domain.User, error) {
	role, err := domain.ParseRole(mu.Role)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", mu.ID.Hex(), err)
	}
	tier, err := domain.ParseTier(mu.Tier)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", mu.ID.Hex(), err)
	}

	return &domain.User{
		ID:            mu.ID.Hex(),
		Email:         mu.Email,
		Username:      mu.Username,
		PasswordHash:  mu.PasswordHash,
		FullName:      mu.FullName,
		Role:          role,
		Tier:          tier,
		TierExpiresAt: mu.TierExpiresAt,
		IsActive:      mu.IsActive,
		IsVerified:    mu.IsVerified,
		CreatedAt:     mu.CreatedAt,
		UpdatedAt:     mu.UpdatedAt,
	}, nil
}
