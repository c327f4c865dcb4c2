package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopit/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// UsersCollection is the MongoDB collection holding user documents
const UsersCollection = "users"

// userMongoRepository implements the user store on MongoDB
type userMongoRepository struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

// NewUserMongoRepository creates a new user repository over the given collection
func NewUserMongoRepository(coll *mongo.Collection, logger *zap.Logger) *userMongoRepository {
	return &userMongoRepository{
		coll:   coll,
		logger: logger,
	}
}

// EnsureIndexes creates the unique email index and the reset token lookup index
func (r *userMongoRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys:    bson.D{{Key: "resetPasswordToken", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("reset_password_token"),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		r.logger.Error("failed to create user indexes", zap.Error(err))
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

// Create inserts a new user document
func (r *userMongoRepository) Create(ctx context.Context, user *models.User) error {
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		r.logger.Error("failed to create user", zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByEmail retrieves a user by email
func (r *userMongoRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}}, "get user by email")
}

// GetByID retrieves a user by ID
func (r *userMongoRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}}, "get user by id")
}

// GetByResetTokenHash retrieves the user holding an unexpired reset token with the given hash
func (r *userMongoRepository) GetByResetTokenHash(ctx context.Context, hash string, now time.Time) (*models.User, error) {
	filter := bson.D{
		{Key: "resetPasswordToken", Value: hash},
		{Key: "resetPasswordExpire", Value: bson.D{{Key: "$gt", Value: now.UTC()}}},
	}
	return r.findOne(ctx, filter, "get user by reset token")
}

func (r *userMongoRepository) findOne(ctx context.Context, filter bson.D, operation string) (*models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		r.logger.Error("failed to "+operation, zap.Error(err))
		return nil, fmt.Errorf("failed to %s: %w", operation, err)
	}
	return &user, nil
}

// Update applies the given changes to a user document atomically
func (r *userMongoRepository) Update(ctx context.Context, id string, changes *models.UserChanges) error {
	set := bson.D{}
	unset := bson.D{}

	if changes.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *changes.Name})
	}
	if changes.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *changes.Email})
	}
	if changes.Role != nil {
		set = append(set, bson.E{Key: "role", Value: *changes.Role})
	}
	if changes.PasswordHash != nil {
		set = append(set, bson.E{Key: "password", Value: *changes.PasswordHash})
	}
	switch {
	case changes.Reset != nil:
		set = append(set,
			bson.E{Key: "resetPasswordToken", Value: changes.Reset.TokenHash},
			bson.E{Key: "resetPasswordExpire", Value: changes.Reset.ExpiresAt.UTC()},
		)
	case changes.ClearReset:
		unset = append(unset,
			bson.E{Key: "resetPasswordToken", Value: ""},
			bson.E{Key: "resetPasswordExpire", Value: ""},
		)
	}

	update := bson.D{}
	if len(set) > 0 {
		update = append(update, bson.E{Key: "$set", Value: set})
	}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}
	if len(update) == 0 {
		return nil
	}

	filter := bson.D{{Key: "_id", Value: id}}
	if changes.IfReset != nil {
		filter = append(filter,
			bson.E{Key: "resetPasswordToken", Value: changes.IfReset.TokenHash},
			bson.E{Key: "resetPasswordExpire", Value: bson.D{{Key: "$gt", Value: changes.IfReset.ValidAt.UTC()}}},
		)
	}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		r.logger.Error("failed to update user", zap.Error(err), zap.String("user_id", id))
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}

	return nil
}

// GetAll retrieves all users ordered by creation time
func (r *userMongoRepository) GetAll(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		r.logger.Error("failed to query users", zap.Error(err))
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		r.logger.Error("failed to decode users", zap.Error(err))
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	return users, nil
}

// Delete removes a user document by ID
func (r *userMongoRepository) Delete(ctx context.Context, id string) error {
	result, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		r.logger.Error("failed to delete user", zap.Error(err), zap.String("user_id", id))
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
