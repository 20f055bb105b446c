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

	"github.com/mejarc/agent-onboarding/internal/core/domain"
)

const collectionAdmins = "admins"

// AdminRepository is the Mongo-backed admin directory.
type AdminRepository struct {
	col   *mongo.Collection
	users *UserRepository
}

func NewAdminRepository(db *mongo.Database, users *UserRepository) *AdminRepository {
	return &AdminRepository{col: db.Collection(collectionAdmins), users: users}
}

// ListAdmins returns every admin with its User populated; admins whose user
// record cannot be resolved are returned without one.
func (r *AdminRepository) ListAdmins(ctx context.Context) ([]*domain.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"is_admin": true, "is_active": true})
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer cur.Close(ctx)

	var admins []*domain.Admin
	if err := cur.All(ctx, &admins); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}

	for _, admin := range admins {
		if user, err := r.users.FindUserByID(ctx, admin.UserID); err == nil {
			admin.User = user
		}
	}
	return admins, nil
}

func (r *AdminRepository) FindAdminByUserID(ctx context.Context, userID string) (*domain.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var admin domain.Admin
	if err := r.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&admin); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find admin: %w", err)
	}
	return &admin, nil
}

func (r *AdminRepository) CreateAdmin(ctx context.Context, admin *domain.Admin) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if admin.ID == "" {
		admin.ID = primitive.NewObjectID().Hex()
	}
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC()
	}
	if _, err := r.col.InsertOne(ctx, admin); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAdminExists
		}
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// EnsureIndexes creates the unique user_id index backing the one-admin-per-user
// rule.
func (r *AdminRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
