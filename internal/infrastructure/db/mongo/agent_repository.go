package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mejarc/agent-onboarding/internal/core/domain"
	"github.com/mejarc/agent-onboarding/internal/core/ports"
)

const collectionAgents = "agents"

// AgentRepository persists the Agent aggregate as a single document (profile,
// bio and KYC records embedded), so every multi-entity write commits
// atomically and a concurrent reader sees either the old or the new aggregate.
type AgentRepository struct {
	col *mongo.Collection
}

func NewAgentRepository(db *mongo.Database) *AgentRepository {
	return &AgentRepository{col: db.Collection(collectionAgents)}
}

// notDeleted excludes soft-deleted agents from reads.
var notDeleted = bson.M{"deleted_at": bson.M{"$exists": false}}

// Create inserts a new agent. The unique index on user_id makes the loser of
// a concurrent Initialize race fail here with domain.ErrAgentExists.
func (r *AgentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if agent.ID == "" {
		agent.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.col.InsertOne(ctx, agent); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAgentExists
		}
		return err
	}
	return nil
}

func (r *AgentRepository) FindByID(ctx context.Context, id string) (*domain.Agent, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *AgentRepository) FindByUserID(ctx context.Context, userID string) (*domain.Agent, error) {
	return r.findOne(ctx, bson.M{"user_id": userID})
}

func (r *AgentRepository) findOne(ctx context.Context, filter bson.M) (*domain.Agent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	for k, v := range notDeleted {
		filter[k] = v
	}

	var agent domain.Agent
	if err := r.col.FindOne(ctx, filter).Decode(&agent); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAgentNotFound
		}
		return nil, err
	}
	return &agent, nil
}

// Update replaces the stored aggregate in one write.
func (r *AgentRepository) Update(ctx context.Context, agent *domain.Agent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": agent.ID}, agent)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrAgentNotFound
	}
	return nil
}

// SoftDelete stamps the tombstone; the document and its KYC history remain for
// audit.
func (r *AgentRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"deleted_at": at, "updated_at": at}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrAgentNotFound
	}
	return nil
}

// List returns a page of agents matching filter plus the total count, newest
// first. Search matches the business name or the owning user id.
func (r *AgentRepository) List(ctx context.Context, filter ports.ListAgentsFilter) ([]*domain.Agent, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{"deleted_at": bson.M{"$exists": false}}
	if filter.Status != "" {
		query["registration_status"] = filter.Status
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: filter.Search, Options: "i"}
		query["$or"] = bson.A{
			bson.M{"business_name": pattern},
			bson.M{"user_id": pattern},
		}
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var agents []*domain.Agent
	if err := cur.All(ctx, &agents); err != nil {
		return nil, 0, err
	}
	return agents, total, nil
}

// EnsureIndexes creates the indexes the repository depends on. The unique
// user_id index backs the one-agent-per-user invariant.
func (r *AgentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "registration_status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
