package database

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"inmoback/apperr"
	"inmoback/models"
)

// SalesAgentStore is the Mongo-backed agent registry store. Agent codes
// carry a unique index (see migrations).
type SalesAgentStore struct{}

func NewSalesAgentStore() *SalesAgentStore { return &SalesAgentStore{} }

func (s *SalesAgentStore) Get(ctx context.Context, id primitive.ObjectID) (*models.SalesAgent, error) {
	var agent models.SalesAgent
	err := SalesAgentCollection().FindOne(ctx, bson.M{"_id": id}).Decode(&agent)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound(apperr.CodeAgentNotFound, "sales agent %s not found", id.Hex())
	}
	if err != nil {
		return nil, apperr.Storage(err, "failed to load sales agent %s", id.Hex())
	}
	return &agent, nil
}

func (s *SalesAgentStore) FindByCode(ctx context.Context, agentCode string) (*models.SalesAgent, error) {
	var agent models.SalesAgent
	err := SalesAgentCollection().FindOne(ctx, bson.M{"agent_code": agentCode}).Decode(&agent)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage(err, "failed to look up sales agent %q", agentCode)
	}
	return &agent, nil
}

func (s *SalesAgentStore) ExistsByCode(ctx context.Context, agentCode string) (bool, error) {
	count, err := SalesAgentCollection().CountDocuments(ctx, bson.M{"agent_code": agentCode})
	if err != nil {
		return false, apperr.Storage(err, "failed to check agent code %q", agentCode)
	}
	return count > 0, nil
}

func (s *SalesAgentStore) List(ctx context.Context, onlyActive bool) ([]models.SalesAgent, error) {
	filter := bson.M{}
	if onlyActive {
		filter["status"] = models.SalesAgentStatusActive
	}

	cursor, err := SalesAgentCollection().Find(ctx, filter,
		options.Find().SetSort(bson.M{"agent_code": 1}),
	)
	if err != nil {
		return nil, apperr.Storage(err, "failed to list sales agents")
	}
	defer cursor.Close(ctx)

	var agents []models.SalesAgent
	if err = cursor.All(ctx, &agents); err != nil {
		return nil, apperr.Storage(err, "failed to decode sales agents")
	}
	return agents, nil
}

func (s *SalesAgentStore) Insert(ctx context.Context, agent *models.SalesAgent) error {
	_, err := SalesAgentCollection().InsertOne(ctx, agent)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict(apperr.CodeAgentCodeTaken, "agent code %q is already in use", agent.AgentCode)
	}
	if err != nil {
		return apperr.Storage(err, "failed to insert sales agent")
	}
	return nil
}

func (s *SalesAgentStore) Update(ctx context.Context, agent *models.SalesAgent) error {
	res, err := SalesAgentCollection().ReplaceOne(ctx, bson.M{"_id": agent.ID}, agent)
	if err != nil {
		return apperr.Storage(err, "failed to update sales agent %s", agent.ID.Hex())
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound(apperr.CodeAgentNotFound, "sales agent %s not found", agent.ID.Hex())
	}
	return nil
}

func (s *SalesAgentStore) Count(ctx context.Context) (int64, error) {
	count, err := SalesAgentCollection().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, apperr.Storage(err, "failed to count sales agents")
	}
	return count, nil
}
