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

// CommissionStore is the Mongo-backed commission ledger store.
type CommissionStore struct{}

func NewCommissionStore() *CommissionStore { return &CommissionStore{} }

func (s *CommissionStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Commission, error) {
	var commission models.Commission
	err := CommissionCollection().FindOne(ctx, bson.M{"_id": id}).Decode(&commission)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound(apperr.CodeCommissionNotFound, "commission %s not found", id.Hex())
	}
	if err != nil {
		return nil, apperr.Storage(err, "failed to load commission %s", id.Hex())
	}
	return &commission, nil
}

func (s *CommissionStore) ListByAgent(ctx context.Context, agentID primitive.ObjectID, pendingOnly bool) ([]models.Commission, error) {
	filter := bson.M{"sales_agent_id": agentID}
	if pendingOnly {
		filter["paid"] = false
	}

	cursor, err := CommissionCollection().Find(ctx, filter,
		options.Find().SetSort(bson.M{"sale_date": -1}),
	)
	if err != nil {
		return nil, apperr.Storage(err, "failed to list commissions for agent %s", agentID.Hex())
	}
	defer cursor.Close(ctx)

	var commissions []models.Commission
	if err = cursor.All(ctx, &commissions); err != nil {
		return nil, apperr.Storage(err, "failed to decode commissions")
	}
	return commissions, nil
}

func (s *CommissionStore) Insert(ctx context.Context, commission *models.Commission) error {
	if _, err := CommissionCollection().InsertOne(ctx, commission); err != nil {
		return apperr.Storage(err, "failed to insert commission")
	}
	return nil
}

func (s *CommissionStore) Update(ctx context.Context, commission *models.Commission) error {
	res, err := CommissionCollection().ReplaceOne(ctx, bson.M{"_id": commission.ID}, commission)
	if err != nil {
		return apperr.Storage(err, "failed to update commission %s", commission.ID.Hex())
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound(apperr.CodeCommissionNotFound, "commission %s not found", commission.ID.Hex())
	}
	return nil
}

// PendingTotals aggregates the unpaid commission backlog across all agents.
func (s *CommissionStore) PendingTotals(ctx context.Context) (int64, float64, error) {
	cursor, err := CommissionCollection().Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"paid": false}}},
		{{Key: "$group", Value: bson.M{
			"_id":    nil,
			"count":  bson.M{"$sum": 1},
			"amount": bson.M{"$sum": "$commission_amount"},
		}}},
	})
	if err != nil {
		return 0, 0, apperr.Storage(err, "failed to aggregate pending commissions")
	}
	defer cursor.Close(ctx)

	var results []struct {
		Count  int64   `bson:"count"`
		Amount float64 `bson:"amount"`
	}
	if err = cursor.All(ctx, &results); err != nil {
		return 0, 0, apperr.Storage(err, "failed to decode pending commission totals")
	}
	if len(results) == 0 {
		return 0, 0, nil
	}
	return results[0].Count, results[0].Amount, nil
}

func (s *CommissionStore) Count(ctx context.Context) (int64, error) {
	count, err := CommissionCollection().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, apperr.Storage(err, "failed to count commissions")
	}
	return count, nil
}
