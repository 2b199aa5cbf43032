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

// PlanStore is the Mongo-backed plan catalog store.
type PlanStore struct{}

func NewPlanStore() *PlanStore { return &PlanStore{} }

func (s *PlanStore) List(ctx context.Context, onlyActive bool) ([]models.SubscriptionPlan, error) {
	filter := bson.M{}
	if onlyActive {
		filter["is_active"] = true
	}

	cursor, err := PlanCollection().Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "type", Value: 1}, {Key: "price", Value: 1}}),
	)
	if err != nil {
		return nil, apperr.Storage(err, "failed to list plans")
	}
	defer cursor.Close(ctx)

	var plans []models.SubscriptionPlan
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, apperr.Storage(err, "failed to decode plans")
	}
	return plans, nil
}

func (s *PlanStore) ListByType(ctx context.Context, planType string, onlyActive bool) ([]models.SubscriptionPlan, error) {
	filter := bson.M{"type": planType}
	if onlyActive {
		filter["is_active"] = true
	}

	cursor, err := PlanCollection().Find(ctx, filter,
		options.Find().SetSort(bson.M{"price": 1}),
	)
	if err != nil {
		return nil, apperr.Storage(err, "failed to list %s plans", planType)
	}
	defer cursor.Close(ctx)

	var plans []models.SubscriptionPlan
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, apperr.Storage(err, "failed to decode plans")
	}
	return plans, nil
}

func (s *PlanStore) Get(ctx context.Context, id primitive.ObjectID) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := PlanCollection().FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound(apperr.CodePlanNotFound, "plan %s not found", id.Hex())
	}
	if err != nil {
		return nil, apperr.Storage(err, "failed to load plan %s", id.Hex())
	}
	return &plan, nil
}

func (s *PlanStore) Insert(ctx context.Context, plan *models.SubscriptionPlan) error {
	if _, err := PlanCollection().InsertOne(ctx, plan); err != nil {
		return apperr.Storage(err, "failed to insert plan")
	}
	return nil
}

func (s *PlanStore) Update(ctx context.Context, plan *models.SubscriptionPlan) error {
	res, err := PlanCollection().ReplaceOne(ctx, bson.M{"_id": plan.ID}, plan)
	if err != nil {
		return apperr.Storage(err, "failed to update plan %s", plan.ID.Hex())
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound(apperr.CodePlanNotFound, "plan %s not found", plan.ID.Hex())
	}
	return nil
}

func (s *PlanStore) Count(ctx context.Context) (int64, error) {
	count, err := PlanCollection().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, apperr.Storage(err, "failed to count plans")
	}
	return count, nil
}
