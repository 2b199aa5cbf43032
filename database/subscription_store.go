package database

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"inmoback/apperr"
	"inmoback/models"
	"inmoback/services"
)

// SubscriptionStore is the Mongo-backed subscription ledger store. The
// single-ACTIVE-per-(user,type) invariant is backed by a partial unique
// index (see migrations), so a racing insert surfaces as a duplicate key.
type SubscriptionStore struct{}

func NewSubscriptionStore() *SubscriptionStore { return &SubscriptionStore{} }

func (s *SubscriptionStore) Get(ctx context.Context, id primitive.ObjectID) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := SubscriptionCollection().FindOne(ctx, bson.M{"_id": id}).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound(apperr.CodeSubscriptionNotFound, "subscription %s not found", id.Hex())
	}
	if err != nil {
		return nil, apperr.Storage(err, "failed to load subscription %s", id.Hex())
	}
	return &sub, nil
}

func (s *SubscriptionStore) FindActiveByUserAndType(ctx context.Context, userID primitive.ObjectID, planType string) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := SubscriptionCollection().FindOne(ctx, bson.M{
		"user_id":   userID,
		"plan_type": planType,
		"status":    models.SubscriptionStatusActive,
	}).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage(err, "failed to look up active subscription")
	}
	return &sub, nil
}

func (s *SubscriptionStore) FindByPaymentReference(ctx context.Context, userID primitive.ObjectID, paymentRef string) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := SubscriptionCollection().FindOne(ctx, bson.M{
		"user_id":           userID,
		"payment_reference": paymentRef,
	}).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage(err, "failed to look up subscription by payment reference")
	}
	return &sub, nil
}

func (s *SubscriptionStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.UserSubscription, error) {
	cursor, err := SubscriptionCollection().Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.M{"created_at": -1}),
	)
	if err != nil {
		return nil, apperr.Storage(err, "failed to list subscriptions for user %s", userID.Hex())
	}
	defer cursor.Close(ctx)

	var subs []models.UserSubscription
	if err = cursor.All(ctx, &subs); err != nil {
		return nil, apperr.Storage(err, "failed to decode subscriptions")
	}
	return subs, nil
}

func (s *SubscriptionStore) List(ctx context.Context, filter services.SubscriptionFilter) ([]models.UserSubscription, int64, error) {
	query := bson.M{}
	if !filter.UserID.IsZero() {
		query["user_id"] = filter.UserID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.PlanType != "" {
		query["plan_type"] = filter.PlanType
	}

	total, err := SubscriptionCollection().CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, apperr.Storage(err, "failed to count subscriptions")
	}

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		opts.SetSkip(int64((page - 1) * filter.Limit)).SetLimit(int64(filter.Limit))
	}

	cursor, err := SubscriptionCollection().Find(ctx, query, opts)
	if err != nil {
		return nil, 0, apperr.Storage(err, "failed to list subscriptions")
	}
	defer cursor.Close(ctx)

	var subs []models.UserSubscription
	if err = cursor.All(ctx, &subs); err != nil {
		return nil, 0, apperr.Storage(err, "failed to decode subscriptions")
	}
	return subs, total, nil
}

func (s *SubscriptionStore) Insert(ctx context.Context, sub *models.UserSubscription) error {
	_, err := SubscriptionCollection().InsertOne(ctx, sub)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict(apperr.CodeAlreadySubscribed,
			"user already has an active %s subscription", sub.PlanType)
	}
	if err != nil {
		return apperr.Storage(err, "failed to insert subscription")
	}
	return nil
}

func (s *SubscriptionStore) Update(ctx context.Context, sub *models.UserSubscription) error {
	res, err := SubscriptionCollection().ReplaceOne(ctx, bson.M{"_id": sub.ID}, sub)
	if err != nil {
		return apperr.Storage(err, "failed to update subscription %s", sub.ID.Hex())
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound(apperr.CodeSubscriptionNotFound, "subscription %s not found", sub.ID.Hex())
	}
	return nil
}

// ExpireDue is the sweeper's storage primitive: one batch update moving
// every overdue ACTIVE subscription to EXPIRED.
func (s *SubscriptionStore) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := SubscriptionCollection().UpdateMany(ctx,
		bson.M{
			"status":   models.SubscriptionStatusActive,
			"end_date": bson.M{"$lt": now},
		},
		bson.M{"$set": bson.M{
			"status":     models.SubscriptionStatusExpired,
			"updated_at": now,
		}},
	)
	if err != nil {
		return 0, apperr.Storage(err, "failed to expire overdue subscriptions")
	}
	return res.ModifiedCount, nil
}

func (s *SubscriptionStore) Count(ctx context.Context) (int64, error) {
	count, err := SubscriptionCollection().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, apperr.Storage(err, "failed to count subscriptions")
	}
	return count, nil
}
