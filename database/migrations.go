package database

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"inmoback/models"
	"inmoback/utils"
)

// RunMigrations creates indexes and seeds the catalog and the default
// admin. Safe to run on every startup.
func RunMigrations(adminEmail, adminPassword string) error {
	logrus.Info("running database migrations")

	if err := createIndexes(); err != nil {
		return err
	}
	if err := createDefaultAdmin(adminEmail, adminPassword); err != nil {
		return err
	}
	if err := createDefaultPlans(); err != nil {
		return err
	}

	logrus.Info("database migrations completed")
	return nil
}

// createIndexes sets up the indexes the ledger relies on. The partial
// unique index on (user_id, plan_type) for ACTIVE rows enforces the
// single-active-subscription invariant at the storage layer, so a race
// between two Subscribe calls cannot commit two winners.
func createIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := SubscriptionCollection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "plan_type", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": models.SubscriptionStatusActive}),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "payment_reference", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "end_date", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = SalesAgentCollection().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "agent_code", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = CommissionCollection().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sales_agent_id", Value: 1}, {Key: "paid", Value: 1}},
	})
	if err != nil {
		return err
	}

	_, err = UserCollection().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func createDefaultAdmin(email, password string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := UserCollection().CountDocuments(ctx, bson.M{"role": models.UserRoleAdmin})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = UserCollection().InsertOne(ctx, models.User{
		FullName:  "Administrator",
		Email:     email,
		Password:  hashed,
		Role:      models.UserRoleAdmin,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return err
	}

	logrus.WithField("email", email).Info("default admin created")
	return nil
}

// createDefaultPlans seeds the plan catalog on first boot only.
func createDefaultPlans() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := PlanCollection().CountDocuments(ctx, bson.M{})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	intPtr := func(v int) *int { return &v }
	now := time.Now().UTC()

	plans := []interface{}{
		models.SubscriptionPlan{
			Name:             "PropTech Free",
			Description:      "Basic property listing for independents",
			Type:             models.PlanTypeProptech,
			Tier:             models.PlanTierFree,
			Price:            0,
			BillingCycleDays: 30,
			MaxProperties:    intPtr(5),
			MaxAgents:        intPtr(1),
			IsActive:         true,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		models.SubscriptionPlan{
			Name:             "PropTech Inicial",
			Description:      "Entry plan for small agencies",
			Type:             models.PlanTypeProptech,
			Tier:             models.PlanTierInicial,
			Price:            150000,
			BillingCycleDays: 30,
			MaxProperties:    intPtr(30),
			MaxAgents:        intPtr(3),
			HasCRM:           true,
			IsActive:         true,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		models.SubscriptionPlan{
			Name:             "PropTech Intermedio",
			Description:      "Growing agencies with analytics",
			Type:             models.PlanTypeProptech,
			Tier:             models.PlanTierIntermedio,
			Price:            300000,
			BillingCycleDays: 30,
			MaxProperties:    intPtr(100),
			MaxAgents:        intPtr(10),
			HasCRM:           true,
			HasAnalytics:     true,
			IsActive:         true,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		models.SubscriptionPlan{
			Name:               "PropTech Premium",
			Description:        "Full feature set, unlimited inventory",
			Type:               models.PlanTypeProptech,
			Tier:               models.PlanTierPremium,
			Price:              500000,
			BillingCycleDays:   30,
			MaxProperties:      intPtr(models.UnlimitedResources),
			MaxAgents:          intPtr(models.UnlimitedResources),
			HasCRM:             true,
			HasAnalytics:       true,
			HasPrioritySupport: true,
			IsActive:           true,
			CreatedAt:          now,
			UpdatedAt:          now,
		},
		models.SubscriptionPlan{
			Name:             "PropTech Intermedio Anual",
			Description:      "Intermedio billed yearly",
			Type:             models.PlanTypeProptech,
			Tier:             models.PlanTierIntermedio,
			Price:            3000000,
			BillingCycleDays: 365,
			MaxProperties:    intPtr(100),
			MaxAgents:        intPtr(10),
			HasCRM:           true,
			HasAnalytics:     true,
			IsActive:         true,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		models.SubscriptionPlan{
			Name:               "PropTech Premium Anual",
			Description:        "Premium billed yearly",
			Type:               models.PlanTypeProptech,
			Tier:               models.PlanTierPremium,
			Price:              5000000,
			BillingCycleDays:   365,
			MaxProperties:      intPtr(models.UnlimitedResources),
			MaxAgents:          intPtr(models.UnlimitedResources),
			HasCRM:             true,
			HasAnalytics:       true,
			HasPrioritySupport: true,
			IsActive:           true,
			CreatedAt:          now,
			UpdatedAt:          now,
		},
		models.SubscriptionPlan{
			Name:             "Network Mensual",
			Description:      "Partner network access",
			Type:             models.PlanTypeNetwork,
			Price:            80000,
			BillingCycleDays: 30,
			HasNetworkAccess: true,
			IsActive:         true,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		models.SubscriptionPlan{
			Name:             "Network Anual",
			Description:      "Partner network access billed yearly",
			Type:             models.PlanTypeNetwork,
			Price:            800000,
			BillingCycleDays: 365,
			HasNetworkAccess: true,
			IsActive:         true,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
	}

	if _, err := PlanCollection().InsertMany(ctx, plans); err != nil {
		return err
	}

	logrus.WithField("plans", len(plans)).Info("default plan catalog created")
	return nil
}
