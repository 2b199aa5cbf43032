package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"inmoback/apperr"
	"inmoback/models"
)

// PlanService manages the subscription plan catalog. Plans referenced by
// live subscriptions are only ever soft-deleted.
type PlanService struct {
	plans  PlanStore
	logger *logrus.Logger
	now    nowFunc
}

func NewPlanService(plans PlanStore, logger *logrus.Logger) *PlanService {
	return &PlanService{
		plans:  plans,
		logger: logger,
		now:    defaultNow,
	}
}

// PlanSpec carries the full set of plan attributes for create and update.
type PlanSpec struct {
	Name               string
	Description        string
	Type               string
	Tier               string
	Price              float64
	BillingCycleDays   int
	MaxProperties      *int
	MaxAgents          *int
	HasAnalytics       bool
	HasCRM             bool
	HasNetworkAccess   bool
	HasPrioritySupport bool
	IsActive           bool
}

func (s *PlanSpec) validate() error {
	if s.Name == "" {
		return apperr.Validation("plan name is required")
	}
	if !models.ValidPlanType(s.Type) {
		return apperr.Validation("unknown plan type %q", s.Type)
	}
	if s.Tier != "" && !models.ValidPlanTier(s.Tier) {
		return apperr.Validation("unknown plan tier %q", s.Tier)
	}
	if s.Price < 0 {
		return apperr.Validation("plan price must not be negative")
	}
	if s.BillingCycleDays <= 0 {
		return apperr.Validation("billing cycle days must be positive")
	}
	return nil
}

func (ps *PlanService) ListActivePlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	return ps.plans.List(ctx, true)
}

func (ps *PlanService) ListAllPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	return ps.plans.List(ctx, false)
}

func (ps *PlanService) ListPlansByType(ctx context.Context, planType string) ([]models.SubscriptionPlan, error) {
	if !models.ValidPlanType(planType) {
		return nil, apperr.Validation("unknown plan type %q", planType)
	}
	return ps.plans.ListByType(ctx, planType, true)
}

func (ps *PlanService) GetPlan(ctx context.Context, id primitive.ObjectID) (*models.SubscriptionPlan, error) {
	return ps.plans.Get(ctx, id)
}

func (ps *PlanService) CreatePlan(ctx context.Context, spec PlanSpec) (*models.SubscriptionPlan, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	now := ps.now()
	plan := &models.SubscriptionPlan{
		ID:                 primitive.NewObjectID(),
		Name:               spec.Name,
		Description:        spec.Description,
		Type:               spec.Type,
		Tier:               spec.Tier,
		Price:              spec.Price,
		BillingCycleDays:   spec.BillingCycleDays,
		MaxProperties:      spec.MaxProperties,
		MaxAgents:          spec.MaxAgents,
		HasAnalytics:       spec.HasAnalytics,
		HasCRM:             spec.HasCRM,
		HasNetworkAccess:   spec.HasNetworkAccess,
		HasPrioritySupport: spec.HasPrioritySupport,
		IsActive:           spec.IsActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := ps.plans.Insert(ctx, plan); err != nil {
		return nil, err
	}

	ps.logger.WithFields(logrus.Fields{
		"plan_id":   plan.ID.Hex(),
		"plan_type": plan.Type,
		"tier":      plan.Tier,
	}).Info("plan created")

	return plan, nil
}

// UpdatePlan replaces the plan's attributes. Existing subscriptions keep
// the amount they were charged; the new price only affects future
// transitions.
func (ps *PlanService) UpdatePlan(ctx context.Context, id primitive.ObjectID, spec PlanSpec) (*models.SubscriptionPlan, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	plan, err := ps.plans.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	plan.Name = spec.Name
	plan.Description = spec.Description
	plan.Type = spec.Type
	plan.Tier = spec.Tier
	plan.Price = spec.Price
	plan.BillingCycleDays = spec.BillingCycleDays
	plan.MaxProperties = spec.MaxProperties
	plan.MaxAgents = spec.MaxAgents
	plan.HasAnalytics = spec.HasAnalytics
	plan.HasCRM = spec.HasCRM
	plan.HasNetworkAccess = spec.HasNetworkAccess
	plan.HasPrioritySupport = spec.HasPrioritySupport
	plan.IsActive = spec.IsActive
	plan.UpdatedAt = ps.now()

	if err := ps.plans.Update(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// DeactivatePlan soft-deletes a plan. The row stays because subscriptions
// reference it.
func (ps *PlanService) DeactivatePlan(ctx context.Context, id primitive.ObjectID) error {
	plan, err := ps.plans.Get(ctx, id)
	if err != nil {
		return err
	}
	if !plan.IsActive {
		return nil
	}

	plan.IsActive = false
	plan.UpdatedAt = ps.now()
	if err := ps.plans.Update(ctx, plan); err != nil {
		return err
	}

	ps.logger.WithField("plan_id", id.Hex()).Info("plan deactivated")
	return nil
}
