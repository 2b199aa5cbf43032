package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Plan types sold by the platform.
const (
	PlanTypeProptech = "PROPTECH"
	PlanTypeNetwork  = "NETWORK"
)

// PropTech tiers, ordered from poorest to richest.
const (
	PlanTierFree       = "FREE"
	PlanTierInicial    = "INICIAL"
	PlanTierIntermedio = "INTERMEDIO"
	PlanTierPremium    = "PREMIUM"
)

// AnnualCycleDays is the threshold above which a billing cycle is treated
// as annual for proration purposes.
const AnnualCycleDays = 365

// UnlimitedResources marks a resource cap with no limit.
const UnlimitedResources = -1

type SubscriptionPlan struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name               string             `bson:"name" json:"name" validate:"required"`
	Description        string             `bson:"description" json:"description"`
	Type               string             `bson:"type" json:"type" validate:"required,plan_type"`
	Tier               string             `bson:"tier,omitempty" json:"tier,omitempty" validate:"omitempty,plan_tier"`
	Price              float64            `bson:"price" json:"price" validate:"gte=0"`
	BillingCycleDays   int                `bson:"billing_cycle_days" json:"billing_cycle_days" validate:"gt=0"`
	MaxProperties      *int               `bson:"max_properties,omitempty" json:"max_properties,omitempty"`
	MaxAgents          *int               `bson:"max_agents,omitempty" json:"max_agents,omitempty"`
	HasAnalytics       bool               `bson:"has_analytics" json:"has_analytics"`
	HasCRM             bool               `bson:"has_crm" json:"has_crm"`
	HasNetworkAccess   bool               `bson:"has_network_access" json:"has_network_access"`
	HasPrioritySupport bool               `bson:"has_priority_support" json:"has_priority_support"`
	IsActive           bool               `bson:"is_active" json:"is_active"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsAnnual reports whether the plan bills on an annual-class cycle, which
// switches on the proration rules when the plan is changed mid-cycle.
func (p *SubscriptionPlan) IsAnnual() bool {
	return p.BillingCycleDays >= AnnualCycleDays
}

// ValidPlanType reports whether t is one of the sellable plan types.
func ValidPlanType(t string) bool {
	return t == PlanTypeProptech || t == PlanTypeNetwork
}

// ValidPlanTier reports whether t is a known PropTech tier.
func ValidPlanTier(t string) bool {
	switch t {
	case PlanTierFree, PlanTierInicial, PlanTierIntermedio, PlanTierPremium:
		return true
	}
	return false
}
