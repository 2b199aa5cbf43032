package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscription statuses. CANCELLED and EXPIRED are terminal; a user resumes
// service through a new subscription record, never by reviving an old one.
const (
	SubscriptionStatusActive    = "ACTIVE"
	SubscriptionStatusCancelled = "CANCELLED"
	SubscriptionStatusExpired   = "EXPIRED"
)

// UserSubscription binds one user to one plan for one interval. PlanType is
// denormalized from the plan so that the "one ACTIVE subscription per user
// and type" rule can be enforced with a partial unique index and looked up
// without a join.
type UserSubscription struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID             primitive.ObjectID  `bson:"user_id" json:"user_id"`
	SubscriptionPlanID primitive.ObjectID  `bson:"subscription_plan_id" json:"subscription_plan_id"`
	PlanType           string              `bson:"plan_type" json:"plan_type"`
	SalesAgentID       *primitive.ObjectID `bson:"sales_agent_id,omitempty" json:"sales_agent_id,omitempty"`
	Status             string              `bson:"status" json:"status"`
	StartDate          time.Time           `bson:"start_date" json:"start_date"`
	EndDate            time.Time           `bson:"end_date" json:"end_date"`
	NextBillingDate    time.Time           `bson:"next_billing_date" json:"next_billing_date"`
	AmountPaid         float64             `bson:"amount_paid" json:"amount_paid"`
	PaymentReference   string              `bson:"payment_reference" json:"payment_reference"`
	AutoRenew          bool                `bson:"auto_renew" json:"auto_renew"`
	CancelledAt        *time.Time          `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
	CancellationReason string              `bson:"cancellation_reason,omitempty" json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time           `bson:"updated_at" json:"updated_at"`
}

// IsTerminal reports whether the subscription has reached a final state.
func (s *UserSubscription) IsTerminal() bool {
	return s.Status == SubscriptionStatusCancelled || s.Status == SubscriptionStatusExpired
}

// IsActive reports whether the subscription currently grants access.
// Status is authoritative; dates only drive the expiration sweeper.
func (s *UserSubscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}

// SubscriptionAccess is the read-only access projection for one user and
// plan type.
type SubscriptionAccess struct {
	UserID    primitive.ObjectID `json:"user_id"`
	PlanType  string             `json:"plan_type"`
	HasAccess bool               `json:"has_access"`
	Tier      string             `json:"tier,omitempty"`
	EndDate   *time.Time         `json:"end_date,omitempty"`
}
