package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"inmoback/models"
)

// Store interfaces decouple the business services from the Mongo layer so
// the state machine can be exercised against in-memory fakes. The Mongo
// implementations live in the database package.

type PlanStore interface {
	List(ctx context.Context, onlyActive bool) ([]models.SubscriptionPlan, error)
	ListByType(ctx context.Context, planType string, onlyActive bool) ([]models.SubscriptionPlan, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.SubscriptionPlan, error)
	Insert(ctx context.Context, plan *models.SubscriptionPlan) error
	Update(ctx context.Context, plan *models.SubscriptionPlan) error
	Count(ctx context.Context) (int64, error)
}

// SubscriptionFilter narrows admin listings. Zero values mean "any".
type SubscriptionFilter struct {
	UserID   primitive.ObjectID
	Status   string
	PlanType string
	Page     int
	Limit    int
}

type SubscriptionStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.UserSubscription, error)
	FindActiveByUserAndType(ctx context.Context, userID primitive.ObjectID, planType string) (*models.UserSubscription, error)
	FindByPaymentReference(ctx context.Context, userID primitive.ObjectID, paymentRef string) (*models.UserSubscription, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.UserSubscription, error)
	List(ctx context.Context, filter SubscriptionFilter) ([]models.UserSubscription, int64, error)
	Insert(ctx context.Context, sub *models.UserSubscription) error
	Update(ctx context.Context, sub *models.UserSubscription) error
	// ExpireDue transitions every ACTIVE subscription with endDate strictly
	// before now to EXPIRED in one batch and returns how many moved.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type SalesAgentStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.SalesAgent, error)
	FindByCode(ctx context.Context, agentCode string) (*models.SalesAgent, error)
	ExistsByCode(ctx context.Context, agentCode string) (bool, error)
	List(ctx context.Context, onlyActive bool) ([]models.SalesAgent, error)
	Insert(ctx context.Context, agent *models.SalesAgent) error
	Update(ctx context.Context, agent *models.SalesAgent) error
	Count(ctx context.Context) (int64, error)
}

type CommissionStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Commission, error)
	ListByAgent(ctx context.Context, agentID primitive.ObjectID, pendingOnly bool) ([]models.Commission, error)
	Insert(ctx context.Context, commission *models.Commission) error
	Update(ctx context.Context, commission *models.Commission) error
	Count(ctx context.Context) (int64, error)
	// PendingTotals returns the count and summed amount of unpaid
	// commissions across all agents.
	PendingTotals(ctx context.Context) (int64, float64, error)
}

type UserStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// TxRunner executes fn inside one storage transaction so a subscription
// state change and its derived commission commit or fail together.
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
