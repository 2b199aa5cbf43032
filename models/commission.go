package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Commission records one paid subscription transition attributed to a sales
// agent. The percentage and amount are copied at creation time; later edits
// to the agent's rate never touch historical commissions.
type Commission struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SalesAgentID         primitive.ObjectID `bson:"sales_agent_id" json:"sales_agent_id"`
	UserSubscriptionID   primitive.ObjectID `bson:"user_subscription_id" json:"user_subscription_id"`
	SaleAmount           float64            `bson:"sale_amount" json:"sale_amount"`
	CommissionPercentage float64            `bson:"commission_percentage" json:"commission_percentage"`
	CommissionAmount     float64            `bson:"commission_amount" json:"commission_amount"`
	SaleDate             time.Time          `bson:"sale_date" json:"sale_date"`
	Paid                 bool               `bson:"paid" json:"paid"`
	PaymentReference     string             `bson:"payment_reference,omitempty" json:"payment_reference,omitempty"`
	PaidAt               *time.Time         `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
	CreatedAt            time.Time          `bson:"created_at" json:"created_at"`
}
