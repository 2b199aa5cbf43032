package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	SalesAgentStatusActive   = "ACTIVE"
	SalesAgentStatusInactive = "INACTIVE"
)

// SalesAgent is an identity eligible for commission attribution. Agents are
// deactivated, never deleted, because commissions keep referencing them.
type SalesAgent struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AgentCode              string             `bson:"agent_code" json:"agent_code" validate:"required,min=3,max=32"`
	FullName               string             `bson:"full_name" json:"full_name" validate:"required"`
	Email                  string             `bson:"email" json:"email" validate:"required,email"`
	Phone                  string             `bson:"phone" json:"phone"`
	CommissionPercentage   float64            `bson:"commission_percentage" json:"commission_percentage" validate:"gte=0,lte=100"`
	Status                 string             `bson:"status" json:"status"`
	TotalSales             int                `bson:"total_sales" json:"total_sales"`
	TotalCommissionsEarned float64            `bson:"total_commissions_earned" json:"total_commissions_earned"`
	TotalCommissionsPaid   float64            `bson:"total_commissions_paid" json:"total_commissions_paid"`
	CreatedAt              time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt              time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsActive reports whether the agent can be attributed on new sales.
func (a *SalesAgent) IsActive() bool {
	return a.Status == SalesAgentStatusActive
}
