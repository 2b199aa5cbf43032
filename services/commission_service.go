package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"inmoback/apperr"
	"inmoback/models"
)

// CommissionService exposes the commission ledger: per-agent listings and
// the single payout path. Commissions are created by the subscription
// ledger, never here.
type CommissionService struct {
	commis CommissionStore
	agents SalesAgentStore
	tx     TxRunner
	logger *logrus.Logger
	now    nowFunc
}

func NewCommissionService(commissions CommissionStore, agents SalesAgentStore, tx TxRunner, logger *logrus.Logger) *CommissionService {
	return &CommissionService{
		commis: commissions,
		agents: agents,
		tx:     tx,
		logger: logger,
		now:    defaultNow,
	}
}

func (cs *CommissionService) GetCommission(ctx context.Context, id primitive.ObjectID) (*models.Commission, error) {
	return cs.commis.Get(ctx, id)
}

// ListBySalesAgent returns all commissions earned by an agent.
func (cs *CommissionService) ListBySalesAgent(ctx context.Context, agentID primitive.ObjectID) ([]models.Commission, error) {
	if _, err := cs.agents.Get(ctx, agentID); err != nil {
		return nil, err
	}
	return cs.commis.ListByAgent(ctx, agentID, false)
}

// ListPending returns the agent's unpaid commissions.
func (cs *CommissionService) ListPending(ctx context.Context, agentID primitive.ObjectID) ([]models.Commission, error) {
	if _, err := cs.agents.Get(ctx, agentID); err != nil {
		return nil, err
	}
	return cs.commis.ListByAgent(ctx, agentID, true)
}

// PayCommission marks a commission as paid exactly once, stamping the
// payout reference and crediting the agent's paid total. A second call on
// the same commission reports a state conflict instead of double-crediting.
func (cs *CommissionService) PayCommission(ctx context.Context, commissionID primitive.ObjectID, paymentRef string) (*models.Commission, error) {
	if paymentRef == "" {
		return nil, apperr.Validation("payment reference is required")
	}

	var commission *models.Commission
	err := cs.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		commission, err = cs.commis.Get(ctx, commissionID)
		if err != nil {
			return err
		}
		if commission.Paid {
			return apperr.InvalidState(apperr.CodeAlreadyPaid,
				"commission %s is already paid", commissionID.Hex())
		}

		now := cs.now()
		commission.Paid = true
		commission.PaymentReference = paymentRef
		commission.PaidAt = &now
		if err := cs.commis.Update(ctx, commission); err != nil {
			return err
		}

		agent, err := cs.agents.Get(ctx, commission.SalesAgentID)
		if err != nil {
			return err
		}
		paid := decimal.NewFromFloat(agent.TotalCommissionsPaid).
			Add(decimal.NewFromFloat(commission.CommissionAmount))
		agent.TotalCommissionsPaid, _ = round2(paid).Float64()
		agent.UpdatedAt = now
		return cs.agents.Update(ctx, agent)
	})
	if err != nil {
		return nil, err
	}

	cs.logger.WithFields(logrus.Fields{
		"commission_id":  commission.ID.Hex(),
		"sales_agent_id": commission.SalesAgentID.Hex(),
		"amount":         commission.CommissionAmount,
	}).Info("commission paid")

	return commission, nil
}
