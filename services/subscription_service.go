package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"inmoback/apperr"
	"inmoback/models"
)

// SubscriptionService is the ledger: it owns the per-user subscription
// state machine and derives commissions from paid transitions. Every
// mutating operation runs inside one storage transaction so the state
// change, the commission record and the agent totals commit together.
type SubscriptionService struct {
	subs   SubscriptionStore
	plans  PlanStore
	agents SalesAgentStore
	commis CommissionStore
	users  UserStore
	tx     TxRunner
	logger *logrus.Logger
	now    nowFunc
}

func NewSubscriptionService(
	subs SubscriptionStore,
	plans PlanStore,
	agents SalesAgentStore,
	commissions CommissionStore,
	users UserStore,
	tx TxRunner,
	logger *logrus.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		subs:   subs,
		plans:  plans,
		agents: agents,
		commis: commissions,
		users:  users,
		tx:     tx,
		logger: logger,
		now:    defaultNow,
	}
}

// Subscribe creates a new ACTIVE subscription for the user on the given
// plan. Retrying with the same payment reference returns the subscription
// created by the first attempt instead of a duplicate.
func (ss *SubscriptionService) Subscribe(ctx context.Context, userID, planID primitive.ObjectID, paymentRef, agentCode string) (*models.UserSubscription, error) {
	if paymentRef == "" {
		return nil, apperr.Validation("payment reference is required")
	}

	if _, err := ss.users.Get(ctx, userID); err != nil {
		return nil, err
	}

	plan, err := ss.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, apperr.NotFound(apperr.CodePlanNotFound, "plan %s is no longer offered", planID.Hex())
	}

	agent, err := ss.resolveAgent(ctx, agentCode)
	if err != nil {
		return nil, err
	}

	var sub *models.UserSubscription
	err = ss.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := ss.subs.FindByPaymentReference(ctx, userID, paymentRef)
		if err != nil {
			return err
		}
		if existing != nil {
			sub = existing
			return nil
		}

		active, err := ss.subs.FindActiveByUserAndType(ctx, userID, plan.Type)
		if err != nil {
			return err
		}
		if active != nil {
			return apperr.Conflict(apperr.CodeAlreadySubscribed,
				"user already has an active %s subscription", plan.Type)
		}

		now := ss.now()
		end := cycleEnd(now, plan.BillingCycleDays)
		sub = &models.UserSubscription{
			ID:                 primitive.NewObjectID(),
			UserID:             userID,
			SubscriptionPlanID: plan.ID,
			PlanType:           plan.Type,
			Status:             models.SubscriptionStatusActive,
			StartDate:          now,
			EndDate:            end,
			NextBillingDate:    end,
			AmountPaid:         plan.Price,
			PaymentReference:   paymentRef,
			AutoRenew:          true,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if agent != nil {
			sub.SalesAgentID = &agent.ID
		}

		if err := ss.subs.Insert(ctx, sub); err != nil {
			return err
		}
		if agent != nil {
			if err := ss.recordCommission(ctx, agent, sub); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ss.logger.WithFields(logrus.Fields{
		"subscription_id": sub.ID.Hex(),
		"user_id":         userID.Hex(),
		"plan_type":       sub.PlanType,
		"amount_paid":     sub.AmountPaid,
	}).Info("subscription created")

	return sub, nil
}

// Cancel moves an ACTIVE subscription to CANCELLED. Cancelling a terminal
// subscription is reported as a state conflict, not silently accepted.
func (ss *SubscriptionService) Cancel(ctx context.Context, subscriptionID primitive.ObjectID, reason string) (*models.UserSubscription, error) {
	var sub *models.UserSubscription
	err := ss.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		sub, err = ss.subs.Get(ctx, subscriptionID)
		if err != nil {
			return err
		}
		if sub.IsTerminal() {
			return apperr.InvalidState(apperr.CodeAlreadyTerminal,
				"subscription %s is already %s", subscriptionID.Hex(), sub.Status)
		}

		now := ss.now()
		sub.Status = models.SubscriptionStatusCancelled
		sub.CancelledAt = &now
		sub.CancellationReason = reason
		sub.AutoRenew = false
		sub.UpdatedAt = now
		return ss.subs.Update(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	ss.logger.WithFields(logrus.Fields{
		"subscription_id": sub.ID.Hex(),
		"reason":          reason,
	}).Info("subscription cancelled")

	return sub, nil
}

// Renew extends an ACTIVE subscription by the current plan's billing cycle
// and charges the plan's current price. A plan swapped in by an earlier
// monthly ChangePlan takes price effect here.
func (ss *SubscriptionService) Renew(ctx context.Context, subscriptionID primitive.ObjectID, paymentRef string) (*models.UserSubscription, error) {
	if paymentRef == "" {
		return nil, apperr.Validation("payment reference is required")
	}

	var sub *models.UserSubscription
	err := ss.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		sub, err = ss.subs.Get(ctx, subscriptionID)
		if err != nil {
			return err
		}
		if sub.IsTerminal() {
			return apperr.InvalidState(apperr.CodeAlreadyTerminal,
				"subscription %s is already %s", subscriptionID.Hex(), sub.Status)
		}

		plan, err := ss.plans.Get(ctx, sub.SubscriptionPlanID)
		if err != nil {
			return err
		}

		sub.EndDate = cycleEnd(sub.EndDate, plan.BillingCycleDays)
		sub.NextBillingDate = cycleEnd(sub.NextBillingDate, plan.BillingCycleDays)
		sub.AmountPaid = plan.Price
		sub.PaymentReference = paymentRef
		sub.UpdatedAt = ss.now()
		if err := ss.subs.Update(ctx, sub); err != nil {
			return err
		}

		return ss.recordAttributedCommission(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	ss.logger.WithFields(logrus.Fields{
		"subscription_id": sub.ID.Hex(),
		"end_date":        sub.EndDate,
		"amount_paid":     sub.AmountPaid,
	}).Info("subscription renewed")

	return sub, nil
}

// ChangePlan swaps the plan of the user's active subscription without a
// payment. Only monthly-class targets are allowed; the new price takes
// effect at the next renewal and the dates stay untouched.
func (ss *SubscriptionService) ChangePlan(ctx context.Context, userID, newPlanID primitive.ObjectID) (*models.UserSubscription, error) {
	newPlan, err := ss.plans.Get(ctx, newPlanID)
	if err != nil {
		return nil, err
	}
	if !newPlan.IsActive {
		return nil, apperr.NotFound(apperr.CodePlanNotFound, "plan %s is no longer offered", newPlanID.Hex())
	}
	if newPlan.IsAnnual() {
		return nil, apperr.InvalidState(apperr.CodeRequiresPayment,
			"changing to an annual plan requires a payment")
	}

	var sub *models.UserSubscription
	err = ss.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		sub, err = ss.activeSubscriptionFor(ctx, userID, newPlan)
		if err != nil {
			return err
		}

		sub.SubscriptionPlanID = newPlan.ID
		sub.UpdatedAt = ss.now()
		return ss.subs.Update(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	ss.logger.WithFields(logrus.Fields{
		"subscription_id": sub.ID.Hex(),
		"new_plan_id":     newPlanID.Hex(),
	}).Info("subscription plan changed")

	return sub, nil
}

// ChangePlanWithPayment swaps the plan immediately against a payment.
// Unused days of an annual cycle are credited against the new plan's
// price; switching into an annual plan restarts the billing period.
func (ss *SubscriptionService) ChangePlanWithPayment(ctx context.Context, userID, newPlanID primitive.ObjectID, paymentRef, agentCode string) (*models.UserSubscription, error) {
	if paymentRef == "" {
		return nil, apperr.Validation("payment reference is required")
	}

	newPlan, err := ss.plans.Get(ctx, newPlanID)
	if err != nil {
		return nil, err
	}
	if !newPlan.IsActive {
		return nil, apperr.NotFound(apperr.CodePlanNotFound, "plan %s is no longer offered", newPlanID.Hex())
	}

	agent, err := ss.resolveAgent(ctx, agentCode)
	if err != nil {
		return nil, err
	}

	var sub *models.UserSubscription
	err = ss.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		sub, err = ss.activeSubscriptionFor(ctx, userID, newPlan)
		if err != nil {
			return err
		}

		currentPlan, err := ss.plans.Get(ctx, sub.SubscriptionPlanID)
		if err != nil {
			return err
		}

		now := ss.now()
		amount := prorationCharge(currentPlan, newPlan, now, sub.EndDate)

		sub.SubscriptionPlanID = newPlan.ID
		sub.AmountPaid = amount
		sub.PaymentReference = paymentRef
		if newPlan.IsAnnual() {
			end := cycleEnd(now, newPlan.BillingCycleDays)
			sub.EndDate = end
			sub.NextBillingDate = end
		}
		if agent != nil {
			sub.SalesAgentID = &agent.ID
		} else {
			sub.SalesAgentID = nil
		}
		sub.UpdatedAt = now

		if err := ss.subs.Update(ctx, sub); err != nil {
			return err
		}
		if agent != nil {
			return ss.recordCommission(ctx, agent, sub)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ss.logger.WithFields(logrus.Fields{
		"subscription_id": sub.ID.Hex(),
		"new_plan_id":     newPlanID.Hex(),
		"amount_paid":     sub.AmountPaid,
	}).Info("subscription plan changed with payment")

	return sub, nil
}

// Sweep expires every ACTIVE subscription whose end date is strictly in
// the past. Re-running with the same instant transitions nothing extra.
func (ss *SubscriptionService) Sweep(ctx context.Context, now time.Time) (int64, error) {
	count, err := ss.subs.ExpireDue(ctx, now)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		ss.logger.WithField("expired", count).Info("expiration sweep completed")
	}
	return count, nil
}

// GetSubscription returns one subscription by id.
func (ss *SubscriptionService) GetSubscription(ctx context.Context, id primitive.ObjectID) (*models.UserSubscription, error) {
	return ss.subs.Get(ctx, id)
}

// ListByUser returns all subscription records for a user, newest first.
func (ss *SubscriptionService) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.UserSubscription, error) {
	return ss.subs.ListByUser(ctx, userID)
}

// GetActiveByUserAndType returns the user's active subscription of the
// given type, if any.
func (ss *SubscriptionService) GetActiveByUserAndType(ctx context.Context, userID primitive.ObjectID, planType string) (*models.UserSubscription, error) {
	if !models.ValidPlanType(planType) {
		return nil, apperr.Validation("unknown plan type %q", planType)
	}
	sub, err := ss.subs.FindActiveByUserAndType(ctx, userID, planType)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperr.NotFound(apperr.CodeSubscriptionNotFound,
			"no active %s subscription for user %s", planType, userID.Hex())
	}
	return sub, nil
}

// CheckAccess answers whether the user has active access to a product type
// and at which tier. Status is authoritative; the sweeper handles lapses.
func (ss *SubscriptionService) CheckAccess(ctx context.Context, userID primitive.ObjectID, planType string) (*models.SubscriptionAccess, error) {
	if !models.ValidPlanType(planType) {
		return nil, apperr.Validation("unknown plan type %q", planType)
	}

	access := &models.SubscriptionAccess{UserID: userID, PlanType: planType}
	sub, err := ss.subs.FindActiveByUserAndType(ctx, userID, planType)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return access, nil
	}

	plan, err := ss.plans.Get(ctx, sub.SubscriptionPlanID)
	if err != nil {
		return nil, err
	}

	access.HasAccess = true
	access.Tier = plan.Tier
	access.EndDate = &sub.EndDate
	return access, nil
}

// ListSubscriptions is the filtered admin listing.
func (ss *SubscriptionService) ListSubscriptions(ctx context.Context, filter SubscriptionFilter) ([]models.UserSubscription, int64, error) {
	return ss.subs.List(ctx, filter)
}

// activeSubscriptionFor loads the user's active subscription matching the
// target plan's type and applies the shared change-plan guards.
func (ss *SubscriptionService) activeSubscriptionFor(ctx context.Context, userID primitive.ObjectID, newPlan *models.SubscriptionPlan) (*models.UserSubscription, error) {
	sub, err := ss.subs.FindActiveByUserAndType(ctx, userID, newPlan.Type)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperr.InvalidState(apperr.CodeNoActiveSubscription,
			"user %s has no active %s subscription", userID.Hex(), newPlan.Type)
	}
	if sub.SubscriptionPlanID == newPlan.ID {
		return nil, apperr.InvalidState(apperr.CodeSamePlan,
			"subscription already uses plan %s", newPlan.ID.Hex())
	}
	// The lookup is by type, so a mismatch cannot structurally happen.
	// Guard anyway so a denormalization bug surfaces loudly.
	if sub.PlanType != newPlan.Type {
		return nil, apperr.InvalidState(apperr.CodePlanTypeMismatch,
			"subscription type %s does not match plan type %s", sub.PlanType, newPlan.Type)
	}
	return sub, nil
}

// resolveAgent looks up an agent code supplied at transaction time. An
// empty code means the sale is unattributed.
func (ss *SubscriptionService) resolveAgent(ctx context.Context, agentCode string) (*models.SalesAgent, error) {
	if agentCode == "" {
		return nil, nil
	}
	agent, err := ss.agents.FindByCode(ctx, agentCode)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, apperr.NotFound(apperr.CodeAgentNotFound, "sales agent %q not found", agentCode)
	}
	if !agent.IsActive() {
		return nil, apperr.InvalidState(apperr.CodeAgentInactive,
			"sales agent %q is inactive and cannot be attributed", agentCode)
	}
	return agent, nil
}

// recordCommission freezes the agent's current rate into a commission for
// the subscription's latest paid amount and bumps the agent's running
// totals. Must run inside the caller's transaction.
func (ss *SubscriptionService) recordCommission(ctx context.Context, agent *models.SalesAgent, sub *models.UserSubscription) error {
	now := ss.now()
	commission := &models.Commission{
		ID:                   primitive.NewObjectID(),
		SalesAgentID:         agent.ID,
		UserSubscriptionID:   sub.ID,
		SaleAmount:           sub.AmountPaid,
		CommissionPercentage: agent.CommissionPercentage,
		CommissionAmount:     commissionAmount(sub.AmountPaid, agent.CommissionPercentage),
		SaleDate:             now,
		Paid:                 false,
		CreatedAt:            now,
	}
	if err := ss.commis.Insert(ctx, commission); err != nil {
		return err
	}

	agent.TotalSales++
	earned := decimal.NewFromFloat(agent.TotalCommissionsEarned).
		Add(decimal.NewFromFloat(commission.CommissionAmount))
	agent.TotalCommissionsEarned, _ = round2(earned).Float64()
	agent.UpdatedAt = now
	if err := ss.agents.Update(ctx, agent); err != nil {
		return err
	}

	ss.logger.WithFields(logrus.Fields{
		"commission_id":     commission.ID.Hex(),
		"sales_agent_id":    agent.ID.Hex(),
		"commission_amount": commission.CommissionAmount,
	}).Info("commission recorded")

	return nil
}

// recordAttributedCommission records a commission for the subscription's
// attributed agent, if it has one and the agent is still active. Inactive
// agents keep their history but stop earning.
func (ss *SubscriptionService) recordAttributedCommission(ctx context.Context, sub *models.UserSubscription) error {
	if sub.SalesAgentID == nil {
		return nil
	}
	agent, err := ss.agents.Get(ctx, *sub.SalesAgentID)
	if err != nil {
		return err
	}
	if !agent.IsActive() {
		return nil
	}
	return ss.recordCommission(ctx, agent, sub)
}
