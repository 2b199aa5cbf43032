package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"inmoback/apperr"
	"inmoback/models"
)

type ledgerEnv struct {
	svc    *SubscriptionService
	subs   *memSubscriptionStore
	plans  *memPlanStore
	agents *memAgentStore
	commis *memCommissionStore
	users  *memUserStore

	now time.Time

	userID            primitive.ObjectID
	inicialMonthly    primitive.ObjectID // PROPTECH 150,000 / 30d
	intermedioMonthly primitive.ObjectID // PROPTECH 300,000 / 30d
	premiumAnnual     primitive.ObjectID // PROPTECH 1,200,000 / 365d
	eliteAnnual       primitive.ObjectID // PROPTECH 2,000,000 / 365d
	networkMonthly    primitive.ObjectID // NETWORK 80,000 / 30d
	agentID           primitive.ObjectID // code AG-001, 15%
}

func newLedgerEnv(t *testing.T) *ledgerEnv {
	t.Helper()

	env := &ledgerEnv{
		subs:   newMemSubscriptionStore(),
		plans:  newMemPlanStore(),
		agents: newMemAgentStore(),
		commis: newMemCommissionStore(),
		users:  newMemUserStore(),
		now:    time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC),
	}

	env.svc = NewSubscriptionService(env.subs, env.plans, env.agents, env.commis, env.users, &memTx{}, testLogger())
	env.svc.now = func() time.Time { return env.now }

	env.userID = primitive.NewObjectID()
	env.users.add(models.User{ID: env.userID, FullName: "Laura Gómez", Email: "laura@example.com", IsActive: true})

	env.inicialMonthly = env.seedPlan(t, models.PlanTypeProptech, models.PlanTierInicial, 150000, 30)
	env.intermedioMonthly = env.seedPlan(t, models.PlanTypeProptech, models.PlanTierIntermedio, 300000, 30)
	env.premiumAnnual = env.seedPlan(t, models.PlanTypeProptech, models.PlanTierPremium, 1200000, 365)
	env.eliteAnnual = env.seedPlan(t, models.PlanTypeProptech, models.PlanTierPremium, 2000000, 365)
	env.networkMonthly = env.seedPlan(t, models.PlanTypeNetwork, "", 80000, 30)

	agent := models.SalesAgent{
		ID:                   primitive.NewObjectID(),
		AgentCode:            "AG-001",
		FullName:             "Carlos Pérez",
		Email:                "carlos@example.com",
		CommissionPercentage: 15,
		Status:               models.SalesAgentStatusActive,
	}
	require.NoError(t, env.agents.Insert(context.Background(), &agent))
	env.agentID = agent.ID

	return env
}

func (env *ledgerEnv) seedPlan(t *testing.T, planType, tier string, price float64, cycleDays int) primitive.ObjectID {
	t.Helper()
	plan := models.SubscriptionPlan{
		ID:               primitive.NewObjectID(),
		Name:             planType + "-" + tier,
		Type:             planType,
		Tier:             tier,
		Price:            price,
		BillingCycleDays: cycleDays,
		IsActive:         true,
	}
	require.NoError(t, env.plans.Insert(context.Background(), &plan))
	return plan.ID
}

func TestSubscribeCreatesActiveSubscription(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	sub, err := env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, "P1", "")
	require.NoError(t, err)

	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, models.PlanTypeProptech, sub.PlanType)
	assert.Equal(t, 150000.0, sub.AmountPaid)
	assert.Equal(t, "P1", sub.PaymentReference)
	assert.Equal(t, env.now, sub.StartDate)
	assert.Equal(t, env.now.AddDate(0, 0, 30), sub.EndDate)
	assert.Equal(t, sub.EndDate, sub.NextBillingDate)
	assert.True(t, sub.AutoRenew)
	assert.Nil(t, sub.SalesAgentID)
}

func TestSubscribeRejectsSecondActiveOfSameType(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	_, err := env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, "P1", "")
	require.NoError(t, err)

	_, err = env.svc.Subscribe(ctx, env.userID, env.intermedioMonthly, "P2", "")
	assert.True(t, apperr.IsConflict(err))
	assert.Equal(t, apperr.CodeAlreadySubscribed, apperr.CodeOf(err))

	// A different product type is an independent subscription.
	_, err = env.svc.Subscribe(ctx, env.userID, env.networkMonthly, "P3", "")
	assert.NoError(t, err)
}

func TestSubscribeIdempotentOnPaymentReference(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	first, err := env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, "P1", "")
	require.NoError(t, err)

	retry, err := env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, "P1", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, retry.ID)

	count, _ := env.subs.Count(ctx)
	assert.EqualValues(t, 1, count)
}

func TestSubscribeValidation(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	_, err := env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, "", "")
	assert.True(t, apperr.IsValidation(err))

	_, err = env.svc.Subscribe(ctx, primitive.NewObjectID(), env.inicialMonthly, "P1", "")
	assert.True(t, apperr.IsNotFound(err))

	_, err = env.svc.Subscribe(ctx, env.userID, primitive.NewObjectID(), "P1", "")
	assert.True(t, apperr.IsNotFound(err))

	_, err = env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, "P1", "AG-404")
	assert.True(t, apperr.IsNotFound(err))
}

func TestSubscribeStoreFaultDoesNotCreateDuplicate(t *testing.T) {
	env := newLedgerEnv(t)
	store := &faultySubscriptionStore{memSubscriptionStore: env.subs}
	env.svc = NewSubscriptionService(store, env.plans, env.agents, env.commis, env.users, &memTx{}, testLogger())
	env.svc.now = func() time.Time { return env.now }
	ctx := context.Background()

	sub, err := env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, "P1", "")
	require.NoError(t, err)
	_, err = env.svc.Cancel(ctx, sub.ID, "done")
	require.NoError(t, err)

	// A retry during a storage outage must surface the failure, not fall
	// through the idempotency lookup and insert a second record.
	store.failLookups = true
	_, err = env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, "P1", "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))

	count, _ := env.subs.Count(ctx)
	assert.EqualValues(t, 1, count)

	// Once the store recovers, the same reference resolves to the
	// original record.
	store.failLookups = false
	retry, err := env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, "P1", "")
	require.NoError(t, err)
	assert.Equal(t, sub.ID, retry.ID)
}

func TestSubscribeWithAgentRecordsCommission(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()
	planID := env.seedPlan(t, models.PlanTypeProptech, models.PlanTierPremium, 350000, 30)

	sub, err := env.svc.Subscribe(ctx, env.userID, planID, "P1", "AG-001")
	require.NoError(t, err)
	require.NotNil(t, sub.SalesAgentID)
	assert.Equal(t, env.agentID, *sub.SalesAgentID)

	commissions, err := env.commis.ListByAgent(ctx, env.agentID, false)
	require.NoError(t, err)
	require.Len(t, commissions, 1)

	commission := commissions[0]
	assert.Equal(t, 350000.0, commission.SaleAmount)
	assert.Equal(t, 15.0, commission.CommissionPercentage)
	assert.Equal(t, 52500.0, commission.CommissionAmount)
	assert.False(t, commission.Paid)
	assert.Equal(t, sub.ID, commission.UserSubscriptionID)

	agent, err := env.agents.Get(ctx, env.agentID)
	require.NoError(t, err)
	assert.Equal(t, 1, agent.TotalSales)
	assert.Equal(t, 52500.0, agent.TotalCommissionsEarned)
	assert.Equal(t, 0.0, agent.TotalCommissionsPaid)
}

func TestSubscribeRejectsInactiveAgent(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	agent, err := env.agents.Get(ctx, env.agentID)
	require.NoError(t, err)
	agent.Status = models.SalesAgentStatusInactive
	require.NoError(t, env.agents.Update(ctx, agent))

	_, err = env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, "P1", "AG-001")
	assert.True(t, apperr.IsInvalidState(err))
	assert.Equal(t, apperr.CodeAgentInactive, apperr.CodeOf(err))
}

func TestCancelThenResubscribeSucceeds(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	sub, err := env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, "P1", "")
	require.NoError(t, err)

	cancelled, err := env.svc.Cancel(ctx, sub.ID, "user request")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusCancelled, cancelled.Status)
	assert.Equal(t, "user request", cancelled.CancellationReason)
	assert.False(t, cancelled.AutoRenew)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, env.now, *cancelled.CancelledAt)

	// Cancellation does not lock the user out of the product type.
	again, err := env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, "P2", "")
	require.NoError(t, err)
	assert.NotEqual(t, sub.ID, again.ID)
}

func TestCancelTerminalSubscriptionFails(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	sub, err := env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, "P1", "")
	require.NoError(t, err)

	_, err = env.svc.Cancel(ctx, sub.ID, "first")
	require.NoError(t, err)

	_, err = env.svc.Cancel(ctx, sub.ID, "second")
	assert.True(t, apperr.IsInvalidState(err))
	assert.Equal(t, apperr.CodeAlreadyTerminal, apperr.CodeOf(err))

	_, err = env.svc.Cancel(ctx, primitive.NewObjectID(), "missing")
	assert.True(t, apperr.IsNotFound(err))
}

func TestRenewExtendsByCurrentPlanCycle(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	sub, err := env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, "P1", "")
	require.NoError(t, err)
	firstEnd := sub.EndDate

	renewed, err := env.svc.Renew(ctx, sub.ID, "P2")
	require.NoError(t, err)
	assert.Equal(t, firstEnd.AddDate(0, 0, 30), renewed.EndDate)
	assert.Equal(t, renewed.EndDate, renewed.NextBillingDate)
	assert.Equal(t, 150000.0, renewed.AmountPaid)
	assert.Equal(t, "P2", renewed.PaymentReference)
	assert.Equal(t, models.SubscriptionStatusActive, renewed.Status)
}

func TestRenewAfterMonthlyChangePlanChargesNewPrice(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	sub, err := env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, "P1", "")
	require.NoError(t, err)
	originalEnd := sub.EndDate

	changed, err := env.svc.ChangePlan(ctx, env.userID, env.intermedioMonthly)
	require.NoError(t, err)
	// The swap itself does not charge or move dates.
	assert.Equal(t, env.intermedioMonthly, changed.SubscriptionPlanID)
	assert.Equal(t, originalEnd, changed.EndDate)
	assert.Equal(t, 150000.0, changed.AmountPaid)

	renewed, err := env.svc.Renew(ctx, sub.ID, "P2")
	require.NoError(t, err)
	assert.Equal(t, 300000.0, renewed.AmountPaid)
	assert.Equal(t, originalEnd.AddDate(0, 0, 30), renewed.EndDate)
}

func TestRenewGuards(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	sub, err := env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, "P1", "")
	require.NoError(t, err)

	_, err = env.svc.Renew(ctx, sub.ID, "")
	assert.True(t, apperr.IsValidation(err))

	_, err = env.svc.Cancel(ctx, sub.ID, "done")
	require.NoError(t, err)

	_, err = env.svc.Renew(ctx, sub.ID, "P2")
	assert.True(t, apperr.IsInvalidState(err))
}

func TestRenewWithAttributedAgentRecordsCommission(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	sub, err := env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, "P1", "AG-001")
	require.NoError(t, err)

	_, err = env.svc.Renew(ctx, sub.ID, "P2")
	require.NoError(t, err)

	commissions, err := env.commis.ListByAgent(ctx, env.agentID, false)
	require.NoError(t, err)
	assert.Len(t, commissions, 2)
}

func TestEarnedTotalAccumulatesRounded(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	fractional := env.seedPlan(t, models.PlanTypeProptech, models.PlanTierInicial, 999.99, 30)
	agent, err := env.agents.Get(ctx, env.agentID)
	require.NoError(t, err)
	agent.CommissionPercentage = 3.3333
	require.NoError(t, env.agents.Update(ctx, agent))

	sub, err := env.svc.Subscribe(ctx, env.userID, fractional, "P1", "AG-001")
	require.NoError(t, err)
	_, err = env.svc.Renew(ctx, sub.ID, "P2")
	require.NoError(t, err)
	_, err = env.svc.Renew(ctx, sub.ID, "P3")
	require.NoError(t, err)

	// Three commissions of 33.33 each; the running total is re-rounded
	// at every step, so it stays exactly 99.99 instead of drifting on
	// raw float accumulation.
	agent, err = env.agents.Get(ctx, env.agentID)
	require.NoError(t, err)
	assert.Equal(t, 3, agent.TotalSales)
	assert.Equal(t, 99.99, agent.TotalCommissionsEarned)
}

func TestChangePlanRejectsAnnualTarget(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	_, err := env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, "P1", "")
	require.NoError(t, err)

	_, err = env.svc.ChangePlan(ctx, env.userID, env.premiumAnnual)
	assert.True(t, apperr.IsInvalidState(err))
	assert.Equal(t, apperr.CodeRequiresPayment, apperr.CodeOf(err))

	// The paid path accepts the same target.
	sub, err := env.svc.ChangePlanWithPayment(ctx, env.userID, env.premiumAnnual, "P2", "")
	require.NoError(t, err)
	assert.Equal(t, env.premiumAnnual, sub.SubscriptionPlanID)
}

func TestChangePlanGuards(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	_, err := env.svc.ChangePlan(ctx, env.userID, env.inicialMonthly)
	assert.Equal(t, apperr.CodeNoActiveSubscription, apperr.CodeOf(err))

	_, err = env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, "P1", "")
	require.NoError(t, err)

	_, err = env.svc.ChangePlan(ctx, env.userID, env.inicialMonthly)
	assert.Equal(t, apperr.CodeSamePlan, apperr.CodeOf(err))

	_, err = env.svc.ChangePlan(ctx, env.userID, primitive.NewObjectID())
	assert.True(t, apperr.IsNotFound(err))
}

func TestChangePlanRejectsRetiredTargetPlan(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	_, err := env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, "P1", "")
	require.NoError(t, err)

	retired, err := env.plans.Get(ctx, env.intermedioMonthly)
	require.NoError(t, err)
	retired.IsActive = false
	require.NoError(t, env.plans.Update(ctx, retired))

	_, err = env.svc.ChangePlan(ctx, env.userID, env.intermedioMonthly)
	assert.True(t, apperr.IsNotFound(err))
	assert.Equal(t, apperr.CodePlanNotFound, apperr.CodeOf(err))

	_, err = env.svc.ChangePlanWithPayment(ctx, env.userID, env.intermedioMonthly, "P2", "")
	assert.True(t, apperr.IsNotFound(err))
	assert.Equal(t, apperr.CodePlanNotFound, apperr.CodeOf(err))
}

func TestChangePlanWithPaymentProratesAnnualUpgrade(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	sub, err := env.svc.Subscribe(ctx, env.userID, env.premiumAnnual, "P1", "")
	require.NoError(t, err)

	// Move the clock so exactly 73 days of the annual cycle remain.
	env.now = sub.EndDate.AddDate(0, 0, -73)

	upgraded, err := env.svc.ChangePlanWithPayment(ctx, env.userID, env.eliteAnnual, "P2", "")
	require.NoError(t, err)

	assert.Equal(t, env.eliteAnnual, upgraded.SubscriptionPlanID)
	assert.Equal(t, 1760000.09, upgraded.AmountPaid)
	assert.Equal(t, "P2", upgraded.PaymentReference)
	// Annual target restarts the billing period at the change.
	assert.Equal(t, env.now.AddDate(0, 0, 365), upgraded.EndDate)
	assert.Equal(t, upgraded.EndDate, upgraded.NextBillingDate)
}

func TestChangePlanWithPaymentMonthlyTargetKeepsDates(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	sub, err := env.svc.Subscribe(ctx, env.userID, env.premiumAnnual, "P1", "")
	require.NoError(t, err)
	originalEnd := sub.EndDate

	// 10 unused annual days earn 32,876.70 of credit.
	env.now = sub.EndDate.AddDate(0, 0, -10)

	changed, err := env.svc.ChangePlanWithPayment(ctx, env.userID, env.intermedioMonthly, "P2", "")
	require.NoError(t, err)
	assert.Equal(t, 267123.30, changed.AmountPaid)
	assert.Equal(t, originalEnd, changed.EndDate)
}

func TestChangePlanWithPaymentUpdatesAttribution(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	sub, err := env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, "P1", "AG-001")
	require.NoError(t, err)
	require.NotNil(t, sub.SalesAgentID)

	// No agent on this transaction clears the attribution and earns no
	// new commission.
	changed, err := env.svc.ChangePlanWithPayment(ctx, env.userID, env.intermedioMonthly, "P2", "")
	require.NoError(t, err)
	assert.Nil(t, changed.SalesAgentID)

	commissions, err := env.commis.ListByAgent(ctx, env.agentID, false)
	require.NoError(t, err)
	assert.Len(t, commissions, 1)

	// Attributing an agent on the paid change records a commission on
	// the charged amount.
	changed, err = env.svc.ChangePlanWithPayment(ctx, env.userID, env.inicialMonthly, "P3", "AG-001")
	require.NoError(t, err)
	require.NotNil(t, changed.SalesAgentID)

	commissions, err = env.commis.ListByAgent(ctx, env.agentID, false)
	require.NoError(t, err)
	require.Len(t, commissions, 2)
}

func TestSweepExpiresOnlyOverdue(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	overdue, err := env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, "P1", "")
	require.NoError(t, err)

	otherUser := primitive.NewObjectID()
	env.users.add(models.User{ID: otherUser, FullName: "Ana Ruiz", Email: "ana@example.com", IsActive: true})
	current, err := env.svc.Subscribe(ctx, otherUser, env.premiumAnnual, "P2", "")
	require.NoError(t, err)

	sweepAt := overdue.EndDate.AddDate(0, 0, 1)
	count, err := env.svc.Sweep(ctx, sweepAt)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	got, err := env.subs.Get(ctx, overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusExpired, got.Status)

	got, err = env.subs.Get(ctx, current.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, got.Status)

	// Idempotent: a second sweep at the same instant moves nothing.
	count, err = env.svc.Sweep(ctx, sweepAt)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestSweepBoundaryIsExclusive(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	sub, err := env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, "P1", "")
	require.NoError(t, err)

	// endDate == now must not expire.
	count, err := env.svc.Sweep(ctx, sub.EndDate)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	count, err = env.svc.Sweep(ctx, sub.EndDate.Add(time.Second))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestConcurrentSubscribeSingleWinner(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ref := "P-" + primitive.NewObjectID().Hex()
			_, errs[i] = env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, ref, "")
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.True(t, apperr.IsConflict(err))
		}
	}
	assert.Equal(t, 1, winners)

	active, err := env.subs.FindActiveByUserAndType(ctx, env.userID, models.PlanTypeProptech)
	require.NoError(t, err)
	require.NotNil(t, active)
}

func TestCheckAccess(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	access, err := env.svc.CheckAccess(ctx, env.userID, models.PlanTypeProptech)
	require.NoError(t, err)
	assert.False(t, access.HasAccess)
	assert.Empty(t, access.Tier)

	_, err = env.svc.Subscribe(ctx, env.userID, env.intermedioMonthly, "P1", "")
	require.NoError(t, err)

	access, err = env.svc.CheckAccess(ctx, env.userID, models.PlanTypeProptech)
	require.NoError(t, err)
	assert.True(t, access.HasAccess)
	assert.Equal(t, models.PlanTierIntermedio, access.Tier)

	_, err = env.svc.CheckAccess(ctx, env.userID, "UNKNOWN")
	assert.True(t, apperr.IsValidation(err))
}

func TestGetActiveByUserAndType(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	_, err := env.svc.GetActiveByUserAndType(ctx, env.userID, models.PlanTypeProptech)
	assert.True(t, apperr.IsNotFound(err))

	created, err := env.svc.Subscribe(ctx, env.userID, env.inicialMonthly, "P1", "")
	require.NoError(t, err)

	got, err := env.svc.GetActiveByUserAndType(ctx, env.userID, models.PlanTypeProptech)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}
