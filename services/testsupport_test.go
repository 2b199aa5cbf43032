package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"inmoback/apperr"
	"inmoback/models"
)

// In-memory store fakes. They mirror the storage-layer guarantees the
// Mongo stores provide: the subscription fake rejects a second ACTIVE
// record per (user, type) the way the partial unique index does, and the
// tx fake serializes callbacks the way a transaction serializes writers.

type memTx struct {
	mu sync.Mutex
}

func (t *memTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

type memPlanStore struct {
	mu    sync.Mutex
	plans map[primitive.ObjectID]models.SubscriptionPlan
}

func newMemPlanStore() *memPlanStore {
	return &memPlanStore{plans: make(map[primitive.ObjectID]models.SubscriptionPlan)}
}

func (s *memPlanStore) List(ctx context.Context, onlyActive bool) ([]models.SubscriptionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SubscriptionPlan
	for _, p := range s.plans {
		if onlyActive && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *memPlanStore) ListByType(ctx context.Context, planType string, onlyActive bool) ([]models.SubscriptionPlan, error) {
	all, _ := s.List(ctx, onlyActive)
	var out []models.SubscriptionPlan
	for _, p := range all {
		if p.Type == planType {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memPlanStore) Get(ctx context.Context, id primitive.ObjectID) (*models.SubscriptionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, apperr.NotFound(apperr.CodePlanNotFound, "plan %s not found", id.Hex())
	}
	return &p, nil
}

func (s *memPlanStore) Insert(ctx context.Context, plan *models.SubscriptionPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.ID] = *plan
	return nil
}

func (s *memPlanStore) Update(ctx context.Context, plan *models.SubscriptionPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[plan.ID]; !ok {
		return apperr.NotFound(apperr.CodePlanNotFound, "plan %s not found", plan.ID.Hex())
	}
	s.plans[plan.ID] = *plan
	return nil
}

func (s *memPlanStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.plans)), nil
}

type memSubscriptionStore struct {
	mu   sync.Mutex
	subs map[primitive.ObjectID]models.UserSubscription
}

func newMemSubscriptionStore() *memSubscriptionStore {
	return &memSubscriptionStore{subs: make(map[primitive.ObjectID]models.UserSubscription)}
}

func (s *memSubscriptionStore) Get(ctx context.Context, id primitive.ObjectID) (*models.UserSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok {
		return nil, apperr.NotFound(apperr.CodeSubscriptionNotFound, "subscription %s not found", id.Hex())
	}
	return &sub, nil
}

func (s *memSubscriptionStore) FindActiveByUserAndType(ctx context.Context, userID primitive.ObjectID, planType string) (*models.UserSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.UserID == userID && sub.PlanType == planType && sub.Status == models.SubscriptionStatusActive {
			out := sub
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memSubscriptionStore) FindByPaymentReference(ctx context.Context, userID primitive.ObjectID, paymentRef string) (*models.UserSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.UserID == userID && sub.PaymentReference == paymentRef {
			out := sub
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memSubscriptionStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.UserSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.UserSubscription
	for _, sub := range s.subs {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *memSubscriptionStore) List(ctx context.Context, filter SubscriptionFilter) ([]models.UserSubscription, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.UserSubscription
	for _, sub := range s.subs {
		if !filter.UserID.IsZero() && sub.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && sub.Status != filter.Status {
			continue
		}
		if filter.PlanType != "" && sub.PlanType != filter.PlanType {
			continue
		}
		out = append(out, sub)
	}
	return out, int64(len(out)), nil
}

func (s *memSubscriptionStore) Insert(ctx context.Context, sub *models.UserSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Same guarantee as the partial unique index on (user_id, plan_type)
	// for ACTIVE rows.
	if sub.Status == models.SubscriptionStatusActive {
		for _, existing := range s.subs {
			if existing.UserID == sub.UserID && existing.PlanType == sub.PlanType &&
				existing.Status == models.SubscriptionStatusActive {
				return apperr.Conflict(apperr.CodeAlreadySubscribed,
					"user already has an active %s subscription", sub.PlanType)
			}
		}
	}
	s.subs[sub.ID] = *sub
	return nil
}

func (s *memSubscriptionStore) Update(ctx context.Context, sub *models.UserSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub.ID]; !ok {
		return apperr.NotFound(apperr.CodeSubscriptionNotFound, "subscription %s not found", sub.ID.Hex())
	}
	s.subs[sub.ID] = *sub
	return nil
}

func (s *memSubscriptionStore) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for id, sub := range s.subs {
		if sub.Status == models.SubscriptionStatusActive && sub.EndDate.Before(now) {
			sub.Status = models.SubscriptionStatusExpired
			sub.UpdatedAt = now
			s.subs[id] = sub
			count++
		}
	}
	return count, nil
}

func (s *memSubscriptionStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.subs)), nil
}

// faultySubscriptionStore wraps the in-memory store and fails guard
// lookups while armed, simulating a transient storage outage.
type faultySubscriptionStore struct {
	*memSubscriptionStore
	failLookups bool
}

func (s *faultySubscriptionStore) FindByPaymentReference(ctx context.Context, userID primitive.ObjectID, paymentRef string) (*models.UserSubscription, error) {
	if s.failLookups {
		return nil, apperr.Storage(errors.New("connection reset"), "failed to look up subscription by payment reference")
	}
	return s.memSubscriptionStore.FindByPaymentReference(ctx, userID, paymentRef)
}

func (s *faultySubscriptionStore) FindActiveByUserAndType(ctx context.Context, userID primitive.ObjectID, planType string) (*models.UserSubscription, error) {
	if s.failLookups {
		return nil, apperr.Storage(errors.New("connection reset"), "failed to look up active subscription")
	}
	return s.memSubscriptionStore.FindActiveByUserAndType(ctx, userID, planType)
}

type memAgentStore struct {
	mu     sync.Mutex
	agents map[primitive.ObjectID]models.SalesAgent
}

func newMemAgentStore() *memAgentStore {
	return &memAgentStore{agents: make(map[primitive.ObjectID]models.SalesAgent)}
}

func (s *memAgentStore) Get(ctx context.Context, id primitive.ObjectID) (*models.SalesAgent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	if !ok {
		return nil, apperr.NotFound(apperr.CodeAgentNotFound, "sales agent %s not found", id.Hex())
	}
	return &a, nil
}

func (s *memAgentStore) FindByCode(ctx context.Context, agentCode string) (*models.SalesAgent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.agents {
		if a.AgentCode == agentCode {
			out := a
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memAgentStore) ExistsByCode(ctx context.Context, agentCode string) (bool, error) {
	a, _ := s.FindByCode(ctx, agentCode)
	return a != nil, nil
}

func (s *memAgentStore) List(ctx context.Context, onlyActive bool) ([]models.SalesAgent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SalesAgent
	for _, a := range s.agents {
		if onlyActive && !a.IsActive() {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *memAgentStore) Insert(ctx context.Context, agent *models.SalesAgent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.agents {
		if a.AgentCode == agent.AgentCode {
			return apperr.Conflict(apperr.CodeAgentCodeTaken, "agent code %q is already in use", agent.AgentCode)
		}
	}
	s.agents[agent.ID] = *agent
	return nil
}

func (s *memAgentStore) Update(ctx context.Context, agent *models.SalesAgent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agents[agent.ID]; !ok {
		return apperr.NotFound(apperr.CodeAgentNotFound, "sales agent %s not found", agent.ID.Hex())
	}
	s.agents[agent.ID] = *agent
	return nil
}

func (s *memAgentStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.agents)), nil
}

type memCommissionStore struct {
	mu          sync.Mutex
	commissions map[primitive.ObjectID]models.Commission
}

func newMemCommissionStore() *memCommissionStore {
	return &memCommissionStore{commissions: make(map[primitive.ObjectID]models.Commission)}
}

func (s *memCommissionStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Commission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.commissions[id]
	if !ok {
		return nil, apperr.NotFound(apperr.CodeCommissionNotFound, "commission %s not found", id.Hex())
	}
	return &c, nil
}

func (s *memCommissionStore) ListByAgent(ctx context.Context, agentID primitive.ObjectID, pendingOnly bool) ([]models.Commission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Commission
	for _, c := range s.commissions {
		if c.SalesAgentID != agentID {
			continue
		}
		if pendingOnly && c.Paid {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *memCommissionStore) Insert(ctx context.Context, commission *models.Commission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commissions[commission.ID] = *commission
	return nil
}

func (s *memCommissionStore) Update(ctx context.Context, commission *models.Commission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.commissions[commission.ID]; !ok {
		return apperr.NotFound(apperr.CodeCommissionNotFound, "commission %s not found", commission.ID.Hex())
	}
	s.commissions[commission.ID] = *commission
	return nil
}

func (s *memCommissionStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.commissions)), nil
}

func (s *memCommissionStore) PendingTotals(ctx context.Context) (int64, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	var amount float64
	for _, c := range s.commissions {
		if !c.Paid {
			count++
			amount += c.CommissionAmount
		}
	}
	return count, amount, nil
}

type memUserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[primitive.ObjectID]models.User)}
}

func (s *memUserStore) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound(apperr.CodeUserNotFound, "user %s not found", id.Hex())
	}
	return &u, nil
}

func (s *memUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memUserStore) add(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
