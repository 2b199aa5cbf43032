package services

import "context"

// BackofficeStats aggregates the counts shown on the admin dashboard.
type BackofficeStats struct {
	Plans                   int64   `json:"plans"`
	Subscriptions           int64   `json:"subscriptions"`
	SalesAgents             int64   `json:"sales_agents"`
	Commissions             int64   `json:"commissions"`
	PendingCommissions      int64   `json:"pending_commissions"`
	PendingCommissionAmount float64 `json:"pending_commission_amount"`
}

// AdminService answers the aggregate queries of the admin surface.
type AdminService struct {
	plans  PlanStore
	subs   SubscriptionStore
	agents SalesAgentStore
	commis CommissionStore
}

func NewAdminService(plans PlanStore, subs SubscriptionStore, agents SalesAgentStore, commissions CommissionStore) *AdminService {
	return &AdminService{
		plans:  plans,
		subs:   subs,
		agents: agents,
		commis: commissions,
	}
}

func (s *AdminService) GetStats(ctx context.Context) (*BackofficeStats, error) {
	stats := &BackofficeStats{}

	var err error
	if stats.Plans, err = s.plans.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Subscriptions, err = s.subs.Count(ctx); err != nil {
		return nil, err
	}
	if stats.SalesAgents, err = s.agents.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Commissions, err = s.commis.Count(ctx); err != nil {
		return nil, err
	}
	if stats.PendingCommissions, stats.PendingCommissionAmount, err = s.commis.PendingTotals(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}
