package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"inmoback/apperr"
	"inmoback/models"
)

// SalesAgentService manages the registry of identities eligible for
// commission attribution.
type SalesAgentService struct {
	agents SalesAgentStore
	logger *logrus.Logger
	now    nowFunc
}

func NewSalesAgentService(agents SalesAgentStore, logger *logrus.Logger) *SalesAgentService {
	return &SalesAgentService{
		agents: agents,
		logger: logger,
		now:    defaultNow,
	}
}

// AgentSpec carries the attributes accepted at agent creation.
type AgentSpec struct {
	AgentCode            string
	FullName             string
	Email                string
	Phone                string
	CommissionPercentage float64
}

// AgentUpdate carries the partial fields accepted on update. Nil means
// "leave unchanged". The agent code is immutable once issued.
type AgentUpdate struct {
	FullName             *string
	Email                *string
	Phone                *string
	CommissionPercentage *float64
}

func (as *SalesAgentService) Create(ctx context.Context, spec AgentSpec) (*models.SalesAgent, error) {
	code := strings.TrimSpace(spec.AgentCode)
	if code == "" {
		return nil, apperr.Validation("agent code is required")
	}
	if spec.FullName == "" {
		return nil, apperr.Validation("agent full name is required")
	}
	if spec.CommissionPercentage < 0 || spec.CommissionPercentage > 100 {
		return nil, apperr.Validation("commission percentage must be between 0 and 100")
	}

	exists, err := as.agents.ExistsByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict(apperr.CodeAgentCodeTaken, "agent code %q is already in use", code)
	}

	now := as.now()
	agent := &models.SalesAgent{
		ID:                   primitive.NewObjectID(),
		AgentCode:            code,
		FullName:             spec.FullName,
		Email:                spec.Email,
		Phone:                spec.Phone,
		CommissionPercentage: spec.CommissionPercentage,
		Status:               models.SalesAgentStatusActive,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := as.agents.Insert(ctx, agent); err != nil {
		return nil, err
	}

	as.logger.WithFields(logrus.Fields{
		"sales_agent_id": agent.ID.Hex(),
		"agent_code":     agent.AgentCode,
	}).Info("sales agent created")

	return agent, nil
}

func (as *SalesAgentService) Update(ctx context.Context, id primitive.ObjectID, update AgentUpdate) (*models.SalesAgent, error) {
	agent, err := as.agents.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.FullName != nil {
		agent.FullName = *update.FullName
	}
	if update.Email != nil {
		agent.Email = *update.Email
	}
	if update.Phone != nil {
		agent.Phone = *update.Phone
	}
	if update.CommissionPercentage != nil {
		pct := *update.CommissionPercentage
		if pct < 0 || pct > 100 {
			return nil, apperr.Validation("commission percentage must be between 0 and 100")
		}
		// Only future commissions use the new rate; recorded ones keep
		// the percentage frozen at sale time.
		agent.CommissionPercentage = pct
	}
	agent.UpdatedAt = as.now()

	if err := as.agents.Update(ctx, agent); err != nil {
		return nil, err
	}
	return agent, nil
}

// Deactivate stops future attribution for the agent. Historical
// commissions are untouched.
func (as *SalesAgentService) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	agent, err := as.agents.Get(ctx, id)
	if err != nil {
		return err
	}
	if !agent.IsActive() {
		return nil
	}

	agent.Status = models.SalesAgentStatusInactive
	agent.UpdatedAt = as.now()
	if err := as.agents.Update(ctx, agent); err != nil {
		return err
	}

	as.logger.WithField("sales_agent_id", id.Hex()).Info("sales agent deactivated")
	return nil
}

func (as *SalesAgentService) Get(ctx context.Context, id primitive.ObjectID) (*models.SalesAgent, error) {
	return as.agents.Get(ctx, id)
}

func (as *SalesAgentService) FindByCode(ctx context.Context, code string) (*models.SalesAgent, error) {
	agent, err := as.agents.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, apperr.NotFound(apperr.CodeAgentNotFound, "sales agent %q not found", code)
	}
	return agent, nil
}

func (as *SalesAgentService) ListActive(ctx context.Context) ([]models.SalesAgent, error) {
	return as.agents.List(ctx, true)
}

func (as *SalesAgentService) ListAll(ctx context.Context) ([]models.SalesAgent, error) {
	return as.agents.List(ctx, false)
}
