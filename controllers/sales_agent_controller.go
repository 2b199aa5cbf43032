package controllers

import (
	"github.com/gin-gonic/gin"

	"inmoback/services"
	"inmoback/utils"
)

type SalesAgentController struct {
	agentService      *services.SalesAgentService
	commissionService *services.CommissionService
}

func NewSalesAgentController(agentService *services.SalesAgentService, commissionService *services.CommissionService) *SalesAgentController {
	return &SalesAgentController{
		agentService:      agentService,
		commissionService: commissionService,
	}
}

type createAgentRequest struct {
	AgentCode            string  `json:"agent_code" validate:"required,min=3,max=32"`
	FullName             string  `json:"full_name" validate:"required"`
	Email                string  `json:"email" validate:"required,email"`
	Phone                string  `json:"phone"`
	CommissionPercentage float64 `json:"commission_percentage" validate:"gte=0,lte=100"`
}

type updateAgentRequest struct {
	FullName             *string  `json:"full_name"`
	Email                *string  `json:"email" validate:"omitempty,email"`
	Phone                *string  `json:"phone"`
	CommissionPercentage *float64 `json:"commission_percentage" validate:"omitempty,gte=0,lte=100"`
}

type payCommissionRequest struct {
	PaymentReference string `json:"payment_reference" validate:"required"`
}

// CreateAgent registers a new sales agent
func (ac *SalesAgentController) CreateAgent(c *gin.Context) {
	var req createAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	agent, err := ac.agentService.Create(c.Request.Context(), services.AgentSpec{
		AgentCode:            req.AgentCode,
		FullName:             req.FullName,
		Email:                req.Email,
		Phone:                req.Phone,
		CommissionPercentage: req.CommissionPercentage,
	})
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.CreatedResponse(c, "Sales agent created successfully", agent)
}

// UpdateAgent updates agent fields; the agent code is immutable
func (ac *SalesAgentController) UpdateAgent(c *gin.Context) {
	agentID, err := utils.StringToObjectID(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid agent ID")
		return
	}

	var req updateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	agent, err := ac.agentService.Update(c.Request.Context(), agentID, services.AgentUpdate{
		FullName:             req.FullName,
		Email:                req.Email,
		Phone:                req.Phone,
		CommissionPercentage: req.CommissionPercentage,
	})
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Sales agent updated successfully", agent)
}

// DeactivateAgent stops future attribution for an agent
func (ac *SalesAgentController) DeactivateAgent(c *gin.Context) {
	agentID, err := utils.StringToObjectID(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid agent ID")
		return
	}

	if err := ac.agentService.Deactivate(c.Request.Context(), agentID); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Sales agent deactivated successfully", nil)
}

// GetAgent returns one agent by id
func (ac *SalesAgentController) GetAgent(c *gin.Context) {
	agentID, err := utils.StringToObjectID(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid agent ID")
		return
	}

	agent, err := ac.agentService.Get(c.Request.Context(), agentID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Sales agent retrieved successfully", agent)
}

// ListAgents lists agents; ?active=true narrows to active ones
func (ac *SalesAgentController) ListAgents(c *gin.Context) {
	var err error
	var agents interface{}
	if c.Query("active") == "true" {
		agents, err = ac.agentService.ListActive(c.Request.Context())
	} else {
		agents, err = ac.agentService.ListAll(c.Request.Context())
	}
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Sales agents retrieved successfully", agents)
}

// GetAgentCommissions lists an agent's commissions; ?pending=true narrows
// to unpaid ones
func (ac *SalesAgentController) GetAgentCommissions(c *gin.Context) {
	agentID, err := utils.StringToObjectID(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid agent ID")
		return
	}

	var commissions interface{}
	if c.Query("pending") == "true" {
		commissions, err = ac.commissionService.ListPending(c.Request.Context(), agentID)
	} else {
		commissions, err = ac.commissionService.ListBySalesAgent(c.Request.Context(), agentID)
	}
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Commissions retrieved successfully", commissions)
}

// PayCommission marks a commission as paid out
func (ac *SalesAgentController) PayCommission(c *gin.Context) {
	commissionID, err := utils.StringToObjectID(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid commission ID")
		return
	}

	var req payCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	commission, err := ac.commissionService.PayCommission(c.Request.Context(), commissionID, req.PaymentReference)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Commission paid successfully", commission)
}
