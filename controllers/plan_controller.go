package controllers

import (
	"github.com/gin-gonic/gin"

	"inmoback/models"
	"inmoback/services"
	"inmoback/utils"
)

type PlanController struct {
	planService *services.PlanService
}

func NewPlanController(planService *services.PlanService) *PlanController {
	return &PlanController{planService: planService}
}

type planRequest struct {
	Name               string  `json:"name" validate:"required"`
	Description        string  `json:"description"`
	Type               string  `json:"type" validate:"required,plan_type"`
	Tier               string  `json:"tier" validate:"omitempty,plan_tier"`
	Price              float64 `json:"price" validate:"gte=0"`
	BillingCycleDays   int     `json:"billing_cycle_days" validate:"gt=0"`
	MaxProperties      *int    `json:"max_properties"`
	MaxAgents          *int    `json:"max_agents"`
	HasAnalytics       bool    `json:"has_analytics"`
	HasCRM             bool    `json:"has_crm"`
	HasNetworkAccess   bool    `json:"has_network_access"`
	HasPrioritySupport bool    `json:"has_priority_support"`
	IsActive           bool    `json:"is_active"`
}

func (r *planRequest) toSpec() services.PlanSpec {
	return services.PlanSpec{
		Name:               r.Name,
		Description:        r.Description,
		Type:               r.Type,
		Tier:               r.Tier,
		Price:              r.Price,
		BillingCycleDays:   r.BillingCycleDays,
		MaxProperties:      r.MaxProperties,
		MaxAgents:          r.MaxAgents,
		HasAnalytics:       r.HasAnalytics,
		HasCRM:             r.HasCRM,
		HasNetworkAccess:   r.HasNetworkAccess,
		HasPrioritySupport: r.HasPrioritySupport,
		IsActive:           r.IsActive,
	}
}

// GetPlans returns the active plan catalog
func (pc *PlanController) GetPlans(c *gin.Context) {
	plans, err := pc.planService.ListActivePlans(c.Request.Context())
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Plans retrieved successfully", plans)
}

// GetProptechPlans returns active PROPTECH plans
func (pc *PlanController) GetProptechPlans(c *gin.Context) {
	pc.plansByType(c, models.PlanTypeProptech)
}

// GetNetworkPlans returns active NETWORK plans
func (pc *PlanController) GetNetworkPlans(c *gin.Context) {
	pc.plansByType(c, models.PlanTypeNetwork)
}

func (pc *PlanController) plansByType(c *gin.Context, planType string) {
	plans, err := pc.planService.ListPlansByType(c.Request.Context(), planType)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Plans retrieved successfully", plans)
}

// GetPlan returns a specific plan
func (pc *PlanController) GetPlan(c *gin.Context) {
	planID, err := utils.StringToObjectID(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid plan ID")
		return
	}

	plan, err := pc.planService.GetPlan(c.Request.Context(), planID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Plan retrieved successfully", plan)
}

// GetAllPlans returns every plan including inactive ones (admin)
func (pc *PlanController) GetAllPlans(c *gin.Context) {
	plans, err := pc.planService.ListAllPlans(c.Request.Context())
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Plans retrieved successfully", plans)
}

// CreatePlan creates a new plan (admin)
func (pc *PlanController) CreatePlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	plan, err := pc.planService.CreatePlan(c.Request.Context(), req.toSpec())
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.CreatedResponse(c, "Plan created successfully", plan)
}

// UpdatePlan updates an existing plan (admin)
func (pc *PlanController) UpdatePlan(c *gin.Context) {
	planID, err := utils.StringToObjectID(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid plan ID")
		return
	}

	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	plan, err := pc.planService.UpdatePlan(c.Request.Context(), planID, req.toSpec())
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Plan updated successfully", plan)
}

// DeactivatePlan soft-deletes a plan (admin)
func (pc *PlanController) DeactivatePlan(c *gin.Context) {
	planID, err := utils.StringToObjectID(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid plan ID")
		return
	}

	if err := pc.planService.DeactivatePlan(c.Request.Context(), planID); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Plan deactivated successfully", nil)
}
