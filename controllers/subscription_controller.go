package controllers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"inmoback/services"
	"inmoback/utils"
)

type SubscriptionController struct {
	subscriptionService *services.SubscriptionService
}

func NewSubscriptionController(subscriptionService *services.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{subscriptionService: subscriptionService}
}

type subscribeRequest struct {
	UserID           string `json:"user_id" validate:"required"`
	PlanID           string `json:"plan_id" validate:"required"`
	PaymentReference string `json:"payment_reference" validate:"required"`
	SalesAgentCode   string `json:"sales_agent_code"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type renewRequest struct {
	PaymentReference string `json:"payment_reference" validate:"required"`
}

type changePlanRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	NewPlanID string `json:"new_plan_id" validate:"required"`
}

type changePlanWithPaymentRequest struct {
	UserID           string `json:"user_id" validate:"required"`
	NewPlanID        string `json:"new_plan_id" validate:"required"`
	PaymentReference string `json:"payment_reference" validate:"required"`
	SalesAgentCode   string `json:"sales_agent_code"`
}

// Subscribe creates a new subscription
func (sc *SubscriptionController) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	userID, err := utils.StringToObjectID(req.UserID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID")
		return
	}
	planID, err := utils.StringToObjectID(req.PlanID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid plan ID")
		return
	}

	sub, err := sc.subscriptionService.Subscribe(c.Request.Context(), userID, planID, req.PaymentReference, req.SalesAgentCode)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.CreatedResponse(c, "Subscription created successfully", sub)
}

// Cancel cancels an active subscription
func (sc *SubscriptionController) Cancel(c *gin.Context) {
	subID, err := utils.StringToObjectID(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid subscription ID")
		return
	}

	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	sub, err := sc.subscriptionService.Cancel(c.Request.Context(), subID, req.Reason)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Subscription cancelled successfully", sub)
}

// Renew extends an active subscription by one billing cycle
func (sc *SubscriptionController) Renew(c *gin.Context) {
	subID, err := utils.StringToObjectID(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid subscription ID")
		return
	}

	var req renewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	sub, err := sc.subscriptionService.Renew(c.Request.Context(), subID, req.PaymentReference)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Subscription renewed successfully", sub)
}

// ChangePlan swaps the plan without payment (monthly targets only)
func (sc *SubscriptionController) ChangePlan(c *gin.Context) {
	var req changePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	userID, err := utils.StringToObjectID(req.UserID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID")
		return
	}
	planID, err := utils.StringToObjectID(req.NewPlanID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid plan ID")
		return
	}

	sub, err := sc.subscriptionService.ChangePlan(c.Request.Context(), userID, planID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Plan changed successfully", sub)
}

// ChangePlanWithPayment swaps the plan immediately against a payment,
// with proration of unused annual days
func (sc *SubscriptionController) ChangePlanWithPayment(c *gin.Context) {
	var req changePlanWithPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	userID, err := utils.StringToObjectID(req.UserID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID")
		return
	}
	planID, err := utils.StringToObjectID(req.NewPlanID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid plan ID")
		return
	}

	sub, err := sc.subscriptionService.ChangePlanWithPayment(c.Request.Context(), userID, planID, req.PaymentReference, req.SalesAgentCode)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Plan changed successfully", sub)
}

// GetUserSubscriptions lists all subscription records of a user
func (sc *SubscriptionController) GetUserSubscriptions(c *gin.Context) {
	userID, err := utils.StringToObjectID(c.Param("userId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID")
		return
	}

	subs, err := sc.subscriptionService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Subscriptions retrieved successfully", subs)
}

// GetUserSubscriptionByType returns the active subscription of a given type
func (sc *SubscriptionController) GetUserSubscriptionByType(c *gin.Context) {
	userID, err := utils.StringToObjectID(c.Param("userId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID")
		return
	}

	sub, err := sc.subscriptionService.GetActiveByUserAndType(c.Request.Context(), userID, c.Param("type"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Subscription retrieved successfully", sub)
}

// CheckAccess answers the boolean access + tier projection
func (sc *SubscriptionController) CheckAccess(c *gin.Context) {
	userID, err := utils.StringToObjectID(c.Param("userId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID")
		return
	}

	access, err := sc.subscriptionService.CheckAccess(c.Request.Context(), userID, c.Query("type"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Access checked successfully", access)
}

// GetSubscription returns one subscription by id (admin)
func (sc *SubscriptionController) GetSubscription(c *gin.Context) {
	subID, err := utils.StringToObjectID(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid subscription ID")
		return
	}

	sub, err := sc.subscriptionService.GetSubscription(c.Request.Context(), subID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Subscription retrieved successfully", sub)
}

// ListSubscriptions is the filtered admin listing
func (sc *SubscriptionController) ListSubscriptions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	filter := services.SubscriptionFilter{
		Status:   c.Query("status"),
		PlanType: c.Query("type"),
		Page:     page,
		Limit:    limit,
	}
	if userParam := c.Query("user_id"); userParam != "" {
		userID, err := utils.StringToObjectID(userParam)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid user ID")
			return
		}
		filter.UserID = userID
	}

	subs, total, err := sc.subscriptionService.ListSubscriptions(c.Request.Context(), filter)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.PaginatedResponse(c, "Subscriptions retrieved successfully", subs, page, limit, total)
}

// Sweep triggers the expiration sweep manually (admin)
func (sc *SubscriptionController) Sweep(c *gin.Context) {
	count, err := sc.subscriptionService.Sweep(c.Request.Context(), time.Now().UTC())
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Expiration sweep completed", gin.H{"expired": count})
}
