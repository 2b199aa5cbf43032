package routes

import (
	"github.com/gin-gonic/gin"

	"inmoback/controllers"
)

func AdminRoutes(
	r *gin.RouterGroup,
	planController *controllers.PlanController,
	subscriptionController *controllers.SubscriptionController,
	agentController *controllers.SalesAgentController,
	adminController *controllers.AdminController,
) {
	// Plan management
	plans := r.Group("/plans")
	{
		plans.GET("", planController.GetAllPlans)
		plans.POST("", planController.CreatePlan)
		plans.PUT("/:id", planController.UpdatePlan)
		plans.DELETE("/:id", planController.DeactivatePlan)
	}

	// Subscription oversight
	subscriptions := r.Group("/subscriptions")
	{
		subscriptions.GET("", subscriptionController.ListSubscriptions)
		subscriptions.GET("/:id", subscriptionController.GetSubscription)
		subscriptions.POST("/sweep", subscriptionController.Sweep)
	}

	// Sales agents and commissions
	agents := r.Group("/sales-agents")
	{
		agents.GET("", agentController.ListAgents)
		agents.POST("", agentController.CreateAgent)
		agents.GET("/:id", agentController.GetAgent)
		agents.PUT("/:id", agentController.UpdateAgent)
		agents.DELETE("/:id", agentController.DeactivateAgent)
		agents.GET("/:id/commissions", agentController.GetAgentCommissions)
	}
	r.PUT("/commissions/:id/pay", agentController.PayCommission)

	// Dashboard
	r.GET("/stats", adminController.GetStats)
}
