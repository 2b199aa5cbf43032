package routes

import (
	"github.com/gin-gonic/gin"

	"inmoback/controllers"
)

func PlanRoutes(r *gin.RouterGroup, planController *controllers.PlanController) {
	plans := r.Group("/plans")
	{
		// Public catalog
		plans.GET("", planController.GetPlans)
		plans.GET("/proptech", planController.GetProptechPlans)
		plans.GET("/network", planController.GetNetworkPlans)
		plans.GET("/:id", planController.GetPlan)
	}
}
