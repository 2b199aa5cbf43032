package routes

import (
	"github.com/gin-gonic/gin"

	"inmoback/controllers"
	"inmoback/middleware"
)

func SubscriptionRoutes(r *gin.RouterGroup, subscriptionController *controllers.SubscriptionController) {
	subscriptions := r.Group("/subscriptions")
	subscriptions.Use(middleware.AuthMiddleware())
	{
		subscriptions.POST("/subscribe", subscriptionController.Subscribe)
		subscriptions.PUT("/:id/cancel", subscriptionController.Cancel)
		subscriptions.PUT("/:id/renew", subscriptionController.Renew)
		subscriptions.PUT("/change-plan", subscriptionController.ChangePlan)
		subscriptions.PUT("/change-plan-with-payment", subscriptionController.ChangePlanWithPayment)

		subscriptions.GET("/user/:userId", subscriptionController.GetUserSubscriptions)
		subscriptions.GET("/user/:userId/type/:type", subscriptionController.GetUserSubscriptionByType)
		subscriptions.GET("/user/:userId/access", subscriptionController.CheckAccess)
	}
}
