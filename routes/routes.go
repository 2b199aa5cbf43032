package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"inmoback/config"
	"inmoback/controllers"
	"inmoback/database"
	"inmoback/middleware"
	"inmoback/services"
)

// SetupRoutes wires stores, services, controllers and route groups.
func SetupRoutes(r *gin.Engine, cfg *config.Config, logger *logrus.Logger) *services.SubscriptionService {
	// Global middleware
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(gin.Recovery())

	// Stores
	planStore := database.NewPlanStore()
	subscriptionStore := database.NewSubscriptionStore()
	agentStore := database.NewSalesAgentStore()
	commissionStore := database.NewCommissionStore()
	userStore := database.NewUserStore()
	txRunner := database.NewTxRunner(database.GetClient())

	// Services
	planService := services.NewPlanService(planStore, logger)
	subscriptionService := services.NewSubscriptionService(
		subscriptionStore, planStore, agentStore, commissionStore, userStore, txRunner, logger)
	commissionService := services.NewCommissionService(commissionStore, agentStore, txRunner, logger)
	agentService := services.NewSalesAgentService(agentStore, logger)
	userService := services.NewUserService(userStore)
	adminService := services.NewAdminService(planStore, subscriptionStore, agentStore, commissionStore)

	// Controllers
	authController := controllers.NewAuthController(userService)
	planController := controllers.NewPlanController(planService)
	subscriptionController := controllers.NewSubscriptionController(subscriptionService)
	agentController := controllers.NewSalesAgentController(agentService, commissionService)
	adminController := controllers.NewAdminController(adminService)

	// API v1 routes
	v1 := r.Group("/api/v1")
	if cfg.RateLimitEnabled {
		v1.Use(middleware.RateLimitMiddleware())
	}
	{
		AuthRoutes(v1, authController)
		PlanRoutes(v1, planController)
		SubscriptionRoutes(v1, subscriptionController)
	}

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	{
		AdminRoutes(admin, planController, subscriptionController, agentController, adminController)
	}

	return subscriptionService
}
