package routes

import (
	"github.com/gin-gonic/gin"

	"inmoback/controllers"
)

func AuthRoutes(r *gin.RouterGroup, authController *controllers.AuthController) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", authController.Login)
	}
}
