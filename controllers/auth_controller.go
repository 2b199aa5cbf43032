package controllers

import (
	"github.com/gin-gonic/gin"

	"inmoback/models"
	"inmoback/services"
	"inmoback/utils"
)

type AuthController struct {
	userService *services.UserService
}

func NewAuthController(userService *services.UserService) *AuthController {
	return &AuthController{userService: userService}
}

// Login authenticates a user and issues an access token
func (ac *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	user, err := ac.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.UnauthorizedResponse(c, "Invalid credentials")
		return
	}

	token, err := utils.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		utils.InternalServerErrorResponse(c, "Failed to generate token")
		return
	}

	utils.SuccessResponse(c, "Login successful", gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   utils.AccessTokenTTLSeconds(),
		"user":         user,
	})
}
