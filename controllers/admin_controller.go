package controllers

import (
	"github.com/gin-gonic/gin"

	"inmoback/services"
	"inmoback/utils"
)

type AdminController struct {
	adminService *services.AdminService
}

func NewAdminController(adminService *services.AdminService) *AdminController {
	return &AdminController{adminService: adminService}
}

// GetStats returns aggregate counts for the admin dashboard
func (ac *AdminController) GetStats(c *gin.Context) {
	stats, err := ac.adminService.GetStats(c.Request.Context())
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Stats retrieved successfully", stats)
}
