package routes

import (
	"civiccare-be/controllers"
	"civiccare-be/middlewares"
	"civiccare-be/models"

	"github.com/gin-gonic/gin"
)

// StaffRoutes sets up the staff routes
func StaffRoutes(r *gin.Engine) {
	authed := r.Group("/api", middlewares.AuthMiddleware(), middlewares.LoadCurrentUser())
	{
		// Any citizen may apply to become staff
		authed.POST("/staff-applications", controllers.ApplyForStaff)
	}

	staff := r.Group("/api/staff",
		middlewares.AuthMiddleware(),
		middlewares.LoadCurrentUser(),
		middlewares.RequireRole(models.RoleStaff))
	{
		staff.GET("/issues", controllers.GetAssignedIssues)
		staff.GET("/stats", controllers.GetStaffStats)
	}
}
