package routes

import (
	"civiccare-be/controllers"
	"civiccare-be/middlewares"
	"civiccare-be/models"

	"github.com/gin-gonic/gin"
)

// AdminRoutes sets up the admin management routes
func AdminRoutes(r *gin.Engine) {
	admin := r.Group("/api/admin",
		middlewares.AuthMiddleware(),
		middlewares.LoadCurrentUser(),
		middlewares.RequireRole(models.RoleAdmin))
	{
		admin.GET("/issues", controllers.AdminAllIssues)
		admin.PATCH("/issues/:id/assign", controllers.AssignStaffToIssue)
		admin.PATCH("/issues/:id/reject", controllers.RejectIssue)
		admin.PATCH("/issues/:id/close", controllers.CloseIssue)

		admin.GET("/users", controllers.GetAllUsers)
		admin.PATCH("/users/:id/block", controllers.SetUserBlocked)
		admin.PATCH("/users/:id/role", controllers.SetUserRole)

		admin.GET("/staff-applications", controllers.GetStaffApplications)
		admin.PATCH("/staff-applications/:id", controllers.DecideStaffApplication)

		admin.GET("/payments", controllers.GetAllPayments)
		admin.GET("/analytics", controllers.GetAnalytics)
	}
}
