package routes

import (
	"os"
	"strconv"

	"civiccare-be/controllers"
	"civiccare-be/middlewares"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the citizen-facing issue routes
func IssueRoutes(r *gin.Engine) {
	freeLimit := 3
	if v := os.Getenv("FREE_ISSUE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			freeLimit = n
		}
	}

	// Public feed for the home page
	r.GET("/api/latest-resolved-issues", controllers.LatestResolvedIssues)

	authed := r.Group("/api", middlewares.AuthMiddleware(), middlewares.LoadCurrentUser())
	{
		authed.POST("/issues", middlewares.IssueQuota(freeLimit), controllers.CreateIssue)
		authed.GET("/issues", controllers.GetAllIssues)
		authed.GET("/my-issues", controllers.GetMyIssues)
		authed.GET("/citizen/summary", controllers.GetCitizenStats)
		authed.GET("/issues/:id", controllers.GetIssue)
		authed.PUT("/issues/:id", controllers.UpdateIssue)
		authed.DELETE("/issues/:id", controllers.DeleteIssue)
		authed.PATCH("/issues/:id/upvote", controllers.UpvoteIssue)
		// Role gating happens in the lifecycle engine, not the router.
		authed.PATCH("/issues/:id/status", controllers.UpdateIssueStatus)
	}
}
