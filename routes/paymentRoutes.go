package routes

import (
	"civiccare-be/controllers"
	"civiccare-be/middlewares"

	"github.com/gin-gonic/gin"
)

// PaymentRoutes sets up the boost payment routes
func PaymentRoutes(r *gin.Engine) {
	authed := r.Group("/api", middlewares.AuthMiddleware(), middlewares.LoadCurrentUser())
	{
		authed.POST("/create-checkout-session", controllers.CreateCheckoutSession)
		authed.PATCH("/payment-success", controllers.PaymentSuccess)
		authed.GET("/my-payments", controllers.GetMyPayments)
	}
}
