package middlewares

import (
	"context"
	"net/http"
	"time"

	"civiccare-be/config"
	"civiccare-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LoadCurrentUser resolves the authenticated user document and puts it on
// the context as "current_user". Blocked users are turned away here so no
// controller needs its own check. Must run after AuthMiddleware.
func LoadCurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			c.Abort()
			return
		}

		objectID, err := primitive.ObjectIDFromHex(userID.(string))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
			c.Abort()
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var user models.User
		err = config.GetCollection("users").FindOne(ctx, bson.M{"_id": objectID}).Decode(&user)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			c.Abort()
			return
		}

		if user.Blocked {
			c.JSON(http.StatusForbidden, gin.H{"error": "Your account has been blocked"})
			c.Abort()
			return
		}

		c.Set("current_user", &user)
		c.Next()
	}
}

// RequireRole rejects requests whose current user does not hold one of the
// given roles. Roles are checked against the database document, not the
// token, so a demoted user loses access immediately.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			c.Abort()
			return
		}

		for _, role := range roles {
			if user.Role.Normalized() == role.Normalized() {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"errorKind": "Unauthorized",
			"error":     "You do not have permission to perform this action",
		})
		c.Abort()
	}
}

// CurrentUser returns the user loaded by LoadCurrentUser, or nil.
func CurrentUser(c *gin.Context) *models.User {
	val, exists := c.Get("current_user")
	if !exists {
		return nil
	}
	user, ok := val.(*models.User)
	if !ok {
		return nil
	}
	return user
}
