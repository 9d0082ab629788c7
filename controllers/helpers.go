package controllers

import (
	"net/http"

	"civiccare-be/lifecycle"
	"civiccare-be/middlewares"
	"civiccare-be/models"

	"github.com/gin-gonic/gin"
)

// actorOf converts the authenticated user into a lifecycle actor.
func actorOf(user *models.User) models.Actor {
	return models.Actor{Role: user.Role, Email: user.Email}
}

// respondLifecycleError writes a typed lifecycle failure as a structured
// {errorKind, error} body with the status mapped from its kind.
func respondLifecycleError(c *gin.Context, err error) {
	kind := lifecycle.KindOf(err)
	if kind == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}
	c.JSON(lifecycle.HTTPStatus(kind), gin.H{
		"errorKind": string(kind),
		"error":     err.Error(),
	})
}

// mustCurrentUser fetches the user loaded by middleware, aborting with 401
// if it is missing.
func mustCurrentUser(c *gin.Context) *models.User {
	user := middlewares.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
	}
	return user
}
