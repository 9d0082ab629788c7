package controllers

import (
	"context"
	"net/http"
	"time"

	"civiccare-be/config"
	"civiccare-be/lifecycle"
	"civiccare-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var applicationCollection *mongo.Collection = config.GetCollection("staff_applications")

// GetAssignedIssues retrieves the issues assigned to the authenticated staff
// member, boosted issues first.
func GetAssignedIssues(c *gin.Context) {
	user := mustCurrentUser(c)
	if user == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	findOptions := options.Find().
		SetSort(bson.D{{Key: "priority", Value: 1}, {Key: "updatedAt", Value: -1}})

	cursor, err := issueCollection.Find(ctx, bson.M{"staffEmail": user.Email}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode issues"})
		return
	}

	c.JSON(http.StatusOK, issues)
}

// UpdateIssueStatus moves an issue along the pipeline. The lifecycle engine
// decides whether the caller's role (and assignee identity) permits the
// requested transition. The write pins the status and assignee the
// precondition checks read, so a stale request loses.
func UpdateIssueStatus(c *gin.Context) {
	user := mustCurrentUser(c)
	if user == nil {
		return
	}

	var input struct {
		Status  string `json:"status" binding:"required"`
		Message string `json:"message,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target, err := models.ParseIssueStatus(input.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issue, ok := findIssueByParam(c, ctx)
	if !ok {
		return
	}

	updated, err := lifecycle.ApplyTransition(issue, target, actorOf(user), input.Message)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	if !commitTransition(c, ctx, issue, updated) {
		return
	}

	c.JSON(http.StatusOK, updated)
}

// commitTransition persists the result of a lifecycle transition with an
// optimistic write: the filter pins the status and assignee the engine read.
// Zero matches after a passed precondition check means the issue changed
// under us, reported as ConcurrentModification.
func commitTransition(c *gin.Context, ctx context.Context, before, after models.Issue) bool {
	entry := after.Timeline[len(after.Timeline)-1]

	filter := bson.M{"_id": before.ID, "status": before.Status}
	if before.HasAssignee() {
		filter["staffEmail"] = before.StaffEmail
	} else {
		filter["staffEmail"] = bson.M{"$exists": false}
	}

	set := bson.M{
		"status":    after.Status,
		"updatedAt": after.UpdatedAt,
	}
	if after.StatusMessage != "" {
		set["statusMessage"] = after.StatusMessage
	}
	if after.HasAssignee() && !before.HasAssignee() {
		set["staffId"] = after.StaffID
		set["staffName"] = after.StaffName
		set["staffEmail"] = after.StaffEmail
	}

	result, err := issueCollection.UpdateOne(ctx, filter, bson.M{
		"$set":  set,
		"$push": bson.M{"timeline": entry},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update issue"})
		return false
	}
	if result.ModifiedCount == 0 {
		respondLifecycleError(c, lifecycle.ErrConcurrentModification)
		return false
	}
	return true
}

// GetStaffStats returns per-status counts for the staff dashboard.
func GetStaffStats(c *gin.Context) {
	user := mustCurrentUser(c)
	if user == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	statusCounts := gin.H{}
	for _, status := range models.Statuses {
		count, err := issueCollection.CountDocuments(ctx, bson.M{
			"staffEmail": user.Email,
			"status":     status,
		})
		if err != nil {
			count = 0
		}
		statusCounts[string(status)] = count
	}

	total, err := issueCollection.CountDocuments(ctx, bson.M{"staffEmail": user.Email})
	if err != nil {
		total = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"totalAssigned": total,
		"statusCounts":  statusCounts,
	})
}

// ApplyForStaff lets a citizen submit a staff application for their region.
func ApplyForStaff(c *gin.Context) {
	user := mustCurrentUser(c)
	if user == nil {
		return
	}

	if user.Role == models.RoleStaff || user.Role == models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You are already part of the team"})
		return
	}

	var input struct {
		Region     string `json:"region" binding:"required"`
		District   string `json:"district" binding:"required"`
		Motivation string `json:"motivation,omitempty" binding:"max=1000"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := applicationCollection.CountDocuments(ctx, bson.M{
		"applicantEmail": user.Email,
		"status":         models.ApplicationPending,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "You already have a pending application"})
		return
	}

	application := models.StaffApplication{
		ApplicantID:    user.ID,
		ApplicantName:  user.Name,
		ApplicantEmail: user.Email,
		Region:         input.Region,
		District:       input.District,
		Motivation:     input.Motivation,
		Status:         models.ApplicationPending,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	result, err := applicationCollection.InsertOne(ctx, application)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit application"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      result.InsertedID,
		"message": "Application submitted",
	})
}
