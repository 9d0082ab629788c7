package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"civiccare-be/config"
	"civiccare-be/lifecycle"
	"civiccare-be/middlewares"
	"civiccare-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var issueCollection *mongo.Collection = config.GetCollection("issues")
var userCollection *mongo.Collection = config.GetCollection("users")

// findIssueByParam loads the issue addressed by the :id route parameter,
// writing the error response itself on failure.
func findIssueByParam(c *gin.Context, ctx context.Context) (models.Issue, bool) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return models.Issue{}, false
	}

	var issue models.Issue
	err = issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return models.Issue{}, false
	}
	return issue, true
}

// CreateIssue handles the creation of a new issue. Every issue starts in
// pending with a single timeline entry recorded by its reporter.
func CreateIssue(c *gin.Context) {
	user := mustCurrentUser(c)
	if user == nil {
		return
	}

	var input struct {
		Title          string `json:"title" binding:"required,max=200"`
		Category       string `json:"category" binding:"required"`
		Description    string `json:"issueDescription" binding:"required,max=1000"`
		PhotoURL       string `json:"photoURL,omitempty"`
		SenderRegion   string `json:"senderRegion,omitempty"`
		SenderDistrict string `json:"senderDistrict,omitempty"`
		SenderAddress  string `json:"senderAddress,omitempty" binding:"max=200"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := models.ParseCategory(input.Category)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issue := lifecycle.NewIssue(input.Title, category, actorOf(user))
	issue.ID = primitive.NewObjectID()
	issue.Description = input.Description
	issue.PhotoURL = input.PhotoURL
	issue.SenderName = user.Name
	issue.SenderRegion = input.SenderRegion
	issue.SenderDistrict = input.SenderDistrict
	issue.SenderAddress = input.SenderAddress

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = issueCollection.InsertOne(ctx, issue)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create issue"})
		return
	}

	middlewares.InvalidateIssueQuota(ctx, user.Email)

	c.JSON(http.StatusCreated, issue)
}

// GetAllIssues handles retrieving all issues with filtering and pagination.
// Boosted issues sort ahead of normal ones within the same page ordering.
func GetAllIssues(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	category := c.Query("category")
	status := c.Query("status")
	priority := c.Query("priority")
	search := c.Query("search")
	sortParam := c.DefaultQuery("sort", "newest")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	filter := bson.M{}

	if category != "" && category != "all" {
		if _, err := models.ParseCategory(category); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter["category"] = category
	}

	if status != "" && status != "all" {
		if _, err := models.ParseIssueStatus(status); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter["status"] = status
	}

	if priority != "" && priority != "all" {
		if _, err := models.ParseIssuePriority(priority); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter["priority"] = priority
	}

	if search != "" {
		filter["$or"] = []bson.M{
			{"title": bson.M{"$regex": search, "$options": "i"}},
			{"issueDescription": bson.M{"$regex": search, "$options": "i"}},
		}
	}

	skip := (page - 1) * limit

	// "high" sorts before "normal" ascending, so boosted issues lead.
	var sortOptions bson.D
	switch sortParam {
	case "oldest":
		sortOptions = bson.D{{Key: "priority", Value: 1}, {Key: "createdAt", Value: 1}}
	case "most-upvoted":
		sortOptions = bson.D{{Key: "priority", Value: 1}, {Key: "upvoteCount", Value: -1}}
	case "newest":
		fallthrough
	default:
		sortOptions = bson.D{{Key: "priority", Value: 1}, {Key: "createdAt", Value: -1}}
	}

	totalCount, err := issueCollection.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count issues"})
		return
	}

	findOptions := options.Find().
		SetSort(sortOptions).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := issueCollection.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode issues"})
		return
	}

	totalPages := int((totalCount + int64(limit) - 1) / int64(limit))

	c.JSON(http.StatusOK, gin.H{
		"issues":      issues,
		"totalIssues": totalCount,
		"totalPages":  totalPages,
		"currentPage": page,
	})
}

// GetIssue retrieves an issue by its ID, timeline included.
func GetIssue(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issue, ok := findIssueByParam(c, ctx)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, issue)
}

// GetMyIssues retrieves all issues reported by the authenticated user.
func GetMyIssues(c *gin.Context) {
	user := mustCurrentUser(c)
	if user == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := issueCollection.Find(ctx, bson.M{"senderEmail": user.Email}, findOptions)
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

// GetCitizenStats returns the reporter's dashboard summary: per-status counts
// of their own issues and the total they have paid in boosts.
func GetCitizenStats(c *gin.Context) {
	user := mustCurrentUser(c)
	if user == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	statusCounts := map[string]int64{}
	for _, status := range models.Statuses {
		count, err := issueCollection.CountDocuments(ctx, bson.M{
			"senderEmail": user.Email,
			"status":      status,
		})
		if err != nil {
			count = 0
		}
		statusCounts[string(status)] = count
	}

	totalIssues, err := issueCollection.CountDocuments(ctx, bson.M{"senderEmail": user.Email})
	if err != nil {
		totalIssues = 0
	}

	// Sum of the reporter's confirmed boost payments.
	paymentPipeline := []bson.M{
		{"$match": bson.M{"payerEmail": user.Email, "status": models.PaymentPaid}},
		{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}},
	}

	var totalPayments int64
	paymentCursor, err := paymentCollection.Aggregate(ctx, paymentPipeline)
	if err == nil {
		var sums []struct {
			Total int64 `bson:"total"`
		}
		if err := paymentCursor.All(ctx, &sums); err == nil && len(sums) > 0 {
			totalPayments = sums[0].Total
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"totalIssues":      totalIssues,
		"pendingIssues":    statusCounts[string(models.StatusPending)],
		"inProgressIssues": statusCounts[string(models.StatusInProgress)],
		"resolvedIssues":   statusCounts[string(models.StatusResolved)],
		"statusCounts":     statusCounts,
		"totalPayments":    totalPayments,
	})
}

// UpdateIssue allows the creator to edit details while the issue is still
// pending. Status, priority and timeline are never writable here; those
// change only through lifecycle operations.
func UpdateIssue(c *gin.Context) {
	user := mustCurrentUser(c)
	if user == nil {
		return
	}

	var input struct {
		Title          *string `json:"title,omitempty"`
		Category       *string `json:"category,omitempty"`
		Description    *string `json:"issueDescription,omitempty"`
		PhotoURL       *string `json:"photoURL,omitempty"`
		SenderRegion   *string `json:"senderRegion,omitempty"`
		SenderDistrict *string `json:"senderDistrict,omitempty"`
		SenderAddress  *string `json:"senderAddress,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issue, ok := findIssueByParam(c, ctx)
	if !ok {
		return
	}

	if issue.SenderEmail != user.Email {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to update this issue"})
		return
	}

	if issue.Status != models.StatusPending {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only pending issues can be edited"})
		return
	}

	update := bson.M{"updatedAt": time.Now()}
	if input.Title != nil {
		update["title"] = *input.Title
	}
	if input.Category != nil {
		category, err := models.ParseCategory(*input.Category)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		update["category"] = category
	}
	if input.Description != nil {
		update["issueDescription"] = *input.Description
	}
	if input.PhotoURL != nil {
		update["photoURL"] = *input.PhotoURL
	}
	if input.SenderRegion != nil {
		update["senderRegion"] = *input.SenderRegion
	}
	if input.SenderDistrict != nil {
		update["senderDistrict"] = *input.SenderDistrict
	}
	if input.SenderAddress != nil {
		update["senderAddress"] = *input.SenderAddress
	}

	// The pending pin makes the edit lose against a concurrent transition.
	result, err := issueCollection.UpdateOne(ctx,
		bson.M{"_id": issue.ID, "status": models.StatusPending},
		bson.M{"$set": update})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update issue"})
		return
	}
	if result.MatchedCount == 0 {
		respondLifecycleError(c, lifecycle.ErrConcurrentModification)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Issue updated successfully"})
}

// DeleteIssue removes an issue. Permitted only while the issue is pending,
// and only for its creator or an admin.
func DeleteIssue(c *gin.Context) {
	user := mustCurrentUser(c)
	if user == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issue, ok := findIssueByParam(c, ctx)
	if !ok {
		return
	}

	if issue.SenderEmail != user.Email && user.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to delete this issue"})
		return
	}

	if issue.Status != models.StatusPending {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only pending issues can be deleted"})
		return
	}

	result, err := issueCollection.DeleteOne(ctx,
		bson.M{"_id": issue.ID, "status": models.StatusPending})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete issue"})
		return
	}
	if result.DeletedCount == 0 {
		respondLifecycleError(c, lifecycle.ErrConcurrentModification)
		return
	}

	middlewares.InvalidateIssueQuota(ctx, issue.SenderEmail)

	c.JSON(http.StatusOK, gin.H{"message": "Issue deleted successfully"})
}

// UpvoteIssue registers a single upvote per user. The write filter repeats
// the preconditions so concurrent duplicates cannot double-count.
func UpvoteIssue(c *gin.Context) {
	user := mustCurrentUser(c)
	if user == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issue, ok := findIssueByParam(c, ctx)
	if !ok {
		return
	}

	if _, err := lifecycle.ApplyUpvote(issue, actorOf(user)); err != nil {
		respondLifecycleError(c, err)
		return
	}

	// Return the document as stored after the increment so the reported
	// count reflects concurrent upvotes, not the copy read above.
	var updated models.Issue
	err := issueCollection.FindOneAndUpdate(ctx,
		bson.M{
			"_id":         issue.ID,
			"senderEmail": bson.M{"$ne": user.Email},
			"upvoters":    bson.M{"$ne": user.Email},
		},
		bson.M{
			"$inc":      bson.M{"upvoteCount": 1},
			"$addToSet": bson.M{"upvoters": user.Email},
			"$set":      bson.M{"updatedAt": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			respondLifecycleError(c, lifecycle.ErrConcurrentModification)
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cast upvote"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Upvote recorded",
		"upvoteCount": updated.UpvoteCount,
	})
}

// LatestResolvedIssues returns the most recently resolved issues for the
// public home page feed.
func LatestResolvedIssues(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	findOptions := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetLimit(6)

	cursor, err := issueCollection.Find(ctx, bson.M{"status": models.StatusResolved}, findOptions)
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
