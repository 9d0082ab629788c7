package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"civiccare-be/lifecycle"
	"civiccare-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AdminAllIssues retrieves every issue for the admin oversight table.
func AdminAllIssues(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	findOptions := options.Find().
		SetSort(bson.D{{Key: "priority", Value: 1}, {Key: "createdAt", Value: -1}})

	cursor, err := issueCollection.Find(ctx, bson.M{}, findOptions)
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

// AssignStaffToIssue assigns a staff member to a pending issue. Assignment
// and the pending -> in-progress transition are one operation: an issue is
// never assigned but still pending.
func AssignStaffToIssue(c *gin.Context) {
	user := mustCurrentUser(c)
	if user == nil {
		return
	}

	var input struct {
		StaffID string `json:"staffId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	staffObjID, err := primitive.ObjectIDFromHex(input.StaffID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid staff ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var staff models.User
	err = userCollection.FindOne(ctx, bson.M{"_id": staffObjID}).Decode(&staff)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Staff member not found"})
		return
	}
	if staff.Role != models.RoleStaff {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Selected user is not a staff member"})
		return
	}

	issue, ok := findIssueByParam(c, ctx)
	if !ok {
		return
	}

	updated, err := lifecycle.AssignStaff(issue, models.StaffRef{
		ID:    staff.ID,
		Name:  staff.Name,
		Email: staff.Email,
	}, actorOf(user))
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	if !commitTransition(c, ctx, issue, updated) {
		return
	}

	c.JSON(http.StatusOK, updated)
}

// RejectIssue moves an issue to the rejected terminal status. Only legal
// while no staff is assigned.
func RejectIssue(c *gin.Context) {
	user := mustCurrentUser(c)
	if user == nil {
		return
	}

	var input struct {
		Message string `json:"message,omitempty"`
	}
	// Body is optional for rejection.
	_ = c.ShouldBindJSON(&input)
	if input.Message == "" {
		input.Message = "Issue rejected by admin"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issue, ok := findIssueByParam(c, ctx)
	if !ok {
		return
	}

	updated, err := lifecycle.ApplyTransition(issue, models.StatusRejected, actorOf(user), input.Message)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	if !commitTransition(c, ctx, issue, updated) {
		return
	}

	c.JSON(http.StatusOK, updated)
}

// CloseIssue moves a resolved issue to the closed terminal status.
func CloseIssue(c *gin.Context) {
	user := mustCurrentUser(c)
	if user == nil {
		return
	}

	var input struct {
		Message string `json:"message,omitempty"`
	}
	_ = c.ShouldBindJSON(&input)
	if input.Message == "" {
		input.Message = "Resolution verified, issue closed"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issue, ok := findIssueByParam(c, ctx)
	if !ok {
		return
	}

	updated, err := lifecycle.ApplyTransition(issue, models.StatusClosed, actorOf(user), input.Message)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	if !commitTransition(c, ctx, issue, updated) {
		return
	}

	c.JSON(http.StatusOK, updated)
}

// GetAllUsers lists users for the admin management tables, optionally
// filtered by role.
func GetAllUsers(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if role := c.Query("role"); role != "" && role != "all" {
		parsed, ok := models.ParseRole(role)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
			return
		}
		filter["role"] = parsed
	}
	if email := c.Query("email"); email != "" {
		filter["email"] = email
	}

	cursor, err := userCollection.Find(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode users"})
		return
	}

	c.JSON(http.StatusOK, users)
}

// SetUserBlocked blocks or unblocks an account. Blocked users cannot log in
// or pass the authenticated middleware chain.
func SetUserBlocked(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var input struct {
		Blocked *bool `json:"blocked" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := userCollection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"blocked": *input.Blocked, "updatedAt": time.Now()}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully"})
}

// SetUserRole changes a user's role (e.g. citizen -> premiumUser after an
// upgrade, or revoking staff).
func SetUserRole(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var input struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, ok := models.ParseRole(input.Role)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := userCollection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"role": role, "updatedAt": time.Now()}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Role updated successfully"})
}

// GetStaffApplications lists staff applications, pending first.
func GetStaffApplications(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	findOptions := options.Find().
		SetSort(bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}})

	cursor, err := applicationCollection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve applications"})
		return
	}
	defer cursor.Close(ctx)

	applications := []models.StaffApplication{}
	if err := cursor.All(ctx, &applications); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode applications"})
		return
	}

	c.JSON(http.StatusOK, applications)
}

// DecideStaffApplication approves or rejects a staff application. Approval
// promotes the applicant to the staff role.
func DecideStaffApplication(c *gin.Context) {
	applicationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}

	var input struct {
		Approve *bool `json:"approve" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var application models.StaffApplication
	err = applicationCollection.FindOne(ctx, bson.M{"_id": applicationID}).Decode(&application)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve application"})
		}
		return
	}

	if application.Status != models.ApplicationPending {
		c.JSON(http.StatusConflict, gin.H{"error": "Application already decided"})
		return
	}

	decision := models.ApplicationRejected
	if *input.Approve {
		decision = models.ApplicationApproved
	}

	// The pending pin prevents two admins deciding the same application.
	result, err := applicationCollection.UpdateOne(ctx,
		bson.M{"_id": applicationID, "status": models.ApplicationPending},
		bson.M{"$set": bson.M{"status": decision, "updatedAt": time.Now()}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update application"})
		return
	}
	if result.ModifiedCount == 0 {
		respondLifecycleError(c, lifecycle.ErrConcurrentModification)
		return
	}

	if decision == models.ApplicationApproved {
		_, err = userCollection.UpdateOne(ctx,
			bson.M{"_id": application.ApplicantID},
			bson.M{"$set": bson.M{"role": models.RoleStaff, "updatedAt": time.Now()}})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to promote applicant"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Application " + string(decision)})
}

// GetAllPayments lists boost payments with pagination, optionally filtered
// by month (YYYY-MM).
func GetAllPayments(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	filter := bson.M{"status": models.PaymentPaid}
	if month := c.Query("month"); month != "" {
		start, err := time.Parse("2006-01", month)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month, expected YYYY-MM"})
			return
		}
		filter["paidAt"] = bson.M{"$gte": start, "$lt": start.AddDate(0, 1, 0)}
	}

	totalCount, err := paymentCollection.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count payments"})
		return
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "paidAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := paymentCollection.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve payments"})
		return
	}
	defer cursor.Close(ctx)

	payments := []models.Payment{}
	if err := cursor.All(ctx, &payments); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode payments"})
		return
	}

	var totalAmount int64
	for _, p := range payments {
		totalAmount += p.Amount
	}

	totalPages := int((totalCount + int64(limit) - 1) / int64(limit))

	c.JSON(http.StatusOK, gin.H{
		"payments":    payments,
		"totalAmount": totalAmount,
		"totalPages":  totalPages,
		"currentPage": page,
	})
}

// GetAnalytics returns aggregate figures for the admin dashboard.
func GetAnalytics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Issues grouped by category.
	categoryPipeline := []bson.M{
		{
			"$group": bson.M{
				"_id":   "$category",
				"count": bson.M{"$sum": 1},
			},
		},
		{
			"$project": bson.M{
				"name":  "$_id",
				"value": "$count",
				"_id":   0,
			},
		},
	}

	categoryCursor, err := issueCollection.Aggregate(ctx, categoryPipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get category analytics"})
		return
	}
	defer categoryCursor.Close(ctx)

	var issuesByCategory []bson.M
	if err := categoryCursor.All(ctx, &issuesByCategory); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode category analytics"})
		return
	}

	// Per-status counts.
	statusCounts := gin.H{}
	for _, status := range models.Statuses {
		count, err := issueCollection.CountDocuments(ctx, bson.M{"status": status})
		if err != nil {
			count = 0
		}
		statusCounts[string(status)] = count
	}

	// New issues over the last 7 days.
	var last7Days []gin.H
	for i := 6; i >= 0; i-- {
		date := time.Now().AddDate(0, 0, -i)
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
		nextDate := date.AddDate(0, 0, 1)

		count, err := issueCollection.CountDocuments(ctx, bson.M{
			"createdAt": bson.M{
				"$gte": date,
				"$lt":  nextDate,
			},
		})
		if err != nil {
			count = 0
		}

		last7Days = append(last7Days, gin.H{
			"date":  date.Format("2006-01-02"),
			"count": count,
		})
	}

	totalIssues, err := issueCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		totalIssues = 0
	}

	boostedIssues, err := issueCollection.CountDocuments(ctx, bson.M{"priority": models.PriorityHigh})
	if err != nil {
		boostedIssues = 0
	}

	openIssues, err := issueCollection.CountDocuments(ctx, bson.M{
		"status": bson.M{"$in": []models.IssueStatus{
			models.StatusPending, models.StatusInProgress, models.StatusWorking,
		}},
	})
	if err != nil {
		openIssues = 0
	}

	totalUsers, err := userCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		totalUsers = 0
	}

	// Sum of confirmed boost payments.
	paymentPipeline := []bson.M{
		{"$match": bson.M{"status": models.PaymentPaid}},
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
		"issuesByCategory": issuesByCategory,
		"statusCounts":     statusCounts,
		"last7Days":        last7Days,
		"totalIssues":      totalIssues,
		"boostedIssues":    boostedIssues,
		"openIssues":       openIssues,
		"totalUsers":       totalUsers,
		"totalPayments":    totalPayments,
	})
}
