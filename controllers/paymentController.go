package controllers

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"civiccare-be/config"
	"civiccare-be/lifecycle"
	"civiccare-be/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var paymentCollection *mongo.Collection = config.GetCollection("payments")

const defaultBoostAmount = 100

func boostAmount() int64 {
	if v := os.Getenv("BOOST_AMOUNT"); v != "" {
		if amount, err := strconv.ParseInt(v, 10, 64); err == nil && amount > 0 {
			return amount
		}
	}
	return defaultBoostAmount
}

// CreateCheckoutSession opens a boost checkout for an issue. The session id
// is the idempotency key the later confirmation is matched against. The
// actual charge happens at the external payment collaborator; this endpoint
// only records the session and hands back the redirect URL.
func CreateCheckoutSession(c *gin.Context) {
	user := mustCurrentUser(c)
	if user == nil {
		return
	}

	var input struct {
		IssueID string `json:"issueId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issueID, err := primitive.ObjectIDFromHex(input.IssueID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var issue models.Issue
	err = issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	// Fail the checkout up front if the boost could never apply.
	if _, err := lifecycle.ApplyBoost(issue, lifecycle.PaymentConfirmation{PayerEmail: user.Email}); err != nil {
		respondLifecycleError(c, err)
		return
	}

	payment := models.Payment{
		IssueID:    issue.ID,
		IssueTitle: issue.Title,
		SessionID:  uuid.NewString(),
		PayerEmail: user.Email,
		Amount:     boostAmount(),
		Status:     models.PaymentCreated,
		CreatedAt:  time.Now(),
	}

	if _, err := paymentCollection.InsertOne(ctx, payment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session"})
		return
	}

	clientURL := os.Getenv("CLIENT_URL")
	c.JSON(http.StatusOK, gin.H{
		"sessionId": payment.SessionID,
		"url":       clientURL + "/issues/" + issue.ID.Hex() + "?session_id=" + payment.SessionID,
	})
}

// PaymentSuccess confirms a checkout session and applies the priority boost.
// Replayed confirmations are idempotent: a session already marked paid
// reports success without touching the issue again.
func PaymentSuccess(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var payment models.Payment
	err := paymentCollection.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&payment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown checkout session"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve payment"})
		}
		return
	}

	if payment.Status == models.PaymentPaid {
		c.JSON(http.StatusOK, gin.H{"success": true, "alreadyProcessed": true})
		return
	}

	var issue models.Issue
	err = issueCollection.FindOne(ctx, bson.M{"_id": payment.IssueID}).Decode(&issue)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		return
	}

	// If the issue already carries high priority while this session is still
	// open, the boost write landed on an earlier attempt but the payment
	// record did not. Settle the session instead of failing the replay.
	if lifecycle.SettleWithoutBoost(issue) {
		if !settlePayment(c, ctx, sessionID) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "alreadyProcessed": true})
		return
	}

	updated, err := lifecycle.ApplyBoost(issue, lifecycle.PaymentConfirmation{
		SessionID:  payment.SessionID,
		PayerEmail: payment.PayerEmail,
	})
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	entry := updated.Timeline[len(updated.Timeline)-1]

	// The priority pin makes a concurrent boost of the same issue lose.
	result, err := issueCollection.UpdateOne(ctx,
		bson.M{"_id": issue.ID, "priority": models.PriorityNormal},
		bson.M{
			"$set":  bson.M{"priority": models.PriorityHigh, "updatedAt": updated.UpdatedAt},
			"$push": bson.M{"timeline": entry},
		})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to boost issue"})
		return
	}
	if result.ModifiedCount == 0 {
		// A concurrent confirmation boosted the issue first. The charge behind
		// this session still happened, so the session settles as paid too.
		if !settlePayment(c, ctx, sessionID) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "alreadyProcessed": true})
		return
	}

	if !settlePayment(c, ctx, sessionID) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "issue": updated})
}

// settlePayment moves a checkout session from created to paid. It writes the
// error response itself on failure and reports whether the caller may respond
// with success.
func settlePayment(c *gin.Context, ctx context.Context, sessionID string) bool {
	_, err := paymentCollection.UpdateOne(ctx,
		bson.M{"sessionId": sessionID, "status": models.PaymentCreated},
		bson.M{"$set": bson.M{"status": models.PaymentPaid, "paidAt": time.Now()}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record payment"})
		return false
	}
	return true
}

// GetMyPayments lists the authenticated user's confirmed boost payments for
// the invoice view.
func GetMyPayments(c *gin.Context) {
	user := mustCurrentUser(c)
	if user == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := paymentCollection.Find(ctx, bson.M{
		"payerEmail": user.Email,
		"status":     models.PaymentPaid,
	})
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

	c.JSON(http.StatusOK, payments)
}
