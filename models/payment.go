package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PaymentStatus enum
type PaymentStatus string

const (
	PaymentCreated PaymentStatus = "created"
	PaymentPaid    PaymentStatus = "paid"
)

// Payment records one boost checkout session. SessionID doubles as the
// idempotency key for the payment-success confirmation.
type Payment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	IssueID    primitive.ObjectID `bson:"issue" json:"issue"`
	IssueTitle string             `bson:"issueTitle" json:"issueTitle"`
	SessionID  string             `bson:"sessionId" json:"sessionId"`
	PayerEmail string             `bson:"payerEmail" json:"payerEmail"`
	Amount     int64              `bson:"amount" json:"amount"`
	Status     PaymentStatus      `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	PaidAt     *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
}

// EnsurePaymentIndex creates a unique index on sessionId so a replayed
// confirmation can never record a second payment.
func EnsurePaymentIndex(collection *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "sessionId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	_, err := collection.Indexes().CreateOne(ctx, indexModel)
	return err
}
