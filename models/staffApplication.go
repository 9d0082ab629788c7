package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ApplicationStatus enum
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// StaffApplication is a citizen's request to become a staff member.
type StaffApplication struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ApplicantID    primitive.ObjectID `bson:"applicantId" json:"applicantId"`
	ApplicantName  string             `bson:"applicantName" json:"applicantName"`
	ApplicantEmail string             `bson:"applicantEmail" json:"applicantEmail"`
	Region         string             `bson:"region" json:"region"`
	District       string             `bson:"district" json:"district"`
	Motivation     string             `bson:"motivation,omitempty" json:"motivation,omitempty"`
	Status         ApplicationStatus  `bson:"status" json:"status"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
