package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueCategory enum
type IssueCategory string

const (
	BrokenStreetlights IssueCategory = "Broken streetlights"
	Potholes           IssueCategory = "Potholes"
	WaterLeakage       IssueCategory = "Water leakage"
	GarbageOverflow    IssueCategory = "Garbage overflow"
	DamagedFootpaths   IssueCategory = "Damaged footpaths"
)

// Categories lists every valid issue category.
var Categories = []IssueCategory{
	BrokenStreetlights,
	Potholes,
	WaterLeakage,
	GarbageOverflow,
	DamagedFootpaths,
}

// ParseCategory validates a category string at the API boundary.
func ParseCategory(s string) (IssueCategory, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("invalid category %q", s)
}

// IssueStatus enum
type IssueStatus string

const (
	StatusPending    IssueStatus = "pending"
	StatusInProgress IssueStatus = "in-progress"
	StatusWorking    IssueStatus = "working"
	StatusResolved   IssueStatus = "resolved"
	StatusClosed     IssueStatus = "closed"
	StatusRejected   IssueStatus = "rejected"
)

// Statuses lists every valid issue status.
var Statuses = []IssueStatus{
	StatusPending,
	StatusInProgress,
	StatusWorking,
	StatusResolved,
	StatusClosed,
	StatusRejected,
}

// ParseIssueStatus validates a status string at the API boundary.
func ParseIssueStatus(s string) (IssueStatus, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid status %q", s)
}

// IssuePriority enum. Priority only ever moves normal -> high.
type IssuePriority string

const (
	PriorityNormal IssuePriority = "normal"
	PriorityHigh   IssuePriority = "high"
)

// ParseIssuePriority validates a priority string at the API boundary.
func ParseIssuePriority(s string) (IssuePriority, error) {
	switch IssuePriority(s) {
	case PriorityNormal, PriorityHigh:
		return IssuePriority(s), nil
	}
	return "", fmt.Errorf("invalid priority %q", s)
}

// ActorRef records who performed a timeline change.
type ActorRef struct {
	Role  Role   `bson:"role" json:"role"`
	Email string `bson:"email" json:"email"`
}

// Actor is the entity requesting a lifecycle operation.
type Actor struct {
	Role  Role
	Email string
}

// Ref returns the actor as a timeline reference.
func (a Actor) Ref() ActorRef {
	return ActorRef{Role: a.Role, Email: a.Email}
}

// TimelineEntry is one immutable record of a status change.
type TimelineEntry struct {
	Status    IssueStatus `bson:"status" json:"status"`
	Message   string      `bson:"message" json:"message"`
	UpdatedBy ActorRef    `bson:"updatedBy" json:"updatedBy"`
	CreatedAt time.Time   `bson:"createdAt" json:"createdAt"`
}

// Issue represents a civic issue reported by a citizen
type Issue struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title          string              `bson:"title" json:"title"`
	Category       IssueCategory       `bson:"category" json:"category"`
	Description    string              `bson:"issueDescription" json:"issueDescription"`
	PhotoURL       string              `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	SenderName     string              `bson:"senderName" json:"senderName"`
	SenderEmail    string              `bson:"senderEmail" json:"senderEmail"`
	SenderRegion   string              `bson:"senderRegion,omitempty" json:"senderRegion,omitempty"`
	SenderDistrict string              `bson:"senderDistrict,omitempty" json:"senderDistrict,omitempty"`
	SenderAddress  string              `bson:"senderAddress,omitempty" json:"senderAddress,omitempty"`
	Status         IssueStatus         `bson:"status" json:"status"`
	Priority       IssuePriority       `bson:"priority" json:"priority"`
	StaffID        *primitive.ObjectID `bson:"staffId,omitempty" json:"staffId,omitempty"`
	StaffName      string              `bson:"staffName,omitempty" json:"staffName,omitempty"`
	StaffEmail     string              `bson:"staffEmail,omitempty" json:"staffEmail,omitempty"`
	StatusMessage  string              `bson:"statusMessage,omitempty" json:"statusMessage,omitempty"`
	Timeline       []TimelineEntry     `bson:"timeline" json:"timeline"`
	UpvoteCount    int64               `bson:"upvoteCount" json:"upvoteCount"`
	Upvoters       []string            `bson:"upvoters,omitempty" json:"-"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// StaffRef identifies the staff member assigned to an issue.
type StaffRef struct {
	ID    primitive.ObjectID
	Name  string
	Email string
}

// HasAssignee reports whether a staff member is assigned.
func (i *Issue) HasAssignee() bool {
	return i.StaffEmail != ""
}

// HasUpvoted reports whether the given email already upvoted this issue.
func (i *Issue) HasUpvoted(email string) bool {
	for _, e := range i.Upvoters {
		if e == email {
			return true
		}
	}
	return false
}

// LastTimelineStatus returns the status of the most recent timeline entry.
// An issue's status field must always equal this value.
func (i *Issue) LastTimelineStatus() IssueStatus {
	if len(i.Timeline) == 0 {
		return ""
	}
	return i.Timeline[len(i.Timeline)-1].Status
}
