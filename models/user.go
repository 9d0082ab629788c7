package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// Role enum. premiumUser is a citizen with an elevated issue quota, not a
// distinct role for transition purposes.
type Role string

const (
	RoleCitizen Role = "citizen"
	RolePremium Role = "premiumUser"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"

	// RoleSystem marks timeline entries produced by the platform itself,
	// e.g. a payment-confirmed priority boost. It is never carried by a user.
	RoleSystem Role = "system"
)

// ParseRole validates a role string at the API boundary.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleCitizen, RolePremium, RoleStaff, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// Normalized collapses premiumUser to citizen for permission checks.
func (r Role) Normalized() Role {
	if r == RolePremium {
		return RoleCitizen
	}
	return r
}

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	PhotoURL  string             `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	Password  string             `bson:"password,omitempty" json:"-"`
	Role      Role               `bson:"role" json:"role"`
	Blocked   bool               `bson:"blocked" json:"blocked"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) ComparePassword(candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate))
	return err == nil
}
