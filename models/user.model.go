package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Address represents a delivery address embedded in a user document
type Address struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Label   string             `bson:"label" json:"label"`
	Street  string             `bson:"street" json:"street"`
	City    string             `bson:"city" json:"city"`
	State   string             `bson:"state" json:"state"`
	Zip     string             `bson:"zip" json:"zip"`
	Country string             `bson:"country" json:"country"`
}

// User represents a user in the system
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Username  string             `bson:"username" json:"username"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	Avatar    string             `bson:"avatar" json:"avatar"`
	Role      string             `bson:"role" json:"role"`
	Addresses []Address          `bson:"addresses" json:"addresses"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// IsAdmin reports whether the user may use the admin endpoints
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// FindAddress returns the index of the address with the given id, or -1
func (u *User) FindAddress(id primitive.ObjectID) int {
	for i, addr := range u.Addresses {
		if addr.ID == id {
			return i
		}
	}
	return -1
}

// UserOrderCount is one row of the admin orders-per-user report
type UserOrderCount struct {
	UserID     primitive.ObjectID `json:"userId"`
	Username   string             `json:"username"`
	Email      string             `json:"email"`
	OrderCount int64              `json:"orderCount"`
}
