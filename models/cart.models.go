package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem represents an item in the cart. Name is the item identity.
type CartItem struct {
	Name     string  `bson:"name" json:"name"`
	Image    string  `bson:"image" json:"image"`
	Price    float64 `bson:"price" json:"price"`
	Quantity int     `bson:"quantity" json:"quantity"`
}

// Cart represents a user's shopping cart. There is at most one per user.
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id" json:"userId"`
	Items     []CartItem         `bson:"items" json:"items"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

// IndexOf returns the position of the item named name, or -1
func (c *Cart) IndexOf(name string) int {
	for i, item := range c.Items {
		if item.Name == name {
			return i
		}
	}
	return -1
}

// Remove drops every item named name and reports how many were removed
func (c *Cart) Remove(name string) int {
	kept := make([]CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		if item.Name != name {
			kept = append(kept, item)
		}
	}
	removed := len(c.Items) - len(kept)
	c.Items = kept
	return removed
}
