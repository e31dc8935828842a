package models

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusConfirmed OrderStatus = "Confirmed"
	StatusCancelled OrderStatus = "Cancelled"
)

// ErrInvalidTransition is returned when an order cannot move to the requested status
var ErrInvalidTransition = errors.New("invalid order status transition")

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending: {StatusConfirmed, StatusCancelled},
}

// CanTransition reports whether an order in status s may move to next
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order is a snapshot of a cart taken when the order was placed
type Order struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID        primitive.ObjectID `bson:"user_id" json:"userId"`
	Address       Address            `bson:"address" json:"address"`
	Items         []CartItem         `bson:"items" json:"items"`
	TotalAmount   float64            `bson:"total_amount" json:"totalAmount"`
	PaymentMethod string             `bson:"payment_method" json:"paymentMethod"`
	TransactionID string             `bson:"transaction_id,omitempty" json:"transactionId,omitempty"`
	Status        OrderStatus        `bson:"status" json:"status"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
	ConfirmedAt   *time.Time         `bson:"confirmed_at,omitempty" json:"confirmedAt,omitempty"`
}

// Transition moves the order to next, stamping the update time
func (o *Order) Transition(next OrderStatus, now time.Time) error {
	if !o.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}
	o.Status = next
	o.UpdatedAt = now
	if next == StatusConfirmed {
		o.ConfirmedAt = &now
	}
	return nil
}
