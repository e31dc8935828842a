// Package store is the persistence layer: one collection per record kind,
// users embedding their addresses.
package store

import (
	"context"
	"errors"

	"petopia-api/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when a lookup matches no document.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("store: duplicate key")
)

// Users persists user documents together with their address book.
type Users interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
	CountUsers(ctx context.Context) (int64, error)
}

// Carts persists the single cart each user may own.
type Carts interface {
	FindCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	// SaveCart creates or replaces the cart owned by cart.UserID.
	SaveCart(ctx context.Context, cart *models.Cart) error
	// DeleteCart removes the user's cart; a missing cart is not an error.
	DeleteCart(ctx context.Context, userID primitive.ObjectID) error
}

// Orders persists order snapshots.
type Orders interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
	DeleteOrder(ctx context.Context, id primitive.ObjectID) error
	CountOrders(ctx context.Context) (int64, error)
	CountOrdersByUser(ctx context.Context) (map[primitive.ObjectID]int64, error)
}

// Feedbacks persists feedback submissions.
type Feedbacks interface {
	CreateFeedback(ctx context.Context, feedback *models.Feedback) error
}

// Store is the full persistence interface used by the services.
type Store interface {
	Users
	Carts
	Orders
	Feedbacks
	Close(ctx context.Context) error
}

var (
	_ Store = (*MongoStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
