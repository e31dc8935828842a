package services

import (
	"context"
	"errors"
	"strings"

	"petopia-api/apperror"
	"petopia-api/metrics"
	"petopia-api/models"
	"petopia-api/store"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddItemInput is the body of POST /cart/add. Price accepts a JSON number or a numeric string.
type AddItemInput struct {
	Name  string          `json:"name" validate:"required"`
	Image string          `json:"image"`
	Price decimal.Decimal `json:"price"`
}

// CartStore is the persistence needed by the cart
type CartStore interface {
	store.Users
	store.Carts
}

// CartService keeps the single cart of every user
type CartService struct {
	clock
	store CartStore
	log   *logrus.Logger
}

func NewCartService(st CartStore, log *logrus.Logger) *CartService {
	return &CartService{store: st, log: log}
}

// AddItem adds one unit of the named item, creating the cart on first use.
// A repeated name only bumps the quantity; the price and image stored on the
// first add are kept.
func (s *CartService) AddItem(ctx context.Context, userID primitive.ObjectID, in AddItemInput) (*models.Cart, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Price.IsNegative() {
		return nil, apperror.BadRequest("price must not be negative")
	}

	cart, err := s.store.FindCart(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		// a token can outlive its account; only existing users get a cart
		if _, err := s.store.FindUserByID(ctx, userID); err != nil {
			return nil, lookupErr(err, "User not found")
		}
		cart = &models.Cart{UserID: userID, Items: []models.CartItem{}}
	} else if err != nil {
		return nil, apperror.Internal("Error loading cart", err)
	}

	if i := cart.IndexOf(in.Name); i >= 0 {
		cart.Items[i].Quantity++
	} else {
		cart.Items = append(cart.Items, models.CartItem{
			Name:     in.Name,
			Image:    in.Image,
			Price:    in.Price.InexactFloat64(),
			Quantity: 1,
		})
	}
	cart.UpdatedAt = s.Now()

	if err := s.store.SaveCart(ctx, cart); err != nil {
		return nil, apperror.Internal("Error saving cart", err)
	}
	metrics.CartItemsAdded.Inc()
	return cart, nil
}

// GetCart returns the cart items; a user without a cart has an empty one.
func (s *CartService) GetCart(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error) {
	cart, err := s.store.FindCart(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, apperror.Internal("Error loading cart", err)
	}
	if cart.Items == nil {
		return []models.CartItem{}, nil
	}
	return cart.Items, nil
}

// RemoveItem drops every item with the given name. Removing a name that is
// not in the cart succeeds without writing.
func (s *CartService) RemoveItem(ctx context.Context, userID primitive.ObjectID, name string) (*models.Cart, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.BadRequest("name is required")
	}

	cart, err := s.store.FindCart(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "Cart not found")
	}

	if cart.Remove(name) == 0 {
		return cart, nil
	}
	cart.UpdatedAt = s.Now()
	if err := s.store.SaveCart(ctx, cart); err != nil {
		return nil, apperror.Internal("Error saving cart", err)
	}
	return cart, nil
}
