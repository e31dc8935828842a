package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"petopia-api/apperror"
	"petopia-api/metrics"
	"petopia-api/models"
	"petopia-api/store"
	"petopia-api/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// compensateTimeout bounds the order rollback, which runs even when the request context is done
const compensateTimeout = 5 * time.Second

// PlaceOrderInput is the body of POST /place-order. AddressID selects a saved
// address; otherwise Address is copied into the order as given.
type PlaceOrderInput struct {
	AddressID     string            `json:"addressId"`
	Address       *models.Address   `json:"address"`
	Items         []models.CartItem `json:"cart"`
	PaymentMethod string            `json:"paymentMethod"`
}

// Confirmation is the read-only summary shown before the order is committed
type Confirmation struct {
	Address       models.Address    `json:"address"`
	Items         []models.CartItem `json:"items"`
	PaymentMethod string            `json:"paymentMethod"`
}

type orderEvent struct {
	OrderID     string             `json:"orderId"`
	UserID      string             `json:"userId"`
	Status      models.OrderStatus `json:"status"`
	TotalAmount float64            `json:"totalAmount"`
	At          time.Time          `json:"at"`
}

// OrderStore is the persistence needed by the order workflow
type OrderStore interface {
	store.Users
	store.Carts
	store.Orders
}

// OrderService commits carts into orders and moves orders through their states
type OrderService struct {
	clock
	store  OrderStore
	emails *utils.EmailService
	events utils.EventPublisher
	log    *logrus.Logger
}

func NewOrderService(st OrderStore, emails *utils.EmailService, events utils.EventPublisher, log *logrus.Logger) *OrderService {
	return &OrderService{store: st, emails: emails, events: events, log: log}
}

// OrderTotal sums price x quantity in decimal and rounds to cents
func OrderTotal(items []models.CartItem) float64 {
	total := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total.Round(2).InexactFloat64()
}

// PlaceOrder stores a Pending order snapshot of the items and then deletes
// the user's cart. If the cart cannot be deleted the order is removed again.
func (s *OrderService) PlaceOrder(ctx context.Context, userID primitive.ObjectID, in PlaceOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, apperror.BadRequest("Cart is empty")
	}
	items := make([]models.CartItem, len(in.Items))
	for i, item := range in.Items {
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" {
			return nil, apperror.BadRequest("Every cart item needs a name")
		}
		if item.Quantity < 1 {
			return nil, apperror.BadRequest(fmt.Sprintf("Invalid quantity for %s", item.Name))
		}
		if item.Price < 0 {
			return nil, apperror.BadRequest(fmt.Sprintf("Invalid price for %s", item.Name))
		}
		items[i] = item
	}

	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "User not found")
	}

	var address models.Address
	switch {
	case strings.TrimSpace(in.AddressID) != "":
		addr, err := findAddress(user, in.AddressID)
		if err != nil {
			return nil, err
		}
		address = *addr
	case in.Address != nil:
		address = *in.Address
	}

	now := s.Now()
	order := &models.Order{
		UserID:        userID,
		Address:       address,
		Items:         items,
		TotalAmount:   OrderTotal(items),
		PaymentMethod: models.NormalizePaymentMethod(in.PaymentMethod),
		Status:        models.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, apperror.Internal("Error placing order", err)
	}

	if err := s.store.DeleteCart(ctx, userID); err != nil {
		s.compensate(ctx, order, err)
		return nil, apperror.Internal("Error clearing cart", err)
	}

	logger := s.log.WithFields(logrus.Fields{"order_id": order.ID.Hex(), "user_id": userID.Hex()})
	logger.WithField("total", order.TotalAmount).Info("order placed")
	metrics.OrderTransitions.WithLabelValues(string(models.StatusPending)).Inc()
	s.publish(ctx, utils.SubjectOrderPlaced, order)
	if err := s.emails.SendOrderPlacedEmail(ctx, user, order); err != nil {
		logger.WithError(err).Warn("order confirmation email failed")
	}
	return order, nil
}

func (s *OrderService) compensate(ctx context.Context, order *models.Order, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
	defer cancel()

	logger := s.log.WithFields(logrus.Fields{"order_id": order.ID.Hex(), "user_id": order.UserID.Hex()})
	if err := s.store.DeleteOrder(ctx, order.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		logger.WithError(err).WithField("cause", cause.Error()).Error("order rollback failed, order kept with cart")
		return
	}
	logger.WithError(cause).Warn("cart delete failed, order rolled back")
}

// Checkout previews the address chosen for delivery. Nothing is written.
func (s *OrderService) Checkout(ctx context.Context, userID primitive.ObjectID, addressID string) (*models.Address, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "User not found")
	}
	return findAddress(user, addressID)
}

// Confirmation assembles the first address, the cart items and the payment
// method. Nothing is written; PlaceOrder is the only commit.
func (s *OrderService) Confirmation(ctx context.Context, userID primitive.ObjectID, paymentMethod string) (*Confirmation, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "User not found")
	}
	if len(user.Addresses) == 0 {
		return nil, apperror.BadRequest("No addresses available for the user")
	}

	cart, err := s.store.FindCart(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, apperror.Internal("Error loading cart", err)
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, apperror.BadRequest("Cart is empty")
	}

	return &Confirmation{
		Address:       user.Addresses[0],
		Items:         cart.Items,
		PaymentMethod: models.NormalizePaymentMethod(paymentMethod),
	}, nil
}

// ListOrders returns the user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	orders, err := s.store.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("Error loading orders", err)
	}
	if orders == nil {
		return []models.Order{}, nil
	}
	return orders, nil
}

// ConfirmOrder records the payment reference and moves a Pending order to Confirmed.
func (s *OrderService) ConfirmOrder(ctx context.Context, userID primitive.ObjectID, orderID, transactionID string) (*models.Order, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil, apperror.BadRequest("transactionId is required")
	}
	return s.transition(ctx, userID, orderID, models.StatusConfirmed, func(o *models.Order) {
		o.TransactionID = transactionID
	})
}

// CancelOrder moves a Pending order to Cancelled.
func (s *OrderService) CancelOrder(ctx context.Context, userID primitive.ObjectID, orderID string) (*models.Order, error) {
	return s.transition(ctx, userID, orderID, models.StatusCancelled, nil)
}

func (s *OrderService) transition(ctx context.Context, userID primitive.ObjectID, orderID string, next models.OrderStatus, apply func(*models.Order)) (*models.Order, error) {
	id, err := parseID(orderID, "Order not found")
	if err != nil {
		return nil, err
	}
	order, err := s.store.FindOrder(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "Order not found")
	}
	// other users' orders are indistinguishable from missing ones
	if order.UserID != userID {
		return nil, apperror.NotFound("Order not found")
	}

	if err := order.Transition(next, s.Now()); err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			return nil, apperror.Conflict(fmt.Sprintf("Order is %s and cannot become %s", order.Status, next))
		}
		return nil, apperror.Internal("Error updating order", err)
	}
	if apply != nil {
		apply(order)
	}
	if err := s.store.UpdateOrder(ctx, order); err != nil {
		return nil, lookupErr(err, "Order not found")
	}

	s.log.WithFields(logrus.Fields{"order_id": order.ID.Hex(), "status": next}).Info("order status changed")
	metrics.OrderTransitions.WithLabelValues(string(next)).Inc()
	subject := utils.SubjectOrderConfirmed
	if next == models.StatusCancelled {
		subject = utils.SubjectOrderCancelled
	}
	s.publish(ctx, subject, order)
	return order, nil
}

func (s *OrderService) publish(ctx context.Context, subject string, order *models.Order) {
	err := s.events.Publish(ctx, subject, orderEvent{
		OrderID:     order.ID.Hex(),
		UserID:      order.UserID.Hex(),
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		At:          order.UpdatedAt,
	})
	if err != nil {
		s.log.WithError(err).WithField("subject", subject).Warn("event publish failed")
	}
}
