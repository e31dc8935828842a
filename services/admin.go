package services

import (
	"context"
	"sort"

	"petopia-api/apperror"
	"petopia-api/models"
	"petopia-api/store"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserSummary is a user as listed to admins, without the password hash
type UserSummary struct {
	ID       primitive.ObjectID `json:"_id"`
	Username string             `json:"username"`
	Email    string             `json:"email"`
	Avatar   string             `json:"avatar"`
	Role     string             `json:"role"`
}

// Stats holds the dashboard counters
type Stats struct {
	TotalUsers  int64 `json:"totalUsers"`
	TotalOrders int64 `json:"totalOrders"`
}

// AdminStore is the persistence needed by the admin views
type AdminStore interface {
	store.Users
	store.Carts
	store.Orders
}

// AdminService backs the role-gated admin endpoints
type AdminService struct {
	store AdminStore
	log   *logrus.Logger
}

func NewAdminService(st AdminStore, log *logrus.Logger) *AdminService {
	return &AdminService{store: st, log: log}
}

// ListUsers returns every user without credentials.
func (s *AdminService) ListUsers(ctx context.Context) ([]UserSummary, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, apperror.Internal("Error fetching users", err)
	}
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, UserSummary{ID: u.ID, Username: u.Username, Email: u.Email, Avatar: u.Avatar, Role: u.Role})
	}
	return out, nil
}

// DeleteUser hard-deletes the user and the cart they own. Orders are kept.
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	userID, err := parseID(id, "User not found")
	if err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return lookupErr(err, "User not found")
	}
	if err := s.store.DeleteCart(ctx, userID); err != nil {
		s.log.WithError(err).WithField("user_id", userID.Hex()).Warn("user deleted but cart delete failed")
	}
	s.log.WithField("user_id", userID.Hex()).Info("user deleted")
	return nil
}

// Stats counts users and orders.
func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	users, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, apperror.Internal("Error fetching stats", err)
	}
	orders, err := s.store.CountOrders(ctx)
	if err != nil {
		return nil, apperror.Internal("Error fetching stats", err)
	}
	return &Stats{TotalUsers: users, TotalOrders: orders}, nil
}

// UserOrderCounts lists every user with the number of orders they placed,
// most active first. Users without orders are reported with zero.
func (s *AdminService) UserOrderCounts(ctx context.Context) ([]models.UserOrderCount, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, apperror.Internal("Error fetching users", err)
	}
	counts, err := s.store.CountOrdersByUser(ctx)
	if err != nil {
		return nil, apperror.Internal("Error fetching orders", err)
	}

	out := make([]models.UserOrderCount, 0, len(users))
	for _, u := range users {
		out = append(out, models.UserOrderCount{
			UserID:     u.ID,
			Username:   u.Username,
			Email:      u.Email,
			OrderCount: counts[u.ID],
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderCount > out[j].OrderCount })
	return out, nil
}
