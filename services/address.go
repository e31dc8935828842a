package services

import (
	"context"
	"strings"

	"petopia-api/apperror"
	"petopia-api/models"
	"petopia-api/store"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddressInput carries the address fields of POST and PUT /addresses
type AddressInput struct {
	Label   string `json:"label"`
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Zip     string `json:"zip" validate:"required"`
	Country string `json:"country" validate:"required"`
}

func (in *AddressInput) trim() {
	in.Label = strings.TrimSpace(in.Label)
	in.Street = strings.TrimSpace(in.Street)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.Zip = strings.TrimSpace(in.Zip)
	in.Country = strings.TrimSpace(in.Country)
}

// AddressService manages the address book embedded in each user document
type AddressService struct {
	users store.Users
	log   *logrus.Logger
}

func NewAddressService(users store.Users, log *logrus.Logger) *AddressService {
	return &AddressService{users: users, log: log}
}

func (s *AddressService) loadUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "User not found")
	}
	return user, nil
}

func addressList(user *models.User) []models.Address {
	if user.Addresses == nil {
		return []models.Address{}
	}
	return user.Addresses
}

// List returns the user's addresses in insertion order.
func (s *AddressService) List(ctx context.Context, userID primitive.ObjectID) ([]models.Address, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return addressList(user), nil
}

// Add appends a new address with a fresh id and returns the updated list.
func (s *AddressService) Add(ctx context.Context, userID primitive.ObjectID, in AddressInput) ([]models.Address, error) {
	in.trim()
	if err := validateInput(in); err != nil {
		return nil, apperror.BadRequest("All address fields are required")
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Addresses = append(user.Addresses, models.Address{
		ID:      primitive.NewObjectID(),
		Label:   in.Label,
		Street:  in.Street,
		City:    in.City,
		State:   in.State,
		Zip:     in.Zip,
		Country: in.Country,
	})
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, lookupErr(err, "User not found")
	}
	return user.Addresses, nil
}

// Update applies the non-empty fields of in to one address.
func (s *AddressService) Update(ctx context.Context, userID primitive.ObjectID, addressID string, in AddressInput) ([]models.Address, error) {
	in.trim()
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	id, err := parseID(addressID, "Address not found")
	if err != nil {
		return nil, err
	}
	i := user.FindAddress(id)
	if i < 0 {
		return nil, apperror.NotFound("Address not found")
	}

	addr := &user.Addresses[i]
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&addr.Label, in.Label},
		{&addr.Street, in.Street},
		{&addr.City, in.City},
		{&addr.State, in.State},
		{&addr.Zip, in.Zip},
		{&addr.Country, in.Country},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, lookupErr(err, "User not found")
	}
	return user.Addresses, nil
}

// Delete removes the address if present. Unknown or malformed ids are not an error.
func (s *AddressService) Delete(ctx context.Context, userID primitive.ObjectID, addressID string) ([]models.Address, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(addressID))
	if err != nil {
		return addressList(user), nil
	}
	i := user.FindAddress(id)
	if i < 0 {
		return addressList(user), nil
	}

	user.Addresses = append(user.Addresses[:i], user.Addresses[i+1:]...)
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, lookupErr(err, "User not found")
	}
	return addressList(user), nil
}

// Find returns a copy of one address of the user.
func (s *AddressService) Find(ctx context.Context, userID primitive.ObjectID, addressID string) (*models.Address, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return findAddress(user, addressID)
}

func findAddress(user *models.User, addressID string) (*models.Address, error) {
	id, err := parseID(addressID, "Address not found")
	if err != nil {
		return nil, err
	}
	i := user.FindAddress(id)
	if i < 0 {
		return nil, apperror.NotFound("Address not found")
	}
	addr := user.Addresses[i]
	return &addr, nil
}
