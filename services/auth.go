package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"petopia-api/apperror"
	"petopia-api/models"
	"petopia-api/store"
	"petopia-api/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RegisterInput is the body of POST /register
type RegisterInput struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// maxPasswordBytes is the longest input bcrypt hashes
const maxPasswordBytes = 72

// LoginInput is the body of POST /login
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthOptions configures account creation
type AuthOptions struct {
	DefaultAvatar string
	IsAdminEmail  func(email string) bool
}

// AuthService registers users and issues session tokens
type AuthService struct {
	clock
	users   store.Users
	tokens  *utils.TokenManager
	revoker utils.TokenRevoker
	opts    AuthOptions
	log     *logrus.Logger
}

func NewAuthService(users store.Users, tokens *utils.TokenManager, revoker utils.TokenRevoker, opts AuthOptions, log *logrus.Logger) *AuthService {
	if opts.IsAdminEmail == nil {
		opts.IsAdminEmail = func(string) bool { return false }
	}
	return &AuthService{users: users, tokens: tokens, revoker: revoker, opts: opts, log: log}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user with a bcrypt hashed password. No token is issued.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, apperror.BadRequest("password must be at most 72 bytes")
	}

	_, err := s.users.FindUserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, apperror.Conflict("User already exists")
	case !errors.Is(err, store.ErrNotFound):
		return nil, apperror.Internal("Database error", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal("Error hashing password", err)
	}

	role := models.RoleUser
	if s.opts.IsAdminEmail(in.Email) {
		role = models.RoleAdmin
	}
	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  string(hashedPassword),
		Avatar:    s.opts.DefaultAvatar,
		Role:      role,
		Addresses: []models.Address{},
		CreatedAt: s.Now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperror.Conflict("User already exists")
		}
		return nil, apperror.Internal("Error creating user", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID.Hex(), "role": role}).Info("user registered")
	return user, nil
}

// Login checks the credentials and returns a signed token for the user.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (string, *models.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return "", nil, err
	}

	user, err := s.users.FindUserByEmail(ctx, in.Email)
	if err != nil {
		return "", nil, lookupErr(err, "User not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return "", nil, apperror.BadCredentials("Invalid credentials")
	}

	token, _, err := s.tokens.GenerateJWT(user)
	if err != nil {
		return "", nil, apperror.Internal("Error generating token", err)
	}
	return token, user, nil
}

// Logout revokes the presented token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *utils.Claims) error {
	ttl := claims.ExpiresIn(time.Now())
	if err := s.revoker.Revoke(ctx, claims.Id, ttl); err != nil {
		return apperror.Internal("Error revoking token", err)
	}
	return nil
}

// Profile returns the user record; the password hash never leaves the service as JSON.
func (s *AuthService) Profile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "User not found")
	}
	return user, nil
}

// UpdateAvatar replaces the avatar URL of the user.
func (s *AuthService) UpdateAvatar(ctx context.Context, userID primitive.ObjectID, avatar string) (*models.User, error) {
	avatar = strings.TrimSpace(avatar)
	if avatar == "" {
		return nil, apperror.BadRequest("Avatar URL is required")
	}

	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "User not found")
	}
	user.Avatar = avatar
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, lookupErr(err, "User not found")
	}
	return user, nil
}
