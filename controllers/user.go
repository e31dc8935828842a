package controllers

import (
	"net/http"
	"time"

	"petopia-api/apperror"
	"petopia-api/middleware"
	"petopia-api/services"

	"github.com/sirupsen/logrus"
)

// UserController handles user-related requests
type UserController struct {
	base
	auth *services.AuthService
}

// NewUserController creates a new UserController
func NewUserController(auth *services.AuthService, log *logrus.Logger, timeout time.Duration) *UserController {
	return &UserController{base: newBase(log, timeout), auth: auth}
}

// Register handles user registration
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decode(w, r, &in); err != nil {
		uc.fail(w, r, err)
		return
	}

	ctx, cancel := uc.requestContext(r)
	defer cancel()
	if _, err := uc.auth.Register(ctx, in); err != nil {
		uc.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

// Login handles user authentication
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if err := decode(w, r, &in); err != nil {
		uc.fail(w, r, err)
		return
	}

	ctx, cancel := uc.requestContext(r)
	defer cancel()
	token, _, err := uc.auth.Login(ctx, in)
	if err != nil {
		uc.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Login successful", "token": token})
}

// Logout revokes the token used for this request
func (uc *UserController) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		uc.fail(w, r, apperror.Unauthorized("Unauthorized"))
		return
	}

	ctx, cancel := uc.requestContext(r)
	defer cancel()
	if err := uc.auth.Logout(ctx, claims); err != nil {
		uc.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// GetProfile retrieves the authenticated user's profile
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		uc.fail(w, r, err)
		return
	}

	ctx, cancel := uc.requestContext(r)
	defer cancel()
	user, err := uc.auth.Profile(ctx, userID)
	if err != nil {
		uc.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": user})
}

// UpdateAvatar replaces the avatar URL of the authenticated user
func (uc *UserController) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		uc.fail(w, r, err)
		return
	}
	var body struct {
		Avatar string `json:"avatar"`
	}
	if err := decode(w, r, &body); err != nil {
		uc.fail(w, r, err)
		return
	}

	ctx, cancel := uc.requestContext(r)
	defer cancel()
	user, err := uc.auth.UpdateAvatar(ctx, userID, body.Avatar)
	if err != nil {
		uc.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Avatar updated successfully", "avatar": user.Avatar})
}
