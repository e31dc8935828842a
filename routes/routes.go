// routes/routes.go
package routes

import (
	"net/http"

	"petopia-api/controllers"
	"petopia-api/metrics"
	"petopia-api/middleware"

	"github.com/gorilla/mux"
)

// Controllers groups the handlers mounted by RegisterRoutes
type Controllers struct {
	Users     *controllers.UserController
	Carts     *controllers.CartController
	Addresses *controllers.AddressController
	Orders    *controllers.OrderController
	Admin     *controllers.AdminController
	Feedback  *controllers.FeedbackController
}

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, c Controllers, auth *middleware.Authenticator) {
	router.Use(metrics.Middleware)

	// Public routes
	router.HandleFunc("/register", c.Users.Register).Methods(http.MethodPost)
	router.HandleFunc("/login", c.Users.Login).Methods(http.MethodPost)
	router.HandleFunc("/submit-feedback", c.Feedback.SubmitFeedback).Methods(http.MethodPost)
	router.HandleFunc("/healthz", controllers.Healthz).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	// Admin routes
	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(auth.Handler)
	admin.Use(middleware.AdminMiddleware)
	admin.HandleFunc("/users", c.Admin.GetUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}", c.Admin.DeleteUser).Methods(http.MethodDelete)
	admin.HandleFunc("/stats", c.Admin.GetStats).Methods(http.MethodGet)
	admin.HandleFunc("/user-orders", c.Admin.GetUserOrders).Methods(http.MethodGet)
	admin.HandleFunc("/user-orders/export", c.Admin.ExportUserOrders).Methods(http.MethodGet)

	// Protected routes
	protected := router.NewRoute().Subrouter()
	protected.Use(auth.Handler)
	protected.HandleFunc("/logout", c.Users.Logout).Methods(http.MethodPost)
	protected.HandleFunc("/profile", c.Users.GetProfile).Methods(http.MethodGet)
	protected.HandleFunc("/update-avatar", c.Users.UpdateAvatar).Methods(http.MethodPost)

	// Cart routes
	protected.HandleFunc("/cart", c.Carts.GetCart).Methods(http.MethodGet)
	protected.HandleFunc("/cart/add", c.Carts.AddToCart).Methods(http.MethodPost)
	protected.HandleFunc("/cart/remove", c.Carts.RemoveFromCart).Methods(http.MethodPost)

	// Address routes
	protected.HandleFunc("/addresses", c.Addresses.GetAddresses).Methods(http.MethodGet)
	protected.HandleFunc("/addresses", c.Addresses.AddAddress).Methods(http.MethodPost)
	protected.HandleFunc("/addresses/{id}", c.Addresses.UpdateAddress).Methods(http.MethodPut)
	protected.HandleFunc("/addresses/{id}", c.Addresses.DeleteAddress).Methods(http.MethodDelete)

	// Order routes
	protected.HandleFunc("/place-order", c.Orders.PlaceOrder).Methods(http.MethodPost)
	protected.HandleFunc("/checkout", c.Orders.Checkout).Methods(http.MethodPost)
	protected.HandleFunc("/confirmation", c.Orders.Confirmation).Methods(http.MethodGet)
	protected.HandleFunc("/orders", c.Orders.GetOrders).Methods(http.MethodGet)
	protected.HandleFunc("/orders/{id}/confirm", c.Orders.ConfirmOrder).Methods(http.MethodPost)
	protected.HandleFunc("/orders/{id}/cancel", c.Orders.CancelOrder).Methods(http.MethodPost)
}
