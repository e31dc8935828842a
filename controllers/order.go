// controllers/order.go
package controllers

import (
	"net/http"
	"time"

	"petopia-api/services"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// OrderController handles order-related requests
type OrderController struct {
	base
	orders *services.OrderService
}

// NewOrderController creates a new OrderController
func NewOrderController(orders *services.OrderService, log *logrus.Logger, timeout time.Duration) *OrderController {
	return &OrderController{base: newBase(log, timeout), orders: orders}
}

// PlaceOrder commits the posted cart as a Pending order and clears the user's cart
func (oc *OrderController) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		oc.fail(w, r, err)
		return
	}
	var in services.PlaceOrderInput
	if err := decode(w, r, &in); err != nil {
		oc.fail(w, r, err)
		return
	}

	ctx, cancel := oc.requestContext(r)
	defer cancel()
	order, err := oc.orders.PlaceOrder(ctx, userID, in)
	if err != nil {
		oc.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "order": order})
}

// Checkout returns the address selected for delivery
func (oc *OrderController) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		oc.fail(w, r, err)
		return
	}
	var body struct {
		AddressID string `json:"addressId"`
	}
	if err := decode(w, r, &body); err != nil {
		oc.fail(w, r, err)
		return
	}

	ctx, cancel := oc.requestContext(r)
	defer cancel()
	address, err := oc.orders.Checkout(ctx, userID, body.AddressID)
	if err != nil {
		oc.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Checkout successful", "address": address})
}

// Confirmation previews the order; ?paymentMethod= overrides the default method
func (oc *OrderController) Confirmation(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		oc.fail(w, r, err)
		return
	}

	ctx, cancel := oc.requestContext(r)
	defer cancel()
	conf, err := oc.orders.Confirmation(ctx, userID, r.URL.Query().Get("paymentMethod"))
	if err != nil {
		oc.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, conf)
}

// GetOrders lists the orders of the authenticated user
func (oc *OrderController) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		oc.fail(w, r, err)
		return
	}

	ctx, cancel := oc.requestContext(r)
	defer cancel()
	orders, err := oc.orders.ListOrders(ctx, userID)
	if err != nil {
		oc.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// ConfirmOrder marks a Pending order as paid
func (oc *OrderController) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		oc.fail(w, r, err)
		return
	}
	var body struct {
		TransactionID string `json:"transactionId"`
	}
	if err := decode(w, r, &body); err != nil {
		oc.fail(w, r, err)
		return
	}

	ctx, cancel := oc.requestContext(r)
	defer cancel()
	order, err := oc.orders.ConfirmOrder(ctx, userID, mux.Vars(r)["id"], body.TransactionID)
	if err != nil {
		oc.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Order confirmed", "order": order})
}

// CancelOrder cancels a Pending order
func (oc *OrderController) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		oc.fail(w, r, err)
		return
	}

	ctx, cancel := oc.requestContext(r)
	defer cancel()
	order, err := oc.orders.CancelOrder(ctx, userID, mux.Vars(r)["id"])
	if err != nil {
		oc.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Order cancelled", "order": order})
}
