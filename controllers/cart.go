package controllers

import (
	"net/http"
	"time"

	"petopia-api/services"

	"github.com/sirupsen/logrus"
)

// CartController handles cart-related requests
type CartController struct {
	base
	carts *services.CartService
}

// NewCartController creates a new CartController
func NewCartController(carts *services.CartService, log *logrus.Logger, timeout time.Duration) *CartController {
	return &CartController{base: newBase(log, timeout), carts: carts}
}

// AddToCart adds one unit of an item to the user's cart
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		cc.fail(w, r, err)
		return
	}
	var in services.AddItemInput
	if err := decode(w, r, &in); err != nil {
		cc.fail(w, r, err)
		return
	}

	ctx, cancel := cc.requestContext(r)
	defer cancel()
	cart, err := cc.carts.AddItem(ctx, userID, in)
	if err != nil {
		cc.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Item added to cart", "cart": cart.Items})
}

// GetCart returns the items of the user's cart
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		cc.fail(w, r, err)
		return
	}

	ctx, cancel := cc.requestContext(r)
	defer cancel()
	items, err := cc.carts.GetCart(ctx, userID)
	if err != nil {
		cc.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// RemoveFromCart removes every item with the given name
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		cc.fail(w, r, err)
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := decode(w, r, &body); err != nil {
		cc.fail(w, r, err)
		return
	}

	ctx, cancel := cc.requestContext(r)
	defer cancel()
	cart, err := cc.carts.RemoveItem(ctx, userID, body.Name)
	if err != nil {
		cc.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Item removed from cart", "cart": cart.Items})
}
