package controllers

import (
	"net/http"
	"time"

	"petopia-api/services"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// AddressController handles the address book of the authenticated user
type AddressController struct {
	base
	addresses *services.AddressService
}

func NewAddressController(addresses *services.AddressService, log *logrus.Logger, timeout time.Duration) *AddressController {
	return &AddressController{base: newBase(log, timeout), addresses: addresses}
}

func (ac *AddressController) GetAddresses(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		ac.fail(w, r, err)
		return
	}

	ctx, cancel := ac.requestContext(r)
	defer cancel()
	list, err := ac.addresses.List(ctx, userID)
	if err != nil {
		ac.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"addresses": list})
}

func (ac *AddressController) AddAddress(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	var in services.AddressInput
	if err := decode(w, r, &in); err != nil {
		ac.fail(w, r, err)
		return
	}

	ctx, cancel := ac.requestContext(r)
	defer cancel()
	list, err := ac.addresses.Add(ctx, userID, in)
	if err != nil {
		ac.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"message": "Address added successfully", "addresses": list})
}

func (ac *AddressController) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	var in services.AddressInput
	if err := decode(w, r, &in); err != nil {
		ac.fail(w, r, err)
		return
	}

	ctx, cancel := ac.requestContext(r)
	defer cancel()
	list, err := ac.addresses.Update(ctx, userID, mux.Vars(r)["id"], in)
	if err != nil {
		ac.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Address updated successfully", "addresses": list})
}

func (ac *AddressController) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		ac.fail(w, r, err)
		return
	}

	ctx, cancel := ac.requestContext(r)
	defer cancel()
	list, err := ac.addresses.Delete(ctx, userID, mux.Vars(r)["id"])
	if err != nil {
		ac.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Address deleted successfully", "addresses": list})
}
