package controllers

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"petopia-api/apperror"
	"petopia-api/services"
	"petopia-api/utils"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// AdminController serves the admin dashboard; routes are mounted behind the admin gate
type AdminController struct {
	base
	admin *services.AdminService
}

func NewAdminController(admin *services.AdminService, log *logrus.Logger, timeout time.Duration) *AdminController {
	return &AdminController{base: newBase(log, timeout), admin: admin}
}

func (ac *AdminController) GetUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := ac.requestContext(r)
	defer cancel()
	users, err := ac.admin.ListUsers(ctx)
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (ac *AdminController) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := ac.requestContext(r)
	defer cancel()
	if err := ac.admin.DeleteUser(ctx, mux.Vars(r)["id"]); err != nil {
		ac.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

func (ac *AdminController) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := ac.requestContext(r)
	defer cancel()
	stats, err := ac.admin.Stats(ctx)
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (ac *AdminController) GetUserOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := ac.requestContext(r)
	defer cancel()
	rows, err := ac.admin.UserOrderCounts(ctx)
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// ExportUserOrders downloads the orders-per-user report as an xlsx workbook
func (ac *AdminController) ExportUserOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := ac.requestContext(r)
	defer cancel()
	rows, err := ac.admin.UserOrderCounts(ctx)
	if err != nil {
		ac.fail(w, r, err)
		return
	}

	// render fully before writing headers so a failure can still be reported as JSON
	var buf bytes.Buffer
	if err := utils.WriteUserOrdersWorkbook(&buf, rows); err != nil {
		ac.fail(w, r, apperror.Internal("Error building report", err))
		return
	}

	filename := "user-orders-" + time.Now().UTC().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", utils.XLSXContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
