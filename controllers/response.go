package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"petopia-api/apperror"
	"petopia-api/middleware"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxBodyBytes caps JSON and form request bodies
const maxBodyBytes = 1 << 20

// base carries what every controller needs to answer a request
type base struct {
	log     *logrus.Logger
	timeout time.Duration
}

func newBase(log *logrus.Logger, timeout time.Duration) base {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return base{log: log, timeout: timeout}
}

// requestContext bounds the store and mail calls of one request
func (b base) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), b.timeout)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// fail maps err to its status and a {"message"} body; internal errors are logged, not shown
func (b base) fail(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperror.From(err)
	entry := middleware.Entry(r.Context(), b.log).WithFields(logrus.Fields{
		"path": r.URL.Path,
		"kind": appErr.Kind.String(),
	})
	if appErr.Kind == apperror.KindInternal {
		entry.WithError(err).Error(appErr.Message)
	} else {
		entry.Debug(appErr.Message)
	}
	writeJSON(w, appErr.Kind.HTTPStatus(), map[string]string{"message": appErr.Message})
}

// decode reads a JSON body into v; an empty body leaves v untouched
func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return apperror.BadRequest("Invalid input")
}

// currentUser returns the id of the authenticated caller
func currentUser(r *http.Request) (primitive.ObjectID, error) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return primitive.NilObjectID, apperror.Unauthorized("Unauthorized")
	}
	id, err := claims.UserObjectID()
	if err != nil {
		return primitive.NilObjectID, apperror.Forbidden("Invalid token")
	}
	return id, nil
}

// Healthz reports that the process is serving requests
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
