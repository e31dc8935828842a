// Package services holds the business rules behind the HTTP handlers:
// credentials and tokens, the cart engine, the address book, the order
// workflow, admin views and the feedback notification flow.
package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"petopia-api/apperror"
	"petopia-api/store"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// validateInput runs the struct tags of in and reports the first violation as BadRequest.
func validateInput(in interface{}) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.BadRequest("Invalid input")
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return apperror.BadRequest(fe.Field() + " is required")
	case "email":
		return apperror.BadRequest("Please enter a valid email")
	case "min", "max":
		return apperror.BadRequest(fmt.Sprintf("%s is out of range", fe.Field()))
	default:
		return apperror.BadRequest(fe.Field() + " is invalid")
	}
}

// lookupErr turns a store error into NotFound(msg) or an Internal error.
func lookupErr(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperror.NotFound(msg)
	}
	return apperror.Internal("Internal server error", err)
}

// parseID decodes a hex object id coming from a path or body; malformed ids
// are reported as NotFound(msg) because no record can carry them.
func parseID(hex, msg string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return primitive.NilObjectID, apperror.NotFound(msg)
	}
	return id, nil
}

// clock is embedded by services that stamp records.
type clock struct {
	now func() time.Time
}

func (c clock) Now() time.Time {
	if c.now == nil {
		return time.Now().UTC()
	}
	return c.now()
}
