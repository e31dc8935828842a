package models

import "strings"

// DefaultPaymentMethod is used when the client does not choose one
const DefaultPaymentMethod = "Cash on Delivery"

// NormalizePaymentMethod trims the opaque payment method and applies the default
func NormalizePaymentMethod(method string) string {
	method = strings.TrimSpace(method)
	if method == "" {
		return DefaultPaymentMethod
	}
	return method
}
