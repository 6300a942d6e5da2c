// Package storage is the key/value persistence shim the ordering core saves
// its state through. Values are opaque strings, JSON in practice.
package storage

import "github.com/mrnaveenwoodworks/bistro-deluxe/internal/apperr"

// Well-known keys.
const (
	KeyCart              = "cart"
	KeyOrderConfirmation = "orderConfirmation"
)

// ErrNotFound is returned by Get when a key holds no value.
var ErrNotFound = apperr.New("not_found", "storage: key not found")

// Store is a string-valued key/value store.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}
