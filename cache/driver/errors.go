// Package driver holds the errors shared by the cache drivers.
package driver

import (
	"errors"
	"time"
)

// NoExpiry stores a value until it is overwritten or deleted, ignoring any
// configured default TTL.
const NoExpiry time.Duration = -1

var (
	// ErrNotFound is returned by Get when a key is absent or expired.
	ErrNotFound = errors.New("key not found")

	// ErrLimitReached is returned by the memory driver when MaxKeys is hit.
	ErrLimitReached = errors.New("max keys limit reached")
)

// Prefix joins a namespace and a key prefix the same way for every driver.
func Prefix(namespace, keyPrefix string) string {
	if namespace == "" {
		return keyPrefix
	}
	return namespace + ":" + keyPrefix
}
