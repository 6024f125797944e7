// Package apperr defines sentinel errors shared across the application.
package apperr

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrFieldNotFound      = errors.New("field not found")
	ErrAlreadyExists      = errors.New("already exists")
)
