package core

import "errors"

var (
	// ErrInvalidArgument is returned when an operation is called with arguments
	// outside its domain (e.g. a subset size k < 2 or k > n).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMalformedMatrix is returned when a correlation matrix is not square,
	// not symmetric, lacks a unit diagonal or holds values outside [-1, 1].
	ErrMalformedMatrix = errors.New("malformed correlation matrix")
)
