package entity

import "errors"

var (
	ErrBusinessNotFound   = errors.New("business not found")
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrConnectionNotFound = errors.New("square connection not found")
	ErrJobNotFound        = errors.New("backfill job not found")
	ErrDuplicate          = errors.New("duplicate record")
)
