package repository

import "errors"

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrProofNotFound   = errors.New("proof not found")
	ErrCommNotFound    = errors.New("communication not found")
	ErrAdminNotFound   = errors.New("admin user not found")
)
