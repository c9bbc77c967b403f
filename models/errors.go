package models

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrExists       = errors.New("already exists")
	ErrFraud        = errors.New("account flagged as fraud")
	ErrInvalidInput = errors.New("invalid input")
)
