package repository

import "errors"

var (
	ErrNotFound           = errors.New("resource not found")
	ErrDuplicate          = errors.New("duplicate resource")
	ErrInvalidInput       = errors.New("invalid input data")
	ErrInsufficientStock  = errors.New("not enough stock available")
	ErrInvalidStatus      = errors.New("invalid status value")
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrOTPNotFound     = errors.New("no verification code on record")
	ErrOTPExpired      = errors.New("verification code expired")
	ErrOTPMismatch     = errors.New("verification code does not match")
	ErrAlreadyVerified = errors.New("account already verified")
)
