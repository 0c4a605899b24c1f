package company

import "errors"

var (
	ErrNotFound        = errors.New("company record not found")
	ErrInvalidCompany  = errors.New("invalid company details")
	ErrEndUserMismatch = errors.New("end user does not belong to client company")
)
