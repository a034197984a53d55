package user

import "errors"

var (
	ErrActorMissing            = errors.New("authenticated actor missing from context")
	ErrCompanyIDRequired       = errors.New("company ID is required")
	ErrEmployeeIDRequired      = errors.New("employee ID is required")
	ErrInvalidToken            = errors.New("invalid token")
	ErrOwnerAccessRequired     = errors.New("owner access required")
	ErrManagerAccessRequired   = errors.New("manager access required")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)
