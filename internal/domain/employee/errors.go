package employee

import "errors"

var (
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrInvalidSalaryType  = errors.New("invalid salary type")
	ErrEmployeeIDRequired = errors.New("employee id is required")
)
