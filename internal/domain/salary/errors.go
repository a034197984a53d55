package salary

import "errors"

var (
	ErrSalaryNotFound           = errors.New("salary not found")
	ErrSalaryAlreadyExists      = errors.New("salary already exists for this period")
	ErrSalaryLocked             = errors.New("salary is locked")
	ErrNotApprovedOrAlreadyPaid = errors.New("salary is not approved or already paid")
	ErrAlreadySettled           = errors.New("salary is already settled")
	ErrInvalidSalaryStatus      = errors.New("salary status does not allow this operation")

	ErrLedgerEntryNotFound = errors.New("ledger entry not found")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
)
