package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/cashbook"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/company"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/correction"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/notification"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/salary"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Punch refusals carry a human readable reason
	var policyErr *attendance.PolicyError
	if errors.As(err, &policyErr) {
		UnprocessableEntity(w, "POLICY_VIOLATION", policyErr.Error())
		return
	}

	switch {
	// Identity
	case errors.Is(err, user.ErrActorMissing), errors.Is(err, user.ErrInvalidToken):
		Unauthorized(w, "Unauthorized")
	case errors.Is(err, user.ErrOwnerAccessRequired),
		errors.Is(err, user.ErrManagerAccessRequired),
		errors.Is(err, user.ErrInsufficientPermissions),
		errors.Is(err, user.ErrCompanyIDRequired),
		errors.Is(err, user.ErrEmployeeIDRequired):
		Forbidden(w, err.Error())

	// Not found
	case errors.Is(err, attendance.ErrAttendanceNotFound),
		errors.Is(err, salary.ErrSalaryNotFound),
		errors.Is(err, salary.ErrLedgerEntryNotFound),
		errors.Is(err, cashbook.ErrEntryNotFound),
		errors.Is(err, correction.ErrCorrectionNotFound),
		errors.Is(err, employee.ErrEmployeeNotFound),
		errors.Is(err, notification.ErrNotificationNotFound):
		NotFound(w, err.Error())

	// Attendance
	case errors.Is(err, attendance.ErrAlreadyOpenSession),
		errors.Is(err, attendance.ErrPunchInProgress),
		errors.Is(err, attendance.ErrDuplicateAttendance),
		errors.Is(err, attendance.ErrAlreadyInStatus):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrNoOpenSession),
		errors.Is(err, attendance.ErrCannotRejectApproved),
		errors.Is(err, attendance.ErrCannotApproveRejected),
		errors.Is(err, attendance.ErrInvalidStatusTransition),
		errors.Is(err, attendance.ErrInvalidHours):
		UnprocessableEntity(w, "INVALID_STATE", err.Error())

	// Corrections
	case errors.Is(err, correction.ErrDuplicateCorrectionRequest),
		errors.Is(err, correction.ErrCorrectionAlreadyReviewed):
		Conflict(w, err.Error())
	case errors.Is(err, correction.ErrInvalidDateRange):
		UnprocessableEntity(w, "INVALID_DATE_RANGE", err.Error())

	// Salary and money
	case errors.Is(err, salary.ErrSalaryAlreadyExists),
		errors.Is(err, salary.ErrSalaryLocked),
		errors.Is(err, salary.ErrNotApprovedOrAlreadyPaid),
		errors.Is(err, salary.ErrAlreadySettled),
		errors.Is(err, cashbook.ErrAlreadyReversed):
		Conflict(w, err.Error())
	case errors.Is(err, salary.ErrInvalidSalaryStatus),
		errors.Is(err, salary.ErrInvalidAmount),
		errors.Is(err, cashbook.ErrCannotReassignLinkedTransaction),
		errors.Is(err, cashbook.ErrLinkedEntryReversal):
		UnprocessableEntity(w, "INVALID_STATE", err.Error())

	// Company
	case errors.Is(err, company.ErrInvalidTimezone):
		UnprocessableEntity(w, "INVALID_TIMEZONE", err.Error())

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
