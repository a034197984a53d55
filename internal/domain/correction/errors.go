package correction

import (
	"errors"
	"fmt"
)

var (
	ErrCorrectionNotFound         = errors.New("correction request not found")
	ErrDuplicateCorrectionRequest = errors.New("a correction of this type already exists for this date")
	ErrCorrectionAlreadyReviewed  = errors.New("correction request has already been reviewed")
	ErrInvalidDateRange           = errors.New("invalid date range")

	// Both unwrap to ErrInvalidDateRange.
	ErrDateOutsideWindow = fmt.Errorf("%w: correction date is outside the allowed window", ErrInvalidDateRange)
	ErrFutureDate        = fmt.Errorf("%w: correction date cannot be in the future", ErrInvalidDateRange)
)
