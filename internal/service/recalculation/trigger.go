package recalculation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/salary"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/worker"
)

// Trigger keeps salaries in step with attendance. Scheduling never blocks the
// caller and never reports failures back to it; they are logged by the runner.
type Trigger struct {
	engine salary.Engine
	runner worker.Runner
}

func NewTrigger(engine salary.Engine, runner worker.Runner) *Trigger {
	return &Trigger{engine: engine, runner: runner}
}

var _ salary.RecalculationTrigger = (*Trigger)(nil)

type period struct {
	month, year int
}

// Schedule implements salary.RecalculationTrigger. Dates falling in the same
// month produce one task.
func (t *Trigger) Schedule(companyID, employeeID string, dates ...time.Time) {
	seen := make(map[period]struct{}, len(dates))
	for _, d := range dates {
		month, year := salary.Period(d)
		p := period{month: month, year: year}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}

		name := fmt.Sprintf("salary.refresh:%s:%04d-%02d", employeeID, year, month)
		err := t.runner.Submit(name, func(ctx context.Context) error {
			return t.Refresh(ctx, companyID, employeeID, month, year)
		})
		if err != nil {
			slog.Warn("salary refresh not scheduled",
				"company_id", companyID, "employee_id", employeeID, "month", month, "year", year, "error", err)
		}
	}
}

// Refresh recalculates a PENDING unlocked salary, generates a missing one and
// leaves every other salary untouched.
func (t *Trigger) Refresh(ctx context.Context, companyID, employeeID string, month, year int) error {
	existing, err := t.engine.FindByPeriod(ctx, companyID, employeeID, month, year)
	switch {
	case errors.Is(err, salary.ErrSalaryNotFound):
		_, err = t.engine.Generate(ctx, companyID, employeeID, month, year)
		if errors.Is(err, salary.ErrSalaryAlreadyExists) {
			return nil
		}
		return err
	case err != nil:
		return fmt.Errorf("failed to find salary for refresh: %w", err)
	case existing.Status != salary.StatusPending || existing.IsLocked():
		slog.Debug("salary refresh skipped", "salary_id", existing.ID, "status", existing.Status)
		return nil
	}

	_, err = t.engine.Recalculate(ctx, companyID, existing.ID)
	if errors.Is(err, salary.ErrSalaryLocked) {
		// paid between the read and the recalculation
		return nil
	}
	return err
}
