package salary

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/utils"
	"github.com/shopspring/decimal"
)

// GetShiftHoursForSalary returns the payable hours of a shift, capped at
// maxDailyHours. A shift ending at or before its start crosses midnight.
func GetShiftHoursForSalary(shiftStart, shiftEnd time.Time, maxDailyHours float64) float64 {
	d := shiftEnd.Sub(shiftStart)
	if d <= 0 {
		d += 24 * time.Hour
	}
	hours := d.Hours()
	if maxDailyHours > 0 && hours > maxDailyHours {
		hours = maxDailyHours
	}
	return utils.RoundHours(hours)
}

// WorkingDaysInMonth counts the days of the month that are not weekly off-days.
func WorkingDaysInMonth(year int, month time.Month, isWorkingDay func(time.Weekday) bool) int {
	n := 0
	for d := 1; d <= utils.DaysInMonth(year, month); d++ {
		if isWorkingDay(time.Date(year, month, d, 0, 0, 0, 0, time.UTC).Weekday()) {
			n++
		}
	}
	return n
}

// Attendance summary feeding the computation.
type Inputs struct {
	TotalDays     int
	ApprovedDays  int
	ApprovedHours float64
}

// Computation is the result of applying an employee's rate to a period.
type Computation struct {
	BaseRate        decimal.Decimal
	GrossAmount     decimal.Decimal
	DeductionAmount decimal.Decimal
	NetAmount       decimal.Decimal
}

// DeductionPolicy returns the statutory deduction for a gross amount.
type DeductionPolicy func(gross decimal.Decimal, e employee.Employee) decimal.Decimal

// NoDeductions is the zero policy.
func NoDeductions(decimal.Decimal, employee.Employee) decimal.Decimal {
	return decimal.Zero
}

// PercentDeduction withholds percent of gross from employees enrolled in PF/ESI.
func PercentDeduction(percent decimal.Decimal) DeductionPolicy {
	return func(gross decimal.Decimal, e employee.Employee) decimal.Decimal {
		if !e.PFESIEnabled || !percent.IsPositive() {
			return decimal.Zero
		}
		return gross.Mul(percent).Div(decimal.NewFromInt(100)).Round(2)
	}
}

var hundred = decimal.NewFromInt(100)

// Compute derives gross and net pay for the employee's salary type. A monthly
// salary is prorated as baseSalary / TotalDays per approved day.
func Compute(e employee.Employee, in Inputs, policy DeductionPolicy) (Computation, error) {
	if policy == nil {
		policy = NoDeductions
	}

	var c Computation
	switch e.SalaryType {
	case employee.SalaryTypeMonthly:
		c.BaseRate = e.BaseSalary
		if in.TotalDays > 0 {
			c.GrossAmount = e.BaseSalary.Mul(decimal.NewFromInt(int64(in.ApprovedDays))).Div(decimal.NewFromInt(int64(in.TotalDays)))
		} else {
			c.GrossAmount = decimal.Zero
		}
	case employee.SalaryTypeDaily:
		c.BaseRate = e.DailyRate
		c.GrossAmount = e.DailyRate.Mul(decimal.NewFromInt(int64(in.ApprovedDays)))
	case employee.SalaryTypeHourly:
		c.BaseRate = e.HourlyRate
		hours := decimal.NewFromFloat(in.ApprovedHours).Mul(hundred).Round(0).Div(hundred)
		c.GrossAmount = e.HourlyRate.Mul(hours)
	default:
		return Computation{}, employee.ErrInvalidSalaryType
	}

	c.GrossAmount = c.GrossAmount.Round(2)
	c.DeductionAmount = policy(c.GrossAmount, e).Round(2)
	c.NetAmount = c.GrossAmount.Sub(c.DeductionAmount)
	return c, nil
}

// Period returns the salary month and year that a civil attendance date belongs to.
func Period(date time.Time) (month, year int) {
	return int(date.Month()), date.Year()
}
